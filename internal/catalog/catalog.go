package catalog

import (
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"podfetch/internal/feed"
	"podfetch/internal/subrule"
)

// Episode is one media item scheduled for this run.
type Episode struct {
	Podcast   string
	SourceURL string
	Title     string
	Filename  string
	Published time.Time
	Length    int64
}

// fileNameReplacer strips characters that cannot appear in a filename. A
// rule output containing slashes would otherwise escape the podcast
// directory.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// ResolveFilename computes the local filename for a source URL. A configured
// rule wins when its pattern matches; otherwise the percent-decoded final
// path segment of the URL is used.
func ResolveFilename(rule *subrule.Rule, sourceURL string) string {
	var name string
	if rule != nil && rule.Matches(sourceURL) {
		name = rule.Apply(sourceURL)
	} else {
		name = urlBasename(sourceURL)
	}
	name = norm.NFC.String(strings.TrimSpace(name))
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

func urlBasename(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return path.Base(sourceURL)
	}
	base := path.Base(parsed.Path)
	if base == "." || base == "/" {
		return ""
	}
	if decoded, err := url.PathUnescape(base); err == nil {
		return decoded
	}
	return base
}

// Reconcile merges fetched entries with the set of already-completed source
// URLs. It returns the episodes still to download, in feed order with
// duplicate identity keys dropped (first occurrence wins), and the count of
// entries already marked complete.
func Reconcile(podcast string, rule *subrule.Rule, entries []feed.Entry, completed map[string]struct{}) (toDownload []Episode, alreadyDone int) {
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, dup := seen[entry.SourceURL]; dup {
			continue
		}
		seen[entry.SourceURL] = struct{}{}

		if _, done := completed[entry.SourceURL]; done {
			alreadyDone++
			continue
		}
		toDownload = append(toDownload, Episode{
			Podcast:   podcast,
			SourceURL: entry.SourceURL,
			Title:     entry.Title,
			Filename:  ResolveFilename(rule, entry.SourceURL),
			Published: entry.Published,
			Length:    entry.Length,
		})
	}
	return toDownload, alreadyDone
}
