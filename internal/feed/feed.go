package feed

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one media enclosure discovered in a feed.
type Entry struct {
	SourceURL string
	Title     string
	Published time.Time
	Length    int64
}

// Fetcher downloads and parses podcast feeds.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher returns a Fetcher whose HTTP requests are bounded by timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "podfetch"
	return &Fetcher{parser: parser}
}

// Fetch retrieves feedURL and returns its enclosure entries in feed order.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		enclosure := firstEnclosure(item)
		if enclosure == nil {
			continue
		}
		entry := Entry{
			SourceURL: strings.TrimSpace(enclosure.URL),
			Title:     strings.TrimSpace(item.Title),
		}
		if entry.SourceURL == "" {
			continue
		}
		if item.PublishedParsed != nil {
			entry.Published = item.PublishedParsed.UTC()
		}
		if length, err := strconv.ParseInt(enclosure.Length, 10, 64); err == nil {
			entry.Length = length
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func firstEnclosure(item *gofeed.Item) *gofeed.Enclosure {
	for _, enc := range item.Enclosures {
		if enc != nil && strings.TrimSpace(enc.URL) != "" {
			return enc
		}
	}
	return nil
}
