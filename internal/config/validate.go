package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks structural configuration invariants. Substitution rules
// are deliberately not compiled here: a malformed rule is a per-podcast
// failure reported when a run starts, not a reason to reject the whole file.
func (c *Config) Validate() error {
	var problems []string

	if c.Downloads.Parallel < 1 {
		problems = append(problems, "downloads.parallel must be at least 1")
	}
	if c.Downloads.TimeoutSeconds < 1 {
		problems = append(problems, "downloads.timeout_seconds must be at least 1")
	}
	if c.Downloads.FeedTimeoutSeconds < 1 {
		problems = append(problems, "downloads.feed_timeout_seconds must be at least 1")
	}
	if c.Downloads.Limit < 0 {
		problems = append(problems, "downloads.limit must not be negative")
	}

	seen := make(map[string]struct{}, len(c.Podcasts))
	for i, p := range c.Podcasts {
		label := p.Name
		if label == "" {
			label = fmt.Sprintf("podcast #%d", i+1)
			problems = append(problems, fmt.Sprintf("%s: name is required", label))
		}
		if _, dup := seen[p.Name]; dup && p.Name != "" {
			problems = append(problems, fmt.Sprintf("%s: duplicate podcast name", label))
		}
		seen[p.Name] = struct{}{}

		if p.FeedURL == "" {
			problems = append(problems, fmt.Sprintf("%s: feed_url is required", label))
		} else if parsed, err := url.Parse(p.FeedURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("%s: feed_url %q is not a valid URL", label, p.FeedURL))
		}
		if p.Limit != nil && *p.Limit < 0 {
			problems = append(problems, fmt.Sprintf("%s: limit must not be negative", label))
		}
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console, json)", c.Logging.Format))
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
}
