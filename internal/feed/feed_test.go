package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"podfetch/internal/feed"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Show</title>
    <item>
      <title>Episode Two</title>
      <pubDate>Tue, 11 Aug 2026 08:00:00 GMT</pubDate>
      <enclosure url="https://media.example.com/ep2.mp3" length="2048" type="audio/mpeg"/>
    </item>
    <item>
      <title>Show notes only</title>
      <pubDate>Mon, 10 Aug 2026 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Episode One</title>
      <pubDate>Sun, 09 Aug 2026 08:00:00 GMT</pubDate>
      <enclosure url="https://media.example.com/ep1.mp3" length="not-a-number" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

func TestFetchReturnsEnclosuresInFeedOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	entries, err := feed.NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (items without enclosures are skipped)", len(entries))
	}
	if entries[0].SourceURL != "https://media.example.com/ep2.mp3" {
		t.Fatalf("feed order not preserved: first entry %q", entries[0].SourceURL)
	}
	if entries[0].Title != "Episode Two" {
		t.Fatalf("title = %q", entries[0].Title)
	}
	if entries[0].Length != 2048 {
		t.Fatalf("length = %d, want 2048", entries[0].Length)
	}
	if entries[0].Published.IsZero() {
		t.Fatal("published time not parsed")
	}
	// Unparseable lengths degrade to zero rather than failing the fetch.
	if entries[1].Length != 0 {
		t.Fatalf("length = %d, want 0", entries[1].Length)
	}
}

func TestFetchReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := feed.NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFetchReportsUnparsableFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	if _, err := feed.NewFetcher(5 * time.Second).Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for invalid feed body")
	}
}
