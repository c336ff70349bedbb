package history_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"podfetch/internal/catalog"
	"podfetch/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	totals, err := store.Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if totals.Episodes != 0 {
		t.Fatalf("expected empty store, got %d episodes", totals.Episodes)
	}
}

func TestRecordDiscoveredIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episodes := []catalog.Episode{
		{Podcast: "show", SourceURL: "https://example.com/1.mp3", Filename: "1.mp3", Published: time.Now()},
		{Podcast: "show", SourceURL: "https://example.com/2.mp3", Filename: "2.mp3"},
	}

	if err := store.RecordDiscovered(ctx, episodes); err != nil {
		t.Fatalf("RecordDiscovered failed: %v", err)
	}
	if err := store.RecordDiscovered(ctx, episodes); err != nil {
		t.Fatalf("second RecordDiscovered failed: %v", err)
	}

	totals, err := store.Stats(ctx, "show")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if totals.Episodes != 2 || totals.Downloaded != 0 || totals.Pending != 2 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestMarkCompleteUpdatesAndUpserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.RecordDiscovered(ctx, []catalog.Episode{
		{Podcast: "show", SourceURL: "https://example.com/1.mp3", Filename: "1.mp3"},
	}); err != nil {
		t.Fatalf("RecordDiscovered failed: %v", err)
	}

	if err := store.MarkComplete(ctx, "show", "https://example.com/1.mp3", "renamed.mp3"); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}

	// Upsert path: the episode was never discovered.
	if err := store.MarkComplete(ctx, "show", "https://example.com/orphan.mp3", "orphan.mp3"); err != nil {
		t.Fatalf("MarkComplete upsert failed: %v", err)
	}

	completed, err := store.Completed(ctx, "show")
	if err != nil {
		t.Fatalf("Completed failed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed urls, got %d", len(completed))
	}
	if _, ok := completed["https://example.com/1.mp3"]; !ok {
		t.Fatal("missing completion mark for discovered episode")
	}

	records, err := store.List(ctx, "show")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, r := range records {
		if r.URL == "https://example.com/1.mp3" {
			if r.Filename != "renamed.mp3" {
				t.Fatalf("filename not updated: %q", r.Filename)
			}
			if r.CompletedAt == nil {
				t.Fatal("completed_at not set")
			}
		}
	}
}

func TestCompletedIsScopedToPodcast(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.MarkComplete(ctx, "a", "https://example.com/shared.mp3", "shared.mp3"); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}

	completed, err := store.Completed(ctx, "b")
	if err != nil {
		t.Fatalf("Completed failed: %v", err)
	}
	if len(completed) != 0 {
		t.Fatalf("podcast b should have no completions, got %d", len(completed))
	}
}

func TestMarkCompleteConcurrentWriters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			url := fmt.Sprintf("https://example.com/%d.mp3", n)
			errs <- store.MarkComplete(ctx, "show", url, fmt.Sprintf("%d.mp3", n))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent MarkComplete failed: %v", err)
		}
	}

	completed, err := store.Completed(ctx, "show")
	if err != nil {
		t.Fatalf("Completed failed: %v", err)
	}
	if len(completed) != workers {
		t.Fatalf("expected %d completions, got %d", workers, len(completed))
	}
}
