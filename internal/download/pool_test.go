package download_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"podfetch/internal/catalog"
	"podfetch/internal/download"
)

func episodes(n int) []catalog.Episode {
	eps := make([]catalog.Episode, n)
	for i := range eps {
		eps[i] = catalog.Episode{
			Podcast:   "show",
			SourceURL: fmt.Sprintf("https://example.com/%d.mp3", i),
			Filename:  fmt.Sprintf("%d.mp3", i),
		}
	}
	return eps
}

func TestPoolRespectsParallelismLimit(t *testing.T) {
	const workers = 3
	var inFlight, peak atomic.Int64

	transfer := func(ctx context.Context, ep catalog.Episode) error {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	}

	pool := download.NewPool(workers, transfer, nil, nil)
	summary := pool.Run(context.Background(), episodes(20))

	if summary.Downloaded != 20 {
		t.Fatalf("downloaded = %d, want 20", summary.Downloaded)
	}
	if got := peak.Load(); got > workers {
		t.Fatalf("observed %d concurrent transfers, limit is %d", got, workers)
	}
}

func TestPoolIsolatesFailures(t *testing.T) {
	boom := errors.New("network down")
	transfer := func(ctx context.Context, ep catalog.Episode) error {
		if ep.Filename == "2.mp3" || ep.Filename == "4.mp3" {
			return boom
		}
		return nil
	}

	var mu sync.Mutex
	completed := map[string]struct{}{}
	complete := func(ctx context.Context, ep catalog.Episode) error {
		mu.Lock()
		defer mu.Unlock()
		completed[ep.SourceURL] = struct{}{}
		return nil
	}

	pool := download.NewPool(2, transfer, complete, nil)
	summary := pool.Run(context.Background(), episodes(6))

	if summary.Downloaded != 4 {
		t.Fatalf("downloaded = %d, want 4", summary.Downloaded)
	}
	if summary.Failed != 2 || len(summary.Failures) != 2 {
		t.Fatalf("failed = %d (%d failures), want 2", summary.Failed, len(summary.Failures))
	}
	for _, f := range summary.Failures {
		if !errors.Is(f.Err, boom) {
			t.Fatalf("failure cause = %v, want %v", f.Err, boom)
		}
	}
	if len(completed) != 4 {
		t.Fatalf("complete callback ran %d times, want 4", len(completed))
	}
}

func TestPoolSurfacesStateWriteErrors(t *testing.T) {
	markErr := errors.New("disk full")
	transfer := func(ctx context.Context, ep catalog.Episode) error { return nil }
	complete := func(ctx context.Context, ep catalog.Episode) error { return markErr }

	pool := download.NewPool(1, transfer, complete, nil)
	summary := pool.Run(context.Background(), episodes(3))

	// The files landed, so they count as downloaded, but the lost marks are
	// reported for the operator.
	if summary.Downloaded != 3 {
		t.Fatalf("downloaded = %d, want 3", summary.Downloaded)
	}
	if len(summary.StateErrors) != 3 {
		t.Fatalf("state errors = %d, want 3", len(summary.StateErrors))
	}
	if summary.Failed != 0 {
		t.Fatalf("failed = %d, want 0", summary.Failed)
	}
}

func TestPoolStopsEnqueuingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var started atomic.Int64
	transfer := func(ctx context.Context, ep catalog.Episode) error {
		if started.Add(1) == 1 {
			cancel()
		}
		return nil
	}

	pool := download.NewPool(1, transfer, nil, nil)
	summary := pool.Run(ctx, episodes(50))

	if got := started.Load(); got >= 50 {
		t.Fatalf("cancellation did not stop the queue: %d transfers started", got)
	}
	if summary.Downloaded == 0 {
		t.Fatal("expected at least the first transfer to finish")
	}
}
