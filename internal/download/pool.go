package download

import (
	"context"
	"log/slog"
	"sync"

	"podfetch/internal/catalog"
)

// TransferFunc moves one episode's media to local disk.
type TransferFunc func(ctx context.Context, ep catalog.Episode) error

// CompleteFunc records a finished transfer in durable state.
type CompleteFunc func(ctx context.Context, ep catalog.Episode) error

// Failure pairs a failed episode with its cause.
type Failure struct {
	Episode catalog.Episode
	Err     error
}

// Summary reports what one pool run did.
type Summary struct {
	Downloaded int
	Failed     int
	Failures   []Failure
	// StateErrors lists completion marks that could not be written. The
	// files landed, so the affected episodes may be fetched again next run.
	StateErrors []Failure
}

// Pool runs transfers with bounded parallelism over a shared pending queue.
type Pool struct {
	workers  int
	transfer TransferFunc
	complete CompleteFunc
	logger   *slog.Logger
}

// NewPool builds a pool. Parallelism below 1 is clamped to 1. complete may
// be nil when nothing needs to be recorded (dry runs).
func NewPool(workers int, transfer TransferFunc, complete CompleteFunc, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{workers: workers, transfer: transfer, complete: complete, logger: logger}
}

// Run drains episodes through the pool and blocks until every worker has
// finished. A transfer failure is recorded and the worker moves on; nothing
// aborts the pool except context cancellation, which stops workers from
// pulling further tasks while in-flight transfers wind down.
func (p *Pool) Run(ctx context.Context, episodes []catalog.Episode) Summary {
	jobs := make(chan catalog.Episode)
	var (
		mu      sync.Mutex
		summary Summary
		wg      sync.WaitGroup
	)

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range jobs {
				err := p.transfer(ctx, ep)
				if err != nil {
					p.logger.Warn("transfer failed",
						slog.String("podcast", ep.Podcast),
						slog.String("url", ep.SourceURL),
						slog.String("error", err.Error()))
					mu.Lock()
					summary.Failed++
					summary.Failures = append(summary.Failures, Failure{Episode: ep, Err: err})
					mu.Unlock()
					continue
				}

				if p.complete != nil {
					if markErr := p.complete(ctx, ep); markErr != nil {
						// The file is in place; losing the mark only risks a
						// duplicate download next run.
						p.logger.Error("failed to record completion",
							slog.String("podcast", ep.Podcast),
							slog.String("url", ep.SourceURL),
							slog.String("error", markErr.Error()))
						mu.Lock()
						summary.Downloaded++
						summary.StateErrors = append(summary.StateErrors, Failure{Episode: ep, Err: markErr})
						mu.Unlock()
						continue
					}
				}

				p.logger.Info("episode downloaded",
					slog.String("podcast", ep.Podcast),
					slog.String("file", ep.Filename))
				mu.Lock()
				summary.Downloaded++
				mu.Unlock()
			}
		}()
	}

feed:
	for _, ep := range episodes {
		select {
		case jobs <- ep:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return summary
}
