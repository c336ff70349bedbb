package run

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"podfetch/internal/catalog"
	"podfetch/internal/config"
	"podfetch/internal/download"
	"podfetch/internal/feed"
	"podfetch/internal/history"
	"podfetch/internal/subrule"
)

// Mode selects how much of a run executes.
type Mode int

const (
	// ModeFull fetches feeds, records discoveries, and downloads.
	ModeFull Mode = iota
	// ModeRefreshOnly fetches feeds and records discoveries but never
	// schedules a transfer.
	ModeRefreshOnly
)

// FeedFetcher retrieves a feed's enclosure entries.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]feed.Entry, error)
}

// MediaClient transfers one episode into a destination directory.
type MediaClient interface {
	Fetch(ctx context.Context, ep catalog.Episode, destDir string) error
}

// Runner executes runs against a config and history store.
type Runner struct {
	cfg     *config.Config
	store   *history.Store
	fetcher FeedFetcher
	client  MediaClient
	logger  *slog.Logger
}

// Option customizes a Runner, mainly for tests.
type Option func(*Runner)

// WithFetcher replaces the default feed fetcher.
func WithFetcher(f FeedFetcher) Option {
	return func(r *Runner) { r.fetcher = f }
}

// WithClient replaces the default media client.
func WithClient(c MediaClient) Option {
	return func(r *Runner) { r.client = c }
}

// New builds a Runner with fetcher and client derived from the config.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		cfg:     cfg,
		store:   store,
		fetcher: feed.NewFetcher(time.Duration(cfg.Downloads.FeedTimeoutSeconds) * time.Second),
		client:  download.NewClient(time.Duration(cfg.Downloads.TimeoutSeconds)*time.Second, cfg.Downloads.Parallel == 1),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce processes every configured podcast once. Feeds are refreshed
// concurrently (bounded by the download parallelism); downloads then run
// podcast by podcast through one bounded pool each, so total in-flight
// transfers never exceed the configured limit.
func (r *Runner) RunOnce(ctx context.Context, mode Mode) ([]Report, error) {
	podcasts := r.cfg.Podcasts
	reports := make([]Report, len(podcasts))
	rules := make([]*subrule.Rule, len(podcasts))
	entries := make([][]feed.Entry, len(podcasts))

	for i, p := range podcasts {
		reports[i] = Report{Podcast: p.Name, DryRun: p.DryRun}
		if !p.IsEnabled() {
			reports[i].Disabled = true
			r.logger.Debug("podcast disabled", slog.String("podcast", p.Name))
			continue
		}
		if p.Rule != "" {
			rule, err := subrule.Parse(p.Rule)
			if err != nil {
				reports[i].Err = fmt.Errorf("substitution rule: %w", err)
				r.logger.Error("rule rejected",
					slog.String("podcast", p.Name),
					slog.String("error", err.Error()))
				continue
			}
			rules[i] = rule
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.cfg.Downloads.Parallel)
	for i, p := range podcasts {
		if reports[i].Disabled || reports[i].Err != nil {
			continue
		}
		i, p := i, p
		group.Go(func() error {
			fetched, err := r.fetcher.Fetch(groupCtx, p.FeedURL)
			if err != nil {
				reports[i].Err = err
				r.logger.Warn("feed fetch failed",
					slog.String("podcast", p.Name),
					slog.String("error", err.Error()))
				return nil
			}
			entries[i] = fetched
			r.logger.Debug("feed refreshed",
				slog.String("podcast", p.Name),
				slog.Int("items", len(fetched)))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return reports, err
	}

	for i, p := range podcasts {
		if reports[i].Disabled || reports[i].Err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r.processPodcast(ctx, mode, p, rules[i], entries[i], &reports[i])
	}

	return reports, ctx.Err()
}

func (r *Runner) processPodcast(ctx context.Context, mode Mode, p config.Podcast, rule *subrule.Rule, fetched []feed.Entry, report *Report) {
	report.Discovered = len(fetched)

	completed, err := r.store.Completed(ctx, p.Name)
	if err != nil {
		report.Err = fmt.Errorf("load history: %w", err)
		return
	}

	toDownload, alreadyDone := catalog.Reconcile(p.Name, rule, fetched, completed)
	report.New = len(toDownload)
	report.AlreadyDone = alreadyDone

	if err := r.store.RecordDiscovered(ctx, toDownload); err != nil {
		report.Err = fmt.Errorf("record discoveries: %w", err)
		return
	}

	if mode == ModeRefreshOnly || p.DryRun {
		r.logger.Info("refresh complete",
			slog.String("podcast", p.Name),
			slog.Int("new", report.New),
			slog.Int("already_done", report.AlreadyDone))
		return
	}

	if limit := p.EpisodeLimit(r.cfg.Downloads.Limit); limit > 0 && len(toDownload) > limit {
		toDownload = toDownload[:limit]
	}
	if len(toDownload) == 0 {
		return
	}

	r.logger.Info("downloading episodes",
		slog.String("podcast", p.Name),
		slog.Int("count", len(toDownload)),
		slog.Int("parallel", r.cfg.Downloads.Parallel))

	pool := download.NewPool(
		r.cfg.Downloads.Parallel,
		func(ctx context.Context, ep catalog.Episode) error {
			return r.client.Fetch(ctx, ep, p.DestDir)
		},
		func(ctx context.Context, ep catalog.Episode) error {
			return r.store.MarkComplete(ctx, ep.Podcast, ep.SourceURL, ep.Filename)
		},
		r.logger,
	)
	summary := pool.Run(ctx, toDownload)

	report.Downloaded = summary.Downloaded
	report.Failed = summary.Failed
	report.Failures = summary.Failures
	report.StateErrors = summary.StateErrors
}
