package testsupport

import (
	"path/filepath"
	"testing"

	"podfetch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.DownloadDir = filepath.Join(base, "podcasts")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Downloads.Parallel = 2
	cfg.Downloads.TimeoutSeconds = 10
	cfg.Downloads.FeedTimeoutSeconds = 10

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPodcast appends a podcast whose destination directory defaults under
// the test download dir.
func WithPodcast(p config.Podcast) ConfigOption {
	return func(cfg *config.Config) {
		if p.DestDir == "" {
			p.DestDir = filepath.Join(cfg.Paths.DownloadDir, p.Name)
		}
		cfg.Podcasts = append(cfg.Podcasts, p)
	}
}

// WithParallel overrides the download parallelism.
func WithParallel(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Downloads.Parallel = n
	}
}
