package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir    string `toml:"state_dir"`
	DownloadDir string `toml:"download_dir"`
	LogDir      string `toml:"log_dir"`
}

// Downloads contains transfer tuning knobs.
type Downloads struct {
	// Parallel is the number of simultaneous transfers.
	Parallel int `toml:"parallel"`
	// TimeoutSeconds bounds a single transfer, connection through last byte.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// FeedTimeoutSeconds bounds a single feed fetch.
	FeedTimeoutSeconds int `toml:"feed_timeout_seconds"`
	// Limit caps how many pending episodes are downloaded per podcast per
	// run, in feed order. Zero means no cap.
	Limit int `toml:"limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Podcast declares one subscribed feed.
type Podcast struct {
	Name    string `toml:"name"`
	FeedURL string `toml:"feed_url"`
	// Rule is an optional sed-style substitution rule applied to each
	// enclosure URL to derive the local filename.
	Rule    string `toml:"rule"`
	DestDir string `toml:"dest_dir"`
	Enabled *bool  `toml:"enabled"`
	DryRun  bool   `toml:"dry_run"`
	// Limit overrides downloads.limit for this podcast when set.
	Limit *int `toml:"limit"`
}

// IsEnabled reports whether the podcast participates in runs. Absent means
// enabled.
func (p Podcast) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// EpisodeLimit returns the effective per-run download cap for this podcast.
func (p Podcast) EpisodeLimit(fallback int) int {
	if p.Limit != nil {
		return *p.Limit
	}
	return fallback
}

// Config encapsulates all configuration values for podfetch.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Downloads Downloads `toml:"downloads"`
	Logging   Logging   `toml:"logging"`
	Podcasts  []Podcast `toml:"podcast"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podfetch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podfetch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = expandPath(defaultString(c.Paths.StateDir, defaultStateDir)); err != nil {
		return err
	}
	if c.Paths.DownloadDir, err = expandPath(defaultString(c.Paths.DownloadDir, defaultDownloadDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(defaultString(c.Paths.LogDir, defaultLogDir)); err != nil {
		return err
	}

	if c.Downloads.Parallel == 0 {
		c.Downloads.Parallel = defaultParallel
	}
	if c.Downloads.TimeoutSeconds == 0 {
		c.Downloads.TimeoutSeconds = defaultTransferTimeoutSeconds
	}
	if c.Downloads.FeedTimeoutSeconds == 0 {
		c.Downloads.FeedTimeoutSeconds = defaultFeedTimeoutSeconds
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(defaultString(c.Logging.Format, defaultLogFormat)))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(defaultString(c.Logging.Level, defaultLogLevel)))

	for i := range c.Podcasts {
		p := &c.Podcasts[i]
		p.Name = strings.TrimSpace(p.Name)
		p.FeedURL = strings.TrimSpace(p.FeedURL)
		p.Rule = strings.TrimSpace(p.Rule)
		if strings.TrimSpace(p.DestDir) == "" {
			p.DestDir = filepath.Join(c.Paths.DownloadDir, p.Name)
		}
		if p.DestDir, err = expandPath(p.DestDir); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDirectories creates the directories a run needs. Per-podcast
// destination directories are created lazily by the downloader.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.DownloadDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
