package config

const (
	defaultStateDir               = "~/.local/share/podfetch"
	defaultDownloadDir            = "~/podcasts"
	defaultLogDir                 = "~/.local/share/podfetch/logs"
	defaultParallel               = 4
	defaultTransferTimeoutSeconds = 600
	defaultFeedTimeoutSeconds     = 30
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:    defaultStateDir,
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
		},
		Downloads: Downloads{
			Parallel:           defaultParallel,
			TimeoutSeconds:     defaultTransferTimeoutSeconds,
			FeedTimeoutSeconds: defaultFeedTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
