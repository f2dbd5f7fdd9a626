package config

const (
	defaultStateDir              = "~/.local/share/revq/state"
	defaultLogDir                = "~/.local/share/revq/logs"
	defaultGatewayTimeout        = 15
	defaultPageSize              = 50
	defaultFeedChannel           = "review-queue-changes"
	defaultFeedReconnectSeconds  = 5
	defaultAuditTimeout          = 10
	defaultSort                  = "newest"
	defaultReplayInterval        = 30
	defaultCacheStalenessMinutes = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Gateway: Gateway{
			RequestTimeout: defaultGatewayTimeout,
			PageSize:       defaultPageSize,
		},
		Feed: Feed{
			Channel:          defaultFeedChannel,
			ReconnectSeconds: defaultFeedReconnectSeconds,
		},
		Audit: Audit{
			RequestTimeout: defaultAuditTimeout,
		},
		Engine: Engine{
			DefaultSort:           defaultSort,
			ReplayInterval:        defaultReplayInterval,
			CacheStalenessMinutes: defaultCacheStalenessMinutes,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
