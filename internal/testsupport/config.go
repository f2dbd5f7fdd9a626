package testsupport

import (
	"path/filepath"
	"testing"

	"revq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Gateway.BaseURL = "http://127.0.0.1:0"
	cfg.Gateway.APIToken = "test-token"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithGatewayURL overrides the gateway endpoint on the test config.
func WithGatewayURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Gateway.BaseURL = url
	}
}

// WithFeed points the change feed at the given redis address.
func WithFeed(redisURL, channel string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Feed.RedisURL = redisURL
		cfg.Feed.Channel = channel
	}
}

// WithAuditEndpoint sets the decision audit sink endpoint.
func WithAuditEndpoint(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Audit.Endpoint = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
