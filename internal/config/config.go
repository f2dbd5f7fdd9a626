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

// Paths contains directory configuration for local durable state.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Gateway contains configuration for the remote review queue service.
type Gateway struct {
	BaseURL        string `toml:"base_url"`
	APIToken       string `toml:"api_token"`
	RequestTimeout int    `toml:"request_timeout"`
	PageSize       int    `toml:"page_size"`
}

// Feed contains configuration for the change feed subscription.
type Feed struct {
	RedisURL         string `toml:"redis_url"`
	Channel          string `toml:"channel"`
	ReconnectSeconds int    `toml:"reconnect_seconds"`
}

// Audit contains configuration for the decision audit sink.
type Audit struct {
	Endpoint       string `toml:"endpoint"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Engine contains tuning knobs for queue synchronization.
type Engine struct {
	DefaultSort           string `toml:"default_sort"`
	ReplayInterval        int    `toml:"replay_interval"`
	CacheStalenessMinutes int    `toml:"cache_staleness_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for revq.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Gateway: remote queue endpoint, token, timeouts, paging
//   - Feed: redis change feed connection
//   - Audit: decision audit sink endpoint
//   - Engine: sync defaults and replay cadence
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Gateway Gateway `toml:"gateway"`
	Feed    Feed    `toml:"feed"`
	Audit   Audit   `toml:"audit"`
	Engine  Engine  `toml:"engine"`
	Logging Logging `toml:"logging"`
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/revq/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found at the resolved path.
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

	projectPath, err := filepath.Abs("revq.toml")
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
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	c.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gateway.BaseURL), "/")
	if c.Gateway.APIToken == "" {
		c.Gateway.APIToken = strings.TrimSpace(os.Getenv("REVQ_API_TOKEN"))
	}
	if c.Gateway.RequestTimeout <= 0 {
		c.Gateway.RequestTimeout = defaultGatewayTimeout
	}
	if c.Gateway.PageSize <= 0 {
		c.Gateway.PageSize = defaultPageSize
	}

	c.Feed.RedisURL = strings.TrimSpace(c.Feed.RedisURL)
	if c.Feed.Channel == "" {
		c.Feed.Channel = defaultFeedChannel
	}
	if c.Feed.ReconnectSeconds <= 0 {
		c.Feed.ReconnectSeconds = defaultFeedReconnectSeconds
	}

	c.Audit.Endpoint = strings.TrimSpace(c.Audit.Endpoint)
	if c.Audit.RequestTimeout <= 0 {
		c.Audit.RequestTimeout = defaultAuditTimeout
	}

	c.Engine.DefaultSort = strings.ToLower(strings.TrimSpace(c.Engine.DefaultSort))
	if c.Engine.DefaultSort == "" {
		c.Engine.DefaultSort = defaultSort
	}
	if c.Engine.ReplayInterval <= 0 {
		c.Engine.ReplayInterval = defaultReplayInterval
	}
	if c.Engine.CacheStalenessMinutes <= 0 {
		c.Engine.CacheStalenessMinutes = defaultCacheStalenessMinutes
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}

// EnsureDirectories creates the directories required for local state.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ActionLogPath returns the location of the pending action database.
func (c *Config) ActionLogPath() string {
	return filepath.Join(c.Paths.StateDir, "actions.db")
}

// QueueCachePath returns the location of the queue snapshot cache.
func (c *Config) QueueCachePath() string {
	return filepath.Join(c.Paths.StateDir, "queue-cache.json")
}

// LockPath returns the location of the session lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "revq.lock")
}

// ClientIDPath returns the location of the persisted session client id.
func (c *Config) ClientIDPath() string {
	return filepath.Join(c.Paths.StateDir, "client_id")
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample configuration to target.
func CreateSample(target string) error {
	if err := os.WriteFile(target, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
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
