package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/deevus/ragdeck-tui/internal/logging"
)

// Defaults applied to unset [refresh] and [log] fields.
const (
	DefaultPollInterval    = 10 * time.Second
	DefaultSearchDebounce  = 300 * time.Millisecond
	DefaultPageSize        = 10
	DefaultVectorCacheSize = 256
	DefaultStaleTTL        = 30 * time.Second
	DefaultLogLevel        = "info"
)

// Config is the top-level configuration.
type Config struct {
	Servers map[string]ServerConfig `toml:"servers"`
	Refresh RefreshConfig           `toml:"refresh"`
	Log     LogConfig               `toml:"log"`
}

// ServerConfig holds connection details for one backend.
type ServerConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	// Owner is the identity whose event stream the console listens on.
	// Without it pages fall back to polling.
	Owner              string  `toml:"owner"`
	InsecureSkipVerify bool    `toml:"insecure_skip_verify"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
}

// RefreshConfig tunes the update machinery. Durations are TOML strings
// such as "10s" or "300ms".
type RefreshConfig struct {
	PollInterval    time.Duration `toml:"poll_interval"`
	SearchDebounce  time.Duration `toml:"search_debounce"`
	PageSize        int           `toml:"page_size"`
	VectorCacheSize int           `toml:"vector_cache_size"`
	// HeartbeatTimeout treats a silent event stream as dropped. Zero
	// leaves detection to the transport.
	HeartbeatTimeout time.Duration `toml:"heartbeat_timeout"`
	StaleTTL         time.Duration `toml:"stale_ttl"`
}

// LogConfig selects the log file and level.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// DefaultPath returns the default config file path using XDG conventions.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "ragdeck-tui", "config.toml")
}

// LoadFrom reads and parses the config file at the given path, then
// applies defaults and validates every server profile.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("config has no servers defined")
	}
	for name, server := range cfg.Servers {
		server.BaseURL = strings.TrimRight(server.BaseURL, "/")
		if server.BaseURL == "" {
			return nil, fmt.Errorf("server %q: base_url is required", name)
		}
		if server.RequestsPerSecond < 0 {
			return nil, fmt.Errorf("server %q: requests_per_second must not be negative", name)
		}
		cfg.Servers[name] = server
	}
	if err := cfg.Refresh.applyDefaults(); err != nil {
		return nil, err
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = logging.DefaultPath()
	}
	cfg.Log.Path = expandPath(cfg.Log.Path)
	return &cfg, nil
}

func (r *RefreshConfig) applyDefaults() error {
	if r.PollInterval < 0 || r.SearchDebounce < 0 || r.HeartbeatTimeout < 0 || r.StaleTTL < 0 {
		return fmt.Errorf("refresh: durations must not be negative")
	}
	if r.PageSize < 0 || r.VectorCacheSize < 0 {
		return fmt.Errorf("refresh: sizes must not be negative")
	}
	if r.PollInterval == 0 {
		r.PollInterval = DefaultPollInterval
	}
	if r.SearchDebounce == 0 {
		r.SearchDebounce = DefaultSearchDebounce
	}
	if r.PageSize == 0 {
		r.PageSize = DefaultPageSize
	}
	if r.VectorCacheSize == 0 {
		r.VectorCacheSize = DefaultVectorCacheSize
	}
	if r.StaleTTL == 0 {
		r.StaleTTL = DefaultStaleTTL
	}
	return nil
}

// expandPath expands ~ to $HOME and then expands all environment variables.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = "$HOME" + path[1:]
	}
	return os.ExpandEnv(path)
}

// ServerNames returns the sorted list of server profile names.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
