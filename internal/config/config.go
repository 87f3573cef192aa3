// ABOUTME: Configuration loading and parsing for the bloop client and dev server
// ABOUTME: YAML or TOML by extension, with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that overrides the config path.
const EnvConfigPath = "BLOOP_CONFIG"

// Defaults applied before the file is decoded.
const (
	DefaultBaseURL         = "http://localhost:7878"
	DefaultUserID          = "local"
	DefaultStallTimeout    = "2m"
	DefaultRequestTimeout  = "30s"
	DefaultMaxEventSize    = 64 * 1024
	DefaultDriver          = "sqlite"
	DefaultDevServerAddr   = "localhost:7878"
	DefaultTokensPerSecond = 20.0
	DefaultMaxSnippets     = 5
	DefaultCacheTTL        = "1m"
)

// Config represents the complete bloop configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Stream    StreamConfig    `yaml:"stream" toml:"stream"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	DevServer DevServerConfig `yaml:"devserver" toml:"devserver"`
}

// ServerConfig names the answer server and who is asking
type ServerConfig struct {
	BaseURL string `yaml:"base_url" toml:"base_url"`
	UserID  string `yaml:"user_id" toml:"user_id"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// Token is sent as a bearer token; TokenFile is read when Token is empty
	Token     string `yaml:"token" toml:"token"`
	TokenFile string `yaml:"token_file" toml:"token_file"`
	// JWTSecret signs and verifies dev server tokens
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
}

// StreamConfig holds answer stream limits
type StreamConfig struct {
	StallTimeout   time.Duration `yaml:"-" toml:"-"`
	RequestTimeout time.Duration `yaml:"-" toml:"-"`
	MaxEventSize   int           `yaml:"max_event_size" toml:"max_event_size"`

	// Raw string values for unmarshaling
	StallTimeoutRaw   string `yaml:"stall_timeout" toml:"stall_timeout"`
	RequestTimeoutRaw string `yaml:"request_timeout" toml:"request_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// DevServerConfig configures the local answer server
type DevServerConfig struct {
	Addr            string  `yaml:"addr" toml:"addr"`
	CorpusRoot      string  `yaml:"corpus_root" toml:"corpus_root"`
	TokensPerSecond float64 `yaml:"tokens_per_second" toml:"tokens_per_second"`
	MaxSnippets     int     `yaml:"max_snippets" toml:"max_snippets"`

	CacheTTL    time.Duration `yaml:"-" toml:"-"`
	CacheTTLRaw string        `yaml:"cache_ttl" toml:"cache_ttl"`
}

// Default returns a configuration that works against a local dev server
// without any file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: DefaultBaseURL,
			UserID:  DefaultUserID,
		},
		Stream: StreamConfig{
			MaxEventSize:      DefaultMaxEventSize,
			StallTimeoutRaw:   DefaultStallTimeout,
			RequestTimeoutRaw: DefaultRequestTimeout,
		},
		Database: DatabaseConfig{
			Driver: DefaultDriver,
			Path:   DefaultDatabasePath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		DevServer: DevServerConfig{
			Addr:            DefaultDevServerAddr,
			CorpusRoot:      ".",
			TokensPerSecond: DefaultTokensPerSecond,
			MaxSnippets:     DefaultMaxSnippets,
			CacheTTLRaw:     DefaultCacheTTL,
		},
	}
}

// DefaultPath returns where the config file is looked up when no path is
// given: $BLOOP_CONFIG, then $XDG_CONFIG_HOME/bloop/config.yaml, then
// ~/.config/bloop/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "bloop", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "bloop", "config.yaml")
}

// DefaultDatabasePath returns $XDG_DATA_HOME/bloop/bloop.db or its
// ~/.local/share fallback.
func DefaultDatabasePath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "bloop", "bloop.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "bloop.db"
	}
	return filepath.Join(home, ".local", "share", "bloop", "bloop.db")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(cfg)
}

// LoadOrDefault loads path, or DefaultPath() when path is empty. A missing
// file at the default location yields Default(); a missing file that was
// asked for explicitly is an error.
func LoadOrDefault(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return finish(Default())
	}
	return nil, err
}

func finish(cfg *Config) (*Config, error) {
	cfg.Auth.TokenFile = expandHome(cfg.Auth.TokenFile)
	cfg.Database.Path = expandHome(cfg.Database.Path)

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https scheme")
	}
	if c.Server.UserID == "" {
		return fmt.Errorf("server.user_id is required")
	}

	if c.Stream.StallTimeout < 0 {
		return fmt.Errorf("stream.stall_timeout must not be negative")
	}
	if c.Stream.RequestTimeout < 0 {
		return fmt.Errorf("stream.request_timeout must not be negative")
	}
	if c.Stream.MaxEventSize <= 0 {
		return fmt.Errorf("stream.max_event_size must be positive")
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("database.driver must be sqlite or sqlite3, got %q", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.DevServer.TokensPerSecond <= 0 {
		return fmt.Errorf("devserver.tokens_per_second must be positive")
	}
	if c.DevServer.MaxSnippets < 0 {
		return fmt.Errorf("devserver.max_snippets must not be negative")
	}
	if c.DevServer.CacheTTL < 0 {
		return fmt.Errorf("devserver.cache_ttl must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Stream.StallTimeoutRaw != "" {
		cfg.Stream.StallTimeout, err = time.ParseDuration(cfg.Stream.StallTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing stall_timeout %q: %w", cfg.Stream.StallTimeoutRaw, err)
		}
	}

	if cfg.Stream.RequestTimeoutRaw != "" {
		cfg.Stream.RequestTimeout, err = time.ParseDuration(cfg.Stream.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.Stream.RequestTimeoutRaw, err)
		}
	}

	if cfg.DevServer.CacheTTLRaw != "" {
		cfg.DevServer.CacheTTL, err = time.ParseDuration(cfg.DevServer.CacheTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing cache_ttl %q: %w", cfg.DevServer.CacheTTLRaw, err)
		}
	}

	return nil
}
