package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/JaimeStill/docai/pkg/database"
	"github.com/JaimeStill/docai/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocaiEnv             = "DOCAI_ENV"
	EnvDocaiShutdownTimeout = "DOCAI_SHUTDOWN_TIMEOUT"
	EnvDocaiVersion         = "DOCAI_VERSION"
	EnvDocaiLogLevel        = "DOCAI_LOG_LEVEL"
	EnvDocaiLogFormat       = "DOCAI_LOG_FORMAT"
)

// Log output formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var databaseEnv = &database.Env{
	URL:             "DOCAI_DB_URL",
	Host:            "DOCAI_DB_HOST",
	Port:            "DOCAI_DB_PORT",
	Name:            "DOCAI_DB_NAME",
	User:            "DOCAI_DB_USER",
	Password:        "DOCAI_DB_PASSWORD",
	SSLMode:         "DOCAI_DB_SSL_MODE",
	MaxOpenConns:    "DOCAI_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DOCAI_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DOCAI_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCAI_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "DOCAI_STORAGE_CONTAINER_NAME",
	ConnectionString: "DOCAI_STORAGE_CONNECTION_STRING",
	ServiceURL:       "DOCAI_STORAGE_SERVICE_URL",
}

// Config is the root configuration for the docai service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Pipeline        PipelineConfig  `toml:"pipeline"`
	LogLevel        string          `toml:"log_level"`
	LogFormat       string          `toml:"log_format"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the DOCAI_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDocaiEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// SlogLevel returns LogLevel as a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Pipeline.Finalize(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvDocaiShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDocaiVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvDocaiLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvDocaiLogFormat); v != "" {
		c.LogFormat = strings.ToLower(v)
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log_format: %q", c.LogFormat)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDocaiEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
