package pagination

import (
	"errors"
	"os"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Config bounds page sizes for list endpoints.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = defaultPageSize
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = maxPageSize
	}
	if env != nil {
		envInt(env.DefaultPageSize, &c.DefaultPageSize)
		envInt(env.MaxPageSize, &c.MaxPageSize)
	}
	return c.validate()
}

// Merge applies non-zero values from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func (c *Config) validate() error {
	switch {
	case c.DefaultPageSize < 1:
		return errors.New("default_page_size must be positive")
	case c.MaxPageSize < 1:
		return errors.New("max_page_size must be positive")
	case c.DefaultPageSize > c.MaxPageSize:
		return errors.New("default_page_size cannot exceed max_page_size")
	}
	return nil
}

func envInt(name string, dst *int) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}
