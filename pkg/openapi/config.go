package openapi

import (
	"cmp"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds OpenAPI metadata for spec generation. A nil Enabled means
// the spec is served.
type Config struct {
	Enabled     *bool  `toml:"enabled"`
	Path        string `toml:"path"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// ConfigEnv names the environment variables that override Config.
type ConfigEnv struct {
	Enabled     string
	Path        string
	Title       string
	Description string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.Path = cmp.Or(c.Path, "/openapi.json")
	c.Title = cmp.Or(c.Title, "docai API")
	c.Description = cmp.Or(c.Description, "Rule-based document classification, data point extraction, and extractive summarization.")

	if env != nil {
		c.loadEnv(env)
	}

	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("path must start with /: %q", c.Path)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Enabled != nil {
		c.Enabled = overlay.Enabled
	}
	c.Path = cmp.Or(overlay.Path, c.Path)
	c.Title = cmp.Or(overlay.Title, c.Title)
	c.Description = cmp.Or(overlay.Description, c.Description)
}

// IsEnabled reports whether the spec endpoint should be registered.
func (c *Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

func (c *Config) loadEnv(env *ConfigEnv) {
	if v := getenv(env.Enabled); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = &enabled
		}
	}
	c.Path = cmp.Or(getenv(env.Path), c.Path)
	c.Title = cmp.Or(getenv(env.Title), c.Title)
	c.Description = cmp.Or(getenv(env.Description), c.Description)
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
