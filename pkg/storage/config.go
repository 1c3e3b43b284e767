package storage

import (
	"fmt"
	"net/url"
	"os"
)

// Config holds Azure Blob Storage connection parameters.
// ConnectionString takes precedence. When it is empty, ServiceURL is used
// with the default Azure credential chain (environment, managed identity, CLI).
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ServiceURL       string `toml:"service_url"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ContainerName    string
	ConnectionString string
	ServiceURL       string
}

// UsesCredential reports whether the client authenticates with an Azure identity
// rather than a shared key connection string.
func (c *Config) UsesCredential() bool {
	return c.ConnectionString == ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.ServiceURL != "" {
		c.ServiceURL = overlay.ServiceURL
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "documents"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.ServiceURL != "" {
		if v := os.Getenv(env.ServiceURL); v != "" {
			c.ServiceURL = v
		}
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if c.ConnectionString == "" && c.ServiceURL == "" {
		return fmt.Errorf("connection_string or service_url required")
	}
	if c.UsesCredential() {
		u, err := url.Parse(c.ServiceURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("invalid service_url: %q", c.ServiceURL)
		}
	}
	return nil
}
