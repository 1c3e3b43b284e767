package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerHost              = "DOCAI_SERVER_HOST"
	EnvServerPort              = "DOCAI_SERVER_PORT"
	EnvServerReadTimeout       = "DOCAI_SERVER_READ_TIMEOUT"
	EnvServerReadHeaderTimeout = "DOCAI_SERVER_READ_HEADER_TIMEOUT"
	EnvServerWriteTimeout      = "DOCAI_SERVER_WRITE_TIMEOUT"
	EnvServerIdleTimeout       = "DOCAI_SERVER_IDLE_TIMEOUT"
	EnvServerShutdownTimeout   = "DOCAI_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. WriteTimeout bounds the whole
// response, so it must cover a synchronous batch run.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	IdleTimeout       string `toml:"idle_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration { return duration(c.ReadTimeout) }

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return duration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration { return duration(c.WriteTimeout) }

func (c *ServerConfig) IdleTimeoutDuration() time.Duration { return duration(c.IdleTimeout) }

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for _, f := range c.durations(overlay) {
		if *f.src != "" {
			*f.dst = *f.src
		}
	}
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
}

type durationField struct {
	name string
	env  string
	def  string
	dst  *string
	src  *string
}

// durations lists the duration fields of c paired with those of other.
func (c *ServerConfig) durations(other *ServerConfig) []durationField {
	if other == nil {
		other = &ServerConfig{}
	}
	return []durationField{
		{"read_timeout", EnvServerReadTimeout, "1m", &c.ReadTimeout, &other.ReadTimeout},
		{"read_header_timeout", EnvServerReadHeaderTimeout, "10s", &c.ReadHeaderTimeout, &other.ReadHeaderTimeout},
		{"write_timeout", EnvServerWriteTimeout, "15m", &c.WriteTimeout, &other.WriteTimeout},
		{"idle_timeout", EnvServerIdleTimeout, "2m", &c.IdleTimeout, &other.IdleTimeout},
		{"shutdown_timeout", EnvServerShutdownTimeout, "30s", &c.ShutdownTimeout, &other.ShutdownTimeout},
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	for _, f := range c.durations(nil) {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv(EnvServerHost); v != "" {
		c.Host = v
	}
	if port, err := strconv.Atoi(os.Getenv(EnvServerPort)); err == nil {
		c.Port = port
	}
	for _, f := range c.durations(nil) {
		if v := os.Getenv(f.env); v != "" {
			*f.dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, f := range c.durations(nil) {
		if _, err := time.ParseDuration(*f.dst); err != nil {
			return fmt.Errorf("invalid %s: %w", f.name, err)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
