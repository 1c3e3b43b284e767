package database

import (
	"errors"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds PostgreSQL connection and pool settings. When URL is set it
// is used verbatim and the individual connection fields are ignored.
type Config struct {
	URL             string `toml:"url"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Name            string `toml:"name"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	SSLMode         string `toml:"ssl_mode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	ConnTimeout     string `toml:"conn_timeout"`
}

// Env maps config fields to environment variable names.
type Env struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    string
	MaxIdleConns    string
	ConnMaxLifetime string
	ConnTimeout     string
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

func (c *Config) ConnTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnTimeout)
	return d
}

// DSN returns a postgres:// connection URL accepted by both pgx and
// golang-migrate. Credentials are escaped.
func (c *Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
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
	mergeString(&c.URL, overlay.URL)
	mergeString(&c.Host, overlay.Host)
	mergeString(&c.Name, overlay.Name)
	mergeString(&c.User, overlay.User)
	mergeString(&c.Password, overlay.Password)
	mergeString(&c.SSLMode, overlay.SSLMode)
	mergeString(&c.ConnMaxLifetime, overlay.ConnMaxLifetime)
	mergeString(&c.ConnTimeout, overlay.ConnTimeout)
	mergeInt(&c.Port, overlay.Port)
	mergeInt(&c.MaxOpenConns, overlay.MaxOpenConns)
	mergeInt(&c.MaxIdleConns, overlay.MaxIdleConns)
}

func (c *Config) loadDefaults() {
	c.Host = fallback(c.Host, "localhost")
	c.SSLMode = fallback(c.SSLMode, "disable")
	c.ConnMaxLifetime = fallback(c.ConnMaxLifetime, "15m")
	c.ConnTimeout = fallback(c.ConnTimeout, "5s")
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
}

func (c *Config) loadEnv(env *Env) {
	text := []struct {
		name string
		dst  *string
	}{
		{env.URL, &c.URL},
		{env.Host, &c.Host},
		{env.Name, &c.Name},
		{env.User, &c.User},
		{env.Password, &c.Password},
		{env.SSLMode, &c.SSLMode},
		{env.ConnMaxLifetime, &c.ConnMaxLifetime},
		{env.ConnTimeout, &c.ConnTimeout},
	}
	for _, s := range text {
		if v := lookup(s.name); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{env.Port, &c.Port},
		{env.MaxOpenConns, &c.MaxOpenConns},
		{env.MaxIdleConns, &c.MaxIdleConns},
	}
	for _, i := range ints {
		if n, err := strconv.Atoi(lookup(i.name)); err == nil {
			*i.dst = n
		}
	}
}

func (c *Config) validate() error {
	if c.URL == "" {
		if c.Name == "" {
			return errors.New("name required")
		}
		if c.User == "" {
			return errors.New("user required")
		}
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot exceed max_open_conns")
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return errors.Join(errors.New("invalid conn_max_lifetime"), err)
	}
	if _, err := time.ParseDuration(c.ConnTimeout); err != nil {
		return errors.Join(errors.New("invalid conn_timeout"), err)
	}
	return nil
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
