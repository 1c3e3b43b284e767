package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/docai/pkg/formatting"
	"github.com/JaimeStill/docai/pkg/middleware"
	"github.com/JaimeStill/docai/pkg/openapi"
	"github.com/JaimeStill/docai/pkg/pagination"
)

const (
	EnvAPIBasePath      = "DOCAI_API_BASE_PATH"
	EnvAPIMaxUploadSize = "DOCAI_API_MAX_UPLOAD_SIZE"
	EnvAPIMaxBundleSize = "DOCAI_API_MAX_BUNDLE_SIZE"

	defaultMaxUploadSize = 50 * 1024 * 1024
	defaultMaxBundleSize = 1024 * 1024
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "DOCAI_CORS_ENABLED",
	Origins:          "DOCAI_CORS_ORIGINS",
	AllowedMethods:   "DOCAI_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "DOCAI_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "DOCAI_CORS_EXPOSED_HEADERS",
	AllowCredentials: "DOCAI_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "DOCAI_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "DOCAI_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "DOCAI_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Enabled:     "DOCAI_OPENAPI_ENABLED",
	Path:        "DOCAI_OPENAPI_PATH",
	Title:       "DOCAI_OPENAPI_TITLE",
	Description: "DOCAI_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, upload limits, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	MaxBundleSize string                `toml:"max_bundle_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns the document upload limit in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return defaultMaxUploadSize
	}
	return size
}

// MaxBundleSizeBytes returns the rule bundle import limit in bytes.
func (c *APIConfig) MaxBundleSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBundleSize)
	if err != nil {
		return defaultMaxBundleSize
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxBundleSize != "" {
		c.MaxBundleSize = overlay.MaxBundleSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
	if c.MaxBundleSize == "" {
		c.MaxBundleSize = "1MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv(EnvAPIMaxBundleSize); v != "" {
		c.MaxBundleSize = v
	}
}

func (c *APIConfig) validate() error {
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if _, err := formatting.ParseBytes(c.MaxBundleSize); err != nil {
		return fmt.Errorf("invalid max_bundle_size: %w", err)
	}
	return nil
}
