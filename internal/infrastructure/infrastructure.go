// Package infrastructure assembles the logger, database, and blob storage
// that every domain system depends on.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/docai/internal/config"
	"github.com/JaimeStill/docai/pkg/database"
	"github.com/JaimeStill/docai/pkg/lifecycle"
	"github.com/JaimeStill/docai/pkg/storage"
)

// Infrastructure holds the core systems shared by domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New builds the systems without contacting any of them; Start registers
// their lifecycle hooks.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(cfg, os.Stderr)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		db.Connection().Close()
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger.With("service", "docai", "version", cfg.Version),
		Database:  db,
		Storage:   store,
	}, nil
}

// NewLogger writes to w at the configured level, as JSON when log_format is
// "json" and as logfmt-style text otherwise.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start registers the database before storage so the pool outlives every
// other system during shutdown.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
