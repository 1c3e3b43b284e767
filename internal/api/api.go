// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/docai/internal/config"
	"github.com/JaimeStill/docai/internal/infrastructure"
	"github.com/JaimeStill/docai/pkg/middleware"
	"github.com/JaimeStill/docai/pkg/module"
)

// Module is the mounted API together with the processing pipeline it serves.
type Module struct {
	*module.Module
	runtime *Runtime
	domain  *Domain
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))
	m.Use(middleware.Recover(runtime.Infrastructure.Logger))

	return &Module{Module: m, runtime: runtime, domain: domain}, nil
}

// Start launches the pipeline workers. It must be called after the
// infrastructure has registered its startup hooks: once they complete, the
// fallback classification is ensured and documents left in processing are
// recovered.
func (m *Module) Start() error {
	if err := m.domain.Runner.Start(m.runtime.Lifecycle); err != nil {
		return fmt.Errorf("start runner: %w", err)
	}

	go m.prepare()
	return nil
}

func (m *Module) prepare() {
	lc := m.runtime.Lifecycle
	if err := lc.WaitForStartup(); err != nil {
		m.runtime.Logger.Error("skipping pipeline preparation", "error", err)
		return
	}

	ctx := lc.Context()
	if ctx.Err() != nil {
		return
	}

	fallback, err := m.domain.Classifications.EnsureFallback(ctx)
	if err != nil {
		m.runtime.Logger.Error("ensure fallback classification failed", "error", err)
	} else {
		m.runtime.Logger.Info("fallback classification ready", "id", fallback.ID, "name", fallback.Name)
	}

	m.recoverStale(ctx)
}

func (m *Module) recoverStale(ctx context.Context) {
	rec, err := m.domain.Runner.Recover(ctx)
	if err != nil {
		m.runtime.Logger.Error("stale document recovery failed", "error", err)
		return
	}

	m.runtime.Logger.Info(
		"stale document sweep complete",
		"action", rec.Action,
		"failed", len(rec.Failed),
		"requeued", len(rec.Requeued),
		"skipped", len(rec.Skipped),
	)
}
