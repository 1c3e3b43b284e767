package main

import (
	"log/slog"
	"time"

	"github.com/JaimeStill/docai/internal/api"
	"github.com/JaimeStill/docai/internal/config"
	"github.com/JaimeStill/docai/internal/infrastructure"
	"github.com/JaimeStill/docai/pkg/module"
)

// Server owns the infrastructure, the API module, and the HTTP listener.
type Server struct {
	infra  *infrastructure.Infrastructure
	api    *api.Module
	http   *httpServer
	logger *slog.Logger
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	router := module.NewRouter()
	registerProbes(router, infra)
	router.Mount(apiModule.Module)

	return &Server{
		infra:  infra,
		api:    apiModule,
		http:   newHTTPServer(&cfg.Server, router, infra.Logger),
		logger: infra.Logger,
	}, nil
}

// Start registers subsystems in dependency order: infrastructure first so its
// shutdown hooks run last, then the pipeline, then the listener.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.api.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		if err := s.infra.Lifecycle.WaitForStartup(); err != nil {
			s.logger.Error("startup incomplete, readiness withheld", "error", err)
			return
		}
		s.logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
