package api

import (
	"github.com/JaimeStill/docai/internal/config"
	"github.com/JaimeStill/docai/internal/infrastructure"
	"github.com/JaimeStill/docai/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Pipeline   config.PipelineConfig
}

// NewRuntime shares the infrastructure systems under a logger tagged with
// the module name.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		Pipeline:       cfg.Pipeline,
	}
}
