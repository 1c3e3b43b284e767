package api

import (
	"net/http"

	"github.com/JaimeStill/docai/internal/config"
	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/processing"
	"github.com/JaimeStill/docai/pkg/openapi"
	"github.com/JaimeStill/docai/pkg/routes"
)

func groups(domain *Domain, cfg *config.Config, runtime *Runtime) []routes.Group {
	var enqueuer documents.Enqueuer
	if cfg.Pipeline.AutoProcessEnabled() {
		enqueuer = domain.Runner
	}

	return []routes.Group{
		domain.Classifications.Handler(cfg.API.MaxBundleSizeBytes()).Routes(),
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes(), enqueuer).Routes(),
		processing.NewHandler(
			domain.Runner,
			domain.Documents,
			runtime.Logger,
			cfg.Pipeline.MaxBatchSize,
			cfg.API.MaxUploadSizeBytes(),
		).Routes(),
	}
}

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	gs := groups(domain, cfg, runtime)
	routes.Register(mux, gs...)

	if !cfg.API.OpenAPI.IsEnabled() {
		return nil
	}

	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)
	routes.Describe(spec, "", gs...)

	handler, err := spec.Handler()
	if err != nil {
		return err
	}

	mux.HandleFunc("GET "+cfg.API.OpenAPI.Path, handler)
	return nil
}
