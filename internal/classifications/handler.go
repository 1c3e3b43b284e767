package classifications

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/pkg/handlers"
	"github.com/JaimeStill/docai/pkg/pagination"
	"github.com/JaimeStill/docai/pkg/routes"
)

var errInvalidID = fmt.Errorf("%w: malformed id", ErrInvalid)

// Handler provides HTTP endpoints for rule configuration.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxBundleSize int64
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, pagination config, and bundle size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxBundleSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "classifications"),
		pagination:    pagination,
		maxBundleSize: maxBundleSize,
	}
}

// Routes returns the route group definition for classification endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/classifications",
		Tags:        []string{"Classifications"},
		Description: "Classification rules, patterns, and data point definitions",
		Schemas:     Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Create, OpenAPI: Spec.Create},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: Spec.Search},
			{Method: "GET", Pattern: "/export", Handler: h.Export, OpenAPI: Spec.Export},
			{Method: "POST", Pattern: "/import", Handler: h.Import, OpenAPI: Spec.Import},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "PUT", Pattern: "/{id}", Handler: h.Update, OpenAPI: Spec.Update},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: Spec.Delete},
			{Method: "GET", Pattern: "/{id}/patterns", Handler: h.ListPatterns, OpenAPI: Spec.ListPatterns},
			{Method: "POST", Pattern: "/{id}/patterns", Handler: h.AddPatterns, OpenAPI: Spec.AddPatterns},
			{Method: "DELETE", Pattern: "/{id}/patterns/{patternId}", Handler: h.DeletePattern, OpenAPI: Spec.DeletePattern},
			{Method: "GET", Pattern: "/{id}/data-points", Handler: h.ListDefinitions, OpenAPI: Spec.ListDefinitions},
			{Method: "POST", Pattern: "/{id}/data-points", Handler: h.AddDefinitions, OpenAPI: Spec.AddDefinitions},
			{Method: "DELETE", Pattern: "/{id}/data-points/{definitionId}", Handler: h.DeleteDefinition, OpenAPI: Spec.DeleteDefinition},
		},
	}
}

// List returns a paginated list of classifications with optional query parameter filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching classifications.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single classification by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Create registers a new classification from a CreateCommand JSON body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	c, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, c)
}

// Update overwrites a classification from an UpdateCommand JSON body.
// Renaming the undefined classification is rejected with 403.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var cmd UpdateCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	c, err := h.sys.Update(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, c)
}

// Delete removes a classification with its patterns and data point definitions.
// Deleting the undefined classification is rejected with 403.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPatterns returns the patterns of a classification.
func (h *Handler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	patterns, err := h.sys.ListPatterns(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, patterns)
}

// AddPatterns appends a JSON array of PatternCommand values to a classification.
func (h *Handler) AddPatterns(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var cmds []PatternCommand
	if err := json.NewDecoder(r.Body).Decode(&cmds); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	patterns, err := h.sys.AddPatterns(r.Context(), id, cmds)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, patterns)
}

// DeletePattern removes one pattern from a classification.
func (h *Handler) DeletePattern(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	patternID, ok := h.pathID(w, r, "patternId")
	if !ok {
		return
	}

	if err := h.sys.DeletePattern(r.Context(), id, patternID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListDefinitions returns the data point definitions of a classification.
func (h *Handler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	defs, err := h.sys.ListDefinitions(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, defs)
}

// AddDefinitions appends a JSON array of DefinitionCommand values to a classification.
func (h *Handler) AddDefinitions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var cmds []DefinitionCommand
	if err := json.NewDecoder(r.Body).Decode(&cmds); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	defs, err := h.sys.AddDefinitions(r.Context(), id, cmds)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, defs)
}

// DeleteDefinition removes one data point definition from a classification.
func (h *Handler) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	definitionID, ok := h.pathID(w, r, "definitionId")
	if !ok {
		return
	}

	if err := h.sys.DeleteDefinition(r.Context(), id, definitionID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export writes all rule configuration as a YAML bundle.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.sys.Export(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="classifications.yaml"`)
	w.WriteHeader(http.StatusOK)
	if err := bundle.Encode(w); err != nil {
		h.logger.Error("bundle encode failed", "error", err)
	}
}

// Import applies a YAML bundle from the request body. Bodies over the
// configured bundle size are rejected with 413.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBundleSize))
	if err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	bundle, err := ParseBundle(bytes.NewReader(data))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	result, err := h.sys.Import(r.Context(), bundle)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
