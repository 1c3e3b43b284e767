package processing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/pkg/handlers"
	"github.com/JaimeStill/docai/pkg/routes"
)

// Handler provides HTTP endpoints for running the pipeline.
type Handler struct {
	sys         System
	docs        DocumentFinder
	logger      *slog.Logger
	maxBatch    int
	maxBodySize int64
}

// NewHandler creates a Handler. maxBatch bounds the ids accepted by the batch
// endpoint and maxBodySize bounds the batch and preview request bodies in bytes.
func NewHandler(sys System, docs DocumentFinder, logger *slog.Logger, maxBatch int, maxBodySize int64) *Handler {
	return &Handler{
		sys:         sys,
		docs:        docs,
		logger:      logger.With("handler", "processing"),
		maxBatch:    maxBatch,
		maxBodySize: maxBodySize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/processing",
		Tags:        []string{"Processing"},
		Description: "Classification, data point extraction, and summarization runs",
		Schemas:     Schemas,
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/batch", Handler: h.Batch, OpenAPI: Spec.Batch},
			{Method: "POST", Pattern: "/recover", Handler: h.Recover, OpenAPI: Spec.Recover},
			{Method: "POST", Pattern: "/preview", Handler: h.Preview, OpenAPI: Spec.Preview},
			{Method: "POST", Pattern: "/{documentId}", Handler: h.Process, OpenAPI: Spec.Process},
			{Method: "POST", Pattern: "/{documentId}/enqueue", Handler: h.Enqueue, OpenAPI: Spec.Enqueue},
		},
	}
}

// Process runs the pipeline for one document and waits for the result.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	result, err := h.sys.Process(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Enqueue schedules one existing document for background processing.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	if _, err := h.docs.Find(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if err := h.sys.Enqueue(id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, Queued{DocumentID: id, Status: "queued"})
}

// Batch processes a list of documents and reports a result per id.
// Individual failures do not fail the request.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	if len(req.DocumentIDs) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrEmptyBatch)
		return
	}

	if h.maxBatch > 0 && len(req.DocumentIDs) > h.maxBatch {
		err := fmt.Errorf("%w: %d ids, limit %d", ErrBatchTooLarge, len(req.DocumentIDs), h.maxBatch)
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.sys.ProcessBatch(r.Context(), req.DocumentIDs))
}

// Recover sweeps documents stuck in processing.
func (h *Handler) Recover(w http.ResponseWriter, r *http.Request) {
	rec, err := h.sys.Recover(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Preview analyzes posted text with the current rules and persists nothing.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrEmptyText)
		return
	}

	analysis, err := h.sys.Preview(r.Context(), req.Text)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, analysis)
}

// decode reads a bounded JSON body into v, answering 413 when the body
// exceeds maxBodySize and 400 when it is malformed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		status := http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, err)
		return false
	}
	return true
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("documentId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid document id: %w", err))
		return uuid.Nil, false
	}
	return id, true
}
