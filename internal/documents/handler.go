package documents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/docai/pkg/handlers"
	"github.com/JaimeStill/docai/pkg/pagination"
	"github.com/JaimeStill/docai/pkg/routes"
)

var errInvalidID = fmt.Errorf("%w: malformed id", ErrInvalidFile)

// Handler provides HTTP endpoints for document operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
	enqueuer      Enqueuer
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler. A nil enqueuer leaves uploaded documents pending.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
	enqueuer Enqueuer,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "documents"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
		enqueuer:      enqueuer,
	}
}

// Routes returns the route group definition for document endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:      "/documents",
		Tags:        []string{"Documents"},
		Description: "Document upload and processing results",
		Schemas:     Schemas,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, OpenAPI: Spec.List},
			{Method: "POST", Pattern: "", Handler: h.Upload, OpenAPI: Spec.Upload},
			{Method: "POST", Pattern: "/search", Handler: h.Search, OpenAPI: Spec.Search},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, OpenAPI: Spec.Find},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, OpenAPI: Spec.Delete},
			{Method: "GET", Pattern: "/{id}/content", Handler: h.Download, OpenAPI: Spec.Download},
			{Method: "GET", Pattern: "/{id}/text", Handler: h.Text, OpenAPI: Spec.Text},
			{Method: "GET", Pattern: "/{id}/data-points", Handler: h.DataPoints, OpenAPI: Spec.DataPoints},
		},
	}
}

// List returns a paginated list of documents with optional query parameter filters.
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

// Find returns a single document by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, doc)
}

// Search accepts a JSON body with pagination and filter criteria and returns matching documents.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
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

// Upload stores a multipart "file" field and registers the document.
// PDF page counts are read with pdfcpu. When an enqueuer is configured the
// new document is queued for processing; a full queue leaves it pending.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, ErrFileTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidFile)
		return
	}

	if len(data) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: empty file", ErrInvalidFile))
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), data)
	pageCount := extractPDFPageCount(h.logger, data, contentType)

	cmd := CreateCommand{
		Data:        data,
		Filename:    header.Filename,
		ContentType: contentType,
		PageCount:   pageCount,
	}

	doc, err := h.sys.Create(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if h.enqueuer != nil {
		if err := h.enqueuer.Enqueue(doc.ID); err != nil {
			h.logger.Warn("document not queued", "id", doc.ID, "error", err)
		}
	}

	handlers.RespondJSON(w, http.StatusCreated, doc)
}

// Delete removes a document by its UUID path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Download streams the stored file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	doc, body, err := h.sys.Open(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": doc.Filename,
	}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("document download interrupted", "id", id, "error", err)
	}
}

// Text returns the raw text captured during processing.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	text, err := h.sys.Text(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, text)
}

// DataPoints returns the values extracted during the latest processing run.
func (h *Handler) DataPoints(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	points, err := h.sys.DataPoints(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	if points == nil {
		points = []DataPoint{}
	}
	handlers.RespondJSON(w, http.StatusOK, points)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func detectContentType(header string, data []byte) string {
	header = strings.TrimSpace(header)
	if header != "" && header != "application/octet-stream" {
		return header
	}
	return http.DetectContentType(data)
}

func extractPDFPageCount(logger *slog.Logger, data []byte, contentType string) *int {
	if !strings.HasPrefix(contentType, "application/pdf") {
		return nil
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		logger.Warn("failed to extract PDF page count", "error", err)
		return nil
	}

	return &count
}
