package processing

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/workflow"
)

var (
	ErrEmptyBatch    = errors.New("document_ids must not be empty")
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
	ErrEmptyText     = errors.New("text must not be empty")
)

// MapHTTPStatus maps pipeline errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, documents.ErrInvalidStatus):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrQueueFull), errors.Is(err, workflow.ErrRunnerStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrEmptyBatch), errors.Is(err, ErrBatchTooLarge), errors.Is(err, ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrUndefinedMissing):
		return http.StatusInternalServerError
	case errors.Is(err, workflow.ErrProcessingFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
