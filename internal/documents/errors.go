package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/docai/pkg/storage"
)

// Domain errors for document operations.
var (
	ErrNotFound      = errors.New("document not found")
	ErrDuplicate     = errors.New("document already exists")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidStatus = errors.New("document is already processing")
)

// MapHTTPStatus maps document domain errors to HTTP status codes. A missing
// blob behind an existing row reports 404 like a missing document.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrInvalidStatus) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrInvalidFile) {
		return http.StatusBadRequest
	}
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
