package classifications

import (
	"errors"
	"net/http"
)

// Domain errors for classification operations.
var (
	ErrNotFound  = errors.New("classification not found")
	ErrDuplicate = errors.New("classification already exists")
	ErrProtected = errors.New("the undefined classification cannot be renamed or deleted")
	ErrInvalid   = errors.New("invalid classification configuration")
)

// MapHTTPStatus maps classification domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrProtected) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrInvalid) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
