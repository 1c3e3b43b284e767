package storage

import (
	"errors"
	"net/http"
	"strings"
)

// maxKeyLength is the Azure blob name limit.
const maxKeyLength = 1024

var (
	ErrNotFound   = errors.New("blob not found")
	ErrEmptyKey   = errors.New("storage key must not be empty")
	ErrInvalidKey = errors.New("invalid storage key")
)

// ValidateKey rejects keys that are empty, too long, absolute, or that could
// escape their prefix through ".." segments or backslashes.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case len(key) > maxKeyLength,
		strings.HasPrefix(key, "/"),
		strings.ContainsRune(key, '\\'),
		strings.ContainsFunc(key, func(r rune) bool { return r < 0x20 || r == 0x7f }):
		return ErrInvalidKey
	}

	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return ErrInvalidKey
		}
	}
	return nil
}

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyKey), errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
