// Package middleware provides the HTTP middleware shared by mounted modules:
// CORS, request logging and panic recovery.
package middleware

import (
	"net/http"
	"slices"
)

// System is an ordered middleware stack. The first middleware added is the
// outermost wrapper.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type stack []func(http.Handler) http.Handler

func New() System {
	return &stack{}
}

func (s *stack) Use(mw func(http.Handler) http.Handler) {
	*s = append(*s, mw)
}

func (s *stack) Apply(handler http.Handler) http.Handler {
	for _, mw := range slices.Backward(*s) {
		handler = mw(handler)
	}
	return handler
}
