// Package module mounts self-contained HTTP sub-applications under
// single-segment path prefixes, each with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/docai/pkg/middleware"
)

// Module serves an inner handler under a path prefix such as "/api".
// The prefix is stripped before the inner handler sees the request.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System

	once    sync.Once
	handler http.Handler
}

// New creates a Module. It panics when prefix is not a single-level path.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. All middleware must be added before the first
// request is served; the stack is composed once.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Handler returns the inner router wrapped with the module's middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.middleware.Apply(m.router)
	})
	return m.handler
}

// Serve strips the prefix and dispatches to Handler.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	r := req.Clone(req.Context())
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1 || len(prefix) == 1:
		return fmt.Errorf("module prefix must be a single-level path: %s", prefix)
	}
	return nil
}
