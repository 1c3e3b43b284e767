package module

import (
	"fmt"
	"net/http"
	"strings"
)

// Router dispatches by the first path segment to mounted modules and sends
// everything else to a native ServeMux (health probes and the like).
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers m under its prefix. It panics on a duplicate prefix, like
// http.ServeMux does for conflicting patterns.
func (r *Router) Mount(m *Module) {
	if _, exists := r.modules[m.prefix]; exists {
		panic(fmt.Sprintf("module already mounted at %s", m.prefix))
	}
	r.modules[m.prefix] = m
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
		req.URL.Path = strings.TrimRight(p, "/")
		if req.URL.Path == "" {
			req.URL.Path = "/"
		}
	}

	if m, ok := r.modules[firstSegment(req.URL.Path)]; ok {
		m.Serve(w, req)
		return
	}
	r.native.ServeHTTP(w, req)
}

// firstSegment returns "/api" for "/api/documents/1".
func firstSegment(path string) string {
	if i := strings.IndexByte(path[min(1, len(path)):], '/'); i >= 0 {
		return path[:i+1]
	}
	return path
}
