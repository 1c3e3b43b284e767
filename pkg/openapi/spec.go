package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
)

// Spec is an OpenAPI 3.1 document assembled from route groups at startup.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Tags       []*Tag               `json:"tags,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

// NewSpec creates a Spec seeded with the shared components.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI:    "3.1.0",
		Info:       &Info{Title: title, Version: version},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

// AddTag registers a tag once. A later non-empty description fills in a
// tag that was registered without one.
func (s *Spec) AddTag(name, description string) {
	i := slices.IndexFunc(s.Tags, func(t *Tag) bool { return t.Name == name })
	if i < 0 {
		s.Tags = append(s.Tags, &Tag{Name: name, Description: description})
		return
	}
	if s.Tags[i].Description == "" {
		s.Tags[i].Description = description
	}
}

// Handler serializes the spec once and returns a handler serving it with a
// content-derived ETag. Requests carrying a matching If-None-Match get 304.
func (s *Spec) Handler() (http.HandlerFunc, error) {
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}, nil
}
