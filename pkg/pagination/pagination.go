// Package pagination parses page requests from query strings or JSON bodies
// and wraps query results in a page envelope.
package pagination

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/JaimeStill/docai/pkg/query"
)

// SortFields accepts either "Filename,-UploadedAt" or an array of
// query.SortField objects when decoded from JSON.
type SortFields []query.SortField

func (s *SortFields) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = query.ParseSortFields(str)
		return nil
	}

	var fields []query.SortField
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*s = fields
	return nil
}

// PageRequest selects a 1-based page with optional search and sort.
type PageRequest struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Search   *string    `json:"search,omitempty"`
	Sort     SortFields `json:"sort,omitempty"`
}

// Normalize clamps Page to at least 1 and PageSize into [1, MaxPageSize],
// substituting DefaultPageSize when unset.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	r.PageSize = min(r.PageSize, cfg.MaxPageSize)
}

func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery reads page, page_size, search and sort from values
// and normalizes the result. Unparseable numbers fall back to defaults.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	req := PageRequest{Sort: query.ParseSortFields(values.Get("sort"))}
	req.Page, _ = strconv.Atoi(values.Get("page"))
	req.PageSize, _ = strconv.Atoi(values.Get("page_size"))
	if s := values.Get("search"); s != "" {
		req.Search = &s
	}

	req.Normalize(cfg)
	return req
}

// PageResult is the envelope returned by list endpoints.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult builds a PageResult. TotalPages is at least 1 and Data is
// never nil so an empty page encodes as [].
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	if data == nil {
		data = []T{}
	}

	pages := 1
	if pageSize > 0 && total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}
}
