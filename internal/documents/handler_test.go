package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/pkg/pagination"
	"github.com/JaimeStill/docai/pkg/routes"
	"github.com/JaimeStill/docai/pkg/storage"
)

// mockSystem implements the handler-facing methods; the embedded interface
// panics if a test reaches anything else.
type mockSystem struct {
	documents.System

	listFn       func(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error)
	findFn       func(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	createFn     func(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
	openFn       func(ctx context.Context, id uuid.UUID) (*documents.Document, io.ReadCloser, error)
	dataPointsFn func(ctx context.Context, id uuid.UUID) ([]documents.DataPoint, error)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Open(ctx context.Context, id uuid.UUID) (*documents.Document, io.ReadCloser, error) {
	return m.openFn(ctx, id)
}

func (m *mockSystem) DataPoints(ctx context.Context, id uuid.UUID) ([]documents.DataPoint, error) {
	return m.dataPointsFn(ctx, id)
}

type enqueuerFunc func(id uuid.UUID) error

func (f enqueuerFunc) Enqueue(id uuid.UUID) error { return f(id) }

const maxUpload = 1024

func newServer(sys *mockSystem, enqueuer documents.Enqueuer) *http.ServeMux {
	h := documents.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		maxUpload,
		enqueuer,
	)
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()
	return &buf, w.FormDataContentType()
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestUpload(t *testing.T) {
	docID := uuid.New()

	t.Run("stores and enqueues", func(t *testing.T) {
		var got documents.CreateCommand
		var queued uuid.UUID
		sys := &mockSystem{
			createFn: func(_ context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
				got = cmd
				return &documents.Document{ID: docID, Filename: cmd.Filename, Status: documents.StatusPending}, nil
			},
		}
		mux := newServer(sys, enqueuerFunc(func(id uuid.UUID) error {
			queued = id
			return nil
		}))

		body, ct := multipartBody(t, "file", "invoice.txt", []byte("Invoice #4521\nTotal: $1,234.56"))
		req := httptest.NewRequest("POST", "/documents", body)
		req.Header.Set("Content-Type", ct)
		rec := serve(mux, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if got.Filename != "invoice.txt" || !strings.HasPrefix(got.ContentType, "text/plain") {
			t.Errorf("command = %+v", got)
		}
		if got.PageCount != nil {
			t.Errorf("PageCount = %v, want nil for text", *got.PageCount)
		}
		if queued != docID {
			t.Errorf("queued = %v, want %v", queued, docID)
		}
	})

	t.Run("queue full still creates", func(t *testing.T) {
		sys := &mockSystem{
			createFn: func(context.Context, documents.CreateCommand) (*documents.Document, error) {
				return &documents.Document{ID: docID}, nil
			},
		}
		mux := newServer(sys, enqueuerFunc(func(uuid.UUID) error {
			return errors.New("queue full")
		}))

		body, ct := multipartBody(t, "file", "a.txt", []byte("hello"))
		req := httptest.NewRequest("POST", "/documents", body)
		req.Header.Set("Content-Type", ct)

		if rec := serve(mux, req); rec.Code != http.StatusCreated {
			t.Errorf("status = %d, want 201", rec.Code)
		}
	})

	rejections := []struct {
		name    string
		field   string
		content []byte
		status  int
	}{
		{"empty file", "file", nil, http.StatusBadRequest},
		{"wrong field", "upload", []byte("hello"), http.StatusBadRequest},
		{"too large", "file", bytes.Repeat([]byte("x"), maxUpload*2), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(context.Context, documents.CreateCommand) (*documents.Document, error) {
					t.Error("Create should not be called")
					return nil, nil
				},
			}
			body, ct := multipartBody(t, tt.field, "a.txt", tt.content)
			req := httptest.NewRequest("POST", "/documents", body)
			req.Header.Set("Content-Type", ct)

			if rec := serve(newServer(sys, nil), req); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestList(t *testing.T) {
	var filters documents.Filters
	var page pagination.PageRequest
	sys := &mockSystem{
		listFn: func(_ context.Context, p pagination.PageRequest, f documents.Filters) (*pagination.PageResult[documents.Document], error) {
			page, filters = p, f
			result := pagination.NewPageResult([]documents.Document{{ID: uuid.New()}}, 1, p.Page, p.PageSize)
			return &result, nil
		},
	}

	req := httptest.NewRequest("GET", "/documents?status=failed&uploaded_after=2026-01-01&page_size=500&classification=invoice", nil)
	rec := serve(newServer(sys, nil), req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if filters.Status == nil || *filters.Status != "failed" {
		t.Errorf("status filter = %v", filters.Status)
	}
	if filters.Classification == nil || *filters.Classification != "invoice" {
		t.Errorf("classification filter = %v", filters.Classification)
	}
	if filters.UploadedAfter == nil || filters.UploadedAfter.Year() != 2026 {
		t.Errorf("uploaded_after = %v", filters.UploadedAfter)
	}
	if filters.UploadedBefore != nil {
		t.Errorf("uploaded_before = %v, want nil", filters.UploadedBefore)
	}
	if page.PageSize != 100 {
		t.Errorf("page size = %d, want clamp to 100", page.PageSize)
	}

	var result pagination.PageResult[documents.Document]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Total != 1 || len(result.Data) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestSearchInvalidBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/documents/search", strings.NewReader("{"))
	if rec := serve(newServer(&mockSystem{}, nil), req); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFind(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		findFn: func(_ context.Context, got uuid.UUID) (*documents.Document, error) {
			if got != id {
				return nil, documents.ErrNotFound
			}
			return &documents.Document{ID: id, Status: documents.StatusCompleted}, nil
		},
	}
	mux := newServer(sys, nil)

	tests := []struct {
		path   string
		status int
	}{
		{"/documents/" + id.String(), http.StatusOK},
		{"/documents/" + uuid.NewString(), http.StatusNotFound},
		{"/documents/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := serve(mux, httptest.NewRequest("GET", tt.path, nil)); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	sys := &mockSystem{
		deleteFn: func(context.Context, uuid.UUID) error { return nil },
	}
	rec := serve(newServer(sys, nil), httptest.NewRequest("DELETE", "/documents/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestDownload(t *testing.T) {
	id := uuid.New()

	t.Run("streams content", func(t *testing.T) {
		sys := &mockSystem{
			openFn: func(context.Context, uuid.UUID) (*documents.Document, io.ReadCloser, error) {
				doc := &documents.Document{ID: id, Filename: "q1 report.pdf", ContentType: "application/pdf", SizeBytes: 4}
				return doc, io.NopCloser(strings.NewReader("%PDF")), nil
			},
		}
		rec := serve(newServer(sys, nil), httptest.NewRequest("GET", "/documents/"+id.String()+"/content", nil))

		if rec.Code != http.StatusOK || rec.Body.String() != "%PDF" {
			t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="q1 report.pdf"` {
			t.Errorf("Content-Disposition = %q", cd)
		}
		if rec.Header().Get("Content-Length") != "4" {
			t.Errorf("Content-Length = %q", rec.Header().Get("Content-Length"))
		}
	})

	t.Run("missing blob", func(t *testing.T) {
		sys := &mockSystem{
			openFn: func(context.Context, uuid.UUID) (*documents.Document, io.ReadCloser, error) {
				return nil, nil, storage.ErrNotFound
			},
		}
		rec := serve(newServer(sys, nil), httptest.NewRequest("GET", "/documents/"+id.String()+"/content", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func TestDataPointsEmpty(t *testing.T) {
	sys := &mockSystem{
		dataPointsFn: func(context.Context, uuid.UUID) ([]documents.DataPoint, error) { return nil, nil },
	}
	rec := serve(newServer(sys, nil), httptest.NewRequest("GET", "/documents/"+uuid.NewString()+"/data-points", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{documents.ErrNotFound, http.StatusNotFound},
		{storage.ErrNotFound, http.StatusNotFound},
		{documents.ErrDuplicate, http.StatusConflict},
		{documents.ErrInvalidStatus, http.StatusConflict},
		{documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{documents.ErrInvalidFile, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := documents.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestStatus(t *testing.T) {
	if documents.Status("archived").Valid() {
		t.Error("unknown status reported valid")
	}
	if !documents.StatusFailed.Terminal() || documents.StatusProcessing.Terminal() {
		t.Error("terminal classification wrong")
	}
}
