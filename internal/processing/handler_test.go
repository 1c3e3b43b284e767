package processing_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/processing"
	"github.com/JaimeStill/docai/internal/workflow"
	"github.com/JaimeStill/docai/pkg/routes"
)

type mockSystem struct {
	processFn func(ctx context.Context, id uuid.UUID) (*workflow.Result, error)
	enqueueFn func(id uuid.UUID) error
	batchFn   func(ctx context.Context, ids []uuid.UUID) []workflow.BatchResult
	recoverFn func(ctx context.Context) (*workflow.Recovery, error)
	previewFn func(ctx context.Context, text string) (*workflow.Analysis, error)
}

func (m *mockSystem) Process(ctx context.Context, id uuid.UUID) (*workflow.Result, error) {
	return m.processFn(ctx, id)
}

func (m *mockSystem) Enqueue(id uuid.UUID) error {
	return m.enqueueFn(id)
}

func (m *mockSystem) ProcessBatch(ctx context.Context, ids []uuid.UUID) []workflow.BatchResult {
	return m.batchFn(ctx, ids)
}

func (m *mockSystem) Recover(ctx context.Context) (*workflow.Recovery, error) {
	return m.recoverFn(ctx)
}

func (m *mockSystem) Preview(ctx context.Context, text string) (*workflow.Analysis, error) {
	return m.previewFn(ctx, text)
}

type finderFunc func(ctx context.Context, id uuid.UUID) (*documents.Document, error)

func (f finderFunc) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	return f(ctx, id)
}

func found(_ context.Context, id uuid.UUID) (*documents.Document, error) {
	return &documents.Document{ID: id}, nil
}

func newServer(sys processing.System) *http.ServeMux {
	return newServerWithFinder(sys, finderFunc(found))
}

func newServerWithFinder(sys processing.System, docs processing.DocumentFinder) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := processing.NewHandler(sys, docs, logger, 3, 512)

	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProcess(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"success", "/processing/" + id.String(), nil, http.StatusOK},
		{"bad id", "/processing/not-a-uuid", nil, http.StatusBadRequest},
		{"not found", "/processing/" + id.String(), documents.ErrNotFound, http.StatusNotFound},
		{"already processing", "/processing/" + id.String(), documents.ErrInvalidStatus, http.StatusConflict},
		{"pipeline failure", "/processing/" + id.String(), fmt.Errorf("%w: %w", workflow.ErrProcessingFailed, workflow.ErrTextExtraction), http.StatusUnprocessableEntity},
		{"undefined missing", "/processing/" + id.String(), fmt.Errorf("%w: %w", workflow.ErrProcessingFailed, workflow.ErrUndefinedMissing), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				processFn: func(_ context.Context, got uuid.UUID) (*workflow.Result, error) {
					if got != id {
						t.Errorf("id = %s, want %s", got, id)
					}
					if tt.err != nil {
						return nil, tt.err
					}
					return &workflow.Result{DocumentID: got, Status: documents.StatusCompleted}, nil
				},
			}

			rec := serve(newServer(sys), http.MethodPost, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}

			if tt.status == http.StatusOK {
				var res workflow.Result
				if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
					t.Fatal(err)
				}
				if res.DocumentID != id || res.Status != documents.StatusCompleted {
					t.Errorf("result = %+v", res)
				}
			}
		})
	}
}

func TestEnqueue(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"queue full", workflow.ErrQueueFull, http.StatusServiceUnavailable},
		{"stopped", workflow.ErrRunnerStopped, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{enqueueFn: func(uuid.UUID) error { return tt.err }}
			id := uuid.New()

			rec := serve(newServer(sys), http.MethodPost, "/processing/"+id.String()+"/enqueue", "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}

			if tt.status == http.StatusAccepted {
				var q processing.Queued
				if err := json.NewDecoder(rec.Body).Decode(&q); err != nil {
					t.Fatal(err)
				}
				if q.DocumentID != id || q.Status != "queued" {
					t.Errorf("queued = %+v", q)
				}
			}
		})
	}
}

func TestEnqueueUnknownDocument(t *testing.T) {
	queued := false
	sys := &mockSystem{enqueueFn: func(uuid.UUID) error {
		queued = true
		return nil
	}}
	missing := finderFunc(func(context.Context, uuid.UUID) (*documents.Document, error) {
		return nil, documents.ErrNotFound
	})

	rec := serve(newServerWithFinder(sys, missing), http.MethodPost, "/processing/"+uuid.New().String()+"/enqueue", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if queued {
		t.Error("unknown document was queued")
	}
}

func TestBatch(t *testing.T) {
	sys := &mockSystem{
		batchFn: func(_ context.Context, ids []uuid.UUID) []workflow.BatchResult {
			out := make([]workflow.BatchResult, len(ids))
			for i, id := range ids {
				out[i] = workflow.BatchResult{DocumentID: id}
			}
			out[len(out)-1].Error = "document not found"
			return out
		},
	}
	mux := newServer(sys)

	t.Run("per id results", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		body := fmt.Sprintf(`{"document_ids":["%s","%s"]}`, a, b)

		rec := serve(mux, http.MethodPost, "/processing/batch", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var results []workflow.BatchResult
		if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
			t.Fatal(err)
		}
		if len(results) != 2 || results[0].DocumentID != a || results[1].Error == "" {
			t.Errorf("results = %+v", results)
		}
	})

	rejected := []struct {
		name string
		body string
	}{
		{"malformed", `{"document_ids":`},
		{"empty", `{"document_ids":[]}`},
		{"too large", fmt.Sprintf(`{"document_ids":["%s","%s","%s","%s"]}`, uuid.New(), uuid.New(), uuid.New(), uuid.New())},
		{"bad uuid", `{"document_ids":["nope"]}`},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, "/processing/batch", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	t.Run("body too large", func(t *testing.T) {
		ids := make([]string, 20)
		for i := range ids {
			ids[i] = `"` + uuid.New().String() + `"`
		}
		body := `{"document_ids":[` + strings.Join(ids, ",") + `]}`

		rec := serve(mux, http.MethodPost, "/processing/batch", body)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})
}

func TestRecover(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		recoverFn: func(context.Context) (*workflow.Recovery, error) {
			return &workflow.Recovery{Action: workflow.RecoverFail, Failed: []uuid.UUID{id}}, nil
		},
	}

	rec := serve(newServer(sys), http.MethodPost, "/processing/recover", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got workflow.Recovery
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Action != workflow.RecoverFail || len(got.Failed) != 1 || got.Failed[0] != id {
		t.Errorf("recovery = %+v", got)
	}
}

func TestPreview(t *testing.T) {
	sys := &mockSystem{
		previewFn: func(_ context.Context, text string) (*workflow.Analysis, error) {
			return &workflow.Analysis{Summary: text}, nil
		},
	}
	mux := newServer(sys)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"text":"Invoice #1"}`, http.StatusOK},
		{"blank", `{"text":"   "}`, http.StatusBadRequest},
		{"malformed", `{"text":`, http.StatusBadRequest},
		{"too large", `{"text":"` + strings.Repeat("a", 1024) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(mux, http.MethodPost, "/processing/preview", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}

			if tt.status == http.StatusOK {
				var a workflow.Analysis
				if err := json.NewDecoder(rec.Body).Decode(&a); err != nil {
					t.Fatal(err)
				}
				if a.Summary != "Invoice #1" {
					t.Errorf("summary = %q", a.Summary)
				}
			}
		})
	}
}
