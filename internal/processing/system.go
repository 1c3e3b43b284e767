// Package processing exposes the document pipeline over HTTP: synchronous
// runs, background queueing, batches, stale-run recovery, and dry-run previews.
package processing

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/workflow"
)

// System is the pipeline surface served by the processing handler.
// workflow.Runner implements it.
type System interface {
	Process(ctx context.Context, id uuid.UUID) (*workflow.Result, error)
	Enqueue(id uuid.UUID) error
	ProcessBatch(ctx context.Context, ids []uuid.UUID) []workflow.BatchResult
	Recover(ctx context.Context) (*workflow.Recovery, error)
	Preview(ctx context.Context, text string) (*workflow.Analysis, error)
}

var _ System = (*workflow.Runner)(nil)

// DocumentFinder resolves documents before they are queued.
// documents.System implements it.
type DocumentFinder interface {
	Find(ctx context.Context, id uuid.UUID) (*documents.Document, error)
}

// BatchRequest lists documents to process in one call.
type BatchRequest struct {
	DocumentIDs []uuid.UUID `json:"document_ids"`
}

// PreviewRequest carries text to analyze without a stored document.
type PreviewRequest struct {
	Text string `json:"text"`
}

// Queued acknowledges an accepted enqueue request.
type Queued struct {
	DocumentID uuid.UUID `json:"document_id"`
	Status     string    `json:"status"`
}
