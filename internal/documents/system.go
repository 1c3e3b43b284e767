package documents

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/extraction"
	"github.com/JaimeStill/docai/pkg/pagination"
)

// Enqueuer schedules a document for background processing.
type Enqueuer interface {
	Enqueue(id uuid.UUID) error
}

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64, enqueuer Enqueuer) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Open(ctx context.Context, id uuid.UUID) (*Document, io.ReadCloser, error)
	Text(ctx context.Context, id uuid.UUID) (*Text, error)
	DataPoints(ctx context.Context, id uuid.UUID) ([]DataPoint, error)

	// Processing persistence.

	Claim(ctx context.Context, id uuid.UUID) (*Document, error)
	SaveState(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
	SaveRawText(ctx context.Context, id uuid.UUID, text string) error
	SaveClassification(ctx context.Context, id uuid.UUID, classificationID uuid.UUID, score float64) error
	ClearDataPoints(ctx context.Context, id uuid.UUID) error
	SaveDataPoint(ctx context.Context, id uuid.UUID, point extraction.DataPoint) error
	SaveSummary(ctx context.Context, id uuid.UUID, summary string) error
	ListStale(ctx context.Context, before time.Time) ([]uuid.UUID, error)
}
