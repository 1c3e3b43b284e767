package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/classifications"
	"github.com/JaimeStill/docai/internal/documents"
	"github.com/JaimeStill/docai/internal/extraction"
	"github.com/JaimeStill/docai/internal/rules"
)

// TextExtractor produces the raw text of a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *documents.Document) (string, error)
}

// ConfigStore reads classification configuration.
type ConfigStore interface {
	rules.Store
	LoadDefinitions(ctx context.Context, classificationID uuid.UUID) ([]classifications.Definition, error)
	ResolveByName(ctx context.Context, name string) (*classifications.Classification, error)
}

// Persistence records processing state and results for a document.
type Persistence interface {
	Claim(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	SaveState(ctx context.Context, id uuid.UUID, status documents.Status, at time.Time) error
	SaveRawText(ctx context.Context, id uuid.UUID, text string) error
	SaveClassification(ctx context.Context, id uuid.UUID, classificationID uuid.UUID, score float64) error
	ClearDataPoints(ctx context.Context, id uuid.UUID) error
	SaveDataPoint(ctx context.Context, id uuid.UUID, point extraction.DataPoint) error
	SaveSummary(ctx context.Context, id uuid.UUID, summary string) error
	ListStale(ctx context.Context, before time.Time) ([]uuid.UUID, error)
}

// Runtime bundles the collaborators the pipeline requires.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Text         TextExtractor
	Config       ConfigStore
	Store        Persistence
	Compiler     *rules.Compiler
	Extractor    *extraction.Extractor
	Fallback     string
	MaxSentences int
	Logger       *slog.Logger
	Now          func() time.Time
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now()
}

func (rt *Runtime) fallback() string {
	if rt.Fallback == "" {
		return classifications.UndefinedName
	}
	return rt.Fallback
}
