package classifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/pkg/pagination"
)

// System defines the public contract for classification domain operations.
// The Load and Resolve methods form the read-only configuration store
// consumed by the processing pipeline.
type System interface {
	Handler(maxBundleSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Classification], error)

	Find(ctx context.Context, id uuid.UUID) (*Classification, error)
	Create(ctx context.Context, cmd CreateCommand) (*Classification, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Classification, error)
	Delete(ctx context.Context, id uuid.UUID) error

	ListPatterns(ctx context.Context, id uuid.UUID) ([]Pattern, error)
	AddPatterns(ctx context.Context, id uuid.UUID, cmds []PatternCommand) ([]Pattern, error)
	DeletePattern(ctx context.Context, id, patternID uuid.UUID) error

	ListDefinitions(ctx context.Context, id uuid.UUID) ([]Definition, error)
	AddDefinitions(ctx context.Context, id uuid.UUID, cmds []DefinitionCommand) ([]Definition, error)
	DeleteDefinition(ctx context.Context, id, definitionID uuid.UUID) error

	Export(ctx context.Context) (*Bundle, error)
	Import(ctx context.Context, bundle *Bundle) (*ImportResult, error)
	EnsureFallback(ctx context.Context) (*Classification, error)

	LoadClassifications(ctx context.Context) ([]Classification, error)
	LoadPatterns(ctx context.Context, classificationID uuid.UUID) ([]Pattern, error)
	LoadDefinitions(ctx context.Context, classificationID uuid.UUID) ([]Definition, error)
	ResolveByName(ctx context.Context, name string) (*Classification, error)
}
