package classifications

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/pkg/pagination"
	"github.com/JaimeStill/docai/pkg/query"
	"github.com/JaimeStill/docai/pkg/repository"
)

const (
	classificationColumns = "id, name, description, priority, threshold, created_at, updated_at"
	patternColumns        = "id, classification_id, pattern, flags, created_at"
	definitionColumns     = "id, classification_id, key, label, data_type, rule_type, expression, required, created_at"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing the System interface.
func New(
	db *sql.DB,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxBundleSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxBundleSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Classification], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "Description")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count classifications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Classification, error) {
	return r.find(ctx, r.db, id)
}

func (r *repo) find(ctx context.Context, q repository.Querier, id uuid.UUID) (*Classification, error) {
	sqlStr, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, q, sqlStr, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Classification, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	q := `
		INSERT INTO classifications(id, name, description, priority, threshold)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + classificationColumns

	args := []any{id, cmd.Name, cmd.Description, cmd.Priority, cmd.threshold()}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Classification, error) {
		return repository.QueryOne(ctx, tx, q, args, scanClassification)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification created", "id", c.ID, "name", c.Name)
	return &c, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Classification, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	q := `
		UPDATE classifications
		SET name = $1, description = $2, priority = $3, threshold = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + classificationColumns

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Classification, error) {
		existing, err := r.find(ctx, tx, id)
		if err != nil {
			return Classification{}, err
		}
		if existing.Protected() && cmd.Name != UndefinedName {
			return Classification{}, ErrProtected
		}

		updated, err := repository.QueryOne(
			ctx, tx, q,
			[]any{cmd.Name, cmd.Description, cmd.Priority, cmd.threshold(), id},
			scanClassification,
		)
		if err != nil {
			return Classification{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("classification updated", "id", c.ID, "name", c.Name)
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		existing, err := r.find(ctx, tx, id)
		if err != nil {
			return struct{}{}, err
		}
		if existing.Protected() {
			return struct{}{}, ErrProtected
		}

		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM classifications WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, repository.MapError(err, ErrNotFound, ErrDuplicate)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("classification deleted", "id", id)
	return nil
}

func (r *repo) ListPatterns(ctx context.Context, id uuid.UUID) ([]Pattern, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return r.LoadPatterns(ctx, id)
}

func (r *repo) AddPatterns(ctx context.Context, id uuid.UUID, cmds []PatternCommand) ([]Pattern, error) {
	for i, cmd := range cmds {
		if err := cmd.validate(); err != nil {
			return nil, fmt.Errorf("patterns[%d]: %w", i, err)
		}
	}

	patterns, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]Pattern, error) {
		if _, err := r.find(ctx, tx, id); err != nil {
			return nil, err
		}
		return insertPatterns(ctx, tx, id, cmds)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("patterns added", "classification_id", id, "count", len(patterns))
	return patterns, nil
}

func (r *repo) DeletePattern(ctx context.Context, id, patternID uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"DELETE FROM classification_patterns WHERE id = $1 AND classification_id = $2",
		patternID, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("pattern deleted", "classification_id", id, "pattern_id", patternID)
	return nil
}

func (r *repo) ListDefinitions(ctx context.Context, id uuid.UUID) ([]Definition, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}
	return r.LoadDefinitions(ctx, id)
}

func (r *repo) AddDefinitions(ctx context.Context, id uuid.UUID, cmds []DefinitionCommand) ([]Definition, error) {
	for i, cmd := range cmds {
		if err := cmd.validate(); err != nil {
			return nil, fmt.Errorf("data_points[%d]: %w", i, err)
		}
	}

	q := `
		INSERT INTO data_point_definitions(id, classification_id, key, label, data_type, rule_type, expression, required)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + definitionColumns

	defs, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]Definition, error) {
		if _, err := r.find(ctx, tx, id); err != nil {
			return nil, err
		}

		defs := make([]Definition, 0, len(cmds))
		for _, cmd := range cmds {
			defID, err := uuid.NewV7()
			if err != nil {
				return nil, fmt.Errorf("generate id: %w", err)
			}

			d, err := repository.QueryOne(ctx, tx, q, []any{
				defID, id, cmd.Key, cmd.Label,
				string(cmd.Type), string(cmd.RuleType),
				cmd.Expression, cmd.Required,
			}, scanDefinition)
			if err != nil {
				return nil, err
			}
			defs = append(defs, d)
		}
		return defs, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("data points added", "classification_id", id, "count", len(defs))
	return defs, nil
}

func (r *repo) DeleteDefinition(ctx context.Context, id, definitionID uuid.UUID) error {
	err := repository.ExecExpectOne(
		ctx, r.db,
		"DELETE FROM data_point_definitions WHERE id = $1 AND classification_id = $2",
		definitionID, id,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("data point deleted", "classification_id", id, "definition_id", definitionID)
	return nil
}

func (r *repo) EnsureFallback(ctx context.Context) (*Classification, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO classifications(id, name, description, priority, threshold)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (name) DO NOTHING`,
		id, UndefinedName, "Fallback for documents that match no classification",
	); err != nil {
		return nil, fmt.Errorf("ensure fallback classification: %w", err)
	}

	return r.ResolveByName(ctx, UndefinedName)
}

func (r *repo) LoadClassifications(ctx context.Context) ([]Classification, error) {
	q, args := query.NewBuilder(projection, candidateSort).Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("load classifications: %w", err)
	}
	return items, nil
}

func (r *repo) LoadPatterns(ctx context.Context, classificationID uuid.UUID) ([]Pattern, error) {
	q, args := query.
		NewBuilder(patternProjection, childSort).
		WhereEquals("ClassificationID", classificationID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanPattern)
	if err != nil {
		return nil, fmt.Errorf("load patterns: %w", err)
	}
	return items, nil
}

func (r *repo) LoadDefinitions(ctx context.Context, classificationID uuid.UUID) ([]Definition, error) {
	q, args := query.
		NewBuilder(definitionProjection, childSort).
		WhereEquals("ClassificationID", classificationID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanDefinition)
	if err != nil {
		return nil, fmt.Errorf("load data point definitions: %w", err)
	}
	return items, nil
}

func (r *repo) ResolveByName(ctx context.Context, name string) (*Classification, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("Name", name).
		BuildSingleOrNull()

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func insertPatterns(ctx context.Context, tx *sql.Tx, id uuid.UUID, cmds []PatternCommand) ([]Pattern, error) {
	q := `
		INSERT INTO classification_patterns(id, classification_id, pattern, flags)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + patternColumns

	patterns := make([]Pattern, 0, len(cmds))
	for _, cmd := range cmds {
		patternID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}

		p, err := repository.QueryOne(ctx, tx, q, []any{patternID, id, cmd.Pattern, cmd.Flags}, scanPattern)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}
