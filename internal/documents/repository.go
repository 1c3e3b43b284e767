package documents

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/internal/extraction"
	"github.com/JaimeStill/docai/pkg/pagination"
	"github.com/JaimeStill/docai/pkg/query"
	"github.com/JaimeStill/docai/pkg/repository"
	"github.com/JaimeStill/docai/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a document repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "documents"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64, enqueuer Enqueuer) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize, enqueuer)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "Classification")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	q := `
		INSERT INTO documents(id, filename, content_type, size_bytes, page_count, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx, q,
			id,
			cmd.Filename,
			cmd.ContentType,
			int64(len(cmd.Data)),
			cmd.PageCount,
			key,
		)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	d, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	r.logger.Info("document created", "id", d.ID, "filename", d.Filename, "size", d.SizeBytes)
	return d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM documents WHERE id = $1",
			id,
		)
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, doc.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", doc.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

func (r *repo) Open(ctx context.Context, id uuid.UUID) (*Document, io.ReadCloser, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := r.storage.Download(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download document blob: %w", err)
	}

	return doc, body, nil
}

func (r *repo) Text(ctx context.Context, id uuid.UUID) (*Text, error) {
	q := `
		SELECT document_id, content, created_at, updated_at
		FROM document_texts
		WHERE document_id = $1`

	t, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanText)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) DataPoints(ctx context.Context, id uuid.UUID) ([]DataPoint, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}

	q, args := query.
		NewBuilder(dataPointProjection, dataPointSort).
		WhereEquals("DocumentID", id).
		Build()

	points, err := repository.QueryMany(ctx, r.db, q, args, scanDataPoint)
	if err != nil {
		return nil, fmt.Errorf("query data points: %w", err)
	}
	return points, nil
}

func (r *repo) Claim(ctx context.Context, id uuid.UUID) (*Document, error) {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		err := repository.ExecExpectOne(
			ctx, tx,
			`UPDATE documents
			SET status = 'processing', updated_at = NOW()
			WHERE id = $1 AND status <> 'processing'`,
			id,
		)
		if !errors.Is(err, sql.ErrNoRows) {
			return struct{}{}, err
		}

		var exists bool
		if err := tx.QueryRowContext(
			ctx,
			"SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)",
			id,
		).Scan(&exists); err != nil {
			return struct{}{}, err
		}

		if !exists {
			return struct{}{}, ErrNotFound
		}
		return struct{}{}, ErrInvalidStatus
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return r.Find(ctx, id)
}

func (r *repo) SaveState(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var processedAt *time.Time
	if status.Terminal() {
		processedAt = &at
	}

	q := `
		UPDATE documents
		SET status = $2, updated_at = $3, processed_at = COALESCE($4, processed_at)
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, q, id, string(status), at, processedAt); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) SaveRawText(ctx context.Context, id uuid.UUID, text string) error {
	q := `
		INSERT INTO document_texts(document_id, content)
		VALUES ($1, $2)
		ON CONFLICT (document_id) DO UPDATE SET
			content = EXCLUDED.content,
			updated_at = NOW()`

	if _, err := repository.Exec(ctx, r.db, q, id, text); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) SaveClassification(ctx context.Context, id uuid.UUID, classificationID uuid.UUID, score float64) error {
	q := `
		UPDATE documents
		SET classification_id = $2, score = $3, updated_at = NOW()
		WHERE id = $1`

	if err := repository.ExecExpectOne(ctx, r.db, q, id, classificationID, score); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) ClearDataPoints(ctx context.Context, id uuid.UUID) error {
	if _, err := repository.Exec(ctx, r.db, "DELETE FROM extracted_data_points WHERE document_id = $1", id); err != nil {
		return fmt.Errorf("clear data points: %w", err)
	}
	return nil
}

func (r *repo) SaveDataPoint(ctx context.Context, id uuid.UUID, p extraction.DataPoint) error {
	pointID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}

	q := `
		INSERT INTO extracted_data_points(
			id, document_id, definition_id, classification_id, key, data_type, raw,
			value_string, value_number, value_date, confidence, page, span_start, span_end
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (document_id, definition_id) DO UPDATE SET
			classification_id = EXCLUDED.classification_id,
			key = EXCLUDED.key,
			data_type = EXCLUDED.data_type,
			raw = EXCLUDED.raw,
			value_string = EXCLUDED.value_string,
			value_number = EXCLUDED.value_number,
			value_date = EXCLUDED.value_date,
			confidence = EXCLUDED.confidence,
			page = EXCLUDED.page,
			span_start = EXCLUDED.span_start,
			span_end = EXCLUDED.span_end`

	_, err = r.db.ExecContext(
		ctx, q,
		pointID,
		id,
		p.DefinitionID,
		p.ClassificationID,
		p.Key,
		string(p.Type),
		p.Raw,
		p.ValueString,
		p.ValueNumber,
		p.ValueDate,
		p.Confidence,
		p.Page,
		p.SpanStart,
		p.SpanEnd,
	)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) SaveSummary(ctx context.Context, id uuid.UUID, summary string) error {
	q := "UPDATE documents SET summary = $2, updated_at = NOW() WHERE id = $1"

	if err := repository.ExecExpectOne(ctx, r.db, q, id, summary); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (r *repo) ListStale(ctx context.Context, before time.Time) ([]uuid.UUID, error) {
	q, args := query.
		NewBuilder(idProjection, idSort).
		WhereEquals("Status", string(StatusProcessing)).
		WhereBefore("UpdatedAt", before).
		Build()

	ids, err := repository.QueryMany(ctx, r.db, q, args, scanID)
	if err != nil {
		return nil, fmt.Errorf("list stale documents: %w", err)
	}
	return ids, nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "" || name == "/" {
		name = "document"
	}
	return url.PathEscape(name)
}
