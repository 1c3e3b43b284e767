package classifications

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/docai/pkg/repository"
)

func (r *repo) Export(ctx context.Context) (*Bundle, error) {
	items, err := r.LoadClassifications(ctx)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{Classifications: make([]BundleClassification, 0, len(items))}

	for _, c := range items {
		patterns, err := r.LoadPatterns(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		defs, err := r.LoadDefinitions(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		threshold := c.Threshold
		entry := BundleClassification{
			Name:        c.Name,
			Description: c.Description,
			Priority:    c.Priority,
			Threshold:   &threshold,
		}

		for _, p := range patterns {
			entry.Patterns = append(entry.Patterns, BundlePattern{
				Pattern: p.Pattern,
				Flags:   p.Flags,
			})
		}

		for _, d := range defs {
			entry.DataPoints = append(entry.DataPoints, BundleDefinition{
				Key:        d.Key,
				Label:      d.Label,
				Type:       d.Type,
				RuleType:   d.RuleType,
				Expression: d.Expression,
				Required:   d.Required,
			})
		}

		bundle.Classifications = append(bundle.Classifications, entry)
	}

	return bundle, nil
}

func (r *repo) Import(ctx context.Context, bundle *Bundle) (*ImportResult, error) {
	if err := bundle.validate(); err != nil {
		return nil, err
	}

	result, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (ImportResult, error) {
		var res ImportResult

		for _, entry := range bundle.Classifications {
			id, err := upsertClassification(ctx, tx, entry.command())
			if err != nil {
				return res, fmt.Errorf("import %s: %w", entry.Name, err)
			}

			if _, err := tx.ExecContext(ctx,
				"DELETE FROM classification_patterns WHERE classification_id = $1",
				id,
			); err != nil {
				return res, fmt.Errorf("import %s: clear patterns: %w", entry.Name, err)
			}

			cmds := make([]PatternCommand, len(entry.Patterns))
			for i, p := range entry.Patterns {
				cmds[i] = p.command()
			}
			patterns, err := insertPatterns(ctx, tx, id, cmds)
			if err != nil {
				return res, fmt.Errorf("import %s: patterns: %w", entry.Name, err)
			}

			keys := make([]string, 0, len(entry.DataPoints))
			for _, d := range entry.DataPoints {
				if err := upsertDefinition(ctx, tx, id, d.command()); err != nil {
					return res, fmt.Errorf("import %s: data point %s: %w", entry.Name, d.Key, err)
				}
				keys = append(keys, d.Key)
			}

			if _, err := tx.ExecContext(ctx,
				"DELETE FROM data_point_definitions WHERE classification_id = $1 AND NOT (key = ANY($2))",
				id, keys,
			); err != nil {
				return res, fmt.Errorf("import %s: prune data points: %w", entry.Name, err)
			}

			res.Classifications++
			res.Patterns += len(patterns)
			res.DataPoints += len(keys)
		}

		return res, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("rule bundle imported",
		"classifications", result.Classifications,
		"patterns", result.Patterns,
		"data_points", result.DataPoints,
	)
	return &result, nil
}

func upsertClassification(ctx context.Context, tx *sql.Tx, cmd CreateCommand) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate id: %w", err)
	}

	var stored uuid.UUID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO classifications(id, name, description, priority, threshold)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			priority = EXCLUDED.priority,
			threshold = EXCLUDED.threshold,
			updated_at = NOW()
		RETURNING id`,
		id, cmd.Name, cmd.Description, cmd.Priority, cmd.threshold(),
	).Scan(&stored)

	return stored, err
}

func upsertDefinition(ctx context.Context, tx *sql.Tx, classificationID uuid.UUID, cmd DefinitionCommand) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO data_point_definitions(id, classification_id, key, label, data_type, rule_type, expression, required)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (classification_id, key) DO UPDATE SET
			label = EXCLUDED.label,
			data_type = EXCLUDED.data_type,
			rule_type = EXCLUDED.rule_type,
			expression = EXCLUDED.expression,
			required = EXCLUDED.required`,
		id, classificationID, cmd.Key, cmd.Label,
		string(cmd.Type), string(cmd.RuleType),
		cmd.Expression, cmd.Required,
	)
	return err
}
