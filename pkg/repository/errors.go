package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// ErrConstraint reports a row rejected by a CHECK constraint.
var ErrConstraint = errors.New("constraint violation")

// MapError translates driver errors into domain errors:
//   - sql.ErrNoRows and foreign key violations become notFoundErr
//   - unique violations become duplicateErr
//   - check violations wrap ErrConstraint with the constraint name
//
// Anything else is returned unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return duplicateErr
	case codeForeignKeyViolation:
		return notFoundErr
	case codeCheckViolation:
		return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
	}
	return err
}
