package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"hidesync/internal/core/apperror"
)

// PostgreSQL error codes the repositories translate.
const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

// MapConstraintError translates unique and foreign key violations into the
// application error taxonomy. Other errors pass through unchanged.
func MapConstraintError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(entity, "unique key", pgErr.ConstraintName).WithCause(err)
	case pgFKViolation:
		return apperror.NewConflict("entity is referenced by other records").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
