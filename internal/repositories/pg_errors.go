package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "resource-system/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgExclusionViolation  = "23P01"
)

// translatePgError maps storage failures onto domain errors so raw driver
// messages never reach clients.
func translatePgError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == "users_email_lower_key" {
				return apperrors.New(apperrors.KindInvalidRequest, "Email is already registered", apperrors.ErrEmailTaken)
			}
			return apperrors.New(apperrors.KindConflict, "Record already exists", fmt.Errorf("%s: %w", op, err))
		case pgForeignKeyViolation:
			return apperrors.New(apperrors.KindInvalidRequest, "Referenced record does not exist", fmt.Errorf("%s: %w", op, err))
		case pgCheckViolation:
			return apperrors.New(apperrors.KindInvalidRequest, "Value violates a data constraint", fmt.Errorf("%s: %w", op, err))
		case pgExclusionViolation:
			return apperrors.New(apperrors.KindInvalidRequest, "Resource is already booked for the requested time window", fmt.Errorf("%s: %w", op, err))
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
