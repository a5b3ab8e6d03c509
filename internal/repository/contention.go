package repository

import (
	"errors"

	"ticketpro/pkg/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres surfaces an exceeded lock_timeout as SQLSTATE 55P03 and a statement
// cancelled by statement_timeout (or a context deadline) as 57014. Both mean
// the caller lost a race for a hot row, so they are folded onto one retryable
// sentinel.
const (
	lockNotAvailable = "55P03"
	queryCanceled    = "57014"
)

func translateContention(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case lockNotAvailable, queryCanceled:
			return apperrors.ErrConcurrencyConflict
		}
	}
	return err
}
