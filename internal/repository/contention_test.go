package repository

import (
	"errors"
	"testing"

	"ticketpro/pkg/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateContention(t *testing.T) {
	t.Run("Lock timeout maps to concurrency conflict", func(t *testing.T) {
		err := translateContention(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

		assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
	})

	t.Run("Cancelled statement maps to concurrency conflict", func(t *testing.T) {
		err := translateContention(&pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"})

		assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict)
	})

	t.Run("Other database errors pass through", func(t *testing.T) {
		unique := &pgconn.PgError{Code: "23505"}

		assert.Equal(t, error(unique), translateContention(unique))
	})

	t.Run("Non-database errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")

		assert.Equal(t, plain, translateContention(plain))
	})

	t.Run("Nil passes through", func(t *testing.T) {
		assert.NoError(t, translateContention(nil))
	})
}
