package db_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-auth-sessions/internal/db"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, db.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.True(t, db.IsUniqueViolation(errors.Wrap(&pgconn.PgError{Code: "23505"}, "insert")))
	require.False(t, db.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	require.False(t, db.IsUniqueViolation(errors.New("boom")))
}

func TestWithTx(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()
	require.NoError(t, db.WithTx(context.Background(), conn, func(_ *sql.Tx) error { return nil }))

	mock.ExpectBegin()
	mock.ExpectRollback()
	failure := errors.New("step failed")
	require.ErrorIs(t, db.WithTx(context.Background(), conn, func(_ *sql.Tx) error { return failure }), failure)

	require.NoError(t, mock.ExpectationsWereMet())
}
