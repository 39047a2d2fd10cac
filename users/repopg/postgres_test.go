package userrepopg

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	repo := NewPostgresRepository(conn)
	repo.nowTime = func() time.Time { return fixedNow }
	return repo, mock, conn
}

func TestCreate(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+identities\b.*VALUES`).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@example.com", true, false, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	identity := &users.Identity{Name: "Alice", Email: "alice@example.com", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), identity))
	require.NotEmpty(t, identity.ID)
	require.Equal(t, fixedNow, identity.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+identities`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &users.Identity{Name: "Alice", Email: "alice@example.com"})
	require.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestGetByEmail(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "is_active", "is_admin", "created_at", "updated_at"}).
		AddRow("id-1", "Alice", "alice@example.com", true, false, fixedNow, fixedNow)
	mock.ExpectQuery(`SELECT .* FROM identities WHERE email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "id-1", got.ID)
	require.True(t, got.IsActive)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectQuery(`SELECT .* FROM identities WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestSetActive(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectExec(`UPDATE identities SET is_active = \$2`).
		WithArgs("id-1", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetActive(context.Background(), "id-1", false))

	mock.ExpectExec(`UPDATE identities SET is_active = \$2`).
		WithArgs("missing", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.SetActive(context.Background(), "missing", false), errors.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock, conn := newRepoWithMock(t)
	defer conn.Close()

	mock.ExpectExec(`DELETE FROM identities WHERE id = \$1`).
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "id-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
