package credentialrepopg

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jrsteele09/go-auth-sessions/credentials"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	repo := NewPostgresRepository(conn)
	repo.nowTime = func() time.Time { return fixedNow }
	return repo, mock
}

func TestCreate_WritesBothRowsInOneTransaction(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+identities`).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@example.com", true, false, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT\s+INTO\s+credentials`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "bcrypt-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	identity := &users.Identity{Name: "Alice", Email: "alice@example.com", IsActive: true}
	credential := &credentials.Credential{PasswordHash: "bcrypt-hash"}
	require.NoError(t, repo.Create(context.Background(), identity, credential))
	require.Equal(t, identity.ID, credential.IdentityID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmailRollsBack(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+identities`).WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &users.Identity{Email: "alice@example.com"}, &credentials.Credential{PasswordHash: "h"})
	require.ErrorIs(t, err, errors.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	cols := []string{"id", "name", "email", "is_active", "is_admin", "created_at", "updated_at",
		"id", "password_hash", "reset_token", "reset_expires_at", "reset_attempts"}
	mock.ExpectQuery(`(?s)SELECT .* FROM identities i\s+JOIN credentials c ON c.identity_id = i.id\s+WHERE i.email = \$1`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("id-1", "Alice", "alice@example.com", true, false, fixedNow, fixedNow,
				"cred-1", "bcrypt-hash", "digest", fixedNow.Add(10*time.Minute), 2))

	account, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "id-1", account.Identity.ID)
	require.Equal(t, "id-1", account.Credential.IdentityID)
	require.Equal(t, "digest", *account.Credential.ResetToken)
	require.Equal(t, 2, account.Credential.ResetAttempts)
	require.True(t, account.Credential.HasLiveReset(fixedNow))

	mock.ExpectQuery(`FROM identities i`).WithArgs("bob@example.com").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByEmail(context.Background(), "bob@example.com")
	require.ErrorIs(t, err, errors.ErrNotFound)
}

func TestGetByEmail_NoResetSlot(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	cols := []string{"id", "name", "email", "is_active", "is_admin", "created_at", "updated_at",
		"id", "password_hash", "reset_token", "reset_expires_at", "reset_attempts"}
	mock.ExpectQuery(`FROM identities i`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("id-1", "Alice", "alice@example.com", true, false, fixedNow, fixedNow,
				"cred-1", "bcrypt-hash", nil, nil, 0))

	account, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Nil(t, account.Credential.ResetToken)
	require.Nil(t, account.Credential.ResetExpiresAt)
}

func TestIncrementResetAttempts_Guarded(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)UPDATE credentials\s+SET reset_attempts = reset_attempts \+ 1\s+WHERE identity_id = \$1 AND reset_token = \$2 AND reset_attempts < \$3\s+RETURNING reset_attempts`

	mock.ExpectQuery(q).WithArgs("id-1", "digest", 5).
		WillReturnRows(sqlmock.NewRows([]string{"reset_attempts"}).AddRow(3))
	n, err := repo.IncrementResetAttempts(context.Background(), "id-1", "digest", 5)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	mock.ExpectQuery(q).WithArgs("id-1", "digest", 5).WillReturnError(sql.ErrNoRows)
	_, err = repo.IncrementResetAttempts(context.Background(), "id-1", "digest", 5)
	require.ErrorIs(t, err, errors.ErrStale)
}

func TestCompleteReset(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)UPDATE credentials\s+SET password_hash = \$4, reset_token = NULL.*WHERE identity_id = \$1 AND reset_token = \$2 AND reset_attempts < \$3 AND reset_expires_at > \$5`

	mock.ExpectExec(q).WithArgs("id-1", "digest", 5, "new-hash", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CompleteReset(context.Background(), "id-1", "digest", "new-hash", 5, fixedNow))

	mock.ExpectExec(q).WithArgs("id-1", "digest", 5, "new-hash", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.CompleteReset(context.Background(), "id-1", "digest", "new-hash", 5, fixedNow), errors.ErrStale)
}

func TestSetAndClearResetToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`(?s)UPDATE credentials\s+SET reset_token = \$2, reset_expires_at = \$3, reset_attempts = 0`).
		WithArgs("id-1", "digest", fixedNow.Add(10*time.Minute)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetResetToken(context.Background(), "id-1", "digest", fixedNow.Add(10*time.Minute)))

	mock.ExpectExec(`(?s)UPDATE credentials\s+SET reset_token = NULL.*WHERE identity_id = \$1 AND reset_token = \$2`).
		WithArgs("id-1", "digest").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.ClearResetToken(context.Background(), "id-1", "digest"))
	require.NoError(t, mock.ExpectationsWereMet())
}
