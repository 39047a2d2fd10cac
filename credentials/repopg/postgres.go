// Package credentialrepopg stores credentials in Postgres next to identities.
// The reset attempt counter is only ever changed by guarded UPDATE statements.
package credentialrepopg

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/credentials"
	"github.com/jrsteele09/go-auth-sessions/internal/db"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/internal/utils"
	"github.com/jrsteele09/go-auth-sessions/users"
	userrepopg "github.com/jrsteele09/go-auth-sessions/users/repopg"
	pkgerrors "github.com/pkg/errors"
)

var _ credentials.Repo = (*PostgresRepository)(nil)

type PostgresRepository struct {
	db      *sql.DB
	nowTime func() time.Time
}

func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn, nowTime: time.Now}
}

func (r *PostgresRepository) Create(ctx context.Context, identity *users.Identity, credential *credentials.Credential) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := userrepopg.InsertIdentity(ctx, tx, identity, r.nowTime().UTC()); err != nil {
			return err
		}
		if credential.ID == "" {
			credential.ID = uuid.New().String()
		}
		credential.IdentityID = identity.ID

		query := `
			INSERT INTO credentials (id, identity_id, password_hash, reset_attempts)
			VALUES ($1, $2, $3, 0)
		`
		if _, err := tx.ExecContext(ctx, query, credential.ID, credential.IdentityID, credential.PasswordHash); err != nil {
			return pkgerrors.Wrap(err, "[PostgresRepository.Create] insert credential")
		}
		return nil
	})
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*credentials.Account, error) {
	query := `
		SELECT i.id, i.name, i.email, i.is_active, i.is_admin, i.created_at, i.updated_at,
		       c.id, c.password_hash, c.reset_token, c.reset_expires_at, c.reset_attempts
		FROM identities i
		JOIN credentials c ON c.identity_id = i.id
		WHERE i.email = $1
	`
	var (
		i          users.Identity
		c          credentials.Credential
		resetToken sql.NullString
		resetExp   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&i.ID, &i.Name, &i.Email, &i.IsActive, &i.IsAdmin, &i.CreatedAt, &i.UpdatedAt,
		&c.ID, &c.PasswordHash, &resetToken, &resetExp, &c.ResetAttempts,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "[PostgresRepository.GetByEmail]")
	}
	c.IdentityID = i.ID
	if resetToken.Valid {
		c.ResetToken = utils.Ptr(resetToken.String)
	}
	if resetExp.Valid {
		c.ResetExpiresAt = utils.TimePtrUTC(&resetExp.Time)
	}
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	return &credentials.Account{Identity: &i, Credential: &c}, nil
}

func (r *PostgresRepository) SetResetToken(ctx context.Context, identityID, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE credentials
		SET reset_token = $2, reset_expires_at = $3, reset_attempts = 0
		WHERE identity_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, identityID, tokenHash, expiresAt.UTC())
	if err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepository.SetResetToken]")
	}
	return requireRow(res, errors.ErrNotFound)
}

func (r *PostgresRepository) IncrementResetAttempts(ctx context.Context, identityID, tokenHash string, maxAttempts int) (int, error) {
	query := `
		UPDATE credentials
		SET reset_attempts = reset_attempts + 1
		WHERE identity_id = $1 AND reset_token = $2 AND reset_attempts < $3
		RETURNING reset_attempts
	`
	var attempts int
	if err := r.db.QueryRowContext(ctx, query, identityID, tokenHash, maxAttempts).Scan(&attempts); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, errors.ErrStale
		}
		return 0, pkgerrors.Wrap(err, "[PostgresRepository.IncrementResetAttempts]")
	}
	return attempts, nil
}

func (r *PostgresRepository) ClearResetToken(ctx context.Context, identityID, tokenHash string) error {
	query := `
		UPDATE credentials
		SET reset_token = NULL, reset_expires_at = NULL, reset_attempts = 0
		WHERE identity_id = $1 AND reset_token = $2
	`
	if _, err := r.db.ExecContext(ctx, query, identityID, tokenHash); err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepository.ClearResetToken]")
	}
	return nil
}

func (r *PostgresRepository) CompleteReset(ctx context.Context, identityID, tokenHash, passwordHash string, maxAttempts int, now time.Time) error {
	query := `
		UPDATE credentials
		SET password_hash = $4, reset_token = NULL, reset_expires_at = NULL, reset_attempts = 0
		WHERE identity_id = $1 AND reset_token = $2 AND reset_attempts < $3 AND reset_expires_at > $5
	`
	res, err := r.db.ExecContext(ctx, query, identityID, tokenHash, maxAttempts, passwordHash, now.UTC())
	if err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepository.CompleteReset]")
	}
	return requireRow(res, errors.ErrStale)
}

func requireRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "RowsAffected")
	}
	if n == 0 {
		return none
	}
	return nil
}
