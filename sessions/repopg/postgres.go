// Package sessionrepopg stores sessions in Postgres. Uniqueness of
// (identity_id, device_id) is enforced by the schema; rotation and logout
// are single conditional statements.
package sessionrepopg

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/internal/db"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/sessions"
	pkgerrors "github.com/pkg/errors"
)

var _ sessions.Repo = (*PostgresRepository)(nil)

const sessionColumns = `id, identity_id, device_id, refresh_token_hash, expires_at, created_at, updated_at`

type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Upsert(ctx context.Context, s *sessions.Session) error {
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	query := `
		INSERT INTO sessions (id, identity_id, device_id, refresh_token_hash, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity_id, device_id) DO UPDATE
		SET refresh_token_hash = EXCLUDED.refresh_token_hash,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	var created time.Time
	err := r.db.QueryRowContext(ctx, query,
		id, s.IdentityID, s.DeviceID, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt, s.UpdatedAt,
	).Scan(&id, &created)
	if err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepository.Upsert]")
	}
	s.ID = id
	s.CreatedAt = created.UTC()
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, identityID, deviceID string) (*sessions.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE identity_id = $1 AND device_id = $2`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, identityID, deviceID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "[PostgresRepository.Get]")
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, identityID string) ([]*sessions.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE identity_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[PostgresRepository.List]")
	}
	defer rows.Close()

	list := make([]*sessions.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "[PostgresRepository.List] scan")
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, "[PostgresRepository.List] rows")
	}
	return list, nil
}

func (r *PostgresRepository) Rotate(ctx context.Context, identityID, deviceID, currentHash, nextHash string, expiresAt, now time.Time) error {
	query := `
		UPDATE sessions
		SET refresh_token_hash = $4, expires_at = $5, updated_at = $6
		WHERE identity_id = $1 AND device_id = $2 AND refresh_token_hash = $3
	`
	return r.execConditional(ctx, "[PostgresRepository.Rotate]", query,
		identityID, deviceID, currentHash, nextHash, expiresAt, now)
}

func (r *PostgresRepository) DeleteMatching(ctx context.Context, identityID, deviceID, hash string) error {
	query := `DELETE FROM sessions WHERE identity_id = $1 AND device_id = $2 AND refresh_token_hash = $3`
	return r.execConditional(ctx, "[PostgresRepository.DeleteMatching]", query, identityID, deviceID, hash)
}

func (r *PostgresRepository) Delete(ctx context.Context, identityID string, deviceIDs ...string) error {
	if len(deviceIDs) == 0 {
		return nil
	}
	placeholders := make([]string, len(deviceIDs))
	args := make([]any, 0, len(deviceIDs)+1)
	args = append(args, identityID)
	for i, d := range deviceIDs {
		placeholders[i] = "$" + strconv.Itoa(i+2)
		args = append(args, d)
	}
	query := `DELETE FROM sessions WHERE identity_id = $1 AND device_id IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepository.Delete]")
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, identityID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE identity_id = $1`, identityID); err != nil {
		return pkgerrors.Wrap(err, "[PostgresRepository.DeleteAll]")
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[PostgresRepository.DeleteExpired]")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[PostgresRepository.DeleteExpired] RowsAffected")
	}
	return n, nil
}

// execConditional returns errors.ErrStale when the WHERE clause matched nothing
func (r *PostgresRepository) execConditional(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return pkgerrors.Wrap(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, op+" RowsAffected")
	}
	if n == 0 {
		return errors.ErrStale
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*sessions.Session, error) {
	var s sessions.Session
	if err := row.Scan(&s.ID, &s.IdentityID, &s.DeviceID, &s.RefreshTokenHash, &s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.ExpiresAt = s.ExpiresAt.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}
