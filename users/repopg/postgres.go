// Package userrepopg stores identities in Postgres.
package userrepopg

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/internal/db"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
	pkgerrors "github.com/pkg/errors"
)

var _ users.Repo = (*PostgresRepository)(nil)

const identityColumns = `id, name, email, is_active, is_admin, created_at, updated_at`

// PostgresRepository implements users.Repo over db.DBTX.
type PostgresRepository struct {
	db      db.DBTX
	nowTime func() time.Time
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, nowTime: time.Now}
}

// InsertIdentity writes identity through tx, shared with the credentials repository
// so both rows are created in one transaction.
func InsertIdentity(ctx context.Context, tx db.DBTX, identity *users.Identity, now time.Time) error {
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now

	query := `
		INSERT INTO identities (id, name, email, is_active, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		identity.ID, identity.Name, identity.Email, identity.IsActive, identity.IsAdmin,
		identity.CreatedAt, identity.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return errors.ErrAlreadyExists
		}
		return pkgerrors.Wrap(err, "[InsertIdentity] insert")
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, identity *users.Identity) error {
	return InsertIdentity(ctx, r.db, identity, r.nowTime().UTC())
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*users.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE id = $1`
	return scanIdentity(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*users.Identity, error) {
	query := `SELECT ` + identityColumns + ` FROM identities WHERE email = $1`
	return scanIdentity(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE identities SET is_active = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "[PostgresRepository.SetActive]", query, id, active, r.nowTime().UTC())
}

func (r *PostgresRepository) SetAdmin(ctx context.Context, id string, admin bool) error {
	query := `UPDATE identities SET is_admin = $2, updated_at = $3 WHERE id = $1`
	return r.execOne(ctx, "[PostgresRepository.SetAdmin]", query, id, admin, r.nowTime().UTC())
}

// Delete removes the identity; credentials and sessions go with it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "[PostgresRepository.Delete]", `DELETE FROM identities WHERE id = $1`, id)
}

func (r *PostgresRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return pkgerrors.Wrap(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, op+" RowsAffected")
	}
	if n == 0 {
		return errors.ErrNotFound
	}
	return nil
}

func scanIdentity(row *sql.Row) (*users.Identity, error) {
	var i users.Identity
	if err := row.Scan(&i.ID, &i.Name, &i.Email, &i.IsActive, &i.IsAdmin, &i.CreatedAt, &i.UpdatedAt); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "[scanIdentity]")
	}
	i.CreatedAt = i.CreatedAt.UTC()
	i.UpdatedAt = i.UpdatedAt.UTC()
	return &i, nil
}
