package users

import "context"

// Repo is the identity directory. Lookups return errors.ErrNotFound from
// internal/errors when nothing matches; Create returns errors.ErrAlreadyExists
// when the email is taken by any identity, active or not.
type Repo interface {
	Create(ctx context.Context, identity *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetAdmin(ctx context.Context, id string, admin bool) error
	Delete(ctx context.Context, id string) error
}
