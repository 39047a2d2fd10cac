package credentials

import (
	"context"
	"time"

	"github.com/jrsteele09/go-auth-sessions/users"
)

// Repo persists credentials alongside identities. Conditional writes return
// errors.ErrStale from internal/errors when their guard no longer holds.
type Repo interface {
	// Create stores identity and credential atomically; errors.ErrAlreadyExists when the email is taken
	Create(ctx context.Context, identity *users.Identity, credential *Credential) error
	// GetByEmail returns the identity with its credential, errors.ErrNotFound when unknown
	GetByEmail(ctx context.Context, email string) (*Account, error)
	// SetResetToken replaces any outstanding reset slot and zeroes the attempt counter
	SetResetToken(ctx context.Context, identityID, tokenHash string, expiresAt time.Time) error
	// IncrementResetAttempts adds one failed guess while attempts < maxAttempts and the
	// slot still holds tokenHash, returning the new count
	IncrementResetAttempts(ctx context.Context, identityID, tokenHash string, maxAttempts int) (int, error)
	// ClearResetToken burns the slot if it still holds tokenHash
	ClearResetToken(ctx context.Context, identityID, tokenHash string) error
	// CompleteReset stores passwordHash and clears the slot, guarded by tokenHash,
	// attempts < maxAttempts and an unexpired slot
	CompleteReset(ctx context.Context, identityID, tokenHash, passwordHash string, maxAttempts int, now time.Time) error
}
