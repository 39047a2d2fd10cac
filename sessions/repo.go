package sessions

import (
	"context"
	"time"
)

// Repo persists sessions. Every conditional write is a single atomic
// operation in the backend; losers of a race get errors.ErrStale.
type Repo interface {
	// Upsert inserts or replaces the session for (IdentityID, DeviceID). ID and
	// CreatedAt of an existing row are kept and copied back into s.
	Upsert(ctx context.Context, s *Session) error
	// Get returns errors.ErrNotFound when no session exists for the pair
	Get(ctx context.Context, identityID, deviceID string) (*Session, error)
	// List returns every session of an identity, oldest first
	List(ctx context.Context, identityID string) ([]*Session, error)
	// Rotate replaces the stored hash only if it still equals currentHash
	Rotate(ctx context.Context, identityID, deviceID, currentHash, nextHash string, expiresAt, now time.Time) error
	// DeleteMatching removes the session only if its hash still equals hash
	DeleteMatching(ctx context.Context, identityID, deviceID, hash string) error
	// Delete removes the given devices' sessions; missing ones are ignored
	Delete(ctx context.Context, identityID string, deviceIDs ...string) error
	// DeleteAll removes every session of an identity
	DeleteAll(ctx context.Context, identityID string) error
	// DeleteExpired removes sessions with expiresAt < now and reports how many went
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
