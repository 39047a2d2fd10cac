package fakecredentialrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/credentials"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-sessions/users/repofake"
)

var _ credentials.Repo = (*FakeCredentialRepo)(nil)

// FakeCredentialRepo keeps credentials in memory next to a fake identity directory.
// Credentials of deleted identities are unreachable, as with a cascading delete.
type FakeCredentialRepo struct {
	users       *fakeuserrepo.FakeUserRepo
	credentials map[string]*credentials.Credential // identity id to credential
	lock        sync.Mutex
}

func NewFakeCredentialRepo(userRepo *fakeuserrepo.FakeUserRepo) *FakeCredentialRepo {
	return &FakeCredentialRepo{
		users:       userRepo,
		credentials: make(map[string]*credentials.Credential),
	}
}

func (cr *FakeCredentialRepo) Create(ctx context.Context, identity *users.Identity, credential *credentials.Credential) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	if err := cr.users.Create(ctx, identity); err != nil {
		return err
	}
	if credential.ID == "" {
		credential.ID = uuid.New().String()
	}
	credential.IdentityID = identity.ID
	cr.credentials[identity.ID] = credential.Clone()
	return nil
}

func (cr *FakeCredentialRepo) GetByEmail(ctx context.Context, email string) (*credentials.Account, error) {
	identity, err := cr.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	cr.lock.Lock()
	defer cr.lock.Unlock()
	c, ok := cr.credentials[identity.ID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &credentials.Account{Identity: identity, Credential: c.Clone()}, nil
}

func (cr *FakeCredentialRepo) SetResetToken(_ context.Context, identityID, tokenHash string, expiresAt time.Time) error {
	return cr.update(identityID, func(c *credentials.Credential) error {
		c.ResetToken = &tokenHash
		c.ResetExpiresAt = &expiresAt
		c.ResetAttempts = 0
		return nil
	})
}

func (cr *FakeCredentialRepo) IncrementResetAttempts(_ context.Context, identityID, tokenHash string, maxAttempts int) (int, error) {
	var attempts int
	err := cr.update(identityID, func(c *credentials.Credential) error {
		if !holds(c, tokenHash) || c.ResetAttempts >= maxAttempts {
			return errors.ErrStale
		}
		c.ResetAttempts++
		attempts = c.ResetAttempts
		return nil
	})
	return attempts, err
}

func (cr *FakeCredentialRepo) ClearResetToken(_ context.Context, identityID, tokenHash string) error {
	err := cr.update(identityID, func(c *credentials.Credential) error {
		if holds(c, tokenHash) {
			clearReset(c)
		}
		return nil
	})
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	return err
}

func (cr *FakeCredentialRepo) CompleteReset(_ context.Context, identityID, tokenHash, passwordHash string, maxAttempts int, now time.Time) error {
	return cr.update(identityID, func(c *credentials.Credential) error {
		if !holds(c, tokenHash) || c.ResetAttempts >= maxAttempts || !c.HasLiveReset(now) {
			return errors.ErrStale
		}
		c.PasswordHash = passwordHash
		clearReset(c)
		return nil
	})
}

func (cr *FakeCredentialRepo) update(identityID string, fn func(*credentials.Credential) error) error {
	if !cr.users.Exists(identityID) {
		return errors.ErrNotFound
	}

	cr.lock.Lock()
	defer cr.lock.Unlock()
	c, ok := cr.credentials[identityID]
	if !ok {
		return errors.ErrNotFound
	}
	return fn(c)
}

func holds(c *credentials.Credential, tokenHash string) bool {
	return c.ResetToken != nil && *c.ResetToken == tokenHash
}

func clearReset(c *credentials.Credential) {
	c.ResetToken = nil
	c.ResetExpiresAt = nil
	c.ResetAttempts = 0
}
