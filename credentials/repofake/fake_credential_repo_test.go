package fakecredentialrepo_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-sessions/credentials"
	fakecredentialrepo "github.com/jrsteele09/go-auth-sessions/credentials/repofake"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-sessions/users/repofake"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*fakeuserrepo.FakeUserRepo, *fakecredentialrepo.FakeCredentialRepo, *users.Identity) {
	t.Helper()
	ur := fakeuserrepo.NewFakeUserRepo()
	cr := fakecredentialrepo.NewFakeCredentialRepo(ur)
	identity := &users.Identity{Name: "Alice", Email: "alice@example.com", IsActive: true}
	require.NoError(t, cr.Create(context.Background(), identity, &credentials.Credential{PasswordHash: "h"}))
	return ur, cr, identity
}

func TestResetSlotLifecycle(t *testing.T) {
	ctx := context.Background()
	_, cr, identity := setup(t)

	require.NoError(t, cr.SetResetToken(ctx, identity.ID, "d1", now.Add(10*time.Minute)))
	n, err := cr.IncrementResetAttempts(ctx, identity.ID, "d1", 5)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// a new request replaces the slot and zeroes the counter
	require.NoError(t, cr.SetResetToken(ctx, identity.ID, "d2", now.Add(10*time.Minute)))
	_, err = cr.IncrementResetAttempts(ctx, identity.ID, "d1", 5)
	require.ErrorIs(t, err, errors.ErrStale)

	require.ErrorIs(t, cr.CompleteReset(ctx, identity.ID, "d2", "new", 5, now.Add(11*time.Minute)), errors.ErrStale)
	require.NoError(t, cr.CompleteReset(ctx, identity.ID, "d2", "new", 5, now))
	require.ErrorIs(t, cr.CompleteReset(ctx, identity.ID, "d2", "again", 5, now), errors.ErrStale)

	account, err := cr.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "new", account.Credential.PasswordHash)
	require.Nil(t, account.Credential.ResetToken)
	require.Zero(t, account.Credential.ResetAttempts)
}

func TestIncrementStopsAtMax(t *testing.T) {
	ctx := context.Background()
	_, cr, identity := setup(t)
	require.NoError(t, cr.SetResetToken(ctx, identity.ID, "d1", now.Add(10*time.Minute)))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cr.IncrementResetAttempts(ctx, identity.ID, "d1", 5); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 5, successes)
	require.ErrorIs(t, cr.CompleteReset(ctx, identity.ID, "d1", "new", 5, now), errors.ErrStale)

	require.NoError(t, cr.ClearResetToken(ctx, identity.ID, "d1"))
	account, err := cr.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Nil(t, account.Credential.ResetToken)
}

func TestDeletedIdentityIsUnreachable(t *testing.T) {
	ctx := context.Background()
	ur, cr, identity := setup(t)

	require.NoError(t, ur.Delete(ctx, identity.ID))
	_, err := cr.GetByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.ErrorIs(t, cr.SetResetToken(ctx, identity.ID, "d", now), errors.ErrNotFound)
	require.NoError(t, cr.ClearResetToken(ctx, identity.ID, "d"))
}
