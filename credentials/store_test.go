package credentials_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-sessions/credentials"
	fakecredentialrepo "github.com/jrsteele09/go-auth-sessions/credentials/repofake"
	fakeuserrepo "github.com/jrsteele09/go-auth-sessions/users/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testFixture struct {
	users *fakeuserrepo.FakeUserRepo
	repo  *fakecredentialrepo.FakeCredentialRepo
	store *credentials.Store
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	ur := fakeuserrepo.NewFakeUserRepo()
	cr := fakecredentialrepo.NewFakeCredentialRepo(ur)
	store, err := credentials.NewStore(cr, credentials.NewBcryptHasher(bcrypt.MinCost, 2))
	require.NoError(t, err)
	return &testFixture{users: ur, repo: cr, store: store}
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	identity, err := f.store.Register(ctx, "Alice", " Alice@Example.com ", "Secret123")
	require.NoError(t, err)
	require.True(t, identity.IsActive)
	require.False(t, identity.IsAdmin)
	require.Equal(t, "alice@example.com", identity.Email)

	account, err := f.repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEqual(t, "Secret123", account.Credential.PasswordHash)
	require.True(t, strings.HasPrefix(account.Credential.PasswordHash, "$2"))

	_, err = f.store.Register(ctx, "Alice Again", "alice@example.com", "Other1234")
	require.ErrorIs(t, err, credentials.ErrEmailTaken)
}

func TestRegister_RejectsPasswordOverBcryptLimit(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	multiByte := "Aa1" + strings.Repeat("é", 69)

	_, err := f.store.Register(ctx, "Alice", "alice@example.com", multiByte)
	require.ErrorIs(t, err, credentials.ErrPasswordTooLong)
	_, err = f.repo.GetByEmail(ctx, "alice@example.com")
	require.Error(t, err)

	_, err = f.store.HashPassword(ctx, multiByte)
	require.ErrorIs(t, err, credentials.ErrPasswordTooLong)
}

func TestRegister_ConflictsWithInactiveIdentity(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	identity, err := f.store.Register(ctx, "Alice", "alice@example.com", "Secret123")
	require.NoError(t, err)
	require.NoError(t, f.users.SetActive(ctx, identity.ID, false))

	_, err = f.store.Register(ctx, "Alice", "alice@example.com", "Secret123")
	require.ErrorIs(t, err, credentials.ErrEmailTaken)
}

func TestRegister_ConcurrentSameEmailHasOneWinner(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.store.Register(ctx, "Alice", "alice@example.com", "Secret123"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)
}

func TestValidateCredentials(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	registered, err := f.store.Register(ctx, "Alice", "alice@example.com", "Secret123")
	require.NoError(t, err)

	account, err := f.store.ValidateCredentials(ctx, "ALICE@example.com", "Secret123")
	require.NoError(t, err)
	require.Equal(t, registered.ID, account.Identity.ID)

	unchanged, err := f.store.Unchanged(ctx, account)
	require.NoError(t, err)
	require.True(t, unchanged)

	_, err = f.store.ValidateCredentials(ctx, "alice@example.com", "wrong")
	require.ErrorIs(t, err, credentials.ErrInvalidCredentials)

	_, err = f.store.ValidateCredentials(ctx, "nobody@example.com", "Secret123")
	require.ErrorIs(t, err, credentials.ErrInvalidCredentials)

	require.NoError(t, f.users.SetActive(ctx, registered.ID, false))
	_, err = f.store.ValidateCredentials(ctx, "alice@example.com", "Secret123")
	require.ErrorIs(t, err, credentials.ErrInvalidCredentials)

	unchanged, err = f.store.Unchanged(ctx, account)
	require.NoError(t, err)
	require.False(t, unchanged)
}

func TestUnchanged_DetectsPasswordChange(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	now := time.Now()

	_, err := f.store.Register(ctx, "Alice", "alice@example.com", "Secret123")
	require.NoError(t, err)
	account, err := f.store.ValidateCredentials(ctx, "alice@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, f.repo.SetResetToken(ctx, account.Identity.ID, "digest", now.Add(time.Minute)))
	newHash, err := f.store.HashPassword(ctx, "Secret456")
	require.NoError(t, err)
	require.NoError(t, f.repo.CompleteReset(ctx, account.Identity.ID, "digest", newHash, 5, now))

	unchanged, err := f.store.Unchanged(ctx, account)
	require.NoError(t, err)
	require.False(t, unchanged)
}

func TestHasherHonoursCancelledContext(t *testing.T) {
	h := credentials.NewBcryptHasher(bcrypt.MinCost, 1)
	hash, err := h.Hash(context.Background(), "Secret123")
	require.NoError(t, err)

	ok, err := h.Compare(context.Background(), hash, "Secret123")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = h.Compare(context.Background(), hash, "nope")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = h.Compare(context.Background(), "not-a-bcrypt-hash", "x")
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Hash(ctx, "Secret123")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCredentialHasLiveReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	digest := "digest"
	exp := now.Add(time.Minute)

	c := &credentials.Credential{}
	require.False(t, c.HasLiveReset(now))

	c.ResetToken, c.ResetExpiresAt = &digest, &exp
	require.True(t, c.HasLiveReset(now))
	require.False(t, c.HasLiveReset(exp))

	clone := c.Clone()
	*clone.ResetToken = "changed"
	require.Equal(t, "digest", *c.ResetToken)
}
