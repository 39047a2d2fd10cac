package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/sessions"
	fakesessionrepo "github.com/jrsteele09/go-auth-sessions/sessions/repofake"
	"github.com/jrsteele09/go-auth-sessions/token"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	now     time.Time
	repo    *fakesessionrepo.FakeSessionRepo
	manager *sessions.Manager
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		now:  time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		repo: fakesessionrepo.NewFakeSessionRepo(),
	}
	m, err := sessions.NewManager(f.repo, sessions.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.manager = m
	return f
}

func TestUpsertStoresOnlyDigest(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	s, err := f.manager.Upsert(ctx, "alice", "phone", "raw-refresh", f.now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, token.Hash("raw-refresh"), s.RefreshTokenHash)

	stored, err := f.repo.Get(ctx, "alice", "phone")
	require.NoError(t, err)
	require.NotEqual(t, "raw-refresh", stored.RefreshTokenHash)
	require.True(t, f.manager.Matches(stored, "raw-refresh"))
	require.False(t, f.manager.Matches(stored, "other"))
	require.False(t, f.manager.Matches(nil, "raw-refresh"))
}

func TestRotateAndRevoke(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.manager.Upsert(ctx, "alice", "phone", "r1", f.now.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, f.manager.Rotate(ctx, "alice", "phone", "r1", "r2", f.now.Add(2*time.Hour)))
	err = f.manager.Rotate(ctx, "alice", "phone", "r1", "r3", f.now.Add(2*time.Hour))
	require.True(t, sessions.IsGone(err))

	require.ErrorIs(t, f.manager.Revoke(ctx, "alice", "phone", "r1"), errors.ErrStale)
	require.NoError(t, f.manager.Revoke(ctx, "alice", "phone", "r2"))

	_, err = f.manager.Get(ctx, "alice", "phone")
	require.True(t, sessions.IsGone(err))
}

func TestDeleteAndSweep(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	for _, d := range []string{"phone", "laptop", "tablet"} {
		_, err := f.manager.Upsert(ctx, "alice", d, "r-"+d, f.now.Add(time.Hour))
		require.NoError(t, err)
	}
	require.NoError(t, f.manager.Delete(ctx, "alice"))
	require.NoError(t, f.manager.Delete(ctx, "alice", "phone", "phone", ""))

	list, err := f.manager.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)

	f.now = f.now.Add(2 * time.Hour)
	removed, err := f.manager.DeleteExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)
}

func TestNewManagerRequiresRepo(t *testing.T) {
	_, err := sessions.NewManager(nil)
	require.Error(t, err)
}
