// Package sessionstest holds the behaviour every sessions.Repo must share.
package sessionstest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func newSession(identityID, deviceID, hash string, expiresAt time.Time) *sessions.Session {
	return &sessions.Session{
		IdentityID:       identityID,
		DeviceID:         deviceID,
		RefreshTokenHash: hash,
		ExpiresAt:        expiresAt,
		CreatedAt:        baseTime,
		UpdatedAt:        baseTime,
	}
}

// RunRepoSuite runs the shared checks against repos built by newRepo.
func RunRepoSuite(t *testing.T, newRepo func(t *testing.T) sessions.Repo) {
	t.Run("upsert keeps one session per device", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)

		first := newSession("alice", "phone", "h1", baseTime.Add(time.Hour))
		require.NoError(t, repo.Upsert(ctx, first))
		require.NotEmpty(t, first.ID)

		second := newSession("alice", "phone", "h2", baseTime.Add(2*time.Hour))
		second.CreatedAt = baseTime.Add(time.Minute)
		second.UpdatedAt = baseTime.Add(time.Minute)
		require.NoError(t, repo.Upsert(ctx, second))
		require.Equal(t, first.ID, second.ID)
		require.True(t, second.CreatedAt.Equal(baseTime))

		got, err := repo.Get(ctx, "alice", "phone")
		require.NoError(t, err)
		require.Equal(t, "h2", got.RefreshTokenHash)
		require.True(t, got.ExpiresAt.Equal(baseTime.Add(2*time.Hour)))

		list, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := newRepo(t).Get(context.Background(), "nobody", "phone")
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("rotate is compare and swap", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, newSession("alice", "phone", "h1", baseTime.Add(time.Hour))))

		require.ErrorIs(t, repo.Rotate(ctx, "alice", "phone", "wrong", "h2", baseTime.Add(2*time.Hour), baseTime), errors.ErrStale)
		require.ErrorIs(t, repo.Rotate(ctx, "alice", "laptop", "h1", "h2", baseTime.Add(2*time.Hour), baseTime), errors.ErrStale)

		next := baseTime.Add(3 * time.Hour)
		require.NoError(t, repo.Rotate(ctx, "alice", "phone", "h1", "h2", next, baseTime.Add(time.Minute)))
		got, err := repo.Get(ctx, "alice", "phone")
		require.NoError(t, err)
		require.Equal(t, "h2", got.RefreshTokenHash)
		require.True(t, got.ExpiresAt.Equal(next))
		require.True(t, got.UpdatedAt.Equal(baseTime.Add(time.Minute)))

		require.ErrorIs(t, repo.Rotate(ctx, "alice", "phone", "h1", "h3", next, baseTime), errors.ErrStale)
	})

	t.Run("concurrent rotations have one winner", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, newSession("alice", "phone", "h0", baseTime.Add(time.Hour))))

		const workers = 16
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
			start   = make(chan struct{})
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				next := fmt.Sprintf("next-%d", i)
				err := repo.Rotate(ctx, "alice", "phone", "h0", next, baseTime.Add(2*time.Hour), baseTime)
				if err == nil {
					mu.Lock()
					winners = append(winners, next)
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, errors.ErrStale)
			}(i)
		}
		close(start)
		wg.Wait()

		require.Len(t, winners, 1)
		got, err := repo.Get(ctx, "alice", "phone")
		require.NoError(t, err)
		require.Equal(t, winners[0], got.RefreshTokenHash)
	})

	t.Run("delete matching", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, newSession("alice", "phone", "h1", baseTime.Add(time.Hour))))

		require.ErrorIs(t, repo.DeleteMatching(ctx, "alice", "phone", "other"), errors.ErrStale)
		require.NoError(t, repo.DeleteMatching(ctx, "alice", "phone", "h1"))
		require.ErrorIs(t, repo.DeleteMatching(ctx, "alice", "phone", "h1"), errors.ErrStale)
		_, err := repo.Get(ctx, "alice", "phone")
		require.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("delete devices is idempotent", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		for _, d := range []string{"phone", "laptop", "tablet"} {
			require.NoError(t, repo.Upsert(ctx, newSession("alice", d, "h-"+d, baseTime.Add(time.Hour))))
		}
		require.NoError(t, repo.Upsert(ctx, newSession("bob", "phone", "h-bob", baseTime.Add(time.Hour))))

		require.NoError(t, repo.Delete(ctx, "alice", "phone", "laptop", "unknown"))
		require.NoError(t, repo.Delete(ctx, "alice", "phone"))

		list, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, "tablet", list[0].DeviceID)

		_, err = repo.Get(ctx, "bob", "phone")
		require.NoError(t, err)

		require.NoError(t, repo.DeleteAll(ctx, "alice"))
		list, err = repo.List(ctx, "alice")
		require.NoError(t, err)
		require.Empty(t, list)
		require.NoError(t, repo.DeleteAll(ctx, "alice"))
	})

	t.Run("delete expired", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		require.NoError(t, repo.Upsert(ctx, newSession("alice", "old", "h1", baseTime.Add(-time.Minute))))
		require.NoError(t, repo.Upsert(ctx, newSession("bob", "old", "h2", baseTime.Add(-time.Hour))))
		require.NoError(t, repo.Upsert(ctx, newSession("alice", "edge", "h3", baseTime)))
		require.NoError(t, repo.Upsert(ctx, newSession("alice", "live", "h4", baseTime.Add(time.Hour))))

		removed, err := repo.DeleteExpired(ctx, baseTime)
		require.NoError(t, err)
		require.EqualValues(t, 2, removed)

		list, err := repo.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, list, 2)
		_, err = repo.Get(ctx, "bob", "old")
		require.ErrorIs(t, err, errors.ErrNotFound)

		removed, err = repo.DeleteExpired(ctx, baseTime)
		require.NoError(t, err)
		require.EqualValues(t, 0, removed)
	})
}
