package fakeuserrepo_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/users"
	fakeuserrepo "github.com/jrsteele09/go-auth-sessions/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	alice := &users.Identity{Name: "Alice", Email: "alice@example.com", IsActive: true}
	require.NoError(t, repo.Create(ctx, alice))
	require.NotEmpty(t, alice.ID)

	require.ErrorIs(t, repo.Create(ctx, &users.Identity{Email: "alice@example.com"}), errors.ErrAlreadyExists)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	got.Name = "mutated"
	again, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice", again.Name)

	require.NoError(t, repo.SetActive(ctx, alice.ID, false))
	require.NoError(t, repo.SetAdmin(ctx, alice.ID, true))
	again, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.False(t, again.IsActive)
	require.True(t, again.IsAdmin)

	require.NoError(t, repo.Delete(ctx, alice.ID))
	require.False(t, repo.Exists(alice.ID))
	_, err = repo.GetByEmail(ctx, "alice@example.com")
	require.ErrorIs(t, err, errors.ErrNotFound)
	require.ErrorIs(t, repo.SetActive(ctx, alice.ID, true), errors.ErrNotFound)
}
