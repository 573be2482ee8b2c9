package users

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_Lifecycle(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = repo.Create(ctx, &models.User{UserName: "alice2", Email: "alice@x.com", PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrorDuplicateKey)
	assert.Equal(t, 1, repo.Len())

	require.NoError(t, repo.UpdateToken(ctx, u.ID, "tok"))
	found, err := repo.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "tok", found.Token)

	found.Token = "mutated"
	again, err := repo.FindByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "tok", again.Token, "returned records are copies")

	require.NoError(t, repo.DeleteByID(ctx, u.ID))
	require.NoError(t, repo.DeleteByID(ctx, "unknown"))
	assert.Equal(t, 0, repo.Len())

	_, err = repo.FindByEmail(ctx, "alice@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, repo.UpdateToken(ctx, u.ID, "tok"), common.ErrorNotFound)
}
