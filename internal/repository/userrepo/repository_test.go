package userrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/repository/recordrepo"
	"gosigo/internal/repository/userrepo"
)

func newRepo() *userrepo.UserRepository {
	return userrepo.NewUserRepository(recordrepo.NewMemoryRepository(logger.NewNop()), logger.NewNop())
}

func TestSaveAndFind(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()

	saved, err := repo.Save(ctx, domain.User{
		ID:           10,
		Name:         "operador",
		Role:         domain.RolePadrao,
		PasswordHash: "hash",
		Permissions:  []string{"Dashboard", "Criminalidade"},
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dashboard", "Criminalidade"}, saved.Permissions)

	byID, err := repo.FindByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)

	byName, err := repo.FindByName(ctx, " OPERADOR ")
	require.NoError(t, err)
	assert.Equal(t, int64(10), byName.ID)

	exact, err := repo.FindByExactName(ctx, "operador")
	require.NoError(t, err)
	assert.Equal(t, int64(10), exact.ID)

	for _, name := range []string{"OPERADOR", " operador ", "Operador"} {
		_, err := repo.FindByExactName(ctx, name)
		assert.IsType(t, &apperror.NotFoundError{}, err, name)
	}
}

func TestFind_NotFound(t *testing.T) {
	repo := newRepo()

	_, err := repo.FindByID(context.Background(), 1)
	assert.IsType(t, &apperror.NotFoundError{}, err)

	_, err = repo.FindByName(context.Background(), "ninguem")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newRepo()
	ctx := context.Background()

	_, err := repo.Save(ctx, domain.User{ID: 1, Name: "supervisor", Role: domain.RoleSupervisor})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, domain.User{ID: 1, Name: "supervisora", Role: domain.RoleSupervisor, Permissions: []string{}})
	require.NoError(t, err)
	assert.Equal(t, "supervisora", updated.Name)

	removed, err := repo.Delete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}
