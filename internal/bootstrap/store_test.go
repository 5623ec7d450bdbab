package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gosigo/config"
	"gosigo/internal/bootstrap"
	"gosigo/internal/domain"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/password"
	"gosigo/internal/seed"
)

func newSeeder() *seed.Seeder {
	return seed.NewSeeder(password.NewHasher(bcrypt.MinCost), logger.NewNop())
}

func TestOpenStore_MemorySeeded(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendMemory, SeedDemo: true}

	store, err := bootstrap.OpenStore(context.Background(), cfg, newSeeder(), logger.NewNop())
	require.NoError(t, err)
	defer store.Close()

	users, err := store.Records.List(context.Background(), domain.CategoryUsers)
	require.NoError(t, err)
	assert.Len(t, users, len(seed.DemoAccounts))
	assert.Nil(t, store.Counter)
	assert.Greater(t, store.MaxID, int64(0))
}

func TestOpenStore_MemoryEmpty(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendMemory}

	store, err := bootstrap.OpenStore(context.Background(), cfg, newSeeder(), logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, int64(0), store.MaxID)
}

func TestOpenStore_FileResetsUsers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigo.json")
	cfg := &config.Config{StoreBackend: config.BackendFile, DataFile: path, ResetDemoUsers: true}

	store, err := bootstrap.OpenStore(context.Background(), cfg, newSeeder(), logger.NewNop())
	require.NoError(t, err)

	crimes, err := store.Records.List(context.Background(), domain.CategoryCriminalidade)
	require.NoError(t, err)
	assert.Empty(t, crimes)

	users, err := store.Records.List(context.Background(), domain.CategoryUsers)
	require.NoError(t, err)
	assert.Len(t, users, len(seed.DemoAccounts))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := bootstrap.OpenStore(context.Background(), &config.Config{StoreBackend: "mongo"}, newSeeder(), logger.NewNop())
	assert.Error(t, err)
}
