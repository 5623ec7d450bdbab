package recordrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gosigo/internal/domain"
	"gosigo/internal/pkg/cache"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/repository/recordrepo"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCache) Incr(ctx context.Context, key string) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	args := m.Called(ctx, key, expiration)
	return args.Error(0)
}

func TestCached_MissFillsCache(t *testing.T) {
	base := recordrepo.NewMemoryRepository(logger.NewNop())
	_, _ = base.Insert(context.Background(), domain.CategoryProcessos, newRecord(1, map[string]interface{}{"numeroProcesso": "P-1"}))

	c := new(MockCache)
	c.On("Get", mock.Anything, "records:processos").Return("", cache.ErrCacheMiss)
	c.On("Set", mock.Anything, "records:processos", mock.Anything, time.Minute).Return(nil)

	repo := recordrepo.NewCachedRepository(base, c, time.Minute, logger.NewNop())
	records, err := repo.List(context.Background(), domain.CategoryProcessos)

	require.NoError(t, err)
	assert.Len(t, records, 1)
	c.AssertExpectations(t)
}

func TestCached_HitSkipsBase(t *testing.T) {
	base := recordrepo.NewMemoryRepository(logger.NewNop())

	c := new(MockCache)
	c.On("Get", mock.Anything, "records:processos").
		Return(`[{"id":5,"createdAt":"2024-01-10T08:00:00Z","numeroProcesso":"P-5"}]`, nil)

	repo := recordrepo.NewCachedRepository(base, c, time.Minute, logger.NewNop())
	records, err := repo.List(context.Background(), domain.CategoryProcessos)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(5), records[0].ID)
	assert.Equal(t, "P-5", records[0].Fields["numeroProcesso"])
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCached_CacheFailureFallsBack(t *testing.T) {
	base := recordrepo.NewMemoryRepository(logger.NewNop())

	c := new(MockCache)
	c.On("Get", mock.Anything, mock.Anything).Return("", errors.New("redis down"))
	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	repo := recordrepo.NewCachedRepository(base, c, time.Minute, logger.NewNop())
	records, err := repo.List(context.Background(), domain.CategoryProcessos)

	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestCached_WritesInvalidate(t *testing.T) {
	base := recordrepo.NewMemoryRepository(logger.NewNop())

	c := new(MockCache)
	c.On("Delete", mock.Anything, []string{"records:logistica"}).Return(nil)

	repo := recordrepo.NewCachedRepository(base, c, time.Minute, logger.NewNop())
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.CategoryLogistica, newRecord(1, map[string]interface{}{"item": "AKM"}))
	require.NoError(t, err)
	_, err = repo.Update(ctx, domain.CategoryLogistica, newRecord(1, map[string]interface{}{"item": "PM"}))
	require.NoError(t, err)
	removed, err := repo.Delete(ctx, domain.CategoryLogistica, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	c.AssertNumberOfCalls(t, "Delete", 3)
}
