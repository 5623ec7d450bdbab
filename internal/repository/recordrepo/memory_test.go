package recordrepo_test

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
)

func newRecord(id int64, fields map[string]interface{}) domain.Record {
	return domain.Record{
		ID:        id,
		CreatedAt: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC),
		Fields:    fields,
	}
}

func TestMemory_InsertAndListPreserveOrder(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	ctx := context.Background()

	for _, id := range []int64{3, 1, 2} {
		_, err := repo.Insert(ctx, domain.CategoryCriminalidade, newRecord(id, map[string]interface{}{"municipio": "Lubango"}))
		require.NoError(t, err)
	}

	records, err := repo.List(ctx, domain.CategoryCriminalidade)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{records[0].ID, records[1].ID, records[2].ID})
}

func TestMemory_CategoriesAreIndependent(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.CategoryCriminalidade, newRecord(1, map[string]interface{}{}))
	require.NoError(t, err)

	records, err := repo.List(ctx, domain.CategoryProcessos)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)
}

func TestMemory_ListReturnsCopies(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.CategoryLogistica, newRecord(1, map[string]interface{}{"item": "AKM"}))
	require.NoError(t, err)

	records, _ := repo.List(ctx, domain.CategoryLogistica)
	records[0].Fields["item"] = "alterado"

	again, _ := repo.List(ctx, domain.CategoryLogistica)
	assert.Equal(t, "AKM", again[0].Fields["item"])
}

func TestMemory_InsertDuplicateID(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.CategoryProcessos, newRecord(7, map[string]interface{}{}))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, domain.CategoryProcessos, newRecord(7, map[string]interface{}{}))
	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestMemory_UpdateKeepsIdentity(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	ctx := context.Background()

	original := newRecord(5, map[string]interface{}{"municipio": "Lubango", "crime": "Furto"})
	_, err := repo.Insert(ctx, domain.CategoryCriminalidade, original)
	require.NoError(t, err)

	updated, err := repo.Update(ctx, domain.CategoryCriminalidade, domain.Record{
		ID:        5,
		CreatedAt: time.Now(),
		Fields:    map[string]interface{}{"municipio": "Namibe", "id": 99, "createdAt": "x"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), updated.ID)
	assert.Equal(t, original.CreatedAt, updated.CreatedAt)
	assert.Equal(t, map[string]interface{}{"municipio": "Namibe"}, updated.Fields)
}

func TestMemory_UpdateMissing(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	ctx := context.Background()

	_, err := repo.Update(ctx, domain.CategoryCriminalidade, newRecord(1, nil))
	assert.IsType(t, &apperror.NotFoundError{}, err)

	for _, id := range []int64{10, 20} {
		_, err := repo.Insert(ctx, domain.CategoryCriminalidade, newRecord(id, map[string]interface{}{"municipio": "Lubango"}))
		require.NoError(t, err)
	}
	before, err := repo.List(ctx, domain.CategoryCriminalidade)
	require.NoError(t, err)

	_, err = repo.Update(ctx, domain.CategoryCriminalidade, newRecord(30, map[string]interface{}{"municipio": "Namibe"}))
	assert.IsType(t, &apperror.NotFoundError{}, err)

	after, err := repo.List(ctx, domain.CategoryCriminalidade)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestMemory_Delete(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, _ = repo.Insert(ctx, domain.CategoryResultados, newRecord(id, map[string]interface{}{}))
	}

	removed, err := repo.Delete(ctx, domain.CategoryResultados, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, domain.CategoryResultados, 2)
	require.NoError(t, err)
	assert.False(t, removed)

	records, _ := repo.List(ctx, domain.CategoryResultados)
	assert.Equal(t, []int64{1, 3}, []int64{records[0].ID, records[1].ID})
}

func TestMemory_MaxID(t *testing.T) {
	repo := recordrepo.NewMemoryRepository(logger.NewNop())
	assert.Equal(t, int64(0), repo.MaxID())

	repo.Restore(recordrepo.Snapshot{
		domain.CategoryCriminalidade: {newRecord(10, nil)},
		domain.CategoryUsers:         {newRecord(42, nil), newRecord(3, nil)},
	})
	assert.Equal(t, int64(42), repo.MaxID())
}
