package recordrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gosigo/internal/domain"
	"gosigo/internal/pkg/cache"
	"gosigo/internal/pkg/logger"
)

const cacheKeyPrefix = "records:"

// CachedRepository guarda em cache a listagem de cada categoria (cache-aside).
// Qualquer escrita invalida a chave da categoria. Falhas do cache nunca
// falham o pedido: são registadas e o repositório de base responde.
type CachedRepository struct {
	next   domain.RecordRepository
	cache  cache.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedRepository envolve next com a cache indicada.
func NewCachedRepository(next domain.RecordRepository, c cache.Client, ttl time.Duration, logger logger.Logger) *CachedRepository {
	return &CachedRepository{
		next:   next,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(category domain.Category) string {
	return cacheKeyPrefix + string(category)
}

// List tenta a cache antes do repositório de base.
func (r *CachedRepository) List(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	key := cacheKey(category)

	cached, err := r.cache.Get(ctx, key)
	if err == nil {
		var records []domain.Record
		if jsonErr := json.Unmarshal([]byte(cached), &records); jsonErr == nil {
			r.logger.Debug("Cache hit.", map[string]interface{}{"key": key})
			return records, nil
		}
		r.logger.Warn("Entrada de cache inválida; a ignorar.", map[string]interface{}{"key": key})
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("Falha ao ler da cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	records, err := r.next.List(ctx, category)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		if err := r.cache.Set(ctx, key, data, r.ttl); err != nil {
			r.logger.Warn("Falha ao gravar na cache.", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return records, nil
}

func (r *CachedRepository) Insert(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	stored, err := r.next.Insert(ctx, category, record)
	if err != nil {
		return domain.Record{}, err
	}
	r.invalidate(ctx, category)
	return stored, nil
}

func (r *CachedRepository) Update(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	updated, err := r.next.Update(ctx, category, record)
	if err != nil {
		return domain.Record{}, err
	}
	r.invalidate(ctx, category)
	return updated, nil
}

func (r *CachedRepository) Delete(ctx context.Context, category domain.Category, id int64) (bool, error) {
	removed, err := r.next.Delete(ctx, category, id)
	if err != nil {
		return false, err
	}
	if removed {
		r.invalidate(ctx, category)
	}
	return removed, nil
}

func (r *CachedRepository) invalidate(ctx context.Context, category domain.Category) {
	if err := r.cache.Delete(ctx, cacheKey(category)); err != nil {
		r.logger.Warn("Falha ao invalidar a cache.", map[string]interface{}{"category": category, "error": err.Error()})
	}
}
