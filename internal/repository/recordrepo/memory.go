package recordrepo

import (
	"context"
	"fmt"
	"sync"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/logger"
)

// Snapshot é o blob persistido: uma chave por categoria, registos em ordem de inserção.
type Snapshot map[domain.Category][]domain.Record

// MemoryRepository guarda as coleções em memória, uma fatia por categoria.
// Não há índices: todas as operações são varrimentos lineares. O mutex apenas
// protege a memória do Go; entre clientes, a última escrita vence.
type MemoryRepository struct {
	mu          sync.RWMutex
	collections map[domain.Category][]domain.Record
	logger      logger.Logger
}

// NewMemoryRepository cria um repositório vazio.
func NewMemoryRepository(logger logger.Logger) *MemoryRepository {
	return &MemoryRepository{
		collections: make(map[domain.Category][]domain.Record),
		logger:      logger,
	}
}

// List devolve uma cópia dos registos da categoria em ordem de inserção.
func (r *MemoryRepository) List(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.collections[category]
	out := make([]domain.Record, len(src))
	for i, rec := range src {
		out[i] = rec.Clone()
	}
	return out, nil
}

// Insert acrescenta o registo ao fim da coleção.
func (r *MemoryRepository) Insert(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.collections[category] {
		if existing.ID == record.ID {
			return domain.Record{}, apperror.NewConflictError(fmt.Sprintf("Já existe um registo %d em %s.", record.ID, category))
		}
	}

	stored := record.Clone()
	r.collections[category] = append(r.collections[category], stored)

	r.logger.Debug("Registo inserido em memória.", map[string]interface{}{"category": category, "id": record.ID})
	return stored.Clone(), nil
}

// Update substitui os campos do registo com o mesmo id, preservando id e createdAt.
func (r *MemoryRepository) Update(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coll := r.collections[category]
	for i := range coll {
		if coll[i].ID != record.ID {
			continue
		}
		coll[i].Fields = domain.CopyFields(record.Fields)
		r.logger.Debug("Registo actualizado em memória.", map[string]interface{}{"category": category, "id": record.ID})
		return coll[i].Clone(), nil
	}

	return domain.Record{}, apperror.NewNotFoundError(fmt.Sprintf("Registo %d não existe em %s.", record.ID, category))
}

// Delete remove o primeiro registo com o id indicado.
func (r *MemoryRepository) Delete(ctx context.Context, category domain.Category, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coll := r.collections[category]
	for i := range coll {
		if coll[i].ID != id {
			continue
		}
		r.collections[category] = append(coll[:i:i], coll[i+1:]...)
		r.logger.Debug("Registo removido da memória.", map[string]interface{}{"category": category, "id": id})
		return true, nil
	}
	return false, nil
}

// Snapshot copia o estado completo, para persistência.
func (r *MemoryRepository) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *MemoryRepository) snapshotLocked() Snapshot {
	s := make(Snapshot, len(r.collections))
	for c, coll := range r.collections {
		cp := make([]domain.Record, len(coll))
		for i, rec := range coll {
			cp[i] = rec.Clone()
		}
		s[c] = cp
	}
	return s
}

// Restore substitui o estado completo pelo snapshot.
func (r *MemoryRepository) Restore(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restoreLocked(s)
}

func (r *MemoryRepository) restoreLocked(s Snapshot) {
	r.collections = make(map[domain.Category][]domain.Record, len(s))
	for c, coll := range s {
		cp := make([]domain.Record, len(coll))
		for i, rec := range coll {
			cp[i] = rec.Clone()
		}
		r.collections[c] = cp
	}
}

// ReplaceCategory substitui uma coleção inteira (usado na reposição dos utilizadores de demonstração).
func (r *MemoryRepository) ReplaceCategory(category domain.Category, records []domain.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := make([]domain.Record, len(records))
	for i, rec := range records {
		cp[i] = rec.Clone()
	}
	r.collections[category] = cp
}

// MaxID devolve o maior id guardado em qualquer categoria (0 se vazio).
func (r *MemoryRepository) MaxID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var max int64
	for _, coll := range r.collections {
		for _, rec := range coll {
			if rec.ID > max {
				max = rec.ID
			}
		}
	}
	return max
}
