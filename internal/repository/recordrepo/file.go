package recordrepo

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/logger"
)

// FileOptions controla a semente de demonstração do FileRepository.
type FileOptions struct {
	// Seed produz o conjunto inicial quando o ficheiro ainda não existe (nil: começa vazio).
	Seed func() Snapshot
	// DemoUsers produz os utilizadores de demonstração.
	DemoUsers func() []domain.Record
	// ResetUsers reescreve a categoria users com DemoUsers em cada carregamento.
	// Comportamento apenas de demonstração; uma instalação real deve desligá-lo.
	ResetUsers bool
}

// FileRepository é o MemoryRepository com o estado persistido num único blob
// JSON (uma chave por categoria), regravado após cada mutação.
type FileRepository struct {
	mem    *MemoryRepository
	path   string
	mu     sync.Mutex // serializa mutação + gravação
	logger logger.Logger
}

// OpenFileRepository carrega (ou cria e semeia) o blob em path.
func OpenFileRepository(path string, opts FileOptions, logger logger.Logger) (*FileRepository, error) {
	r := &FileRepository{
		mem:    NewMemoryRepository(logger),
		path:   path,
		logger: logger,
	}

	snapshot, err := ReadSnapshotFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// 1. Primeiro carregamento: semente de demonstração
		snapshot = Snapshot{}
		if opts.Seed != nil {
			snapshot = opts.Seed()
			logger.Info("Ficheiro de dados inexistente; a semear conjunto de demonstração.", map[string]interface{}{"path": path})
		}
	case err != nil:
		return nil, err
	}
	r.mem.Restore(snapshot)

	// 2. Reposição dos utilizadores de demonstração
	if opts.ResetUsers && opts.DemoUsers != nil {
		logger.Warn("RESET_DEMO_USERS activo: a categoria users foi reposta com a semente de demonstração.", map[string]interface{}{"path": path})
		r.mem.ReplaceCategory(domain.CategoryUsers, opts.DemoUsers())
	}

	if err := r.persist(r.mem.Snapshot()); err != nil {
		return nil, err
	}
	return r, nil
}

// ReadSnapshotFile lê o blob do disco. Devolve fs.ErrNotExist (embrulhado) se não existir.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, apperror.NewStorageError("falha ao ler o ficheiro de dados", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperror.NewStorageError("ficheiro de dados corrompido", err)
	}
	if s == nil {
		s = Snapshot{}
	}
	return s, nil
}

// WriteSnapshotFile grava o blob de forma atómica (ficheiro temporário + rename).
func WriteSnapshotFile(path string, s Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperror.NewStorageError("falha ao serializar os dados", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperror.NewStorageError("falha ao criar o directório de dados", err)
	}

	tmp, err := os.CreateTemp(dir, ".sigo-*.json")
	if err != nil {
		return apperror.NewStorageError("falha ao criar ficheiro temporário", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op depois do rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperror.NewStorageError("falha ao gravar os dados", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperror.NewStorageError("falha ao sincronizar os dados", err)
	}
	if err := tmp.Close(); err != nil {
		return apperror.NewStorageError("falha ao fechar o ficheiro de dados", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperror.NewStorageError("falha ao substituir o ficheiro de dados", err)
	}
	return nil
}

func (r *FileRepository) persist(s Snapshot) error {
	if err := WriteSnapshotFile(r.path, s); err != nil {
		r.logger.Error("Falha ao persistir o ficheiro de dados.", err)
		return err
	}
	return nil
}

// mutate executa op sobre a memória e persiste; se a gravação falhar o estado anterior é reposto.
func (r *FileRepository) mutate(op func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.mem.Snapshot()
	if err := op(); err != nil {
		return err
	}
	if err := r.persist(r.mem.Snapshot()); err != nil {
		r.mem.Restore(before)
		return err
	}
	return nil
}

// List devolve os registos da categoria em ordem de inserção.
func (r *FileRepository) List(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	return r.mem.List(ctx, category)
}

// Insert acrescenta o registo e regrava o blob.
func (r *FileRepository) Insert(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	var stored domain.Record
	err := r.mutate(func() error {
		var err error
		stored, err = r.mem.Insert(ctx, category, record)
		return err
	})
	if err != nil {
		return domain.Record{}, err
	}
	return stored, nil
}

// Update substitui os campos do registo e regrava o blob.
func (r *FileRepository) Update(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	var updated domain.Record
	err := r.mutate(func() error {
		var err error
		updated, err = r.mem.Update(ctx, category, record)
		return err
	})
	if err != nil {
		return domain.Record{}, err
	}
	return updated, nil
}

// Delete remove o registo e, se removeu, regrava o blob.
func (r *FileRepository) Delete(ctx context.Context, category domain.Category, id int64) (bool, error) {
	var removed bool
	err := r.mutate(func() error {
		var err error
		removed, err = r.mem.Delete(ctx, category, id)
		if err == nil && !removed {
			return errNothingChanged
		}
		return err
	})
	if errors.Is(err, errNothingChanged) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return removed, nil
}

// MaxID devolve o maior id carregado, para avançar o gerador de ids.
func (r *FileRepository) MaxID() int64 {
	return r.mem.MaxID()
}

var errNothingChanged = errors.New("nada a gravar")
