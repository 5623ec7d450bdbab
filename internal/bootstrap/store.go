// Package bootstrap abre o armazenamento configurado, partilhado pelo servidor e pelo sigoctl.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"gosigo/config"
	"gosigo/internal/domain"
	"gosigo/internal/pkg/database"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/repository/recordrepo"
	"gosigo/internal/seed"
)

// Store é o armazenamento aberto e o que o resto da aplicação precisa dele.
type Store struct {
	Records domain.RecordRepository
	// Counter é nil fora do backend postgres.
	Counter interface {
		CountByCategory(ctx context.Context) (map[domain.Category]int, error)
	}
	// MaxID é o maior id encontrado no arranque.
	MaxID int64
	db    *sql.DB
}

// Close liberta a ligação à base de dados, se houver.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// OpenStore abre o backend indicado em cfg.StoreBackend e aplica a semente de demonstração.
func OpenStore(ctx context.Context, cfg *config.Config, seeder *seed.Seeder, log logger.Logger) (*Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		repo := recordrepo.NewMemoryRepository(log)
		if cfg.SeedDemo {
			repo.Restore(seeder.Snapshot())
		}
		return &Store{Records: repo, MaxID: repo.MaxID()}, nil

	case config.BackendFile:
		opts := recordrepo.FileOptions{ResetUsers: cfg.ResetDemoUsers, DemoUsers: seeder.Users}
		if cfg.SeedDemo {
			opts.Seed = seeder.Snapshot
		}
		repo, err := recordrepo.OpenFileRepository(cfg.DataFile, opts, log)
		if err != nil {
			return nil, err
		}
		return &Store{Records: repo, MaxID: repo.MaxID()}, nil

	case config.BackendPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.DefaultPool)
		if err != nil {
			return nil, err
		}
		repo := recordrepo.NewPostgresRepository(db, cfg.DBTimeout, log)

		maxID, err := repo.MaxID(ctx)
		if err != nil {
			db.Close()
			return nil, err
		}
		if maxID == 0 && cfg.SeedDemo {
			log.Info("Tabela records vazia; a semear conjunto de demonstração.", nil)
			if err := loadSnapshot(ctx, repo, seeder.Snapshot()); err != nil {
				db.Close()
				return nil, err
			}
		} else if cfg.ResetDemoUsers {
			if err := resetUsers(ctx, repo, seeder.Users()); err != nil {
				db.Close()
				return nil, err
			}
		}
		if maxID, err = repo.MaxID(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{Records: repo, Counter: repo, MaxID: maxID, db: db}, nil
	}
	return nil, fmt.Errorf("backend de armazenamento desconhecido: %q", cfg.StoreBackend)
}

func loadSnapshot(ctx context.Context, repo domain.RecordRepository, snap recordrepo.Snapshot) error {
	for _, c := range domain.Categories {
		for _, rec := range snap[c] {
			if _, err := repo.Insert(ctx, c, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// resetUsers troca a categoria users pelas contas de demonstração.
func resetUsers(ctx context.Context, repo domain.RecordRepository, demo []domain.Record) error {
	current, err := repo.List(ctx, domain.CategoryUsers)
	if err != nil {
		return err
	}
	for _, rec := range current {
		if _, err := repo.Delete(ctx, domain.CategoryUsers, rec.ID); err != nil {
			return err
		}
	}
	for _, rec := range demo {
		if _, err := repo.Insert(ctx, domain.CategoryUsers, rec); err != nil {
			return err
		}
	}
	return nil
}
