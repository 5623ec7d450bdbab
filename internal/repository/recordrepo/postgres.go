package recordrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/logger"
)

// Código SQLSTATE de violação de unicidade.
const pqUniqueViolation = "23505"

const (
	listRecordsSQL     = `SELECT id, created_at, fields FROM records WHERE category = $1 ORDER BY seq`
	insertRecordSQL    = `INSERT INTO records (category, id, created_at, fields) VALUES ($1, $2, $3, $4)`
	updateRecordSQL    = `UPDATE records SET fields = $1 WHERE category = $2 AND id = $3 RETURNING id, created_at, fields`
	deleteRecordSQL    = `DELETE FROM records WHERE category = $1 AND id = $2`
	countByCategorySQL = `SELECT category, COUNT(*) FROM records GROUP BY category`
	maxIDSQL           = `SELECT COALESCE(MAX(id), 0) FROM records`
)

// PostgresRepository guarda todas as categorias numa tabela records com os
// campos em JSONB. A ordem de inserção é dada pela coluna seq.
type PostgresRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewPostgresRepository cria o repositório sobre uma ligação já aberta.
func NewPostgresRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// List devolve os registos da categoria em ordem de inserção.
func (r *PostgresRepository) List(ctx context.Context, category domain.Category) ([]domain.Record, error) {
	r.logger.Debug("Iniciando List no repositório PostgreSQL.", map[string]interface{}{"category": category})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, listRecordsSQL, string(category))
	if err != nil {
		r.logger.Error("Falha ao executar a listagem de registos.", err)
		return nil, apperror.NewDBError("Falha ao listar registos", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear registo na listagem.", err)
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração dos registos.", err)
		return nil, apperror.NewDBError("Erro após iteração dos registos", err)
	}

	r.logger.Debug("List concluído.", map[string]interface{}{"category": category, "total": len(records)})
	return records, nil
}

// Insert grava um registo já com id e createdAt.
func (r *PostgresRepository) Insert(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	fields, err := json.Marshal(domain.CopyFields(record.Fields))
	if err != nil {
		return domain.Record{}, apperror.NewStorageError("falha ao serializar os campos", err)
	}

	_, err = r.DB.ExecContext(ctxTimeout, insertRecordSQL, string(category), record.ID, record.CreatedAt.UTC(), fields)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return domain.Record{}, apperror.NewConflictError(fmt.Sprintf("Já existe um registo %d em %s.", record.ID, category))
		}
		r.logger.Error("Falha ao inserir registo no DB.", err)
		return domain.Record{}, apperror.NewDBError("Falha ao inserir registo", err)
	}

	r.logger.Info("Registo inserido.", map[string]interface{}{"category": category, "id": record.ID})
	return record.Clone(), nil
}

// Update substitui os campos do registo; id e created_at nunca são escritos.
func (r *PostgresRepository) Update(ctx context.Context, category domain.Category, record domain.Record) (domain.Record, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	fields, err := json.Marshal(domain.CopyFields(record.Fields))
	if err != nil {
		return domain.Record{}, apperror.NewStorageError("falha ao serializar os campos", err)
	}

	row := r.DB.QueryRowContext(ctxTimeout, updateRecordSQL, fields, string(category), record.ID)
	updated, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Registo não encontrado para actualização.", map[string]interface{}{"category": category, "id": record.ID})
		return domain.Record{}, apperror.NewNotFoundError(fmt.Sprintf("Registo %d não existe em %s.", record.ID, category))
	}
	if err != nil {
		r.logger.Error("Falha ao actualizar registo no DB.", err)
		return domain.Record{}, err
	}

	r.logger.Info("Registo actualizado.", map[string]interface{}{"category": category, "id": record.ID})
	return updated, nil
}

// Delete remove o registo e indica se existia.
func (r *PostgresRepository) Delete(ctx context.Context, category domain.Category, id int64) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, deleteRecordSQL, string(category), id)
	if err != nil {
		r.logger.Error("Falha ao remover registo do DB.", err)
		return false, apperror.NewDBError("Falha ao remover registo", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperror.NewDBError("Falha ao verificar linhas afectadas", err)
	}

	r.logger.Info("Remoção de registo concluída.", map[string]interface{}{"category": category, "id": id, "removed": rowsAffected > 0})
	return rowsAffected > 0, nil
}

// CountByCategory conta os registos de cada categoria numa só consulta.
// Usado pelo dashboard para evitar carregar todas as coleções.
func (r *PostgresRepository) CountByCategory(ctx context.Context) (map[domain.Category]int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, countByCategorySQL)
	if err != nil {
		return nil, apperror.NewDBError("Falha ao contar registos", err)
	}
	defer rows.Close()

	counts := make(map[domain.Category]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear contagem", err)
		}
		counts[domain.Category(category)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDBError("Erro após iteração das contagens", err)
	}
	return counts, nil
}

// MaxID devolve o maior id guardado (0 se a tabela estiver vazia).
func (r *PostgresRepository) MaxID(ctx context.Context) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var max int64
	if err := r.DB.QueryRowContext(ctxTimeout, maxIDSQL).Scan(&max); err != nil {
		return 0, apperror.NewDBError("Falha ao obter o maior id", err)
	}
	return max, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var (
		rec    domain.Record
		fields []byte
	)
	if err := row.Scan(&rec.ID, &rec.CreatedAt, &fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, err
		}
		return domain.Record{}, apperror.NewDBError("Falha ao ler registo", err)
	}

	rec.Fields = map[string]interface{}{}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return domain.Record{}, apperror.NewStorageError("campos JSONB inválidos", err)
		}
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
