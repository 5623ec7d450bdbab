package recordrepo_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/repository/recordrepo"
)

func newPostgresRepo(t *testing.T) (*recordrepo.PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return recordrepo.NewPostgresRepository(db, time.Second, logger.NewNop()), mock
}

func TestPostgres_List(t *testing.T) {
	repo, mock := newPostgresRepo(t)
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "created_at", "fields"}).
		AddRow(int64(1), created, []byte(`{"municipio":"Lubango","vitimaIdade":34}`)).
		AddRow(int64(2), created, []byte(`{}`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, created_at, fields FROM records WHERE category = $1")).
		WithArgs("criminalidade").
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), domain.CategoryCriminalidade)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Lubango", records[0].Fields["municipio"])
	assert.Equal(t, 34.0, records[0].Fields["vitimaIdade"])
	assert.Equal(t, created, records[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListQueryError(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM records WHERE category")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), domain.CategoryCriminalidade)
	assert.IsType(t, &apperror.StorageError{}, err)
}

func TestPostgres_InsertConflict(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
		WithArgs("processos", int64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Insert(context.Background(), domain.CategoryProcessos, newRecord(7, map[string]interface{}{}))
	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestPostgres_InsertSuccess(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
		WithArgs("processos", int64(7), sqlmock.AnyArg(), []byte(`{"numeroProcesso":"P-7"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec, err := repo.Insert(context.Background(), domain.CategoryProcessos, newRecord(7, map[string]interface{}{"numeroProcesso": "P-7"}))
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateNotFound(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE records SET fields = $1")).
		WithArgs(sqlmock.AnyArg(), "processos", int64(8)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), domain.CategoryProcessos, newRecord(8, map[string]interface{}{}))
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestPostgres_UpdateReturnsStoredRow(t *testing.T) {
	repo, mock := newPostgresRepo(t)
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE records SET fields = $1")).
		WithArgs(sqlmock.AnyArg(), "processos", int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "fields"}).
			AddRow(int64(8), created, []byte(`{"estado":"Arquivado"}`)))

	rec, err := repo.Update(context.Background(), domain.CategoryProcessos, newRecord(8, map[string]interface{}{"estado": "Arquivado"}))
	require.NoError(t, err)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, "Arquivado", rec.Fields["estado"])
}

func TestPostgres_Delete(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records")).
		WithArgs("logistica", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records")).
		WithArgs("logistica", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Delete(context.Background(), domain.CategoryLogistica, 1)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(context.Background(), domain.CategoryLogistica, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostgres_CountByCategory(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT category, COUNT(*) FROM records GROUP BY category")).
		WillReturnRows(sqlmock.NewRows([]string{"category", "count"}).
			AddRow("criminalidade", 4).
			AddRow("users", 3))

	counts, err := repo.CountByCategory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[domain.CategoryCriminalidade])
	assert.Equal(t, 3, counts[domain.CategoryUsers])
}

func TestPostgres_MaxID(t *testing.T) {
	repo, mock := newPostgresRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(id), 0) FROM records")).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(1704873600000)))

	max, err := repo.MaxID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1704873600000), max)
	assert.NoError(t, mock.ExpectationsWereMet())
}
