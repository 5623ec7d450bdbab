package recordservice

import (
	"context"
	"fmt"
	"time"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/query"
)

// IDGenerator produz os ids dos registos novos.
type IDGenerator interface {
	Next() int64
}

// Service aplica as regras de acesso e validação sobre o armazenamento de registos.
type Service struct {
	Repo     domain.RecordRepository
	IDs      IDGenerator
	Location *time.Location
	PageSize int
	now      func() time.Time
	logger   logger.Logger
}

// NewService cria o serviço. loc é o fuso das datas dos filtros; pageSize <= 0 usa o tamanho por omissão.
func NewService(repo domain.RecordRepository, ids IDGenerator, loc *time.Location, pageSize int, logger logger.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}
	return &Service{
		Repo:     repo,
		IDs:      ids,
		Location: loc,
		PageSize: pageSize,
		now:      time.Now,
		logger:   logger,
	}
}

// resolveCategory valida a chave. A categoria users tem a sua própria superfície.
func resolveCategory(key string) (domain.Category, error) {
	c, ok := domain.ParseCategory(key)
	if !ok {
		return "", apperror.NewUnknownCategoryError(key)
	}
	if c == domain.CategoryUsers {
		return "", apperror.NewValidationError("Os utilizadores são geridos em /v1/users.")
	}
	return c, nil
}

func (s *Service) authorizeRead(p access.Principal, c domain.Category) error {
	if !access.CanRead(p, c) {
		return apperror.NewForbiddenError(fmt.Sprintf("Sem acesso à categoria %s.", c))
	}
	return nil
}

func (s *Service) authorizeWrite(p access.Principal, c domain.Category) error {
	if !access.CanWrite(p, c) {
		return apperror.NewForbiddenError(fmt.Sprintf("Sem permissão de escrita em %s.", c))
	}
	return nil
}

func validateFields(c domain.Category, fields map[string]interface{}) error {
	if fields == nil {
		return apperror.NewValidationError("O corpo do pedido deve ser um objecto JSON.")
	}
	if _, err := domain.DecodePayload(c, fields); err != nil {
		return apperror.NewValidationError(err.Error())
	}
	return nil
}

// List devolve todos os registos da categoria em ordem de inserção.
func (s *Service) List(ctx context.Context, p access.Principal, categoryKey string) ([]domain.Record, error) {
	c, err := resolveCategory(categoryKey)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(p, c); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, c)
}

// Query filtra, ordena e pagina a categoria.
func (s *Service) Query(ctx context.Context, p access.Principal, categoryKey string, params query.Params) (query.Page, error) {
	records, err := s.List(ctx, p, categoryKey)
	if err != nil {
		return query.Page{}, err
	}
	if params.PageSize == 0 {
		params.PageSize = s.PageSize
	}
	c, _ := domain.ParseCategory(categoryKey)
	return query.Apply(c, records, params, s.Location)
}

// Get devolve um registo pelo id.
func (s *Service) Get(ctx context.Context, p access.Principal, categoryKey string, id int64) (domain.Record, error) {
	records, err := s.List(ctx, p, categoryKey)
	if err != nil {
		return domain.Record{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.Record{}, apperror.NewNotFoundError(fmt.Sprintf("Registo %d não existe em %s.", id, categoryKey))
}

// Create valida os campos, atribui id e createdAt e grava.
func (s *Service) Create(ctx context.Context, p access.Principal, categoryKey string, fields map[string]interface{}) (domain.Record, error) {
	c, err := resolveCategory(categoryKey)
	if err != nil {
		return domain.Record{}, err
	}
	if err := s.authorizeWrite(p, c); err != nil {
		return domain.Record{}, err
	}
	if err := validateFields(c, fields); err != nil {
		return domain.Record{}, err
	}

	rec := domain.Record{
		ID:        s.IDs.Next(),
		CreatedAt: s.now().UTC(),
		Fields:    domain.CopyFields(fields),
	}

	stored, err := s.Repo.Insert(ctx, c, rec)
	if err != nil {
		return domain.Record{}, err
	}

	s.logger.Info("Registo criado.", map[string]interface{}{"category": c, "id": stored.ID, "user": p.Name})
	return stored, nil
}

// Update substitui todos os campos do registo (id e createdAt ficam).
func (s *Service) Update(ctx context.Context, p access.Principal, categoryKey string, id int64, fields map[string]interface{}) (domain.Record, error) {
	c, err := resolveCategory(categoryKey)
	if err != nil {
		return domain.Record{}, err
	}
	if err := s.authorizeWrite(p, c); err != nil {
		return domain.Record{}, err
	}
	if err := validateFields(c, fields); err != nil {
		return domain.Record{}, err
	}

	updated, err := s.Repo.Update(ctx, c, domain.Record{ID: id, Fields: domain.CopyFields(fields)})
	if err != nil {
		return domain.Record{}, err
	}

	s.logger.Info("Registo actualizado.", map[string]interface{}{"category": c, "id": id, "user": p.Name})
	return updated, nil
}

// Patch funde os campos indicados nos actuais. Um valor null remove o campo.
func (s *Service) Patch(ctx context.Context, p access.Principal, categoryKey string, id int64, changes map[string]interface{}) (domain.Record, error) {
	c, err := resolveCategory(categoryKey)
	if err != nil {
		return domain.Record{}, err
	}
	if err := s.authorizeWrite(p, c); err != nil {
		return domain.Record{}, err
	}
	if changes == nil {
		return domain.Record{}, apperror.NewValidationError("O corpo do pedido deve ser um objecto JSON.")
	}

	current, err := s.Get(ctx, p, categoryKey, id)
	if err != nil {
		return domain.Record{}, err
	}

	merged := domain.CopyFields(current.Fields)
	for k, v := range domain.CopyFields(changes) {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	if err := validateFields(c, merged); err != nil {
		return domain.Record{}, err
	}

	updated, err := s.Repo.Update(ctx, c, domain.Record{ID: id, Fields: merged})
	if err != nil {
		return domain.Record{}, err
	}

	s.logger.Info("Registo actualizado parcialmente.", map[string]interface{}{"category": c, "id": id, "user": p.Name})
	return updated, nil
}

// Delete remove o registo; NotFoundError se não existir.
func (s *Service) Delete(ctx context.Context, p access.Principal, categoryKey string, id int64) error {
	c, err := resolveCategory(categoryKey)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(p, c); err != nil {
		return err
	}

	removed, err := s.Repo.Delete(ctx, c, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NewNotFoundError(fmt.Sprintf("Registo %d não existe em %s.", id, c))
	}

	s.logger.Info("Registo removido.", map[string]interface{}{"category": c, "id": id, "user": p.Name})
	return nil
}
