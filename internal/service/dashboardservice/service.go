package dashboardservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/aggregate"
	"gosigo/internal/pkg/logger"
)

// CategoryCounter conta registos por categoria sem carregar as coleções.
// O PostgresRepository implementa-o.
type CategoryCounter interface {
	CountByCategory(ctx context.Context) (map[domain.Category]int, error)
}

// Service calcula os totais e agrupamentos do dashboard.
type Service struct {
	Repo    domain.RecordRepository
	Counter CategoryCounter // opcional
	now     func() time.Time
	logger  logger.Logger
}

// NewService cria o serviço. counter pode ser nil.
func NewService(repo domain.RecordRepository, counter CategoryCounter, logger logger.Logger) *Service {
	return &Service{
		Repo:    repo,
		Counter: counter,
		now:     time.Now,
		logger:  logger,
	}
}

// Totals conta os registos de todas as categorias operacionais, sem filtro de acesso.
func (s *Service) Totals(ctx context.Context) (domain.Summary, error) {
	totals := make(map[domain.Category]int)

	if s.Counter != nil {
		counts, err := s.Counter.CountByCategory(ctx)
		if err != nil {
			return domain.Summary{}, err
		}
		for _, c := range domain.OperationalCategories() {
			totals[c] = counts[c]
		}
	} else {
		collections := make(map[domain.Category][]domain.Record)
		for _, c := range domain.OperationalCategories() {
			records, err := s.Repo.List(ctx, c)
			if err != nil {
				return domain.Summary{}, err
			}
			collections[c] = records
		}
		totals = aggregate.Totals(collections)
	}

	return domain.Summary{Totals: totals, GeneratedAt: s.now().UTC()}, nil
}

// ForPrincipal reduz o resumo às categorias que o principal pode ler.
func ForPrincipal(sum domain.Summary, p access.Principal) domain.Summary {
	out := domain.Summary{Totals: make(map[domain.Category]int), GeneratedAt: sum.GeneratedAt}
	for c, n := range sum.Totals {
		if access.CanRead(p, c) {
			out.Totals[c] = n
		}
	}
	return out
}

// Summary devolve os totais visíveis para o principal; exige o ecrã Dashboard.
func (s *Service) Summary(ctx context.Context, p access.Principal) (domain.Summary, error) {
	if !access.CanView(p, domain.ViewDashboard) {
		return domain.Summary{}, apperror.NewForbiddenError("Sem acesso ao Dashboard.")
	}
	sum, err := s.Totals(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	return ForPrincipal(sum, p), nil
}

// GroupBy conta os registos da categoria pelo valor do campo.
func (s *Service) GroupBy(ctx context.Context, p access.Principal, categoryKey, field string) ([]domain.Bucket, error) {
	c, ok := domain.ParseCategory(categoryKey)
	if !ok {
		return nil, apperror.NewUnknownCategoryError(categoryKey)
	}
	if c == domain.CategoryUsers {
		return nil, apperror.NewValidationError("A categoria users não tem agrupamentos.")
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, apperror.NewValidationError("o parâmetro field é obrigatório")
	}
	if !access.CanRead(p, c) {
		return nil, apperror.NewForbiddenError(fmt.Sprintf("Sem acesso à categoria %s.", c))
	}

	records, err := s.Repo.List(ctx, c)
	if err != nil {
		return nil, err
	}
	return aggregate.CountBy(records, field), nil
}
