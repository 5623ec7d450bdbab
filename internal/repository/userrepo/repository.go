package userrepo

import (
	"context"
	"fmt"
	"strings"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/logger"
)

// UserRepository implementa domain.UserRepository sobre a categoria users do
// armazenamento de registos.
type UserRepository struct {
	records domain.RecordRepository
	logger  logger.Logger
}

// NewUserRepository cria o repositório de utilizadores.
func NewUserRepository(records domain.RecordRepository, logger logger.Logger) *UserRepository {
	return &UserRepository{
		records: records,
		logger:  logger,
	}
}

// List devolve todos os utilizadores em ordem de criação.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	records, err := r.records.List(ctx, domain.CategoryUsers)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(records))
	for _, rec := range records {
		users = append(users, domain.UserFromRecord(rec))
	}
	return users, nil
}

// FindByID procura o utilizador pelo id; NotFoundError se não existir.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Utilizador %d não existe.", id))
}

// FindByName procura pelo nome sem distinguir maiúsculas; NotFoundError se não existir.
func (r *UserRepository) FindByName(ctx context.Context, name string) (domain.User, error) {
	name = strings.TrimSpace(name)
	users, err := r.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Name, name) {
			return u, nil
		}
	}
	return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Utilizador %q não existe.", name))
}

// FindByExactName procura pelo nome tal como foi escrito, sem normalizar.
// É a consulta usada no login.
func (r *UserRepository) FindByExactName(ctx context.Context, name string) (domain.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Name == name {
			return u, nil
		}
	}
	return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Utilizador %q não existe.", name))
}

// Save grava um utilizador novo (já com id e createdAt).
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	rec, err := r.records.Insert(ctx, domain.CategoryUsers, user.ToRecord())
	if err != nil {
		return domain.User{}, err
	}
	r.logger.Info("Utilizador gravado.", map[string]interface{}{"user_id": user.ID, "name": user.Name})
	return domain.UserFromRecord(rec), nil
}

// Update substitui nome, papel, hash e permissões.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	rec, err := r.records.Update(ctx, domain.CategoryUsers, user.ToRecord())
	if err != nil {
		return domain.User{}, err
	}
	r.logger.Info("Utilizador actualizado.", map[string]interface{}{"user_id": user.ID})
	return domain.UserFromRecord(rec), nil
}

// Delete remove o utilizador e indica se existia.
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	return r.records.Delete(ctx, domain.CategoryUsers, id)
}
