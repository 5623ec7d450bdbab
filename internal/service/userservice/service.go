package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/password"
)

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID int64, userRole string) (string, error)
}

// PasswordHasher é o contrato do bcrypt (internal/pkg/password).
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// IDGenerator produz os ids dos utilizadores novos.
type IDGenerator interface {
	Next() int64
}

// UserService define o serviço de lógica de negócio para a entidade User.
type UserService struct {
	UserRepo  domain.UserRepository
	TokenSvc  TokenService
	Hasher    PasswordHasher
	IDs       IDGenerator
	dummyHash string
	now       func() time.Time
	logger    logger.Logger
}

// NewService cria uma nova instância do UserService.
func NewService(repo domain.UserRepository, tokenSvc TokenService, hasher PasswordHasher, ids IDGenerator, logger logger.Logger) *UserService {
	// Hash usado quando o utilizador não existe, para o login demorar o mesmo.
	dummy, err := hasher.Hash("gosigo-utilizador-inexistente")
	if err != nil {
		logger.Warn("Falha ao gerar hash de referência do login.", map[string]interface{}{"error": err.Error()})
	}
	return &UserService{
		UserRepo:  repo,
		TokenSvc:  tokenSvc,
		Hasher:    hasher,
		IDs:       ids,
		dummyHash: dummy,
		now:       time.Now,
		logger:    logger,
	}
}

// Login autentica o utilizador e devolve-o com um JWT.
// Qualquer falha de credenciais devolve o mesmo UnauthorizedError.
func (s *UserService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	// 1. Validação Básica
	if err := domain.ValidateStruct(req); err != nil {
		return domain.LoginResponse{}, apperror.NewValidationError(err.Error())
	}

	// 2. Buscar Utilizador pelo nome exacto
	user, err := s.UserRepo.FindByExactName(ctx, req.Username)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			_ = s.Hasher.Verify(s.dummyHash, req.Password)
			s.logger.Info("Login recusado.", map[string]interface{}{"username": req.Username})
			return domain.LoginResponse{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return domain.LoginResponse{}, err
	}

	// 3. Comparar Senhas
	if err := s.Hasher.Verify(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.logger.Warn("Hash de senha ilegível.", map[string]interface{}{"user_id": user.ID})
		}
		s.logger.Info("Login recusado.", map[string]interface{}{"username": req.Username})
		return domain.LoginResponse{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	// 4. Gerar JWT
	tokenString, err := s.TokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return domain.LoginResponse{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login efectuado.", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return domain.LoginResponse{User: user, Token: tokenString}, nil
}

// LoadPrincipal relê o utilizador do token para o pedido actual.
func (s *UserService) LoadPrincipal(ctx context.Context, userID int64) (access.Principal, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if err != nil {
		return access.Principal{}, err
	}
	return access.FromUser(user), nil
}

// List devolve os utilizadores; exige o ecrã Utilizadores.
func (s *UserService) List(ctx context.Context, p access.Principal) ([]domain.User, error) {
	if !access.CanRead(p, domain.CategoryUsers) {
		return nil, apperror.NewForbiddenError("Sem acesso à gestão de utilizadores.")
	}
	return s.UserRepo.List(ctx)
}

// Create regista um utilizador novo. Apenas Admin.
func (s *UserService) Create(ctx context.Context, p access.Principal, in domain.UserInput) (domain.User, error) {
	if !access.CanManageUsers(p) {
		return domain.User{}, apperror.NewForbiddenError("Apenas o Admin gere utilizadores.")
	}
	if in.Password == "" {
		return domain.User{}, apperror.NewValidationError("o campo password é obrigatório")
	}
	perms, err := normalizeInput(&in)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.ensureNameFree(ctx, in.Name, 0); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	user, err := s.UserRepo.Save(ctx, domain.User{
		ID:           s.IDs.Next(),
		Name:         in.Name,
		Role:         in.Role,
		PasswordHash: hash,
		Permissions:  perms,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Utilizador criado.", map[string]interface{}{"user_id": user.ID, "by": p.Name})
	return user, nil
}

// Update altera nome, papel e permissões; senha vazia mantém a actual. Apenas Admin.
func (s *UserService) Update(ctx context.Context, p access.Principal, id int64, in domain.UserInput) (domain.User, error) {
	if !access.CanManageUsers(p) {
		return domain.User{}, apperror.NewForbiddenError("Apenas o Admin gere utilizadores.")
	}
	perms, err := normalizeInput(&in)
	if err != nil {
		return domain.User{}, err
	}

	current, err := s.UserRepo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.ensureNameFree(ctx, in.Name, id); err != nil {
		return domain.User{}, err
	}
	if id == p.UserID && in.Role != domain.RoleAdmin {
		return domain.User{}, apperror.NewValidationError("Não pode retirar o papel Admin à sua própria conta.")
	}

	current.Name = in.Name
	current.Role = in.Role
	current.Permissions = perms
	if in.Password != "" {
		hash, err := s.Hasher.Hash(in.Password)
		if err != nil {
			return domain.User{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
		}
		current.PasswordHash = hash
	}

	updated, err := s.UserRepo.Update(ctx, current)
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Utilizador actualizado.", map[string]interface{}{"user_id": id, "by": p.Name})
	return updated, nil
}

// Delete remove o utilizador. Apenas Admin, e nunca a própria conta.
func (s *UserService) Delete(ctx context.Context, p access.Principal, id int64) error {
	if !access.CanManageUsers(p) {
		return apperror.NewForbiddenError("Apenas o Admin gere utilizadores.")
	}
	if id == p.UserID {
		return apperror.NewValidationError("Não pode remover a sua própria conta.")
	}

	removed, err := s.UserRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NewNotFoundError(fmt.Sprintf("Utilizador %d não existe.", id))
	}

	s.logger.Info("Utilizador removido.", map[string]interface{}{"user_id": id, "by": p.Name})
	return nil
}

// normalizeInput valida o payload e devolve as permissões com os nomes canónicos dos ecrãs.
func normalizeInput(in *domain.UserInput) ([]string, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := domain.ValidateStruct(*in); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}

	perms := make([]string, 0, len(in.Permissions))
	seen := make(map[domain.View]bool, len(in.Permissions))
	for _, name := range in.Permissions {
		v, ok := domain.ParseView(name)
		if !ok {
			return nil, apperror.NewValidationError(fmt.Sprintf("permissão desconhecida: %q", name))
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		perms = append(perms, string(v))
	}
	return perms, nil
}

func (s *UserService) ensureNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.UserRepo.FindByName(ctx, name)
	if err == nil {
		if existing.ID == selfID {
			return nil
		}
		return apperror.NewConflictError(fmt.Sprintf("O nome '%s' já está em uso.", name))
	}
	var notFoundErr *apperror.NotFoundError
	if errors.As(err, &notFoundErr) {
		return nil
	}
	return err
}
