package userservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/idgen"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/password"
	"gosigo/internal/repository/recordrepo"
	"gosigo/internal/repository/userrepo"
	"gosigo/internal/service/userservice"
)

// MockUserRepository é uma implementação mock de domain.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByName(ctx context.Context, name string) (domain.User, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByExactName(ctx context.Context, name string) (domain.User, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, u domain.User) (domain.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u domain.User) (domain.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockTokenService devolve tokens fixos.
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateToken(userID int64, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

var (
	admin      = access.Principal{UserID: 1, Name: "admin", Role: domain.RoleAdmin}
	supervisor = access.Principal{UserID: 2, Name: "supervisor", Role: domain.RoleSupervisor}
	hasher     = password.NewHasher(bcrypt.MinCost)
)

func hashOf(t *testing.T, plain string) string {
	t.Helper()
	h, err := hasher.Hash(plain)
	require.NoError(t, err)
	return h
}

func newMockService(repo domain.UserRepository, tokens userservice.TokenService) *userservice.UserService {
	return userservice.NewService(repo, tokens, hasher, idgen.New(), logger.NewNop())
}

// newMemoryService usa o repositório real sobre memória.
func newMemoryService(t *testing.T) (*userservice.UserService, *MockTokenService) {
	t.Helper()
	repo := userrepo.NewUserRepository(recordrepo.NewMemoryRepository(logger.NewNop()), logger.NewNop())
	tokens := new(MockTokenService)
	tokens.On("GenerateToken", mock.Anything, mock.Anything).Return("jwt", nil)
	return userservice.NewService(repo, tokens, hasher, idgen.New(), logger.NewNop()), tokens
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepository)
	tokens := new(MockTokenService)
	user := domain.User{ID: 1, Name: "admin", Role: domain.RoleAdmin, PasswordHash: hashOf(t, "admin123")}
	repo.On("FindByExactName", mock.Anything, "admin").Return(user, nil)
	tokens.On("GenerateToken", int64(1), "Admin").Return("jwt-token", nil)

	resp, err := newMockService(repo, tokens).Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "admin123"})

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Equal(t, int64(1), resp.User.ID)
	tokens.AssertExpectations(t)
}

func TestLogin_MissingFields(t *testing.T) {
	repo := new(MockUserRepository)

	_, err := newMockService(repo, new(MockTokenService)).Login(context.Background(), domain.LoginRequest{Username: "admin"})

	assert.IsType(t, &apperror.ValidationError{}, err)
	repo.AssertNotCalled(t, "FindByExactName", mock.Anything, mock.Anything)
}

func TestLogin_WrongPasswordAndUnknownUserLookTheSame(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByExactName", mock.Anything, "admin").
		Return(domain.User{ID: 1, Name: "admin", PasswordHash: hashOf(t, "admin123")}, nil)
	repo.On("FindByExactName", mock.Anything, "fantasma").
		Return(domain.User{}, apperror.NewNotFoundError("fantasma"))
	svc := newMockService(repo, new(MockTokenService))

	_, wrongPass := svc.Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "errada"})
	_, unknown := svc.Login(context.Background(), domain.LoginRequest{Username: "fantasma", Password: "admin123"})

	assert.IsType(t, &apperror.UnauthorizedError{}, wrongPass)
	assert.IsType(t, &apperror.UnauthorizedError{}, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestLogin_StorageFailure(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByExactName", mock.Anything, "admin").
		Return(domain.User{}, apperror.NewStorageError("falha", errors.New("io")))

	_, err := newMockService(repo, new(MockTokenService)).Login(context.Background(), domain.LoginRequest{Username: "admin", Password: "x"})

	assert.IsType(t, &apperror.StorageError{}, err)
}

func TestLogin_NameMustMatchExactly(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, admin, domain.UserInput{Name: "operador", Password: "operador123", Role: domain.RolePadrao})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, domain.LoginRequest{Username: "operador", Password: "operador123"})
	require.NoError(t, err)
	assert.Equal(t, "operador", resp.User.Name)

	for _, name := range []string{"OPERADOR", "  operador  ", "Operador"} {
		_, err := svc.Login(ctx, domain.LoginRequest{Username: name, Password: "operador123"})
		assert.IsType(t, &apperror.UnauthorizedError{}, err, name)
	}
}

// --- Gestão de utilizadores ---

func TestCreate_AdminOnly(t *testing.T) {
	svc, _ := newMemoryService(t)

	_, err := svc.Create(context.Background(), supervisor, domain.UserInput{Name: "novo", Password: "segredo", Role: domain.RolePadrao})
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

func TestCreate_HashesAndNormalizes(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, admin, domain.UserInput{
		Name:        " operador ",
		Password:    "segredo",
		Role:        domain.RolePadrao,
		Permissions: []string{"dashboard", "Criminalidade", "Dashboard"},
	})
	require.NoError(t, err)

	assert.Equal(t, "operador", user.Name)
	assert.Equal(t, []string{"Dashboard", "Criminalidade"}, user.Permissions)
	assert.NotEqual(t, "segredo", user.PasswordHash)
	assert.NoError(t, hasher.Verify(user.PasswordHash, "segredo"))
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   domain.UserInput
	}{
		{"sem senha", domain.UserInput{Name: "novo", Role: domain.RolePadrao}},
		{"senha curta", domain.UserInput{Name: "novo", Password: "123", Role: domain.RolePadrao}},
		{"nome curto", domain.UserInput{Name: "ab", Password: "segredo", Role: domain.RolePadrao}},
		{"papel inválido", domain.UserInput{Name: "novo", Password: "segredo", Role: "Root"}},
		{"permissão desconhecida", domain.UserInput{Name: "novo", Password: "segredo", Role: domain.RolePadrao, Permissions: []string{"Armas"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, admin, tt.in)
			assert.IsType(t, &apperror.ValidationError{}, err)
		})
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, domain.UserInput{Name: "operador", Password: "segredo", Role: domain.RolePadrao})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, domain.UserInput{Name: "OPERADOR", Password: "segredo", Role: domain.RolePadrao})
	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestCreateThenLogin(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, domain.UserInput{Name: "operador", Password: "segredo", Role: domain.RolePadrao})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, domain.LoginRequest{Username: "operador", Password: "segredo"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", resp.Token)
}

func TestUpdate_KeepsPasswordWhenEmpty(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, domain.UserInput{Name: "operador", Password: "segredo", Role: domain.RolePadrao})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, admin, created.ID, domain.UserInput{Name: "operador", Role: domain.RoleSupervisor})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupervisor, updated.Role)
	assert.Equal(t, created.PasswordHash, updated.PasswordHash)

	p, err := svc.LoadPrincipal(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupervisor, p.Role)
}

func TestUpdate_CannotDemoteSelf(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	me, err := svc.Create(ctx, admin, domain.UserInput{Name: "chefe", Password: "segredo", Role: domain.RoleAdmin})
	require.NoError(t, err)

	self := access.Principal{UserID: me.ID, Name: me.Name, Role: domain.RoleAdmin}
	_, err = svc.Update(ctx, self, me.ID, domain.UserInput{Name: "chefe", Role: domain.RolePadrao})
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestDelete(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin, domain.UserInput{Name: "operador", Password: "segredo", Role: domain.RolePadrao})
	require.NoError(t, err)

	assert.IsType(t, &apperror.ForbiddenError{}, svc.Delete(ctx, supervisor, created.ID))
	assert.IsType(t, &apperror.ValidationError{}, svc.Delete(ctx, admin, admin.UserID))
	require.NoError(t, svc.Delete(ctx, admin, created.ID))
	assert.IsType(t, &apperror.NotFoundError{}, svc.Delete(ctx, admin, created.ID))

	_, err = svc.LoadPrincipal(ctx, created.ID)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestList_RequiresUtilizadoresView(t *testing.T) {
	svc, _ := newMemoryService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, access.Principal{Role: domain.RolePadrao, Permissions: []string{"Dashboard"}})
	assert.IsType(t, &apperror.ForbiddenError{}, err)

	users, err := svc.List(ctx, supervisor)
	assert.NoError(t, err)
	assert.Empty(t, users)
}
