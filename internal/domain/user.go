package domain

import (
	"context"
	"time"
)

// User representa um operador do sistema. Os utilizadores vivem na categoria
// users e são também a fonte de autenticação.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"` // Nunca sai do serviço
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRole é o papel do utilizador.
type UserRole string

const (
	RoleAdmin      UserRole = "Admin"
	RolePadrao     UserRole = "Padrao"
	RoleSupervisor UserRole = "Supervisor"
)

// Valid indica se o papel pertence à enumeração.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RolePadrao, RoleSupervisor:
		return true
	}
	return false
}

// Nomes dos campos de um utilizador guardado como registo.
const (
	userFieldName         = "name"
	userFieldRole         = "role"
	userFieldPasswordHash = "passwordHash"
	userFieldPermissions  = "permissions"
)

// UserInput é o payload de criação/edição de utilizadores.
// Na edição, Password vazio mantém a senha actual.
type UserInput struct {
	Name        string   `json:"name" validate:"required,min=3,max=100"`
	Password    string   `json:"password,omitempty" validate:"omitempty,min=6"`
	Role        UserRole `json:"role" validate:"required,oneof=Admin Padrao Supervisor"`
	Permissions []string `json:"permissions"`
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse devolve o utilizador (sem senha) e o token de sessão.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ToRecord converte o utilizador para o registo genérico da categoria users.
func (u User) ToRecord() Record {
	perms := make([]interface{}, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		perms = append(perms, p)
	}
	return Record{
		ID:        u.ID,
		CreatedAt: u.CreatedAt,
		Fields: map[string]interface{}{
			userFieldName:         u.Name,
			userFieldRole:         string(u.Role),
			userFieldPasswordHash: u.PasswordHash,
			userFieldPermissions:  perms,
		},
	}
}

// UserFromRecord reconstrói o utilizador a partir do registo da categoria users.
// Campos em falta ficam vazios; a lista de permissões aceita []string ou []interface{}.
func UserFromRecord(r Record) User {
	u := User{
		ID:           r.ID,
		CreatedAt:    r.CreatedAt,
		Name:         r.String(userFieldName),
		Role:         UserRole(r.String(userFieldRole)),
		PasswordHash: r.String(userFieldPasswordHash),
		Permissions:  []string{},
	}
	switch perms := r.Fields[userFieldPermissions].(type) {
	case []string:
		u.Permissions = append(u.Permissions, perms...)
	case []interface{}:
		for _, p := range perms {
			if s, ok := p.(string); ok {
				u.Permissions = append(u.Permissions, s)
			}
		}
	}
	return u
}

// UserRepository define o contrato de persistência para a entidade User.
type UserRepository interface {
	List(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByName(ctx context.Context, name string) (User, error)
	FindByExactName(ctx context.Context, name string) (User, error)
	Save(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
