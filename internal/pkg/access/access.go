// Package access traduz o papel e a lista de permissões de um utilizador nos
// ecrãs e categorias a que ele tem acesso.
package access

import "gosigo/internal/domain"

// Principal é o utilizador autenticado de um pedido.
type Principal struct {
	UserID      int64
	Name        string
	Role        domain.UserRole
	Permissions []string
}

// FromUser constrói o principal a partir do utilizador guardado.
func FromUser(u domain.User) Principal {
	perms := make([]string, len(u.Permissions))
	copy(perms, u.Permissions)
	return Principal{
		UserID:      u.ID,
		Name:        u.Name,
		Role:        u.Role,
		Permissions: perms,
	}
}

// VisibleViews devolve os ecrãs visíveis, na ordem de domain.Views.
// Admin e Supervisor vêem tudo; Padrao vê exactamente as suas permissões.
// Papéis desconhecidos não vêem nada.
func VisibleViews(p Principal) []domain.View {
	switch p.Role {
	case domain.RoleAdmin, domain.RoleSupervisor:
		out := make([]domain.View, len(domain.Views))
		copy(out, domain.Views)
		return out
	case domain.RolePadrao:
		granted := make(map[domain.View]bool, len(p.Permissions))
		for _, name := range p.Permissions {
			if v, ok := domain.ParseView(name); ok {
				granted[v] = true
			}
		}
		out := []domain.View{}
		for _, v := range domain.Views {
			if granted[v] {
				out = append(out, v)
			}
		}
		return out
	}
	return []domain.View{}
}

// CanView indica se o ecrã está visível para o principal.
func CanView(p Principal, view domain.View) bool {
	for _, v := range VisibleViews(p) {
		if v == view {
			return true
		}
	}
	return false
}

// CanRead indica se o principal pode listar a categoria.
func CanRead(p Principal, category domain.Category) bool {
	view := domain.ViewFor(category)
	if view == "" {
		return false
	}
	return CanView(p, view)
}

// CanWrite indica se o principal pode criar, editar ou remover registos da categoria.
// Supervisor é só de leitura. A gestão de utilizadores é exclusiva do Admin.
func CanWrite(p Principal, category domain.Category) bool {
	switch p.Role {
	case domain.RoleAdmin:
		_, ok := domain.ParseCategory(string(category))
		return ok
	case domain.RolePadrao:
		if category == domain.CategoryUsers {
			return false
		}
		return CanRead(p, category)
	}
	return false
}

// CanManageUsers indica se o principal pode criar, editar ou remover utilizadores.
func CanManageUsers(p Principal) bool {
	return CanWrite(p, domain.CategoryUsers)
}
