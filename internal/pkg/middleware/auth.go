package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/httpresp"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote.
type ContextKey int

const (
	PrincipalKey ContextKey = iota
	RequestIDKey
)

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// PrincipalLoader relê o utilizador do token a cada pedido, para que permissões
// alteradas ou utilizadores removidos tenham efeito imediato.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID int64) (access.Principal, error)
}

// NewAuthMiddleware valida o JWT (header Authorization: Bearer ou ?token=) e
// anexa o principal ao contexto.
func NewAuthMiddleware(tokenSvc TokenService, loader PrincipalLoader, log logger.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				httpresp.Error(w, r, log, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				httpresp.Error(w, r, log, apperror.NewUnauthorizedError("Token inválido ou expirado."))
				return
			}

			principal, err := loader.LoadPrincipal(r.Context(), claims.UserID)
			if err != nil {
				var notFound *apperror.NotFoundError
				if errors.As(err, &notFound) {
					httpresp.Error(w, r, log, apperror.NewUnauthorizedError("Sessão inválida."))
					return
				}
				httpresp.Error(w, r, log, err)
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	if authHeader != "" {
		return ""
	}
	// Os browsers não enviam headers no handshake websocket.
	return r.URL.Query().Get("token")
}

// GetPrincipal extrai o principal anexado pelo NewAuthMiddleware.
func GetPrincipal(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(access.Principal)
	return p, ok
}

// WithPrincipal anexa um principal ao contexto (testes e chamadas internas).
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PermissionMiddleware só deixa passar os papéis indicados.
func PermissionMiddleware(log logger.Logger, requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				httpresp.Error(w, r, log, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}

			for _, role := range requiredRoles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			httpresp.Error(w, r, log, apperror.NewForbiddenError("Você não tem a permissão necessária."))
		}
	}
}

// ViewMiddleware só deixa passar quem vê o ecrã indicado.
func ViewMiddleware(log logger.Logger, view domain.View) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := GetPrincipal(r.Context())
			if !ok {
				httpresp.Error(w, r, log, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."))
				return
			}
			if !access.CanView(p, view) {
				httpresp.Error(w, r, log, apperror.NewForbiddenError("Sem acesso ao ecrã "+string(view)+"."))
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}
