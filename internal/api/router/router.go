package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "gosigo/docs" // documentação gerada pelo swag

	"gosigo/internal/api/dashboard"
	"gosigo/internal/api/record"
	"gosigo/internal/api/user"
	"gosigo/internal/domain"
	"gosigo/internal/pkg/cache"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/middleware"
)

// Options reúne o que o roteador precisa além dos handlers.
type Options struct {
	TokenService    middleware.TokenService
	PrincipalLoader middleware.PrincipalLoader
	// Limiter nil desliga o rate limiting.
	Limiter    cache.Client
	RateLimit  int
	RateWindow time.Duration
	Logger     logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(recordHandler *record.Handler, userHandler *user.Handler, dashboardHandler *dashboard.Handler, opts Options) http.Handler {
	mux := http.NewServeMux()
	log := opts.Logger

	auth := middleware.NewAuthMiddleware(opts.TokenService, opts.PrincipalLoader, log)
	adminOnly := middleware.PermissionMiddleware(log, domain.RoleAdmin)

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Sessão e utilizadores ---
	mux.HandleFunc("POST /v1/login", userHandler.LoginUserHandler)
	mux.HandleFunc("GET /v1/me", auth(userHandler.MeHandler))
	mux.HandleFunc("GET /v1/views", auth(userHandler.ViewsHandler))
	mux.HandleFunc("GET /v1/users", auth(middleware.ViewMiddleware(log, domain.ViewUtilizadores)(userHandler.ListUsersHandler)))
	mux.HandleFunc("POST /v1/users", auth(adminOnly(userHandler.CreateUserHandler)))
	mux.HandleFunc("PUT /v1/users", auth(adminOnly(userHandler.UpdateUserHandler)))
	mux.HandleFunc("DELETE /v1/users", auth(adminOnly(userHandler.DeleteUserHandler)))

	// --- 3. Registos por categoria ---
	mux.HandleFunc("GET /v1/records/{category}", auth(recordHandler.ListHandler))
	mux.HandleFunc("POST /v1/records/{category}", auth(recordHandler.CreateHandler))
	mux.HandleFunc("PUT /v1/records/{category}", auth(recordHandler.UpdateHandler))
	mux.HandleFunc("PATCH /v1/records/{category}", auth(recordHandler.PatchHandler))
	mux.HandleFunc("DELETE /v1/records/{category}", auth(recordHandler.DeleteHandler))

	// --- 4. Dashboard ---
	mux.HandleFunc("GET /v1/dashboard/summary", auth(dashboardHandler.SummaryHandler))
	mux.HandleFunc("GET /v1/dashboard/{category}/groups", auth(dashboardHandler.GroupsHandler))
	mux.HandleFunc("GET /v1/dashboard/ws", auth(middleware.ViewMiddleware(log, domain.ViewDashboard)(dashboardHandler.WsHandler)))

	// --- 5. Middlewares globais ---
	var handler http.Handler = mux
	if opts.Limiter != nil {
		handler = middleware.RateLimiter(opts.Limiter, opts.RateLimit, opts.RateWindow, log)(handler)
	}
	handler = middleware.RequestLogger(log)(handler)
	return middleware.RequestID(handler)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
