package dashboard

import (
	"context"
	"net/http"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/httpresp"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/middleware"
)

// DashboardService define o que o Handler usa do serviço do dashboard.
type DashboardService interface {
	Summary(ctx context.Context, p access.Principal) (domain.Summary, error)
	GroupBy(ctx context.Context, p access.Principal, category, field string) ([]domain.Bucket, error)
}

// Socket promove o pedido a websocket para o principal autenticado.
type Socket interface {
	ServeWs(w http.ResponseWriter, r *http.Request, p access.Principal)
}

// Handler agrupa os handlers do dashboard.
type Handler struct {
	Service DashboardService
	Hub     Socket
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc DashboardService, hub Socket, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
		Logger:  log,
	}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		httpresp.Error(w, r, h.Logger, err)
		return
	}
	httpresp.JSON(w, h.Logger, successStatus, data)
}

// SummaryHandler lida com a requisição GET /v1/dashboard/summary.
// @Summary Totais por categoria
// @Description Contagem de registos das categorias que o utilizador pode ler.
// @Tags dashboard
// @Produce json
// @Success 200 {object} domain.Summary
// @Failure 403 {object} domain.ErrorResponse "Sem acesso ao Dashboard"
// @Security ApiKeyAuth
// @Router /dashboard/summary [get]
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}
	sum, err := h.Service.Summary(r.Context(), p)
	h.handleServiceResponse(w, r, sum, err, http.StatusOK)
}

// GroupsHandler lida com a requisição GET /v1/dashboard/{category}/groups?field=.
// @Summary Contagem por valor de campo
// @Description Agrupa os registos da categoria pelo valor do campo indicado (valores vazios são ignorados).
// @Tags dashboard
// @Produce json
// @Param category path string true "Categoria"
// @Param field query string true "Campo a agrupar (ex.: tipo, estado)"
// @Success 200 {array} domain.Bucket
// @Failure 400 {object} domain.ErrorResponse "Categoria ou campo inválido"
// @Failure 403 {object} domain.ErrorResponse "Sem acesso à categoria"
// @Security ApiKeyAuth
// @Router /dashboard/{category}/groups [get]
func (h *Handler) GroupsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}
	buckets, err := h.Service.GroupBy(r.Context(), p, r.PathValue("category"), r.URL.Query().Get("field"))
	h.handleServiceResponse(w, r, buckets, err, http.StatusOK)
}

// WsHandler lida com GET /v1/dashboard/ws: totais em tempo real por websocket.
// O acesso ao ecrã Dashboard é verificado pelo ViewMiddleware.
// @Summary Totais em tempo real
// @Description Websocket que recebe {"type":"summary","data":...} a cada ciclo do poller. O token pode ir em ?token=.
// @Tags dashboard
// @Param token query string false "JWT"
// @Success 101 "Switching Protocols"
// @Failure 403 {object} domain.ErrorResponse "Sem acesso ao Dashboard"
// @Router /dashboard/ws [get]
func (h *Handler) WsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
		return
	}
	h.Hub.ServeWs(w, r, p)
}
