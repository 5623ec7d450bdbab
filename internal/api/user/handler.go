package user

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/access"
	"gosigo/internal/pkg/httpresp"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/middleware"
)

const maxBodyBytes = 64 << 10

// UserService define o contrato para login e gestão de utilizadores.
type UserService interface {
	Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
	List(ctx context.Context, p access.Principal) ([]domain.User, error)
	Create(ctx context.Context, p access.Principal, in domain.UserInput) (domain.User, error)
	Update(ctx context.Context, p access.Principal, id int64, in domain.UserInput) (domain.User, error)
	Delete(ctx context.Context, p access.Principal, id int64) error
}

// MeResponse descreve a sessão actual e os ecrãs que o utilizador vê.
type MeResponse struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Role  domain.UserRole `json:"role"`
	Views []domain.View   `json:"views"`
}

// Handler agrupa todos os métodos de Handler do utilizador.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
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

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (access.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária."), http.StatusOK)
	}
	return p, ok
}

func idParam(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		return 0, apperror.NewValidationError("o parâmetro id é obrigatório")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NewValidationError("o parâmetro id deve ser numérico")
	}
	return id, nil
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um utilizador e retorna um JWT
// @Description Verifica nome e senha e devolve o utilizador (sem senha) com o token de sessão.
// @Tags users
// @Accept json
// @Produce json
// @Param login body domain.LoginRequest true "Credenciais do utilizador"
// @Success 200 {object} domain.LoginResponse "Sessão iniciada"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	resp, err := h.Service.Login(r.Context(), req)
	h.handleServiceResponse(w, r, resp, err, http.StatusOK)
}

// MeHandler lida com a requisição GET /v1/me.
// @Summary Sessão actual
// @Description Devolve o utilizador autenticado e os ecrãs visíveis para o menu.
// @Tags users
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} domain.ErrorResponse "Sessão inválida"
// @Security ApiKeyAuth
// @Router /me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	h.handleServiceResponse(w, r, MeResponse{
		ID:    p.UserID,
		Name:  p.Name,
		Role:  p.Role,
		Views: access.VisibleViews(p),
	}, nil, http.StatusOK)
}

// ViewsHandler lida com a requisição GET /v1/views.
// @Summary Ecrãs visíveis
// @Description Lista os ecrãs que o utilizador autenticado pode abrir, pela ordem do menu.
// @Tags users
// @Produce json
// @Success 200 {array} string
// @Security ApiKeyAuth
// @Router /views [get]
func (h *Handler) ViewsHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	views := access.VisibleViews(p)
	if views == nil {
		views = []domain.View{}
	}
	h.handleServiceResponse(w, r, views, nil, http.StatusOK)
}

// ListUsersHandler lida com a requisição GET /v1/users.
// @Summary Lista os utilizadores
// @Tags users
// @Produce json
// @Success 200 {array} domain.User
// @Failure 403 {object} domain.ErrorResponse "Sem acesso à gestão de utilizadores"
// @Security ApiKeyAuth
// @Router /users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	users, err := h.Service.List(r.Context(), p)
	h.handleServiceResponse(w, r, users, err, http.StatusOK)
}

// CreateUserHandler lida com a requisição POST /v1/users.
// @Summary Cria um utilizador
// @Description Apenas Admin. A senha é guardada com bcrypt.
// @Tags users
// @Accept json
// @Produce json
// @Param user body domain.UserInput true "Dados do utilizador"
// @Success 201 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Apenas Admin"
// @Failure 409 {object} domain.ErrorResponse "Nome já em uso"
// @Security ApiKeyAuth
// @Router /users [post]
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var in domain.UserInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusCreated)
		return
	}

	created, err := h.Service.Create(r.Context(), p, in)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// UpdateUserHandler lida com a requisição PUT /v1/users?id=.
// @Summary Actualiza um utilizador
// @Description Apenas Admin. Senha vazia mantém a actual.
// @Tags users
// @Accept json
// @Produce json
// @Param id query int true "Id do utilizador"
// @Param user body domain.UserInput true "Dados do utilizador"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Apenas Admin"
// @Failure 404 {object} domain.ErrorResponse "Utilizador não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Nome já em uso"
// @Security ApiKeyAuth
// @Router /users [put]
func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	var in domain.UserInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	updated, err := h.Service.Update(r.Context(), p, id, in)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteUserHandler lida com a requisição DELETE /v1/users?id=.
// @Summary Remove um utilizador
// @Tags users
// @Param id query int true "Id do utilizador"
// @Success 204 "Nenhum conteúdo"
// @Failure 400 {object} domain.ErrorResponse "Id inválido ou a própria conta"
// @Failure 403 {object} domain.ErrorResponse "Apenas Admin"
// @Failure 404 {object} domain.ErrorResponse "Utilizador não encontrado"
// @Security ApiKeyAuth
// @Router /users [delete]
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, err := idParam(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	err = h.Service.Delete(r.Context(), p, id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
