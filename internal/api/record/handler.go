package record

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
	"gosigo/internal/pkg/query"
)

const maxBodyBytes = 1 << 20

// RecordService define o contrato que o Handler espera da camada de Serviço.
type RecordService interface {
	Query(ctx context.Context, p access.Principal, category string, params query.Params) (query.Page, error)
	Get(ctx context.Context, p access.Principal, category string, id int64) (domain.Record, error)
	Create(ctx context.Context, p access.Principal, category string, fields map[string]interface{}) (domain.Record, error)
	Update(ctx context.Context, p access.Principal, category string, id int64, fields map[string]interface{}) (domain.Record, error)
	Patch(ctx context.Context, p access.Principal, category string, id int64, changes map[string]interface{}) (domain.Record, error)
	Delete(ctx context.Context, p access.Principal, category string, id int64) error
}

// Handler agrupa os handlers de /v1/records/{category}.
type Handler struct {
	Service RecordService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc RecordService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		httpresp.Error(w, r, h.Logger, err)
		return
	}
	httpresp.JSON(w, h.Logger, successStatus, data)
}

func principal(r *http.Request) (access.Principal, error) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		return access.Principal{}, apperror.NewUnauthorizedError("Autorização necessária.")
	}
	return p, nil
}

// idParam lê o ?id= obrigatório das mutações.
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

func intParam(r *http.Request, name string) (int, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false, apperror.NewValidationError("o parâmetro " + name + " deve ser um inteiro positivo")
	}
	return n, true, nil
}

// parseParams lê q, dateFrom, dateTo, sort, order, page e pageSize.
// Sem page nem pageSize a resposta traz todos os registos filtrados.
func parseParams(r *http.Request) (query.Params, error) {
	q := r.URL.Query()
	params := query.Params{
		Search:   q.Get("q"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Sort:     query.SortState{Column: strings.TrimSpace(q.Get("sort"))},
	}

	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		params.Sort.Descending = true
	default:
		return query.Params{}, apperror.NewValidationError("o parâmetro order deve ser asc ou desc")
	}

	page, hasPage, err := intParam(r, "page")
	if err != nil {
		return query.Params{}, err
	}
	pageSize, hasSize, err := intParam(r, "pageSize")
	if err != nil {
		return query.Params{}, err
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params.Page = page
	params.PageSize = pageSize
	if !hasPage && !hasSize {
		params.PageSize = query.AllRecords
	}
	return params, nil
}

func bindFields(w http.ResponseWriter, r *http.Request) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&fields); err != nil || fields == nil {
		return nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return fields, nil
}

// ListHandler lida com a requisição GET /v1/records/{category}.
// @Summary Lista os registos de uma categoria
// @Description Devolve os registos em ordem de inserção, com pesquisa, intervalo de datas, ordenação e paginação opcionais. Com ?id= devolve um único registo; com ?id=&format=fields devolve-o como lista nome/valor.
// @Tags records
// @Produce json
// @Param category path string true "Categoria (criminalidade, sinistralidade, resultados, transportes, logistica, autosExpediente, processos)"
// @Param id query int false "Id do registo"
// @Param format query string false "fields: registo como lista de pares nome/valor (só com id)"
// @Param q query string false "Pesquisa livre"
// @Param dateFrom query string false "Data inicial (inclusiva)"
// @Param dateTo query string false "Data final (inclusiva)"
// @Param sort query string false "Coluna de ordenação"
// @Param order query string false "asc ou desc"
// @Param page query int false "Página (1-indexada)"
// @Param pageSize query int false "Tamanho da página"
// @Success 200 {array} object "Registos"
// @Failure 400 {object} domain.ErrorResponse "Categoria ou parâmetros inválidos"
// @Failure 403 {object} domain.ErrorResponse "Sem acesso à categoria"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /records/{category} [get]
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	category := r.PathValue("category")

	if r.URL.Query().Has("id") {
		id, err := idParam(r)
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		format := r.URL.Query().Get("format")
		if format != "" && format != "fields" {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("o parâmetro format só aceita fields"), http.StatusOK)
			return
		}
		rec, err := h.Service.Get(r.Context(), p, category, id)
		if err == nil && format == "fields" {
			h.handleServiceResponse(w, r, rec.FieldList(), nil, http.StatusOK)
			return
		}
		h.handleServiceResponse(w, r, rec, err, http.StatusOK)
		return
	}

	params, err := parseParams(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	page, err := h.Service.Query(r.Context(), p, category, params)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	w.Header().Set("X-Total-Pages", strconv.Itoa(page.TotalPages))
	w.Header().Set("X-Page", strconv.Itoa(page.Page))
	h.handleServiceResponse(w, r, page.Items, nil, http.StatusOK)
}

// CreateHandler lida com a requisição POST /v1/records/{category}.
// @Summary Cria um registo
// @Description Valida os campos da categoria, atribui id e createdAt e grava o registo.
// @Tags records
// @Accept json
// @Produce json
// @Param category path string true "Categoria"
// @Param fields body object true "Campos do registo"
// @Success 201 {object} object "Registo criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou categoria desconhecida"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão de escrita"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /records/{category} [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	fields, err := bindFields(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	created, err := h.Service.Create(r.Context(), p, r.PathValue("category"), fields)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// UpdateHandler lida com a requisição PUT /v1/records/{category}?id=.
// @Summary Substitui os campos de um registo
// @Tags records
// @Accept json
// @Produce json
// @Param category path string true "Categoria"
// @Param id query int true "Id do registo"
// @Param fields body object true "Campos do registo"
// @Success 200 {object} object "Registo actualizado"
// @Failure 400 {object} domain.ErrorResponse "Id ou payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão de escrita"
// @Failure 404 {object} domain.ErrorResponse "Registo não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /records/{category} [put]
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.Update)
}

// PatchHandler lida com a requisição PATCH /v1/records/{category}?id=.
// @Summary Actualiza parcialmente um registo
// @Description Funde os campos enviados nos actuais; null remove o campo.
// @Tags records
// @Accept json
// @Produce json
// @Param category path string true "Categoria"
// @Param id query int true "Id do registo"
// @Param fields body object true "Campos a alterar"
// @Success 200 {object} object "Registo actualizado"
// @Failure 400 {object} domain.ErrorResponse "Id ou payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão de escrita"
// @Failure 404 {object} domain.ErrorResponse "Registo não encontrado"
// @Security ApiKeyAuth
// @Router /records/{category} [patch]
func (h *Handler) PatchHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.Patch)
}

type mutation func(ctx context.Context, p access.Principal, category string, id int64, fields map[string]interface{}) (domain.Record, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op mutation) {
	p, err := principal(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	id, err := idParam(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	fields, err := bindFields(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	updated, err := op(r.Context(), p, r.PathValue("category"), id, fields)
	h.handleServiceResponse(w, r, updated, err, http.StatusOK)
}

// DeleteHandler lida com a requisição DELETE /v1/records/{category}?id=.
// @Summary Remove um registo
// @Tags records
// @Param category path string true "Categoria"
// @Param id query int true "Id do registo"
// @Success 204 "Nenhum conteúdo"
// @Failure 400 {object} domain.ErrorResponse "Id inválido"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão de escrita"
// @Failure 404 {object} domain.ErrorResponse "Registo não encontrado"
// @Security ApiKeyAuth
// @Router /records/{category} [delete]
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	id, err := idParam(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	err = h.Service.Delete(r.Context(), p, r.PathValue("category"), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusNoContent)
}
