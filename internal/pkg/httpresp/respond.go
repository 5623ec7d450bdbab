// Package httpresp escreve as respostas JSON padronizadas da API.
package httpresp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gosigo/internal/domain"
	apperror "gosigo/internal/errors"
	"gosigo/internal/pkg/logger"
)

// JSON escreve data com o estado indicado. data nil escreve só o estado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz o erro para o corpo {code, category, message}.
// Erros 5xx são registados com o detalhe; o cliente recebe a mensagem genérica.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	JSON(w, log, status, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}
