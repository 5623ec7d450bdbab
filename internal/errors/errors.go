package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros tipados do GoSIGO.
// Permite ao Handler obter a categoria, a mensagem e o estado HTTP do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Erro subjacente, quando existe
}

// Mensagem devolvida ao cliente em qualquer falha 5xx. O detalhe fica no log.
const genericInternalMessage = "Ocorreu um erro interno. Tente novamente."

// --- Erros de Domínio ---

// ValidationError representa um campo obrigatório em falta ou inválido no pedido.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// UnknownCategoryError indica uma chave de categoria fora da enumeração fixa.
type UnknownCategoryError struct {
	Key string
}

func (e *UnknownCategoryError) Error() string    { return fmt.Sprintf("Categoria desconhecida: %s", e.Key) }
func (e *UnknownCategoryError) Category() string { return "UNKNOWN_CATEGORY" }
func (e *UnknownCategoryError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *UnknownCategoryError) Unwrap() error    { return nil }

// NewUnknownCategoryError cria o erro para uma categoria inexistente.
func NewUnknownCategoryError(key string) AppError {
	return &UnknownCategoryError{Key: key}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// UnauthorizedError cobre credenciais inválidas e tokens ausentes ou expirados.
// A mensagem nunca distingue "utilizador inexistente" de "senha errada".
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "INVALID_CREDENTIALS" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized }
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um erro 401.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError indica que o papel ou as permissões não cobrem a acção pedida.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden }
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um erro 403.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// ConflictError representa um conflito de estado (id repetido, nome de utilizador em uso).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict }
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Erros de Infraestrutura ---

// StorageError representa uma falha de leitura/escrita no meio de persistência
// (ficheiro, PostgreSQL, serialização).
type StorageError struct {
	Msg string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Erro de Armazenamento: %s", e.Msg)
	}
	return fmt.Sprintf("Erro de Armazenamento: %s: %v", e.Msg, e.Err)
}
func (e *StorageError) Category() string { return "STORAGE_ERROR" }
func (e *StorageError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *StorageError) Unwrap() error    { return e.Err }

// NewStorageError cria um erro de armazenamento.
func NewStorageError(msg string, err error) AppError {
	return &StorageError{Msg: msg, Err: err}
}

// NewDBError é um atalho para falhas do PostgreSQL.
func NewDBError(msg string, err error) AppError {
	return NewStorageError(fmt.Sprintf("%s (DB)", msg), err)
}

// InternalError representa falhas inesperadas fora do armazenamento
// (hash de senha, assinatura de token, ...).
type InternalError struct {
	Msg string
	Err error
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus traduz um erro para o código HTTP, a categoria e a mensagem
// a devolver ao cliente. Procura um AppError em toda a cadeia (errors.As).
// Para 5xx a mensagem é sempre genérica.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			return status, appErr.Category(), genericInternalMessage
		}
		return status, appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratado como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", genericInternalMessage
}
