package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas). Cada uno es un "tipo" de error:
// la capa HTTP decide el status con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInternal          = errors.New("error interno")
	ErrInsufficientStock = fmt.Errorf("stock insuficiente: %w", ErrConflict)
)

// Error error estructurado con código estable y detalles para el cliente.
type Error struct {
	Kind    error
	Code    string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

// Unwrap expone el tipo y la causa para errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// WithDetail agrega un detalle y devuelve el mismo error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// NewInvalidInput entrada mal formada o referencia inexistente/inactiva.
func NewInvalidInput(code, message string) *Error {
	return &Error{Kind: ErrInvalidInput, Code: code, Message: message}
}

// NewNotFound recurso inexistente.
func NewNotFound(code, message string) *Error {
	return &Error{Kind: ErrNotFound, Code: code, Message: message}
}

// NewConflict regla de negocio violada al momento de escribir.
func NewConflict(code, message string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: message}
}

// NewInsufficientStock el movimiento dejaría el producto en negativo.
func NewInsufficientStock(productID string, requested, available int) *Error {
	return &Error{
		Kind:    ErrInsufficientStock,
		Code:    "INSUFFICIENT_STOCK",
		Message: "stock insuficiente",
		Details: map[string]any{
			"product_id": productID,
			"requested":  requested,
			"available":  available,
		},
	}
}

// AsError devuelve el *Error de la cadena, si existe.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
