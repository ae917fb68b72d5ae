package domain

import (
	"errors"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Códigos de conflicto del registro de resoluciones.
const (
	CodeDuplicateActive   = "DUPLICATE_ACTIVE_RESOLUTION"
	CodeRangeOverlap      = "RANGE_OVERLAP"
	CodeCannotChangeRange = "CANNOT_CHANGE_RANGE"
	CodeRangeBelowCurrent = "RANGE_BELOW_CURRENT"
	CodeCannotDeleteUsed  = "CANNOT_DELETE_USED_RESOLUTION"
	CodeNoActive          = "NO_ACTIVE_RESOLUTION"
	CodeExhausted         = "RESOLUTION_EXHAUSTED"
)

// ValidationError agrupa errores por campo. errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError crea un ValidationError con un solo campo.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidInput.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ConflictError es un rechazo de negocio reportado por el registro (solapamiento, en uso, ...).
type ConflictError struct {
	Code    string
	Message string
}

// NewConflict construye un ConflictError.
func NewConflict(code, msg string) *ConflictError {
	return &ConflictError{Code: code, Message: msg}
}

func (e *ConflictError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
