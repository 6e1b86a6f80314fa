package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrUserNotFound        = fmt.Errorf("usuario no encontrado: %w", ErrNotFound)
	ErrConstraintViolation = errors.New("violación de restricción")
	ErrEmailAlreadyExists  = fmt.Errorf("el email ya está registrado: %w", ErrConstraintViolation)
	ErrValidation          = errors.New("validación fallida")
)

// FieldError describe un campo que no cumple una regla.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

func (f FieldError) String() string {
	switch f.Rule {
	case "required":
		return f.Field + " es requerido"
	case "max":
		return fmt.Sprintf("%s admite máximo %s caracteres", f.Field, f.Param)
	case "oneof":
		return fmt.Sprintf("%s debe ser uno de: %s", f.Field, f.Param)
	default:
		return fmt.Sprintf("%s no cumple la regla %s", f.Field, f.Rule)
	}
}

// ValidationError agrupa los campos inválidos detectados antes de escribir una fila.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

// Unwrap permite errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }

// Has indica si el campo aparece entre los errores.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
