// Package rules contiene las reglas de integridad que el store aplica antes de escribir.
package rules

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
)

// Longitudes máximas de columnas.
const (
	MaxPasswordLen = 72
	MaxNameLen     = 100
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() { validate = validator.New() })
	return validate
}

type fieldRule struct {
	field string
	value string
	tag   string
}

// ValidateUser comprueba campos requeridos, longitudes y enums.
// Devuelve *domain.ValidationError con todos los campos inválidos, o nil.
func ValidateUser(u *entity.User) error {
	if u == nil {
		return &domain.ValidationError{Fields: []domain.FieldError{{Field: "user", Rule: "required"}}}
	}
	checks := []fieldRule{
		{"email", u.Email, "required"},
		{"password", u.Password, "required,max=" + strconv.Itoa(MaxPasswordLen)},
		{"first_name", u.FirstName, "required,max=" + strconv.Itoa(MaxNameLen)},
		{"last_name", u.LastName, "required,max=" + strconv.Itoa(MaxNameLen)},
		{"role", string(u.Role), "required,oneof=" + joinRoles()},
		{"status", string(u.Status), "required,oneof=" + joinStatuses()},
	}

	var fields []domain.FieldError
	for _, c := range checks {
		err := instance().Var(c.value, c.tag)
		if err == nil {
			continue
		}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fields = append(fields, domain.FieldError{Field: c.field, Rule: ve[0].Tag(), Param: ve[0].Param()})
			continue
		}
		fields = append(fields, domain.FieldError{Field: c.field, Rule: "invalid"})
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func joinRoles() string {
	parts := make([]string, 0, 3)
	for _, r := range entity.Roles() {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, " ")
}

func joinStatuses() string {
	parts := make([]string, 0, 2)
	for _, s := range entity.Statuses() {
		parts = append(parts, string(s))
	}
	return strings.Join(parts, " ")
}
