package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/dealflow-crm/internal/domain"
)

// bodyValidator envuelve go-playground/validator y traduce sus errores a domain.ValidationError.
type bodyValidator struct {
	v *validator.Validate
}

func newBodyValidator() *bodyValidator {
	v := validator.New()
	// Reportar el nombre JSON del campo en lugar del nombre Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &bodyValidator{v: v}
}

// Validate valida un DTO con tags `validate`.
func (bv *bodyValidator) Validate(i any) error {
	err := bv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]domain.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, domain.FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return &domain.ValidationError{Fields: fields}
}
