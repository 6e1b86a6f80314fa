package usecase

import (
	"errors"

	"github.com/jhoicas/dealflow-crm/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher transforma la contraseña en texto plano en el valor que se guarda en el store.
type PasswordHasher func(plain string) (string, error)

// BcryptHasher hashea con bcrypt; el hash (60 caracteres) cabe en la columna de 72.
func BcryptHasher(cost int) PasswordHasher {
	return func(plain string) (string, error) {
		hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return "", &domain.ValidationError{Fields: []domain.FieldError{{Field: "password", Rule: "max", Param: "72"}}}
			}
			return "", err
		}
		return string(hash), nil
	}
}
