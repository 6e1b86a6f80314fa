package usecase

import (
	"context"

	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, pasando un repositorio atado a esa tx.
// Update y Delete leen y escriben dentro del mismo bloque.
type TxRunner interface {
	Run(ctx context.Context, fn func(users repository.UserRepository) error) error
}

// directRunner ejecuta fn sin transacción, sobre el repositorio base.
type directRunner struct {
	repo repository.UserRepository
}

func (r directRunner) Run(_ context.Context, fn func(users repository.UserRepository) error) error {
	return fn(r.repo)
}
