package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/dealflow-crm/internal/application/usecase"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
)

var _ usecase.TxRunner = (*TxRunner)(nil)

// TxRunner serializa los bloques de lectura y escritura sobre el repositorio en memoria.
// No hay rollback: un fn que falla a mitad deja aplicadas las escrituras previas.
type TxRunner struct {
	mu    sync.Mutex
	users repository.UserRepository
}

// NewTxRunner construye el runner sobre el repositorio dado.
func NewTxRunner(users repository.UserRepository) *TxRunner {
	return &TxRunner{users: users}
}

// Run ejecuta fn en exclusión mutua con los demás bloques del runner.
func (r *TxRunner) Run(ctx context.Context, fn func(users repository.UserRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.users)
}
