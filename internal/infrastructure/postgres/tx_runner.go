package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/dealflow-crm/internal/application/usecase"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
)

var _ usecase.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	wrap func(repository.UserRepository) repository.UserRepository
	opts []Option
}

// NewTxRunner construye el runner con el pool. wrap (opcional) decora el repo de cada tx
// (p. ej. con métricas); opts se aplican al UserRepo creado sobre la tx.
func NewTxRunner(pool *pgxpool.Pool, wrap func(repository.UserRepository) repository.UserRepository, opts ...Option) *TxRunner {
	return &TxRunner{pool: pool, wrap: wrap, opts: opts}
}

// Run inicia una transacción, ejecuta fn con el repo atado a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(users repository.UserRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var users repository.UserRepository = NewUserRepository(tx, r.opts...)
	if r.wrap != nil {
		users = r.wrap(users)
	}

	if err := fn(users); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
