package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository decora un repository.UserRepository registrando conteo y latencia por operación.
type UserRepository struct {
	next repository.UserRepository
}

// InstrumentUserRepository envuelve el repositorio dado.
func InstrumentUserRepository(next repository.UserRepository) *UserRepository {
	return &UserRepository{next: next}
}

func (r *UserRepository) observe(op string, start time.Time, found bool, err error) {
	StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	StoreOperationsTotal.WithLabelValues(op, resultLabel(found, err)).Inc()
}

func resultLabel(found bool, err error) string {
	switch {
	case err == nil && !found:
		return "not_found"
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConstraintViolation):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (r *UserRepository) Save(ctx context.Context, user *entity.User) (*entity.User, error) {
	start := time.Now()
	u, err := r.next.Save(ctx, user)
	r.observe("save", start, true, err)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	start := time.Now()
	u, err := r.next.FindByID(ctx, id)
	r.observe("find_by_id", start, u != nil, err)
	return u, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	start := time.Now()
	u, err := r.next.FindByEmail(ctx, email)
	r.observe("find_by_email", start, u != nil, err)
	return u, err
}

func (r *UserRepository) FindByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	start := time.Now()
	list, err := r.next.FindByRole(ctx, role)
	r.observe("find_by_role", start, true, err)
	return list, err
}

func (r *UserRepository) FindByStatus(ctx context.Context, status entity.Status) ([]*entity.User, error) {
	start := time.Now()
	list, err := r.next.FindByStatus(ctx, status)
	r.observe("find_by_status", start, true, err)
	return list, err
}

func (r *UserRepository) FindTop10MostRecent(ctx context.Context) ([]*entity.User, error) {
	start := time.Now()
	list, err := r.next.FindTop10MostRecent(ctx)
	r.observe("find_top10_recent", start, true, err)
	return list, err
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	start := time.Now()
	list, err := r.next.List(ctx, limit, offset)
	r.observe("list", start, true, err)
	return list, err
}

func (r *UserRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	start := time.Now()
	ok, err := r.next.ExistsByID(ctx, id)
	r.observe("exists_by_id", start, ok, err)
	return ok, err
}

func (r *UserRepository) Delete(ctx context.Context, user *entity.User) error {
	start := time.Now()
	err := r.next.Delete(ctx, user)
	r.observe("delete", start, true, err)
	return err
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.next.DeleteByID(ctx, id)
	r.observe("delete_by_id", start, true, err)
	return err
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := r.next.Count(ctx)
	r.observe("count", start, true, err)
	return n, err
}
