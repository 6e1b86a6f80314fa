// Package memory implementa los puertos de persistencia en memoria del proceso.
// Se usa cuando STORE_DRIVER=memory y como implementación de referencia en tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
	"github.com/jhoicas/dealflow-crm/internal/domain/rules"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const recentLimit = 10

// UserRepo guarda usuarios en un mapa protegido por RWMutex.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[int64]*entity.User
	byEmail map[string]int64
	nextID  int64
	clock   rules.Clock
}

// Option configura el repositorio.
type Option func(*UserRepo)

// WithClock reemplaza la fuente de tiempo (tests).
func WithClock(c rules.Clock) Option {
	return func(r *UserRepo) { r.clock = c }
}

// NewUserRepository construye un repositorio vacío.
func NewUserRepository(opts ...Option) *UserRepo {
	r := &UserRepo{
		byID:    make(map[int64]*entity.User),
		byEmail: make(map[string]int64),
		clock:   time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Save inserta o actualiza según user.ID.
func (r *UserRepo) Save(ctx context.Context, user *entity.User) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := rules.ValidateUser(user); err != nil {
		return nil, err
	}
	if user.LastLogin != nil {
		t := rules.Stamp(*user.LastLogin)
		user.LastLogin = &t
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if user.IsNew() {
		if _, taken := r.byEmail[user.Email]; taken {
			return nil, domain.ErrEmailAlreadyExists
		}
		now := rules.Stamp(r.clock())
		r.nextID++
		user.ID = r.nextID
		user.CreatedAt = now
		user.UpdatedAt = now
		r.byID[user.ID] = user.Clone()
		r.byEmail[user.Email] = user.ID
		return user, nil
	}

	existing, ok := r.byID[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
		return nil, domain.ErrEmailAlreadyExists
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = rules.UpdatedAt(r.clock(), existing.CreatedAt)
	if existing.Email != user.Email {
		delete(r.byEmail, existing.Email)
	}
	r.byID[user.ID] = user.Clone()
	r.byEmail[user.Email] = user.ID
	return user, nil
}

// FindByID devuelve (nil, nil) si no existe.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id].Clone(), nil
}

// FindByEmail devuelve (nil, nil) si no existe.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return r.byID[id].Clone(), nil
}

// FindByRole filtra por rol exacto.
func (r *UserRepo) FindByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	if !role.Valid() {
		return []*entity.User{}, nil
	}
	return r.filter(ctx, func(u *entity.User) bool { return u.Role == role })
}

// FindByStatus filtra por estado exacto.
func (r *UserRepo) FindByStatus(ctx context.Context, status entity.Status) ([]*entity.User, error) {
	if !status.Valid() {
		return []*entity.User{}, nil
	}
	return r.filter(ctx, func(u *entity.User) bool { return u.Status == status })
}

// FindTop10MostRecent: filtrar todo, ordenar por created_at DESC, id DESC, limitar a 10.
func (r *UserRepo) FindTop10MostRecent(ctx context.Context) ([]*entity.User, error) {
	all, err := r.filter(ctx, func(*entity.User) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if len(all) > recentLimit {
		all = all[:recentLimit]
	}
	return all, nil
}

// List pagina por ID ascendente.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	all, err := r.filter(ctx, func(*entity.User) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*entity.User{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ExistsByID indica si hay un usuario con ese ID.
func (r *UserRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok, nil
}

// Delete elimina por user.ID; no-op si no existe.
func (r *UserRepo) Delete(ctx context.Context, user *entity.User) error {
	if user == nil {
		return nil
	}
	return r.DeleteByID(ctx, user.ID)
}

// DeleteByID elimina por ID; no-op si no existe.
func (r *UserRepo) DeleteByID(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

// Count devuelve el total de usuarios.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *UserRepo) filter(ctx context.Context, keep func(*entity.User) bool) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.byID))
	for _, u := range r.byID {
		if keep(u) {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}
