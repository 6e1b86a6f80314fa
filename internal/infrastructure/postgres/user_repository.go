package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
	"github.com/jhoicas/dealflow-crm/internal/domain/rules"
)

var _ repository.UserRepository = (*UserRepo)(nil)

const userColumns = `user_id, user_email, user_password, first_name, last_name, role, status, created_at, updated_at, last_login`

// UserRepo implementación del puerto UserRepository sobre PostgreSQL (usable con pool o tx).
type UserRepo struct {
	q     Querier
	clock rules.Clock
}

// Option configura el adaptador.
type Option func(*UserRepo)

// WithClock reemplaza la fuente de tiempo usada para sellar created_at/updated_at.
func WithClock(c rules.Clock) Option {
	return func(r *UserRepo) { r.clock = c }
}

// NewUserRepository construye el adaptador de persistencia para usuarios. Pasar pool o tx (Querier).
func NewUserRepository(q Querier, opts ...Option) *UserRepo {
	r := &UserRepo{q: q, clock: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Save inserta si el usuario no tiene ID; si lo tiene, actualiza la fila existente.
func (r *UserRepo) Save(ctx context.Context, user *entity.User) (*entity.User, error) {
	if err := rules.ValidateUser(user); err != nil {
		return nil, err
	}
	if user.LastLogin != nil {
		t := rules.Stamp(*user.LastLogin)
		user.LastLogin = &t
	}
	if user.IsNew() {
		return r.insert(ctx, user)
	}
	return r.update(ctx, user)
}

func (r *UserRepo) insert(ctx context.Context, user *entity.User) (*entity.User, error) {
	now := rules.Stamp(r.clock())
	const query = `
		INSERT INTO users (user_email, user_password, first_name, last_name, role, status, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		RETURNING user_id`
	var id int64
	err := r.q.QueryRow(ctx, query,
		user.Email, user.Password, user.FirstName, user.LastName,
		string(user.Role), string(user.Status), now, user.LastLogin,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

// update nunca escribe created_at; updated_at no puede quedar por debajo de created_at.
func (r *UserRepo) update(ctx context.Context, user *entity.User) (*entity.User, error) {
	now := rules.Stamp(r.clock())
	const query = `
		UPDATE users
		SET user_email = $2, user_password = $3, first_name = $4, last_name = $5,
		    role = $6, status = $7, updated_at = GREATEST($8::timestamptz, created_at), last_login = $9
		WHERE user_id = $1
		RETURNING created_at, updated_at`
	var createdAt, updatedAt time.Time
	err := r.q.QueryRow(ctx, query,
		user.ID, user.Email, user.Password, user.FirstName, user.LastName,
		string(user.Role), string(user.Status), now, user.LastLogin,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return user, nil
}

// FindByID obtiene un usuario por ID. (nil, nil) si no existe.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	u, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// FindByEmail obtiene un usuario por email. (nil, nil) si no existe.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_email = $1`
	u, err := scanUser(r.q.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// FindByRole lista usuarios con el rol indicado. Un rol inválido no consulta la DB.
func (r *UserRepo) FindByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	if !role.Valid() {
		return []*entity.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1`
	return r.list(ctx, "list users by role", query, string(role))
}

// FindByStatus lista usuarios con el estado indicado.
func (r *UserRepo) FindByStatus(ctx context.Context, status entity.Status) ([]*entity.User, error) {
	if !status.Valid() {
		return []*entity.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE status = $1`
	return r.list(ctx, "list users by status", query, string(status))
}

// FindTop10MostRecent devuelve los 10 usuarios creados más recientemente.
func (r *UserRepo) FindTop10MostRecent(ctx context.Context) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, user_id DESC LIMIT 10`
	return r.list(ctx, "list recent users", query)
}

// List lista usuarios por ID con paginación.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY user_id LIMIT $1 OFFSET $2`
	var lim any
	if limit > 0 {
		lim = limit
	}
	return r.list(ctx, "list users", query, lim, offset)
}

// ExistsByID indica si existe una fila con ese ID.
func (r *UserRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists user: %w", err)
	}
	return exists, nil
}

// Delete elimina la fila identificada por user.ID. No-op si ya no existe.
func (r *UserRepo) Delete(ctx context.Context, user *entity.User) error {
	if user == nil {
		return nil
	}
	return r.DeleteByID(ctx, user.ID)
}

// DeleteByID elimina un usuario por ID. No-op si ya no existe.
func (r *UserRepo) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Count devuelve el número total de usuarios.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(1) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.User, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func scanUser(row pgxScanner) (*entity.User, error) {
	var (
		u            entity.User
		role, status string
		lastLogin    *time.Time
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&role, &status, &u.CreatedAt, &u.UpdatedAt, &lastLogin,
	)
	if err != nil {
		return nil, err
	}
	u.Role = entity.Role(role)
	u.Status = entity.Status(status)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	if lastLogin != nil {
		t := lastLogin.UTC()
		u.LastLogin = &t
	}
	return &u, nil
}
