package repository

import (
	"context"

	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Las búsquedas devuelven (nil, nil) cuando no hay coincidencia.
type UserRepository interface {
	// Save inserta si user.ID == 0, si no actualiza. Sella timestamps y asigna ID.
	Save(ctx context.Context, user *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByRole devuelve slice vacío si el rol no es válido.
	FindByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)
	FindByStatus(ctx context.Context, status entity.Status) ([]*entity.User, error)
	// FindTop10MostRecent ordena por created_at DESC (desempate por ID DESC).
	FindTop10MostRecent(ctx context.Context) ([]*entity.User, error)
	List(ctx context.Context, limit, offset int) ([]*entity.User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	// Delete no hace nada si el ID ya no existe.
	Delete(ctx context.Context, user *entity.User) error
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
