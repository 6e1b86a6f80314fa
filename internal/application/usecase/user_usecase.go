package usecase

import (
	"context"
	"strings"

	"github.com/jhoicas/dealflow-crm/internal/application/dto"
	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
	"github.com/jhoicas/dealflow-crm/pkg/logger"
)

// UserUseCase expone las operaciones del User Store a la capa API.
type UserUseCase struct {
	repo     repository.UserRepository
	txRunner TxRunner
	hash     PasswordHasher
	log      *logger.Logger
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
// txRunner puede ser nil: Update y Delete usan entonces repo sin transacción.
func NewUserUseCase(repo repository.UserRepository, txRunner TxRunner, hash PasswordHasher, log *logger.Logger) *UserUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if txRunner == nil {
		txRunner = directRunner{repo: repo}
	}
	return &UserUseCase{repo: repo, txRunner: txRunner, hash: hash, log: log.Component("users")}
}

// Create hashea la contraseña y persiste un usuario nuevo.
func (uc *UserUseCase) Create(ctx context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	role, ok := entity.ParseRole(in.Role)
	if !ok {
		return nil, invalidField("role", entity.RoleSalesManager, entity.RoleSalesRep, entity.RoleAdmin)
	}
	status := entity.StatusActive
	if strings.TrimSpace(in.Status) != "" {
		if status, ok = entity.ParseStatus(in.Status); !ok {
			return nil, invalidField("status", entity.StatusActive, entity.StatusInactive)
		}
	}
	hash, err := uc.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := entity.NewUser(strings.TrimSpace(in.Email), hash, in.FirstName, in.LastName, role, status)
	saved, err := uc.repo.Save(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("user_id", saved.ID).Str("role", saved.Role.String()).Msg("usuario creado")
	return toUserResponse(saved), nil
}

// GetByID obtiene un usuario por ID. (nil, nil) si no existe.
func (uc *UserUseCase) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	user, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// GetByEmail obtiene un usuario por email. (nil, nil) si no existe.
func (uc *UserUseCase) GetByEmail(ctx context.Context, email string) (*dto.UserResponse, error) {
	user, err := uc.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// List lista usuarios con paginación.
func (uc *UserUseCase) List(ctx context.Context, limit, offset int) (*dto.UserListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{
		Items: toUserResponses(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// ListByRole lista usuarios por rol. Un rol desconocido produce una lista vacía.
func (uc *UserUseCase) ListByRole(ctx context.Context, role string) (*dto.UserListResponse, error) {
	r, _ := entity.ParseRole(role)
	list, err := uc.repo.FindByRole(ctx, r)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{Items: toUserResponses(list)}, nil
}

// ListByStatus lista usuarios por estado. Un estado desconocido produce una lista vacía.
func (uc *UserUseCase) ListByStatus(ctx context.Context, status string) (*dto.UserListResponse, error) {
	s, _ := entity.ParseStatus(status)
	list, err := uc.repo.FindByStatus(ctx, s)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{Items: toUserResponses(list)}, nil
}

// Recent devuelve los 10 usuarios más recientes.
func (uc *UserUseCase) Recent(ctx context.Context) (*dto.UserListResponse, error) {
	list, err := uc.repo.FindTop10MostRecent(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.UserListResponse{Items: toUserResponses(list)}, nil
}

// Count devuelve el total de usuarios.
func (uc *UserUseCase) Count(ctx context.Context) (*dto.CountResponse, error) {
	n, err := uc.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CountResponse{Count: n}, nil
}

// Update aplica los campos presentes y guarda. (nil, nil) si el usuario no existe.
func (uc *UserUseCase) Update(ctx context.Context, id int64, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	var saved *entity.User
	err := uc.txRunner.Run(ctx, func(users repository.UserRepository) error {
		user, err := users.FindByID(ctx, id)
		if err != nil || user == nil {
			return err
		}
		if err := uc.applyPatch(user, in); err != nil {
			return err
		}
		saved, err = users.Save(ctx, user)
		return err
	})
	if err != nil || saved == nil {
		return nil, err
	}
	uc.log.Info().Int64("user_id", saved.ID).Msg("usuario actualizado")
	return toUserResponse(saved), nil
}

func (uc *UserUseCase) applyPatch(user *entity.User, in dto.UpdateUserRequest) error {
	if in.Email != nil {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Role != nil {
		role, ok := entity.ParseRole(*in.Role)
		if !ok {
			return invalidField("role", entity.RoleSalesManager, entity.RoleSalesRep, entity.RoleAdmin)
		}
		user.Role = role
	}
	if in.Status != nil {
		status, ok := entity.ParseStatus(*in.Status)
		if !ok {
			return invalidField("status", entity.StatusActive, entity.StatusInactive)
		}
		user.Status = status
	}
	if in.Password != nil {
		hash, err := uc.hash(*in.Password)
		if err != nil {
			return err
		}
		user.Password = hash
	}
	return nil
}

// Delete elimina un usuario. Devuelve domain.ErrUserNotFound si no existe.
func (uc *UserUseCase) Delete(ctx context.Context, id int64) error {
	err := uc.txRunner.Run(ctx, func(users repository.UserRepository) error {
		exists, err := users.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrUserNotFound
		}
		return users.DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("user_id", id).Msg("usuario eliminado")
	return nil
}

func invalidField[T ~string](field string, allowed ...T) error {
	parts := make([]string, 0, len(allowed))
	for _, a := range allowed {
		parts = append(parts, string(a))
	}
	return &domain.ValidationError{Fields: []domain.FieldError{{Field: field, Rule: "oneof", Param: strings.Join(parts, " ")}}}
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role.String(),
		Status:    u.Status.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		LastLogin: u.LastLogin,
	}
}

func toUserResponses(list []*entity.User) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *toUserResponse(u))
	}
	return items
}
