package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/dealflow-crm/internal/application/dto"
	"github.com/jhoicas/dealflow-crm/internal/application/usecase"
	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/infrastructure/memory"
)

func newUseCase(t *testing.T) (*usecase.UserUseCase, *memory.UserRepo) {
	t.Helper()
	repo := memory.NewUserRepository()
	uc := usecase.NewUserUseCase(repo, memory.NewTxRunner(repo), usecase.BcryptHasher(bcrypt.MinCost), nil)
	return uc, repo
}

func createReq(email, role string) dto.CreateUserRequest {
	return dto.CreateUserRequest{
		Email:     email,
		Password:  "password123",
		FirstName: "John",
		LastName:  "Doe",
		Role:      role,
	}
}

func ptr[T any](v T) *T { return &v }

func TestUserUseCase_Create(t *testing.T) {
	ctx := context.Background()
	uc, repo := newUseCase(t)

	out, err := uc.Create(ctx, createReq(" john@test.com ", "salesrep"))
	require.NoError(t, err)
	assert.NotZero(t, out.ID)
	assert.Equal(t, "john@test.com", out.Email)
	assert.Equal(t, "SALESREP", out.Role)
	assert.Equal(t, "Active", out.Status, "estado por defecto")
	assert.Equal(t, out.CreatedAt, out.UpdatedAt)

	stored, err := repo.FindByID(ctx, out.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")))
}

func TestUserUseCase_CreateInvalidEnum(t *testing.T) {
	ctx := context.Background()
	uc, repo := newUseCase(t)

	_, err := uc.Create(ctx, createReq("a@test.com", "JANITOR"))
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Has("role"))

	in := createReq("a@test.com", "ADMIN")
	in.Status = "Suspended"
	_, err = uc.Create(ctx, in)
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.Has("status"))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserUseCase_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)

	_, err := uc.Create(ctx, createReq("dup@test.com", "ADMIN"))
	require.NoError(t, err)
	_, err = uc.Create(ctx, createReq("dup@test.com", "SALESREP"))
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUserUseCase_CreatePasswordTooLong(t *testing.T) {
	uc, _ := newUseCase(t)
	in := createReq("long@test.com", "ADMIN")
	in.Password = strings.Repeat("x", 73)

	_, err := uc.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserUseCase_Lookups(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)

	created, err := uc.Create(ctx, createReq("find@test.com", "SALESMANAGER"))
	require.NoError(t, err)

	byID, err := uc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byEmail, err := uc.GetByEmail(ctx, "find@test.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	missing, err := uc.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = uc.GetByEmail(ctx, "nobody@test.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserUseCase_Lists(t *testing.T) {
	ctx := context.Background()
	uc, _ := newUseCase(t)

	for _, c := range []struct{ email, role string }{
		{"r1@test.com", "SALESREP"},
		{"r2@test.com", "SALESREP"},
		{"a1@test.com", "ADMIN"},
	} {
		_, err := uc.Create(ctx, createReq(c.email, c.role))
		require.NoError(t, err)
	}

	reps, err := uc.ListByRole(ctx, "salesrep")
	require.NoError(t, err)
	assert.Len(t, reps.Items, 2)

	unknown, err := uc.ListByRole(ctx, "JANITOR")
	require.NoError(t, err)
	assert.NotNil(t, unknown.Items)
	assert.Empty(t, unknown.Items)

	active, err := uc.ListByStatus(ctx, "Active")
	require.NoError(t, err)
	assert.Len(t, active.Items, 3)

	page, err := uc.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.Page.Total)

	recent, err := uc.Recent(ctx)
	require.NoError(t, err)
	assert.Len(t, recent.Items, 3)

	count, err := uc.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count.Count)
}

func TestUserUseCase_Update(t *testing.T) {
	ctx := context.Background()
	uc, repo := newUseCase(t)

	created, err := uc.Create(ctx, createReq("upd@test.com", "SALESREP"))
	require.NoError(t, err)
	before, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)

	out, err := uc.Update(ctx, created.ID, dto.UpdateUserRequest{
		FirstName: ptr("Jane"),
		Role:      ptr("admin"),
		Status:    ptr("inactive"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane", out.FirstName)
	assert.Equal(t, "Doe", out.LastName)
	assert.Equal(t, "ADMIN", out.Role)
	assert.Equal(t, "Inactive", out.Status)
	assert.True(t, out.CreatedAt.Equal(created.CreatedAt))
	assert.False(t, out.UpdatedAt.Before(out.CreatedAt))

	after, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Password, after.Password, "sin password en el patch no se rehashea")

	_, err = uc.Update(ctx, created.ID, dto.UpdateUserRequest{Password: ptr("newpassword")})
	require.NoError(t, err)
	after, err = repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(after.Password), []byte("newpassword")))
}

func TestUserUseCase_UpdateErrors(t *testing.T) {
	ctx := context.Background()
	uc, repo := newUseCase(t)

	missing, err := uc.Update(ctx, 404, dto.UpdateUserRequest{FirstName: ptr("X")})
	require.NoError(t, err)
	assert.Nil(t, missing)

	a, err := uc.Create(ctx, createReq("a@test.com", "ADMIN"))
	require.NoError(t, err)
	_, err = uc.Create(ctx, createReq("b@test.com", "ADMIN"))
	require.NoError(t, err)

	_, err = uc.Update(ctx, a.ID, dto.UpdateUserRequest{Email: ptr("b@test.com")})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.Update(ctx, a.ID, dto.UpdateUserRequest{Role: ptr("JANITOR"), FirstName: ptr("Changed")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@test.com", stored.Email)
	assert.Equal(t, "John", stored.FirstName)
}

func TestUserUseCase_Delete(t *testing.T) {
	ctx := context.Background()
	uc, repo := newUseCase(t)

	err := uc.Delete(ctx, 12345)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	created, err := uc.Create(ctx, createReq("del@test.com", "ADMIN"))
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, created.ID))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, uc.Delete(ctx, created.ID), domain.ErrNotFound)
}

func TestUserUseCase_WithoutTxRunner(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	uc := usecase.NewUserUseCase(repo, nil, usecase.BcryptHasher(bcrypt.MinCost), nil)

	created, err := uc.Create(ctx, createReq("plain@test.com", "ADMIN"))
	require.NoError(t, err)
	out, err := uc.Update(ctx, created.ID, dto.UpdateUserRequest{LastName: ptr("Smith")})
	require.NoError(t, err)
	assert.Equal(t, "Smith", out.LastName)
	require.NoError(t, uc.Delete(ctx, created.ID))
}
