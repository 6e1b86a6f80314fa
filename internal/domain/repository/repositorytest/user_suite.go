// Package repositorytest contiene la batería de pruebas común a todas las
// implementaciones de repository.UserRepository.
package repositorytest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
	"github.com/jhoicas/dealflow-crm/internal/domain/rules"
)

// Factory devuelve un repositorio vacío que usa el reloj indicado.
type Factory func(t *testing.T, clock rules.Clock) repository.UserRepository

// StepClock devuelve un reloj que avanza step en cada lectura, empezando en start.
func StepClock(start time.Time, step time.Duration) rules.Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newSalesRep(i int) *entity.User {
	u := &entity.User{}
	u.Email = fmt.Sprintf("user%d@test.com", i)
	u.Password = "password"
	u.FirstName = fmt.Sprintf("First%d", i)
	u.LastName = fmt.Sprintf("Last%d", i)
	u.Role = entity.RoleSalesRep
	u.Status = entity.StatusActive
	return u
}

func emails(list []*entity.User) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		out = append(out, u.Email)
	}
	return out
}

// AssertSameUser compara todos los campos, usando Equal para los instantes.
func AssertSameUser(t *testing.T, want, got *entity.User) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.Password, got.Password)
	assert.Equal(t, want.FirstName, got.FirstName)
	assert.Equal(t, want.LastName, got.LastName)
	assert.Equal(t, want.Role, got.Role)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s got %s", want.CreatedAt, got.CreatedAt)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at: want %s got %s", want.UpdatedAt, got.UpdatedAt)
	if want.LastLogin == nil {
		assert.Nil(t, got.LastLogin)
	} else {
		require.NotNil(t, got.LastLogin)
		assert.True(t, want.LastLogin.Equal(*got.LastLogin))
	}
}

// RunUserRepository ejecuta la batería completa contra la implementación que produce newRepo.
func RunUserRepository(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	clock := func() rules.Clock { return StepClock(epoch, time.Second) }

	t.Run("Save nuevo asigna ID y created_at == updated_at", func(t *testing.T) {
		repo := newRepo(t, clock())
		saved, err := repo.Save(ctx, newSalesRep(0))
		require.NoError(t, err)

		assert.NotZero(t, saved.ID)
		assert.Equal(t, "user0@test.com", saved.Email)
		assert.Equal(t, "First0", saved.FirstName)
		assert.Equal(t, "Last0", saved.LastName)
		assert.Equal(t, entity.RoleSalesRep, saved.Role)
		assert.Equal(t, entity.StatusActive, saved.Status)
		assert.Nil(t, saved.LastLogin)
		assert.False(t, saved.CreatedAt.IsZero())
		assert.True(t, saved.CreatedAt.Equal(saved.UpdatedAt))
	})

	t.Run("constructor completo", func(t *testing.T) {
		repo := newRepo(t, clock())
		u := entity.NewUser("test@example.com", "password123", "John", "Doe", entity.RoleSalesRep, entity.StatusActive)
		saved, err := repo.Save(ctx, u)
		require.NoError(t, err)

		assert.NotZero(t, saved.ID)
		assert.Equal(t, "password123", saved.Password)
		assert.False(t, saved.CreatedAt.IsZero())
		assert.False(t, saved.UpdatedAt.IsZero())
		assert.True(t, saved.CreatedAt.Equal(saved.UpdatedAt), "el store vuelve a sellar ambos timestamps al insertar")
		assert.Nil(t, saved.LastLogin)
	})

	t.Run("IDs únicos y nunca reutilizados", func(t *testing.T) {
		repo := newRepo(t, clock())
		a, err := repo.Save(ctx, newSalesRep(1))
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, a))
		b, err := repo.Save(ctx, newSalesRep(2))
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("round trip por ID", func(t *testing.T) {
		repo := newRepo(t, clock())
		u := newSalesRep(3)
		login := epoch.Add(-time.Hour)
		u.LastLogin = &login
		saved, err := repo.Save(ctx, u)
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		AssertSameUser(t, saved, got)
	})

	t.Run("FindByID inexistente devuelve nil sin error", func(t *testing.T) {
		repo := newRepo(t, clock())
		got, err := repo.FindByID(ctx, 424242)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update conserva created_at y refresca updated_at", func(t *testing.T) {
		repo := newRepo(t, clock())
		saved, err := repo.Save(ctx, newSalesRep(4))
		require.NoError(t, err)
		createdAt := saved.CreatedAt

		u, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		u.Email = "updated@test.com"
		u.Password = "updatedpassword"
		u.FirstName = "Updated"
		u.LastName = "Updated"
		u.CreatedAt = createdAt.Add(-72 * time.Hour) // el store debe ignorarlo

		updated, err := repo.Save(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, saved.ID, updated.ID)
		assert.True(t, updated.CreatedAt.Equal(createdAt))
		assert.True(t, updated.UpdatedAt.After(createdAt))

		got, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "updated@test.com", got.Email)
		assert.Equal(t, "updatedpassword", got.Password)
		assert.Equal(t, "Updated", got.FirstName)
		assert.Equal(t, "Updated", got.LastName)
		assert.True(t, got.CreatedAt.Equal(createdAt))
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

		old, err := repo.FindByEmail(ctx, "user4@test.com")
		require.NoError(t, err)
		assert.Nil(t, old, "el email anterior queda libre")
	})

	t.Run("updated_at nunca queda antes de created_at", func(t *testing.T) {
		times := []time.Time{epoch, epoch.Add(-time.Hour)}
		i := 0
		backwards := func() time.Time {
			now := times[i%len(times)]
			i++
			return now
		}
		repo := newRepo(t, backwards)
		saved, err := repo.Save(ctx, newSalesRep(5))
		require.NoError(t, err)

		saved.FirstName = "Skewed"
		updated, err := repo.Save(ctx, saved)
		require.NoError(t, err)
		assert.True(t, updated.CreatedAt.Equal(epoch))
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	})

	t.Run("update de ID inexistente", func(t *testing.T) {
		repo := newRepo(t, clock())
		u := newSalesRep(6)
		u.ID = 999999
		_, err := repo.Save(ctx, u)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("email duplicado en insert", func(t *testing.T) {
		repo := newRepo(t, clock())
		_, err := repo.Save(ctx, newSalesRep(7))
		require.NoError(t, err)

		dup := newSalesRep(8)
		dup.Email = "user7@test.com"
		_, err = repo.Save(ctx, dup)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
		assert.ErrorIs(t, err, domain.ErrConstraintViolation)
		assert.Zero(t, dup.ID, "el usuario rechazado no recibe ID")

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	t.Run("email duplicado en update", func(t *testing.T) {
		repo := newRepo(t, clock())
		_, err := repo.Save(ctx, newSalesRep(9))
		require.NoError(t, err)
		other, err := repo.Save(ctx, newSalesRep(10))
		require.NoError(t, err)

		other.Email = "user9@test.com"
		_, err = repo.Save(ctx, other)
		assert.ErrorIs(t, err, domain.ErrConstraintViolation)

		got, err := repo.FindByID(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, "user10@test.com", got.Email)
	})

	t.Run("inserts concurrentes con el mismo email", func(t *testing.T) {
		repo := newRepo(t, clock())
		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			ok, fails int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				u := newSalesRep(100 + i)
				u.Email = "race@test.com"
				_, err := repo.Save(ctx, u)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case errors.Is(err, domain.ErrConstraintViolation):
					fails++
				default:
					t.Errorf("error inesperado: %v", err)
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, ok)
		assert.Equal(t, workers-1, fails)
	})

	t.Run("validación antes de escribir", func(t *testing.T) {
		repo := newRepo(t, clock())
		_, err := repo.Save(ctx, &entity.User{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)

		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve))
		for _, f := range []string{"email", "password", "first_name", "last_name", "role", "status"} {
			assert.True(t, ve.Has(f), "falta %s", f)
		}

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("FindByEmail", func(t *testing.T) {
		repo := newRepo(t, clock())
		u := newSalesRep(0)
		u.Email = "test@test.com"
		saved, err := repo.Save(ctx, u)
		require.NoError(t, err)

		got, err := repo.FindByEmail(ctx, "test@test.com")
		require.NoError(t, err)
		AssertSameUser(t, saved, got)

		missing, err := repo.FindByEmail(ctx, "nobody@test.com")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("FindTop10MostRecent", func(t *testing.T) {
		repo := newRepo(t, clock())
		for i := 0; i < 15; i++ {
			_, err := repo.Save(ctx, newSalesRep(i))
			require.NoError(t, err)
		}

		recent, err := repo.FindTop10MostRecent(ctx)
		require.NoError(t, err)
		require.Len(t, recent, 10)
		assert.Equal(t, "user14@test.com", recent[0].Email)
		assert.Equal(t, "user5@test.com", recent[9].Email)
		for i := 0; i < len(recent)-1; i++ {
			assert.True(t, recent[i].CreatedAt.After(recent[i+1].CreatedAt),
				"posición %d debe ser más reciente que %d", i, i+1)
		}
	})

	t.Run("FindTop10MostRecent con menos de 10", func(t *testing.T) {
		repo := newRepo(t, clock())
		for i := 0; i < 3; i++ {
			_, err := repo.Save(ctx, newSalesRep(i))
			require.NoError(t, err)
		}
		recent, err := repo.FindTop10MostRecent(ctx)
		require.NoError(t, err)
		assert.Len(t, recent, 3)
	})

	t.Run("FindTop10MostRecent desempata por ID", func(t *testing.T) {
		repo := newRepo(t, func() time.Time { return epoch })
		var last int64
		for i := 0; i < 3; i++ {
			u, err := repo.Save(ctx, newSalesRep(i))
			require.NoError(t, err)
			last = u.ID
		}
		first, err := repo.FindTop10MostRecent(ctx)
		require.NoError(t, err)
		second, err := repo.FindTop10MostRecent(ctx)
		require.NoError(t, err)
		assert.Equal(t, emails(first), emails(second))
		assert.Equal(t, last, first[0].ID)
	})

	t.Run("FindByRole", func(t *testing.T) {
		repo := newRepo(t, clock())
		seed := []struct {
			email string
			role  entity.Role
		}{
			{"salesrep1@test.com", entity.RoleSalesRep},
			{"salesrep2@test.com", entity.RoleSalesRep},
			{"manager@test.com", entity.RoleSalesManager},
			{"admin@test.com", entity.RoleAdmin},
		}
		for i, s := range seed {
			u := newSalesRep(i)
			u.Email = s.email
			u.Role = s.role
			_, err := repo.Save(ctx, u)
			require.NoError(t, err)
		}

		reps, err := repo.FindByRole(ctx, entity.RoleSalesRep)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"salesrep1@test.com", "salesrep2@test.com"}, emails(reps))

		managers, err := repo.FindByRole(ctx, entity.RoleSalesManager)
		require.NoError(t, err)
		require.Len(t, managers, 1)
		assert.Equal(t, "manager@test.com", managers[0].Email)

		admins, err := repo.FindByRole(ctx, entity.RoleAdmin)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, "admin@test.com", admins[0].Email)

		none, err := repo.FindByRole(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)

		bogus, err := repo.FindByRole(ctx, entity.Role("JANITOR"))
		require.NoError(t, err)
		assert.Empty(t, bogus)
	})

	t.Run("FindByStatus", func(t *testing.T) {
		repo := newRepo(t, clock())
		seed := []struct {
			email  string
			status entity.Status
		}{
			{"active1@test.com", entity.StatusActive},
			{"active2@test.com", entity.StatusActive},
			{"inactive@test.com", entity.StatusInactive},
		}
		for i, s := range seed {
			u := newSalesRep(i)
			u.Email = s.email
			u.Status = s.status
			_, err := repo.Save(ctx, u)
			require.NoError(t, err)
		}

		active, err := repo.FindByStatus(ctx, entity.StatusActive)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"active1@test.com", "active2@test.com"}, emails(active))

		inactive, err := repo.FindByStatus(ctx, entity.StatusInactive)
		require.NoError(t, err)
		require.Len(t, inactive, 1)
		assert.Equal(t, "inactive@test.com", inactive[0].Email)

		none, err := repo.FindByStatus(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t, clock())
		keep, err := repo.Save(ctx, newSalesRep(0))
		require.NoError(t, err)
		saved, err := repo.Save(ctx, newSalesRep(1))
		require.NoError(t, err)

		before, err := repo.Count(ctx)
		require.NoError(t, err)

		u, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, u))

		after, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before-1, after)

		gone, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		exists, err := repo.ExistsByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		// Borrar de nuevo es un no-op.
		require.NoError(t, repo.Delete(ctx, u))
		require.NoError(t, repo.DeleteByID(ctx, saved.ID))
		final, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, after, final)

		still, err := repo.ExistsByID(ctx, keep.ID)
		require.NoError(t, err)
		assert.True(t, still)

		// El email del usuario borrado se puede reutilizar.
		_, err = repo.Save(ctx, newSalesRep(1))
		require.NoError(t, err)
	})

	t.Run("List pagina por ID", func(t *testing.T) {
		repo := newRepo(t, clock())
		for i := 0; i < 5; i++ {
			_, err := repo.Save(ctx, newSalesRep(i))
			require.NoError(t, err)
		}
		page, err := repo.List(ctx, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"user1@test.com", "user2@test.com"}, emails(page))

		tail, err := repo.List(ctx, 10, 4)
		require.NoError(t, err)
		assert.Equal(t, []string{"user4@test.com"}, emails(tail))

		empty, err := repo.List(ctx, 10, 50)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
