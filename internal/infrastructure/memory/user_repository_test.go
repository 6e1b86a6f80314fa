package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository/repositorytest"
	"github.com/jhoicas/dealflow-crm/internal/domain/rules"
	"github.com/jhoicas/dealflow-crm/internal/infrastructure/memory"
)

func TestUserRepository(t *testing.T) {
	repositorytest.RunUserRepository(t, func(t *testing.T, clock rules.Clock) repository.UserRepository {
		return memory.NewUserRepository(memory.WithClock(clock))
	})
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	saved, err := repo.Save(ctx, entity.NewUser("copy@test.com", "pw", "A", "B", entity.RoleAdmin, entity.StatusActive))
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	got.FirstName = "Mutated"
	saved.LastName = "Mutated"

	again, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.FirstName)
	assert.Equal(t, "B", again.LastName)
}

func TestUserRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := memory.NewUserRepository()

	_, err := repo.Save(ctx, entity.NewUser("ctx@test.com", "pw", "A", "B", entity.RoleAdmin, entity.StatusActive))
	assert.ErrorIs(t, err, context.Canceled)
	_, err = repo.Count(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserRepository_StampsUTCMicroseconds(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	raw := time.Date(2024, 5, 1, 10, 0, 0, 123456789, bogota)
	repo := memory.NewUserRepository(memory.WithClock(func() time.Time { return raw }))

	saved, err := repo.Save(context.Background(), entity.NewUser("utc@test.com", "pw", "A", "B", entity.RoleSalesRep, entity.StatusActive))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, saved.CreatedAt.Location())
	assert.Equal(t, 123456000, saved.CreatedAt.Nanosecond())
	assert.True(t, saved.CreatedAt.Equal(raw.Truncate(time.Microsecond)))
}

func TestTxRunner_SerializesBlocks(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	runner := memory.NewTxRunner(repo)

	saved, err := repo.Save(ctx, entity.NewUser("tx@test.com", "pw", "A", "B", entity.RoleSalesRep, entity.StatusActive))
	require.NoError(t, err)

	err = runner.Run(ctx, func(users repository.UserRepository) error {
		u, err := users.FindByID(ctx, saved.ID)
		if err != nil {
			return err
		}
		u.Status = entity.StatusInactive
		_, err = users.Save(ctx, u)
		return err
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusInactive, got.Status)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	called := false
	err = runner.Run(canceled, func(repository.UserRepository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
