package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dealflow-crm/internal/domain"
	"github.com/jhoicas/dealflow-crm/internal/domain/entity"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository/repositorytest"
	"github.com/jhoicas/dealflow-crm/internal/domain/rules"
	"github.com/jhoicas/dealflow-crm/internal/infrastructure/postgres"
	"github.com/jhoicas/dealflow-crm/pkg/config"
)

// testPool abre un pool contra TEST_DATABASE_URL o salta el test.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido; se omiten tests de integración")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	// Dos veces: el DDL es idempotente.
	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	return pool
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE users RESTART IDENTITY`)
	require.NoError(t, err)
}

func TestUserRepository(t *testing.T) {
	pool := testPool(t)
	repositorytest.RunUserRepository(t, func(t *testing.T, clock rules.Clock) repository.UserRepository {
		truncate(t, pool)
		return postgres.NewUserRepository(pool, postgres.WithClock(clock))
	})
}

func TestUserRepository_SchemaRejectsBadRows(t *testing.T) {
	pool := testPool(t)
	truncate(t, pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO users (user_email, user_password, first_name, last_name, role, status, created_at, updated_at)
		VALUES ('x@test.com', 'pw', 'A', 'B', 'JANITOR', 'Active', now(), now())`)
	require.Error(t, err, "CHECK sobre role")

	_, err = pool.Exec(ctx, `
		INSERT INTO users (user_email, user_password, first_name, last_name, role, status, created_at, updated_at)
		VALUES ('y@test.com', 'pw', 'A', 'B', 'ADMIN', 'Active', now(), now() - interval '1 hour')`)
	require.Error(t, err, "CHECK updated_at >= created_at")
}

func TestTxRunner(t *testing.T) {
	pool := testPool(t)
	truncate(t, pool)
	ctx := context.Background()
	repo := postgres.NewUserRepository(pool)

	saved, err := repo.Save(ctx, entity.NewUser("tx@test.com", "pw", "A", "B", entity.RoleSalesRep, entity.StatusActive))
	require.NoError(t, err)

	wrapped := 0
	runner := postgres.NewTxRunner(pool, func(r repository.UserRepository) repository.UserRepository {
		wrapped++
		return r
	})

	t.Run("commit", func(t *testing.T) {
		err := runner.Run(ctx, func(users repository.UserRepository) error {
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
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := runner.Run(ctx, func(users repository.UserRepository) error {
			if err := users.DeleteByID(ctx, saved.ID); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		exists, err := repo.ExistsByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.True(t, exists, "el borrado se revierte")
	})

	t.Run("conflicto dentro de la tx", func(t *testing.T) {
		_, err := repo.Save(ctx, entity.NewUser("other@test.com", "pw", "C", "D", entity.RoleAdmin, entity.StatusActive))
		require.NoError(t, err)
		err = runner.Run(ctx, func(users repository.UserRepository) error {
			u, err := users.FindByID(ctx, saved.ID)
			if err != nil {
				return err
			}
			u.Email = "other@test.com"
			_, err = users.Save(ctx, u)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	assert.Equal(t, 3, wrapped)
}
