package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/jhoicas/dealflow-crm/internal/application/usecase"
	"github.com/jhoicas/dealflow-crm/internal/domain/repository"
	"github.com/jhoicas/dealflow-crm/internal/infrastructure/memory"
	"github.com/jhoicas/dealflow-crm/internal/infrastructure/metrics"
	"github.com/jhoicas/dealflow-crm/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/dealflow-crm/internal/interfaces/http"
	"github.com/jhoicas/dealflow-crm/pkg/config"
	"github.com/jhoicas/dealflow-crm/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		userRepo repository.UserRepository
		txRunner usecase.TxRunner
		health   func(context.Context) error
	)
	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn().Msg("STORE_DRIVER=memory: los datos no sobreviven al reinicio")
		userRepo = metrics.InstrumentUserRepository(memory.NewUserRepository())
		txRunner = memory.NewTxRunner(userRepo)
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.Store.AutoSchema {
			if err := postgres.EnsureSchema(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("crear esquema users")
			}
			log.Info().Msg("esquema users verificado")
		}
		userRepo = metrics.InstrumentUserRepository(postgres.NewUserRepository(pool))
		txRunner = postgres.NewTxRunner(pool, func(r repository.UserRepository) repository.UserRepository {
			return metrics.InstrumentUserRepository(r)
		})
		health = pool.Ping
	}

	userUC := usecase.NewUserUseCase(
		userRepo,
		txRunner,
		usecase.BcryptHasher(cfg.Auth.BcryptCost),
		log,
	)

	app := httpRouter.NewApp(httpRouter.RouterDeps{
		AppName: cfg.App.Name,
		UserUC:  userUC,
		Log:     log,
		Health:  health,
	})

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "DealFlow CRM API",
		}))
	}

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
