package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/wardline-health/staff-access-service/internal/api/http"
	"github.com/wardline-health/staff-access-service/internal/api/http/handlers"
	"github.com/wardline-health/staff-access-service/internal/auth"
	"github.com/wardline-health/staff-access-service/internal/config"
	"github.com/wardline-health/staff-access-service/internal/events"
	"github.com/wardline-health/staff-access-service/internal/observability"
	"github.com/wardline-health/staff-access-service/internal/persistence"
	"github.com/wardline-health/staff-access-service/internal/repository"
	"github.com/wardline-health/staff-access-service/internal/service"
	"github.com/wardline-health/staff-access-service/internal/worker"
	"github.com/wardline-health/staff-access-service/internal/ws"
)

type repositories struct {
	overrides repository.OverrideRepository
	managers  repository.ManagerRepository
	requests  repository.AccessRequestRepository
	personal  repository.PersonalPermissionRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Enabled() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var cache service.SnapshotCache
	if snapshotCache := persistence.NewSnapshotCache(redis, cfg.Authz.SnapshotTTL()); snapshotCache != nil {
		cache = snapshotCache
	}

	settings := service.NewSettingsService(service.SettingsDependencies{
		OverrideRepo: repos.overrides,
		ManagerRepo:  repos.managers,
		Cache:        cache,
		Logger:       logger,
	})
	if cfg.Authz.SeedFile != "" {
		seed, err := config.LoadSeed(cfg.Authz.SeedFile)
		if err != nil {
			logger.Fatal("failed to load seed file", zap.Error(err))
		}
		if err := settings.ApplySeed(ctx, seed); err != nil {
			logger.Fatal("failed to apply seed file", zap.Error(err))
		}
	}

	access := service.NewAccessService(settings, metrics, logger)
	overrideService := service.NewOverrideService(service.OverrideDependencies{
		OverrideRepo: repos.overrides,
		ManagerRepo:  repos.managers,
		Settings:     settings,
		Access:       access,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	requestService := service.NewAccessRequestService(service.AccessRequestDependencies{
		RequestRepo: repos.requests,
		Access:      access,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	personalService := service.NewPersonalPermissionService(repos.personal, dispatcher, logger)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, hub, logger, cfg.Notification))
	if cache != nil {
		worker.StartSnapshotWarmer(ctx, settings, cfg.Authz.SnapshotTTL()/2, logger)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, UnescapePath: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:              handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Metrics:             handlers.NewMetricsHandler(metrics),
		Permissions:         handlers.NewPermissionsHandler(access),
		Overrides:           handlers.NewOverridesHandler(overrideService),
		AccessRequests:      handlers.NewAccessRequestsHandler(requestService),
		PersonalPermissions: handlers.NewPersonalPermissionsHandler(personalService),
		WebSocket:           handlers.NewWSHandler(hub, access),
		AuthMiddleware:      auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

// buildRepositories picks Postgres when a pool exists and in-memory stores otherwise.
func buildRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		return repositories{
			overrides: repository.NewMemoryOverrideRepository(),
			managers:  repository.NewMemoryManagerRepository(),
			requests:  repository.NewMemoryAccessRequestRepository(),
			personal:  repository.NewMemoryPersonalPermissionRepository(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		overrides: repository.NewOverrideRepository(pool),
		managers:  repository.NewManagerRepository(pool),
		requests:  repository.NewAccessRequestRepository(pool),
		personal:  repository.NewPersonalPermissionRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
