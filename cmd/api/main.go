package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/cache"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/postgres"
	"github.com/spec-kit/complaint-service/internal/repository/sqlite"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_FILE)")
	migrate := flag.Bool("migrate", false, "apply SQL migrations before serving (postgres only)")
	migrationsDir := flag.String("migrations-dir", persistence.DefaultMigrationsDir, "directory holding SQL migrations")
	flag.Parse()

	cfg, err := config.Load(*configPath)
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

	store, closeStore := openStore(ctx, cfg, *migrate, *migrationsDir, logger)
	defer closeStore()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	permissions := cache.NewPermissionCache(store.Permissions(), redis.UniversalClient(), cfg.Redis.PermissionCacheTTL(), logger)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var forwarder *events.KafkaForwarder
	if cfg.Kafka.Enabled {
		forwarder = events.NewKafkaForwarder(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer func() {
			if err := forwarder.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		}()
	}
	worker.StartNotificationWorker(dispatcher, service.NewNotificationService(dispatcher, logger), forwarder)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:       store.Users(),
		PermissionRepo: permissions,
	})
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	callLogService := service.NewCallLogService(service.CallLogDependencies{
		Store:      store,
		Complaints: complaintService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(*cfg, service.UserDependencies{
		Store:          store,
		PermissionRepo: permissions,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), authService)

	sweeper := worker.NewBreachSweeper(worker.BreachSweeperConfig{
		Complaints: store.Complaints(),
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Interval:   cfg.Worker.SLASweepInterval(),
	})
	go sweeper.Run(ctx)

	dependencies := []handlers.Dependency{{Name: "store", Pinger: store}}
	if redis != nil {
		dependencies = append(dependencies, handlers.Dependency{Name: "redis", Pinger: redis})
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, dependencies...),
		Auth:           handlers.NewAuthHandler(authService),
		Complaints:     handlers.NewComplaintsHandler(complaintService, nil),
		CallLogs:       handlers.NewCallLogsHandler(callLogService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: authMiddleware,
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

// openStore selects the complaint store backend. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, migrationsDir string, logger *zap.Logger) (repository.Store, func()) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.Error(err), zap.String("path", cfg.Storage.SQLitePath))
		}
		logger.Info("using embedded sqlite store", zap.String("path", cfg.Storage.SQLitePath))
		return store, store.Close
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations || migrate {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return postgres.NewStore(pg.PoolHandle()), pg.Close
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
