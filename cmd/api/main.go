package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/valuation-service/internal/api/http"
	"github.com/spec-kit/valuation-service/internal/api/http/handlers"
	"github.com/spec-kit/valuation-service/internal/cache"
	"github.com/spec-kit/valuation-service/internal/config"
	"github.com/spec-kit/valuation-service/internal/events"
	"github.com/spec-kit/valuation-service/internal/identity"
	"github.com/spec-kit/valuation-service/internal/notify"
	"github.com/spec-kit/valuation-service/internal/observability"
	"github.com/spec-kit/valuation-service/internal/persistence"
	"github.com/spec-kit/valuation-service/internal/repository"
	"github.com/spec-kit/valuation-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	caseRepo := repository.NewCaseRepository(pool)
	operatorRepo := repository.NewOperatorRepository(pool)

	projections := cache.NewProjectionCache(redis.Client, cfg.Cache.TTL(), logger)
	dispatcher := events.NewInMemoryDispatcher()
	notifier := notify.NewLogDispatcher(logger, cfg.Notification)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	intakeService := service.NewIntakeService(caseRepo, notifier, dispatcher, logger)
	queueService := service.NewQueueService(caseRepo, projections, logger)
	claimService := service.NewClaimService(caseRepo, projections, dispatcher, logger)
	transitionService := service.NewTransitionService(service.TransitionDependencies{
		CaseRepo:    caseRepo,
		Receipts:    service.NewReceiptIssuer(),
		Notifier:    notifier,
		Projections: projections,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	provider := identity.NewDirectoryProvider(operatorRepo)
	verifier := identity.NewTokenVerifier(cfg.Auth.JWTSecret)
	identityMiddleware := identity.NewMiddleware(verifier, provider)

	app := fiber.New()
	metrics := observability.NewMetrics()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(pool, redis),
		Cases:     handlers.NewCasesHandler(intakeService, queueService, claimService, transitionService, projections),
		Operators: handlers.NewOperatorsHandler(operatorRepo),
		Identity:  identityMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
