package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apihttp "github.com/spec-kit/ticket-lifecycle/internal/api/http"
	"github.com/spec-kit/ticket-lifecycle/internal/api/http/handlers"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/monitor"
	"github.com/spec-kit/ticket-lifecycle/internal/notify"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/persistence"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	"github.com/spec-kit/ticket-lifecycle/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("postgres connection failed", zap.Error(err))
	}
	defer postgres.Close()

	if postgres.Available() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, postgres.Pool, logger); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		tickets repository.TicketRepository
		slas    repository.SLARepository
		scopes  repository.ScopeRepository
		windows repository.MaintenanceRepository
		perf    repository.StaffPerformanceRepository
	)
	if postgres.Available() {
		tickets = repository.NewTicketRepository(postgres.Pool)
		slas = repository.NewSLARepository(postgres.Pool)
		scopes = repository.NewScopeRepository(postgres.Pool)
		windows = repository.NewMaintenanceRepository(postgres.Pool)
		perf = repository.NewStaffPerformanceRepository(postgres.Pool)
	} else {
		tickets = repository.NewMemoryTicketRepository()
		slas = repository.NewMemorySLARepository()
		scopes = repository.NewMemoryScopeRepository()
		windows = repository.NewMemoryMaintenanceRepository()
		perf = repository.NewMemoryStaffPerformanceRepository()
	}

	var alerts monitor.AlertStateStore
	if redis.Available() {
		alerts = monitor.NewRedisAlertStateStore(redis.Client, 0)
	} else {
		alerts = monitor.NewMemoryAlertStateStore()
	}

	metrics := observability.NewMetrics("ticket_lifecycle")
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartEventLogWorker(dispatcher, logger)

	notifier := notify.NewWebhookNotifier(cfg.Notify, scopes, logger)

	aggregator := service.NewAggregatorService(service.AggregatorDeps{
		Tickets: tickets,
		SLAs:    slas,
		Perf:    perf,
		Window:  cfg.Monitor.AggregationWindow(),
		Logger:  logger,
	})
	lifecycle := service.NewLifecycleService(service.LifecycleDeps{
		Tickets:       tickets,
		SLAs:          slas,
		Perf:          perf,
		Aggregator:    aggregator,
		Dispatcher:    dispatcher,
		WarnThreshold: cfg.Monitor.WarningThresholdPct,
		Logger:        logger,
	})
	maintenance := service.NewMaintenanceService(service.MaintenanceDeps{
		Windows: windows,
		Scopes:  scopes,
		Logger:  logger,
	})

	scheduler := monitor.NewScheduler(monitor.SchedulerDeps{
		Config:     cfg.Monitor,
		Tickets:    tickets,
		SLAs:       slas,
		Scopes:     scopes,
		Windows:    windows,
		Aggregator: aggregator,
		Notifier:   notifier,
		Alerts:     alerts,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("scheduler start failed", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	app := apihttp.NewApp(apihttp.RouterDeps{
		Config:      *cfg,
		Auth:        auth.NewMiddleware(tokens),
		Tickets:     handlers.NewTicketsHandler(lifecycle),
		Staff:       handlers.NewStaffHandler(lifecycle),
		Maintenance: handlers.NewMaintenanceHandler(maintenance),
		Health:      handlers.NewHealthHandler(postgres, redis),
		AuthHandler: handlers.NewAuthHandler(cfg.Auth, tokens),
		Metrics:     metrics,
		Logger:      logger,
	})

	go func() {
		addr := cfg.App.Addr()
		logger.Info("http server listening", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	if err := scheduler.Stop(cfg.Monitor.ShutdownTimeout()); err != nil {
		logger.Warn("scheduler stop reported an error", zap.Error(err))
	}
	if err := app.ShutdownWithTimeout(cfg.Monitor.ShutdownTimeout()); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
