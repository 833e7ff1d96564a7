package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/api/http/handlers"
	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Config      config.Config
	Auth        *auth.Middleware
	Tickets     *handlers.TicketsHandler
	Staff       *handlers.StaffHandler
	Maintenance *handlers.MaintenanceHandler
	Health      *handlers.HealthHandler
	AuthHandler *handlers.AuthHandler
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewApp builds the Fiber application with all routes registered.
func NewApp(deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      deps.Config.App.Name,
		ErrorHandler: ErrorHandler(deps.Logger),
		ReadTimeout:  time.Duration(deps.Config.App.RequestTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(deps.Config.App.RequestTimeoutSeconds) * time.Second,
	})

	app.Use(recover.New())
	app.Use(RequestLogger(deps.Logger, deps.Metrics))

	app.Get("/health/live", deps.Health.Live)
	app.Get("/health/ready", deps.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	app.Post("/auth/token", deps.AuthHandler.IssueToken)

	api := app.Group("/api/v1", deps.Auth.RequireOperator())
	api.Post("/tickets/:id/transition", deps.Tickets.Transition)
	api.Get("/tickets/:id/sla", deps.Tickets.SLAStatus)
	api.Get("/staff/:id/performance", deps.Staff.Performance)
	api.Get("/maintenance", deps.Maintenance.List)
	api.Post("/maintenance", deps.Maintenance.Schedule)
	api.Post("/maintenance/:id/cancel", deps.Maintenance.Cancel)

	return app
}
