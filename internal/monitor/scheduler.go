package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/notify"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// SchedulerDeps bundles everything the background monitor needs.
type SchedulerDeps struct {
	Config     config.MonitorConfig
	Tickets    repository.TicketRepository
	SLAs       repository.SLARepository
	Scopes     repository.ScopeRepository
	Windows    repository.MaintenanceRepository
	Aggregator *service.AggregatorService
	Notifier   notify.Notifier
	Alerts     AlertStateStore
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// Scheduler owns the recurring scans: SLA evaluation, maintenance window
// activation, inactivity auto-close and staff metrics refresh. Each scan
// runs on its own ticker goroutine; a failing candidate never stops the
// rest of the pass.
type Scheduler struct {
	cfg        config.MonitorConfig
	tickets    repository.TicketRepository
	slas       repository.SLARepository
	scopes     repository.ScopeRepository
	windows    repository.MaintenanceRepository
	aggregator *service.AggregatorService
	notifier   notify.Notifier
	alerts     AlertStateStore
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup

	lastMetricsRun time.Time
}

type scan struct {
	name     string
	interval time.Duration
	run      func(context.Context) error
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		cfg:        deps.Config,
		tickets:    deps.Tickets,
		slas:       deps.SLAs,
		scopes:     deps.Scopes,
		windows:    deps.Windows,
		aggregator: deps.Aggregator,
		notifier:   deps.Notifier,
		alerts:     deps.Alerts,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        now,
	}
}

// Start launches one goroutine per scan. Each scan runs immediately and
// then on its configured interval until the context is cancelled or Stop
// is called. Starting a running scheduler is an error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	scans := []scan{
		{name: "sla", interval: s.cfg.SLAScanInterval(), run: s.runSLAScan},
		{name: "maintenance", interval: s.cfg.MaintenanceScanInterval(), run: s.runMaintenanceScan},
		{name: "autoclose", interval: s.cfg.AutoCloseScanInterval(), run: s.runAutoCloseScan},
		{name: "metrics", interval: s.cfg.MetricsScanInterval(), run: s.runMetricsScan},
	}
	for _, sc := range scans {
		s.wg.Add(1)
		go s.loop(ctx, sc)
	}

	s.logger.Info("monitor scheduler started",
		zap.Duration("sla_interval", s.cfg.SLAScanInterval()),
		zap.Duration("maintenance_interval", s.cfg.MaintenanceScanInterval()),
		zap.Duration("autoclose_interval", s.cfg.AutoCloseScanInterval()),
		zap.Duration("metrics_interval", s.cfg.MetricsScanInterval()))
	return nil
}

// Stop cancels all scan loops and waits up to timeout for in-flight
// passes to drain. Loops still running after the deadline are abandoned
// with a warning; Stop returns either way. Stopping a stopped scheduler
// is a no-op.
func (s *Scheduler) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("monitor scheduler stopped")
	case <-time.After(timeout):
		s.logger.Warn("abandoning scan goroutines after shutdown timeout",
			zap.Duration("timeout", timeout))
	}
	return nil
}

func (s *Scheduler) loop(ctx context.Context, sc scan) {
	defer s.wg.Done()

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	s.runOnce(ctx, sc)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, sc)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, sc scan) {
	start := time.Now()
	err := sc.run(ctx)
	s.metrics.ScanDuration.WithLabelValues(sc.name).Observe(time.Since(start).Seconds())
	s.metrics.ScanRuns.WithLabelValues(sc.name).Inc()

	if err != nil && !errors.Is(err, context.Canceled) {
		s.metrics.ScanFailures.WithLabelValues(sc.name).Inc()
		s.logger.Error("scan pass failed",
			zap.String("scan", sc.name),
			zap.Error(err))
	}
}

// callCtx derives a per-call timeout so one slow dependency cannot stall
// a whole pass.
func (s *Scheduler) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.CallTimeout())
}

// withRetry runs op with a call timeout and retries exactly once when the
// failure is a transient repository error.
func (s *Scheduler) withRetry(ctx context.Context, op func(context.Context) error) error {
	cctx, cancel := s.callCtx(ctx)
	err := op(cctx)
	cancel()
	if err == nil || !apperrors.IsCode(err, apperrors.CodeRepositoryError) {
		return err
	}

	cctx, cancel = s.callCtx(ctx)
	defer cancel()
	return op(cctx)
}
