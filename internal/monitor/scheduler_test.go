package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/notify"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
)

type alertCall struct {
	scopeID  string
	ticketID string
	kind     domain.SLAKind
	level    domain.AlertLevel
}

type noticeCall struct {
	scopeID  string
	windowID string
	event    notify.MaintenanceEvent
}

type stubNotifier struct {
	mu         sync.Mutex
	alerts     []alertCall
	notices    []noticeCall
	failAlerts bool
}

func (n *stubNotifier) SendAlert(_ context.Context, scopeID, ticketID string, kind domain.SLAKind, level domain.AlertLevel, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failAlerts {
		return errors.New("webhook down")
	}
	n.alerts = append(n.alerts, alertCall{scopeID, ticketID, kind, level})
	return nil
}

func (n *stubNotifier) SendMaintenanceNotice(_ context.Context, scopeID string, window *domain.MaintenanceWindow, event notify.MaintenanceEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, noticeCall{scopeID, window.ID, event})
	return nil
}

func (n *stubNotifier) alertCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type fixture struct {
	scheduler *Scheduler
	tickets   repository.TicketRepository
	slas      *repository.MemorySLARepository
	scopes    *repository.MemoryScopeRepository
	windows   repository.MaintenanceRepository
	perf      repository.StaffPerformanceRepository
	notifier  *stubNotifier
	now       *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	start := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	now := &start
	nowFn := func() time.Time { return *now }

	tickets := repository.NewMemoryTicketRepository()
	slas := repository.NewMemorySLARepository()
	scopes := repository.NewMemoryScopeRepository()
	windows := repository.NewMemoryMaintenanceRepository()
	perf := repository.NewMemoryStaffPerformanceRepository()
	notifier := &stubNotifier{}

	aggregator := service.NewAggregatorService(service.AggregatorDeps{
		Tickets: tickets,
		SLAs:    slas,
		Perf:    perf,
		Window:  30 * 24 * time.Hour,
		Logger:  zap.NewNop(),
		Now:     nowFn,
	})

	cfg := config.MonitorConfig{
		SLAScanSeconds:         60,
		MaintenanceScanSeconds: 60,
		AutoCloseScanSeconds:   3600,
		MetricsScanSeconds:     1800,
		ShutdownTimeoutSeconds: 5,
		WarningThresholdPct:    75,
		AggregationWindowDays:  30,
		CallTimeoutSeconds:     5,
	}

	scheduler := NewScheduler(SchedulerDeps{
		Config:     cfg,
		Tickets:    tickets,
		SLAs:       slas,
		Scopes:     scopes,
		Windows:    windows,
		Aggregator: aggregator,
		Notifier:   notifier,
		Alerts:     NewMemoryAlertStateStore(),
		Metrics:    observability.NewMetrics("test"),
		Logger:     zap.NewNop(),
		Now:        nowFn,
	})

	scopes.Put(&domain.ScopeConfig{ScopeID: "scope-1", Name: "support", AutoCloseHours: 24})
	slas.Put(&domain.SLADefinition{
		ID:                "sla-1",
		ScopeID:           "scope-1",
		CategoryID:        "cat-1",
		ResponseMinutes:   60,
		ResolutionMinutes: 120,
	})

	return &fixture{
		scheduler: scheduler,
		tickets:   tickets,
		slas:      slas,
		scopes:    scopes,
		windows:   windows,
		perf:      perf,
		notifier:  notifier,
		now:       now,
	}
}

func (f *fixture) seedTicket(t *testing.T, id string, status domain.TicketStatus, openedAgo time.Duration, responded bool) {
	t.Helper()
	ticket := &domain.Ticket{
		ID:         id,
		ScopeID:    "scope-1",
		CategoryID: "cat-1",
		CreatorID:  "user-1",
		Status:     status,
		OpenedAt:   f.now.Add(-openedAgo),
	}
	if responded {
		respondedAt := ticket.OpenedAt.Add(time.Minute)
		ticket.LastStaffResponseAt = &respondedAt
	}
	if err := f.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestSLAScanEscalatesAndAlertsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 3 hours against a 120 minute resolution budget.
	f.seedTicket(t, "ticket-1", domain.TicketStatusInProgress, 3*time.Hour, true)

	if err := f.scheduler.runSLAScan(ctx); err != nil {
		t.Fatalf("runSLAScan: %v", err)
	}
	if got := f.notifier.alertCount(); got != 1 {
		t.Fatalf("alerts after first pass = %d, want 1", got)
	}

	ticket, err := f.tickets.GetByID(ctx, "ticket-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if ticket.Status != domain.TicketStatusEscalated {
		t.Fatalf("status = %s, want ESCALATED", ticket.Status)
	}
	version := ticket.Version

	// A second pass at the same severity stays silent and writes nothing.
	if err := f.scheduler.runSLAScan(ctx); err != nil {
		t.Fatalf("second runSLAScan: %v", err)
	}
	if got := f.notifier.alertCount(); got != 1 {
		t.Fatalf("alerts after second pass = %d, want still 1", got)
	}
	ticket, _ = f.tickets.GetByID(ctx, "ticket-1")
	if ticket.Version != version {
		t.Fatalf("idempotent pass bumped version %d -> %d", version, ticket.Version)
	}
}

func TestSLAScanOpenTicketAlertsWithoutEscalating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Response breach on an OPEN ticket; OPEN cannot reach ESCALATED.
	f.seedTicket(t, "ticket-1", domain.TicketStatusOpen, 61*time.Minute, false)

	if err := f.scheduler.runSLAScan(ctx); err != nil {
		t.Fatalf("runSLAScan: %v", err)
	}
	if got := f.notifier.alertCount(); got == 0 {
		t.Fatalf("expected a response breach alert")
	}

	ticket, _ := f.tickets.GetByID(ctx, "ticket-1")
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN left untouched", ticket.Status)
	}
}

func TestSLAScanAlertsAgainOnSeverityIncrease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 90 of 120 minutes: WARNING.
	f.seedTicket(t, "ticket-1", domain.TicketStatusInProgress, 90*time.Minute, true)

	if err := f.scheduler.runSLAScan(ctx); err != nil {
		t.Fatalf("runSLAScan: %v", err)
	}
	if got := f.notifier.alertCount(); got != 1 {
		t.Fatalf("alerts at WARNING = %d, want 1", got)
	}

	// Clock advances past the budget: severity rises to BREACHED.
	*f.now = f.now.Add(time.Hour)
	if err := f.scheduler.runSLAScan(ctx); err != nil {
		t.Fatalf("second runSLAScan: %v", err)
	}
	if got := f.notifier.alertCount(); got != 2 {
		t.Fatalf("alerts after breach = %d, want 2", got)
	}
}

func TestSLAScanFailedDispatchIsNotRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTicket(t, "ticket-1", domain.TicketStatusOpen, 61*time.Minute, false)
	f.notifier.failAlerts = true

	if err := f.scheduler.runSLAScan(ctx); err != nil {
		t.Fatalf("runSLAScan: %v", err)
	}

	// The attempted severity was recorded, so a healthy webhook gets no
	// second attempt at the same level.
	f.notifier.failAlerts = false
	if err := f.scheduler.runSLAScan(ctx); err != nil {
		t.Fatalf("second runSLAScan: %v", err)
	}
	if got := f.notifier.alertCount(); got != 0 {
		t.Fatalf("alerts = %d, want 0 after recorded failed attempt", got)
	}
}

func TestMaintenanceScanActivatesAndCompletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	window := &domain.MaintenanceWindow{
		ID:        "win-1",
		ScopeID:   "scope-1",
		StartTime: f.now.Add(-time.Minute),
		EndTime:   f.now.Add(time.Hour),
		Status:    domain.WindowStatusScheduled,
		CreatedAt: f.now.Add(-time.Hour),
	}
	if err := f.windows.Create(ctx, window); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.scheduler.runMaintenanceScan(ctx); err != nil {
		t.Fatalf("runMaintenanceScan: %v", err)
	}
	stored, _ := f.windows.GetByID(ctx, "win-1")
	if stored.Status != domain.WindowStatusActive {
		t.Fatalf("status = %s, want ACTIVE", stored.Status)
	}
	if len(f.notifier.notices) != 1 || f.notifier.notices[0].event != notify.MaintenanceStarted {
		t.Fatalf("notices = %+v, want one STARTED", f.notifier.notices)
	}

	// A second pass mid-window changes nothing.
	if err := f.scheduler.runMaintenanceScan(ctx); err != nil {
		t.Fatalf("second runMaintenanceScan: %v", err)
	}
	if len(f.notifier.notices) != 1 {
		t.Fatalf("mid-window pass sent extra notices: %+v", f.notifier.notices)
	}

	*f.now = f.now.Add(2 * time.Hour)
	if err := f.scheduler.runMaintenanceScan(ctx); err != nil {
		t.Fatalf("third runMaintenanceScan: %v", err)
	}
	stored, _ = f.windows.GetByID(ctx, "win-1")
	if stored.Status != domain.WindowStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", stored.Status)
	}
	if len(f.notifier.notices) != 2 || f.notifier.notices[1].event != notify.MaintenanceEnded {
		t.Fatalf("notices = %+v, want STARTED then ENDED", f.notifier.notices)
	}
}

func TestMaintenanceScanSingleActiveWindowPerScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, id := range []string{"win-1", "win-2"} {
		window := &domain.MaintenanceWindow{
			ID:        id,
			ScopeID:   "scope-1",
			StartTime: f.now.Add(-time.Duration(2-i) * time.Minute),
			EndTime:   f.now.Add(time.Hour),
			Status:    domain.WindowStatusScheduled,
			CreatedAt: f.now.Add(-time.Hour),
		}
		if err := f.windows.Create(ctx, window); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := f.scheduler.runMaintenanceScan(ctx); err != nil {
		t.Fatalf("runMaintenanceScan: %v", err)
	}

	// Earliest start wins; the second stays SCHEDULED.
	first, _ := f.windows.GetByID(ctx, "win-1")
	second, _ := f.windows.GetByID(ctx, "win-2")
	if first.Status != domain.WindowStatusActive {
		t.Fatalf("earliest window status = %s, want ACTIVE", first.Status)
	}
	if second.Status != domain.WindowStatusScheduled {
		t.Fatalf("overlapping window status = %s, want SCHEDULED", second.Status)
	}
}

func TestMaintenanceScanCompletesMissedWindowSilently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	window := &domain.MaintenanceWindow{
		ID:        "win-1",
		ScopeID:   "scope-1",
		StartTime: f.now.Add(-3 * time.Hour),
		EndTime:   f.now.Add(-2 * time.Hour),
		Status:    domain.WindowStatusScheduled,
		CreatedAt: f.now.Add(-4 * time.Hour),
	}
	if err := f.windows.Create(ctx, window); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.scheduler.runMaintenanceScan(ctx); err != nil {
		t.Fatalf("runMaintenanceScan: %v", err)
	}
	stored, _ := f.windows.GetByID(ctx, "win-1")
	if stored.Status != domain.WindowStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", stored.Status)
	}
	if len(f.notifier.notices) != 0 {
		t.Fatalf("missed window sent notices: %+v", f.notifier.notices)
	}
}

func TestAutoCloseScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedTicket(t, "stale", domain.TicketStatusInProgress, 25*time.Hour, true)
	f.seedTicket(t, "fresh", domain.TicketStatusInProgress, time.Hour, true)

	if err := f.scheduler.runAutoCloseScan(ctx); err != nil {
		t.Fatalf("runAutoCloseScan: %v", err)
	}

	stale, _ := f.tickets.GetByID(ctx, "stale")
	if stale.Status != domain.TicketStatusClosed {
		t.Fatalf("stale ticket status = %s, want CLOSED", stale.Status)
	}
	if stale.ClosureReason == nil || *stale.ClosureReason != autoCloseReason {
		t.Fatalf("closure_reason = %v, want %q", stale.ClosureReason, autoCloseReason)
	}
	if stale.ClosedAt == nil {
		t.Fatalf("closed_at not set on auto-closed ticket")
	}

	fresh, _ := f.tickets.GetByID(ctx, "fresh")
	if fresh.Status != domain.TicketStatusInProgress {
		t.Fatalf("fresh ticket status = %s, want untouched IN_PROGRESS", fresh.Status)
	}
}

func TestAutoCloseScanDisabledScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.scopes.Put(&domain.ScopeConfig{ScopeID: "scope-1", Name: "support", AutoCloseHours: 0})
	f.seedTicket(t, "stale", domain.TicketStatusInProgress, 500*time.Hour, true)

	if err := f.scheduler.runAutoCloseScan(ctx); err != nil {
		t.Fatalf("runAutoCloseScan: %v", err)
	}
	stale, _ := f.tickets.GetByID(ctx, "stale")
	if stale.Status != domain.TicketStatusInProgress {
		t.Fatalf("auto-close ran in a disabled scope")
	}
}

func TestMetricsScanRefreshesStaffRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	staffID := "staff-1"
	opened := f.now.Add(-4 * time.Hour)
	responded := opened.Add(100 * time.Second)
	closed := opened.Add(time.Hour)
	ticket := &domain.Ticket{
		ID:                  "ticket-1",
		ScopeID:             "scope-1",
		CategoryID:          "cat-1",
		CreatorID:           "user-1",
		ClaimedByID:         &staffID,
		Status:              domain.TicketStatusClosed,
		OpenedAt:            opened,
		LastStaffResponseAt: &responded,
		ClosedAt:            &closed,
	}
	if err := f.tickets.Create(ctx, ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := f.scheduler.runMetricsScan(ctx); err != nil {
		t.Fatalf("runMetricsScan: %v", err)
	}

	record, err := f.perf.Get(ctx, "scope-1", staffID)
	if err != nil {
		t.Fatalf("performance record missing after scan: %v", err)
	}
	if record.TicketsHandled != 1 {
		t.Fatalf("tickets_handled = %d, want 1", record.TicketsHandled)
	}
	if record.AvgResponseSeconds == nil || *record.AvgResponseSeconds != 100.0 {
		t.Fatalf("avg_response_seconds = %v, want 100.0", record.AvgResponseSeconds)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	f := newFixture(t)

	if err := f.scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.scheduler.Start(context.Background()); err == nil {
		t.Fatalf("second Start did not fail")
	}

	done := make(chan struct{})
	go func() {
		_ = f.scheduler.Stop(2 * time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop did not return within its timeout")
	}

	// Stopping again is a no-op.
	if err := f.scheduler.Stop(time.Second); err != nil {
		t.Fatalf("idempotent Stop returned error: %v", err)
	}
}
