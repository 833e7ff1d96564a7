package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/notify"
)

// runMaintenanceScan activates windows whose start has passed and
// completes windows whose end has passed. At most one window is ACTIVE
// per scope; when several are due, the earliest start wins and the rest
// wait for the next pass.
func (s *Scheduler) runMaintenanceScan(ctx context.Context) error {
	windows, err := s.windows.ListUnfinished(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	activeByScope := make(map[string]bool)
	for i := range windows {
		w := &windows[i]
		if w.IsActive() && !w.ShouldComplete(now) {
			activeByScope[w.ScopeID] = true
		}
	}

	for i := range windows {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w := &windows[i]
		if err := s.advanceWindow(ctx, w, now, activeByScope); err != nil {
			s.metrics.CandidateFailures.WithLabelValues("maintenance").Inc()
			s.logger.Error("maintenance window update failed",
				zap.String("window_id", w.ID),
				zap.String("scope_id", w.ScopeID),
				zap.Error(err))
		}
	}
	return nil
}

func (s *Scheduler) advanceWindow(ctx context.Context, w *domain.MaintenanceWindow, now time.Time, activeByScope map[string]bool) error {
	switch {
	case w.ShouldComplete(now):
		wasActive := w.IsActive()
		w.Status = domain.WindowStatusCompleted
		if err := s.withRetry(ctx, func(cctx context.Context) error {
			return s.windows.Save(cctx, w)
		}); err != nil {
			return err
		}
		activeByScope[w.ScopeID] = false

		// A SCHEDULED window that fully elapsed between passes completes
		// without ever having been announced.
		if !wasActive {
			return nil
		}
		s.sendWindowNotice(ctx, w, notify.MaintenanceEnded, events.EventMaintenanceEnded)

	case w.ShouldActivate(now) && !activeByScope[w.ScopeID]:
		w.Status = domain.WindowStatusActive
		if err := s.withRetry(ctx, func(cctx context.Context) error {
			return s.windows.Save(cctx, w)
		}); err != nil {
			return err
		}
		activeByScope[w.ScopeID] = true
		s.sendWindowNotice(ctx, w, notify.MaintenanceStarted, events.EventMaintenanceStarted)
	}
	return nil
}

func (s *Scheduler) sendWindowNotice(ctx context.Context, w *domain.MaintenanceWindow, notice notify.MaintenanceEvent, eventType events.EventType) {
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.notifier.SendMaintenanceNotice(cctx, w.ScopeID, w, notice); err != nil {
		s.logger.Warn("maintenance notice failed",
			zap.String("window_id", w.ID),
			zap.String("scope_id", w.ScopeID),
			zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:    eventType,
		ScopeID: w.ScopeID,
		Actor:   "monitor",
		Payload: events.MaintenancePayload{
			WindowID:    w.ID,
			StartTime:   w.StartTime,
			EndTime:     w.EndTime,
			Description: w.Description,
		},
	})
}
