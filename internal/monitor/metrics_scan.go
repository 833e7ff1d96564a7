package monitor

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/events"
)

// runMetricsScan refreshes performance records for every staff member
// who closed a ticket since the previous pass. The first pass covers the
// whole aggregation window so a restart backfills recent activity.
func (s *Scheduler) runMetricsScan(ctx context.Context) error {
	scopes, err := s.scopes.List(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	since := s.lastMetricsRun
	if since.IsZero() {
		since = now.Add(-s.cfg.AggregationWindow())
	}

	for i := range scopes {
		scope := &scopes[i]

		var staffIDs []string
		err := s.withRetry(ctx, func(cctx context.Context) error {
			var listErr error
			staffIDs, listErr = s.tickets.ListStaffWithClosedSince(cctx, scope.ScopeID, since)
			return listErr
		})
		if err != nil {
			s.metrics.CandidateFailures.WithLabelValues("metrics").Inc()
			s.logger.Error("listing staff with recent closures failed",
				zap.String("scope_id", scope.ScopeID),
				zap.Error(err))
			continue
		}

		for _, staffID := range staffIDs {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			record, err := s.aggregator.Refresh(ctx, scope.ScopeID, staffID)
			if err != nil {
				s.metrics.CandidateFailures.WithLabelValues("metrics").Inc()
				s.logger.Error("performance refresh failed",
					zap.String("scope_id", scope.ScopeID),
					zap.String("staff_id", staffID),
					zap.Error(err))
				continue
			}
			s.publish(ctx, events.Event{
				Type:    events.EventStaffMetricsRefreshed,
				ScopeID: scope.ScopeID,
				Actor:   "monitor",
				Payload: events.StaffMetricsRefreshedPayload{
					StaffID:        staffID,
					TicketsHandled: record.TicketsHandled,
				},
			})
		}
	}

	s.lastMetricsRun = now
	return nil
}
