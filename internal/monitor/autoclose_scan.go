package monitor

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
)

// autoCloseReason is recorded on tickets closed by the inactivity scan.
const autoCloseReason = "Auto-closed due to inactivity"

// runAutoCloseScan force-closes tickets whose last activity predates the
// scope's inactivity cutoff. Scopes with auto-close disabled are skipped.
func (s *Scheduler) runAutoCloseScan(ctx context.Context) error {
	scopes, err := s.scopes.List(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	for i := range scopes {
		scope := &scopes[i]
		cutoff := scope.AutoCloseCutoff(now)
		if cutoff.IsZero() {
			continue
		}

		var stale []domain.Ticket
		err := s.withRetry(ctx, func(cctx context.Context) error {
			var listErr error
			stale, listErr = s.tickets.ListInactiveSince(cctx, scope.ScopeID, cutoff)
			return listErr
		})
		if err != nil {
			s.metrics.CandidateFailures.WithLabelValues("autoclose").Inc()
			s.logger.Error("listing inactive tickets failed",
				zap.String("scope_id", scope.ScopeID),
				zap.Error(err))
			continue
		}

		for j := range stale {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := s.autoClose(ctx, scope.ScopeID, &stale[j]); err != nil {
				s.metrics.CandidateFailures.WithLabelValues("autoclose").Inc()
				s.logger.Error("auto-close failed for ticket",
					zap.String("scope_id", scope.ScopeID),
					zap.String("ticket_id", stale[j].ID),
					zap.Error(err))
			}
		}
	}
	return nil
}

func (s *Scheduler) autoClose(ctx context.Context, scopeID string, ticket *domain.Ticket) error {
	lastActivity := ticket.LastActivityAt()

	work := ticket.Clone()
	if err := work.Transition(domain.TicketStatusClosed, s.now()); err != nil {
		return err
	}
	reason := autoCloseReason
	work.ClosureReason = &reason

	applied, err := s.saveWithConflictRetry(ctx, work, func(fresh *domain.Ticket) (*domain.Ticket, error) {
		// Concurrent activity invalidates the inactivity judgement; let
		// the next pass re-evaluate from the fresh row.
		if fresh.Status.Terminal() || fresh.LastActivityAt().After(lastActivity) {
			return nil, nil
		}
		retried := fresh.Clone()
		if err := retried.Transition(domain.TicketStatusClosed, s.now()); err != nil {
			return nil, err
		}
		retried.ClosureReason = &reason
		return retried, nil
	})
	if err != nil || !applied {
		return err
	}

	if err := s.alerts.Clear(ctx, scopeID, ticket.ID); err != nil {
		s.logger.Debug("clearing alert state failed",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}

	s.metrics.TicketsAutoClosed.Inc()
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAutoClosed,
		ScopeID:  scopeID,
		TicketID: ticket.ID,
		Actor:    "monitor",
		Payload: events.TicketAutoClosedPayload{
			Reason:         autoCloseReason,
			LastActivityAt: lastActivity,
		},
	})
	return nil
}
