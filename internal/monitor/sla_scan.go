package monitor

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// runSLAScan evaluates every open ticket against its category's SLA
// definition. Alerts are deduplicated by severity: a (ticket, kind) pair
// alerts again only when its level rises. Breached tickets escalate when
// the transition table allows it.
func (s *Scheduler) runSLAScan(ctx context.Context) error {
	scopes, err := s.scopes.List(ctx)
	if err != nil {
		return err
	}

	for i := range scopes {
		scope := &scopes[i]

		var tickets []domain.Ticket
		err := s.withRetry(ctx, func(cctx context.Context) error {
			var listErr error
			tickets, listErr = s.tickets.ListOpen(cctx, scope.ScopeID)
			return listErr
		})
		if err != nil {
			s.metrics.CandidateFailures.WithLabelValues("sla").Inc()
			s.logger.Error("listing open tickets failed",
				zap.String("scope_id", scope.ScopeID),
				zap.Error(err))
			continue
		}

		for j := range tickets {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := s.checkTicketSLA(ctx, scope.ScopeID, &tickets[j]); err != nil {
				s.metrics.CandidateFailures.WithLabelValues("sla").Inc()
				s.logger.Error("sla check failed for ticket",
					zap.String("scope_id", scope.ScopeID),
					zap.String("ticket_id", tickets[j].ID),
					zap.Error(err))
			}
		}
	}
	return nil
}

func (s *Scheduler) checkTicketSLA(ctx context.Context, scopeID string, ticket *domain.Ticket) error {
	var def *domain.SLADefinition
	err := s.withRetry(ctx, func(cctx context.Context) error {
		var getErr error
		def, getErr = s.slas.GetByCategory(cctx, scopeID, ticket.CategoryID)
		return getErr
	})
	if err != nil {
		// Categories without a definition are simply not monitored.
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil
		}
		return err
	}

	status, err := domain.EvaluateSLA(ticket, def, s.now(), s.cfg.WarningThresholdPct)
	if err != nil {
		// A misconfigured budget poisons every pass until fixed; warn
		// and move on rather than failing the candidate repeatedly.
		s.logger.Warn("skipping ticket with unusable sla definition",
			zap.String("ticket_id", ticket.ID),
			zap.String("sla_id", def.ID),
			zap.Error(err))
		return nil
	}

	for _, check := range []domain.SLACheck{status.Response, status.Resolution} {
		if check.Level < domain.AlertLevelWarning {
			continue
		}
		if err := s.raiseAlert(ctx, scopeID, ticket, check); err != nil {
			s.logger.Warn("alert dispatch failed",
				zap.String("ticket_id", ticket.ID),
				zap.String("kind", string(check.Kind)),
				zap.Error(err))
		}
	}

	if status.Level == domain.AlertLevelBreached {
		return s.escalate(ctx, scopeID, ticket, status)
	}
	return nil
}

// raiseAlert sends at most one notification per severity increase. The
// attempted level is recorded before dispatch, so a failing webhook does
// not cause the same alert to fire on every pass.
func (s *Scheduler) raiseAlert(ctx context.Context, scopeID string, ticket *domain.Ticket, check domain.SLACheck) error {
	last, err := s.alerts.LastLevel(ctx, scopeID, ticket.ID, check.Kind)
	if err != nil {
		return err
	}
	if check.Level <= last {
		return nil
	}
	if err := s.alerts.Record(ctx, scopeID, ticket.ID, check.Kind, check.Level); err != nil {
		return err
	}

	details := map[string]any{
		"display_id":      ticket.DisplayID,
		"status":          string(ticket.Status),
		"elapsed_minutes": check.ElapsedMinutes,
		"budget_minutes":  check.BudgetMinutes,
		"percentage":      check.Percentage,
	}
	cctx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.notifier.SendAlert(cctx, scopeID, ticket.ID, check.Kind, check.Level, details); err != nil {
		return err
	}

	s.metrics.AlertsDispatched.WithLabelValues(string(check.Kind), check.Level.String()).Inc()
	return nil
}

// escalate moves a breached ticket to ESCALATED where the transition
// table permits. Tickets that cannot reach ESCALATED from their current
// status (for example OPEN) alert but stay put.
func (s *Scheduler) escalate(ctx context.Context, scopeID string, ticket *domain.Ticket, status *domain.SLAStatus) error {
	if ticket.Status == domain.TicketStatusEscalated {
		return nil
	}
	if !domain.CanTransition(ticket.Status, domain.TicketStatusEscalated) {
		return nil
	}

	breached := status.Resolution
	if status.Response.Level == domain.AlertLevelBreached {
		breached = status.Response
	}

	work := ticket.Clone()
	if err := work.Transition(domain.TicketStatusEscalated, s.now()); err != nil {
		return err
	}

	applied, err := s.saveWithConflictRetry(ctx, work, func(fresh *domain.Ticket) (*domain.Ticket, error) {
		if fresh.Status == domain.TicketStatusEscalated || !domain.CanTransition(fresh.Status, domain.TicketStatusEscalated) {
			return nil, nil
		}
		retried := fresh.Clone()
		if err := retried.Transition(domain.TicketStatusEscalated, s.now()); err != nil {
			return nil, err
		}
		return retried, nil
	})
	if err != nil || !applied {
		return err
	}

	s.metrics.TicketsEscalated.Inc()
	s.publish(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		ScopeID:  scopeID,
		TicketID: ticket.ID,
		Actor:    "monitor",
		Payload: events.TicketEscalatedPayload{
			Kind:       breached.Kind,
			Percentage: breached.Percentage,
		},
	})
	return nil
}

// saveWithConflictRetry saves the ticket and, on a write conflict,
// re-reads the row and lets rebuild decide whether the change still
// applies. rebuild returning nil drops the change silently; the boolean
// reports whether a write actually landed.
func (s *Scheduler) saveWithConflictRetry(ctx context.Context, ticket *domain.Ticket, rebuild func(*domain.Ticket) (*domain.Ticket, error)) (bool, error) {
	err := s.withRetry(ctx, func(cctx context.Context) error {
		return s.tickets.Save(cctx, ticket)
	})
	if err == nil {
		return true, nil
	}
	if !apperrors.IsCode(err, apperrors.CodeWriteConflict) {
		return false, err
	}

	var fresh *domain.Ticket
	err = s.withRetry(ctx, func(cctx context.Context) error {
		var getErr error
		fresh, getErr = s.tickets.GetByID(cctx, ticket.ID)
		return getErr
	})
	if err != nil {
		return false, err
	}

	retried, err := rebuild(fresh)
	if err != nil || retried == nil {
		return false, err
	}
	err = s.withRetry(ctx, func(cctx context.Context) error {
		return s.tickets.Save(cctx, retried)
	})
	return err == nil, err
}

func (s *Scheduler) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.New().String()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
