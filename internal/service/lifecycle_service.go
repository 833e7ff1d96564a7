package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// LifecycleDeps bundles the lifecycle service's collaborators.
type LifecycleDeps struct {
	Tickets       repository.TicketRepository
	SLAs          repository.SLARepository
	Perf          repository.StaffPerformanceRepository
	Aggregator    *AggregatorService
	Dispatcher    events.Dispatcher
	WarnThreshold float64
	Logger        *zap.Logger
	Now           func() time.Time
}

// LifecycleService drives ticket state changes and read-side queries.
type LifecycleService struct {
	tickets       repository.TicketRepository
	slas          repository.SLARepository
	perf          repository.StaffPerformanceRepository
	aggregator    *AggregatorService
	dispatcher    events.Dispatcher
	warnThreshold float64
	logger        *zap.Logger
	now           func() time.Time
}

// NewLifecycleService creates the service.
func NewLifecycleService(deps LifecycleDeps) *LifecycleService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &LifecycleService{
		tickets:       deps.Tickets,
		slas:          deps.SLAs,
		perf:          deps.Perf,
		aggregator:    deps.Aggregator,
		dispatcher:    deps.Dispatcher,
		warnThreshold: deps.WarnThreshold,
		logger:        deps.Logger,
		now:           now,
	}
}

// RequestTransition validates and applies a status change. On a write
// conflict the ticket is re-read and the transition re-validated against
// the fresh state exactly once; a second conflict surfaces to the caller.
// A rejected transition leaves the ticket unmodified.
func (s *LifecycleService) RequestTransition(ctx context.Context, ticketID string, target domain.TicketStatus, actor, reason string) (*domain.Ticket, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{
			"status": string(target),
		})
	}

	current, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	apply := func(t *domain.Ticket) error {
		if err := t.Transition(target, s.now()); err != nil {
			return err
		}
		if target == domain.TicketStatusClosed && reason != "" {
			t.ClosureReason = &reason
		}
		return nil
	}

	work := current.Clone()
	oldStatus := current.Status
	if err := apply(work); err != nil {
		return nil, err
	}

	if err := s.tickets.Save(ctx, work); err != nil {
		if !apperrors.IsCode(err, apperrors.CodeWriteConflict) {
			return nil, err
		}
		s.logger.Debug("transition hit a write conflict, retrying once",
			zap.String("ticket_id", ticketID),
			zap.String("target", string(target)))

		fresh, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		work = fresh.Clone()
		oldStatus = fresh.Status
		if err := apply(work); err != nil {
			return nil, err
		}
		if err := s.tickets.Save(ctx, work); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketTransitioned,
		ScopeID:  work.ScopeID,
		TicketID: work.ID,
		Actor:    actor,
		Payload: events.TicketTransitionedPayload{
			OldStatus: oldStatus,
			NewStatus: work.Status,
			Reason:    reason,
		},
	})

	if work.Status == domain.TicketStatusClosed && work.ClaimedByID != nil && s.aggregator != nil {
		if _, err := s.aggregator.Refresh(ctx, work.ScopeID, *work.ClaimedByID); err != nil {
			s.logger.Warn("performance refresh after close failed",
				zap.String("scope_id", work.ScopeID),
				zap.String("staff_id", *work.ClaimedByID),
				zap.Error(err))
		}
	}

	return work, nil
}

// GetSLAStatus evaluates the ticket's SLA clocks against its category's
// definition at the current instant.
func (s *LifecycleService) GetSLAStatus(ctx context.Context, ticketID string) (*domain.SLAStatus, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewValidationError("sla status is unavailable for closed tickets", map[string]any{
			"ticket_id": ticketID,
		})
	}

	def, err := s.slas.GetByCategory(ctx, ticket.ScopeID, ticket.CategoryID)
	if err != nil {
		return nil, err
	}
	return domain.EvaluateSLA(ticket, def, s.now(), s.warnThreshold)
}

// GetStaffPerformance returns the stored performance record.
func (s *LifecycleService) GetStaffPerformance(ctx context.Context, scopeID, staffID string) (*domain.StaffPerformanceRecord, error) {
	return s.perf.Get(ctx, scopeID, staffID)
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.New().String()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
