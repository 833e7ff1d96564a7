package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// conflictingTicketRepo fails the first n Save calls with WRITE_CONFLICT
// and delegates everything else to the wrapped repository.
type conflictingTicketRepo struct {
	repository.TicketRepository
	conflictsLeft int
}

func (r *conflictingTicketRepo) Save(ctx context.Context, ticket *domain.Ticket) error {
	if r.conflictsLeft > 0 {
		r.conflictsLeft--
		return apperrors.NewWriteConflict("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	return r.TicketRepository.Save(ctx, ticket)
}

func newLifecycleFixture(tickets repository.TicketRepository, now time.Time) *LifecycleService {
	slas := repository.NewMemorySLARepository()
	slas.Put(&domain.SLADefinition{
		ID:                "sla-1",
		ScopeID:           testScope,
		CategoryID:        "cat-1",
		ResponseMinutes:   60,
		ResolutionMinutes: 480,
	})
	return NewLifecycleService(LifecycleDeps{
		Tickets: tickets,
		SLAs:    slas,
		Perf:    repository.NewMemoryStaffPerformanceRepository(),
		Logger:  zap.NewNop(),
		Now:     func() time.Time { return now },
	})
}

func seedTicket(t *testing.T, tickets repository.TicketRepository, status domain.TicketStatus, opened time.Time) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		ID:         "ticket-1",
		DisplayID:  1,
		ScopeID:    testScope,
		CategoryID: "cat-1",
		CreatorID:  "user-1",
		Status:     status,
		OpenedAt:   opened,
	}
	if err := tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func TestRequestTransitionApplies(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	tickets := repository.NewMemoryTicketRepository()
	svc := newLifecycleFixture(tickets, now)
	seedTicket(t, tickets, domain.TicketStatusOpen, now.Add(-time.Hour))

	updated, err := svc.RequestTransition(context.Background(), "ticket-1", domain.TicketStatusInProgress, "operator", "")
	if err != nil {
		t.Fatalf("RequestTransition returned error: %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", updated.Status)
	}
	if updated.Version != 2 {
		t.Fatalf("version = %d, want 2 after one save", updated.Version)
	}
}

func TestRequestTransitionRejectsInvalidMove(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	tickets := repository.NewMemoryTicketRepository()
	svc := newLifecycleFixture(tickets, now)
	seedTicket(t, tickets, domain.TicketStatusOpen, now.Add(-time.Hour))

	_, err := svc.RequestTransition(context.Background(), "ticket-1", domain.TicketStatusPendingUser, "operator", "")
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}

	stored, err := tickets.GetByID(context.Background(), "ticket-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.TicketStatusOpen || stored.Version != 1 {
		t.Fatalf("rejected transition modified the ticket: %+v", stored)
	}
}

func TestRequestTransitionRetriesOnceOnConflict(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryTicketRepository()
	tickets := &conflictingTicketRepo{TicketRepository: inner, conflictsLeft: 1}
	svc := newLifecycleFixture(tickets, now)
	seedTicket(t, inner, domain.TicketStatusOpen, now.Add(-time.Hour))

	updated, err := svc.RequestTransition(context.Background(), "ticket-1", domain.TicketStatusInProgress, "operator", "")
	if err != nil {
		t.Fatalf("expected the retry to succeed, got %v", err)
	}
	if updated.Status != domain.TicketStatusInProgress {
		t.Fatalf("status = %s, want IN_PROGRESS", updated.Status)
	}
}

func TestRequestTransitionSecondConflictSurfaces(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	inner := repository.NewMemoryTicketRepository()
	tickets := &conflictingTicketRepo{TicketRepository: inner, conflictsLeft: 2}
	svc := newLifecycleFixture(tickets, now)
	seedTicket(t, inner, domain.TicketStatusOpen, now.Add(-time.Hour))

	_, err := svc.RequestTransition(context.Background(), "ticket-1", domain.TicketStatusInProgress, "operator", "")
	if !apperrors.IsCode(err, apperrors.CodeWriteConflict) {
		t.Fatalf("expected WRITE_CONFLICT after two conflicts, got %v", err)
	}
}

func TestRequestTransitionCloseRecordsReason(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	tickets := repository.NewMemoryTicketRepository()
	svc := newLifecycleFixture(tickets, now)
	seedTicket(t, tickets, domain.TicketStatusInProgress, now.Add(-time.Hour))

	updated, err := svc.RequestTransition(context.Background(), "ticket-1", domain.TicketStatusClosed, "operator", "resolved by phone")
	if err != nil {
		t.Fatalf("RequestTransition returned error: %v", err)
	}
	if updated.ClosedAt == nil || !updated.ClosedAt.Equal(now) {
		t.Fatalf("closed_at = %v, want %v", updated.ClosedAt, now)
	}
	if updated.ClosureReason == nil || *updated.ClosureReason != "resolved by phone" {
		t.Fatalf("closure_reason = %v, want recorded reason", updated.ClosureReason)
	}
}

func TestGetSLAStatusRejectsClosedTicket(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	tickets := repository.NewMemoryTicketRepository()
	svc := newLifecycleFixture(tickets, now)
	ticket := seedTicket(t, tickets, domain.TicketStatusInProgress, now.Add(-time.Hour))

	if _, err := svc.RequestTransition(context.Background(), ticket.ID, domain.TicketStatusClosed, "operator", ""); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	_, err := svc.GetSLAStatus(context.Background(), ticket.ID)
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED for closed ticket, got %v", err)
	}
}

func TestGetSLAStatusEvaluatesClocks(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	tickets := repository.NewMemoryTicketRepository()
	svc := newLifecycleFixture(tickets, now)
	seedTicket(t, tickets, domain.TicketStatusOpen, now.Add(-61*time.Minute))

	status, err := svc.GetSLAStatus(context.Background(), "ticket-1")
	if err != nil {
		t.Fatalf("GetSLAStatus returned error: %v", err)
	}
	if status.Response.Level != domain.AlertLevelBreached {
		t.Fatalf("response level = %s, want BREACHED at 61 of 60 minutes", status.Response.Level)
	}
}
