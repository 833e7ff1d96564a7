package domain

import (
	"testing"
	"time"

	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		current TicketStatus
		target  TicketStatus
		want    bool
	}{
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusOpen, TicketStatusPendingUser, false},
		{TicketStatusOpen, TicketStatusResolved, true},
		{TicketStatusOpen, TicketStatusClosed, true},
		{TicketStatusInProgress, TicketStatusPendingUser, true},
		{TicketStatusInProgress, TicketStatusEscalated, true},
		{TicketStatusInProgress, TicketStatusOpen, false},
		{TicketStatusPendingUser, TicketStatusInProgress, true},
		{TicketStatusPendingUser, TicketStatusEscalated, true},
		{TicketStatusPendingStaff, TicketStatusEscalated, true},
		{TicketStatusPendingStaff, TicketStatusInProgress, false},
		{TicketStatusEscalated, TicketStatusInProgress, true},
		{TicketStatusEscalated, TicketStatusClosed, true},
		{TicketStatusResolved, TicketStatusClosed, true},
		{TicketStatusClosed, TicketStatusOpen, false},
		{TicketStatusClosed, TicketStatusClosed, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.current, tc.target); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.current, tc.target, got, tc.want)
		}
	}
}

func TestTransitionSetsClosedAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusInProgress, OpenedAt: now.Add(-time.Hour)}

	if err := ticket.Transition(TicketStatusClosed, now); err != nil {
		t.Fatalf("Transition returned error: %v", err)
	}
	if ticket.Status != TicketStatusClosed {
		t.Fatalf("status = %s, want %s", ticket.Status, TicketStatusClosed)
	}
	if ticket.ClosedAt == nil || !ticket.ClosedAt.Equal(now) {
		t.Fatalf("closed_at = %v, want %v", ticket.ClosedAt, now)
	}
}

func TestTransitionRejectsInvalidTarget(t *testing.T) {
	ticket := &Ticket{Status: TicketStatusOpen}

	err := ticket.Transition(TicketStatusPendingUser, time.Now())
	if !apperrors.IsCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
	if ticket.Status != TicketStatusOpen {
		t.Fatalf("rejected transition mutated status to %s", ticket.Status)
	}
	if ticket.ClosedAt != nil {
		t.Fatalf("rejected transition set closed_at")
	}
}

func TestLastActivityAt(t *testing.T) {
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	staff := opened.Add(30 * time.Minute)
	msg := opened.Add(2 * time.Hour)

	ticket := &Ticket{OpenedAt: opened}
	if got := ticket.LastActivityAt(); !got.Equal(opened) {
		t.Fatalf("no activity: got %v, want opened_at", got)
	}

	ticket.LastStaffResponseAt = &staff
	ticket.LastMessageAt = &msg
	if got := ticket.LastActivityAt(); !got.Equal(msg) {
		t.Fatalf("got %v, want latest message time %v", got, msg)
	}
}
