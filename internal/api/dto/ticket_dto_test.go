package dto

import (
	"testing"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

func TestFromTicket(t *testing.T) {
	opened := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	closed := opened.Add(2 * time.Hour)
	staff := "staff-1"
	ticket := &domain.Ticket{
		ID:          "t-1",
		DisplayID:   42,
		ScopeID:     "scope-1",
		CategoryID:  "cat-1",
		CreatorID:   "user-1",
		ClaimedByID: &staff,
		Status:      domain.TicketStatusClosed,
		OpenedAt:    opened,
		ClosedAt:    &closed,
		Version:     3,
	}

	resp := FromTicket(ticket)
	if resp.ID != "t-1" || resp.DisplayID != 42 {
		t.Fatalf("identity fields = (%s, %d), want (t-1, 42)", resp.ID, resp.DisplayID)
	}
	if resp.Status != "CLOSED" {
		t.Fatalf("status = %s, want CLOSED", resp.Status)
	}
	if resp.ClosedAt == nil || !resp.ClosedAt.Equal(closed) {
		t.Fatalf("closed_at = %v, want %v", resp.ClosedAt, closed)
	}
	if resp.ClaimedByID == nil || *resp.ClaimedByID != staff {
		t.Fatalf("claimed_by_id = %v, want %s", resp.ClaimedByID, staff)
	}
	if resp.Version != 3 {
		t.Fatalf("version = %d, want 3", resp.Version)
	}
}
