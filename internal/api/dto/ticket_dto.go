package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// TransitionRequest asks for a ticket status change.
type TransitionRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// TicketResponse is the API shape of a ticket.
type TicketResponse struct {
	ID                  string     `json:"id"`
	DisplayID           int64      `json:"display_id"`
	ScopeID             string     `json:"scope_id"`
	CategoryID          string     `json:"category_id"`
	CreatorID           string     `json:"creator_id"`
	ClaimedByID         *string    `json:"claimed_by_id,omitempty"`
	Status              string     `json:"status"`
	OpenedAt            time.Time  `json:"opened_at"`
	LastStaffResponseAt *time.Time `json:"last_staff_response_at,omitempty"`
	LastUserResponseAt  *time.Time `json:"last_user_response_at,omitempty"`
	LastMessageAt       *time.Time `json:"last_message_at,omitempty"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
	ClosureReason       *string    `json:"closure_reason,omitempty"`
	Version             int64      `json:"version"`
}

// FromTicket maps the domain ticket to its API shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                  t.ID,
		DisplayID:           t.DisplayID,
		ScopeID:             t.ScopeID,
		CategoryID:          t.CategoryID,
		CreatorID:           t.CreatorID,
		ClaimedByID:         t.ClaimedByID,
		Status:              string(t.Status),
		OpenedAt:            t.OpenedAt,
		LastStaffResponseAt: t.LastStaffResponseAt,
		LastUserResponseAt:  t.LastUserResponseAt,
		LastMessageAt:       t.LastMessageAt,
		ClosedAt:            t.ClosedAt,
		ClosureReason:       t.ClosureReason,
		Version:             t.Version,
	}
}

// SLACheckResponse is one clock's evaluation.
type SLACheckResponse struct {
	Kind           string  `json:"kind"`
	Level          string  `json:"level"`
	ElapsedMinutes float64 `json:"elapsed_minutes"`
	BudgetMinutes  int     `json:"budget_minutes"`
	Percentage     float64 `json:"percentage"`
}

// SLAStatusResponse is the combined SLA evaluation of a ticket.
type SLAStatusResponse struct {
	Level      string           `json:"level"`
	Response   SLACheckResponse `json:"response"`
	Resolution SLACheckResponse `json:"resolution"`
}

// FromSLAStatus maps the domain status to its API shape.
func FromSLAStatus(s *domain.SLAStatus) SLAStatusResponse {
	return SLAStatusResponse{
		Level:      s.Level.String(),
		Response:   fromSLACheck(s.Response),
		Resolution: fromSLACheck(s.Resolution),
	}
}

func fromSLACheck(c domain.SLACheck) SLACheckResponse {
	return SLACheckResponse{
		Kind:           string(c.Kind),
		Level:          c.Level.String(),
		ElapsedMinutes: c.ElapsedMinutes,
		BudgetMinutes:  c.BudgetMinutes,
		Percentage:     c.Percentage,
	}
}
