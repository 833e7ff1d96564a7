package domain

import (
	"time"

	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen         TicketStatus = "OPEN"
	TicketStatusInProgress   TicketStatus = "IN_PROGRESS"
	TicketStatusPendingStaff TicketStatus = "PENDING_STAFF"
	TicketStatusPendingUser  TicketStatus = "PENDING_USER"
	TicketStatusEscalated    TicketStatus = "ESCALATED"
	TicketStatusResolved     TicketStatus = "RESOLVED"
	TicketStatusClosed       TicketStatus = "CLOSED"
)

// Statuses lists every valid status value.
func Statuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen,
		TicketStatusInProgress,
		TicketStatusPendingStaff,
		TicketStatusPendingUser,
		TicketStatusEscalated,
		TicketStatusResolved,
		TicketStatusClosed,
	}
}

// Terminal reports whether the status admits no further transitions.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed
}

// Valid reports whether s is a known status value.
func (s TicketStatus) Valid() bool {
	for _, known := range Statuses() {
		if s == known {
			return true
		}
	}
	return false
}

// allowedTransitions is the full transition table. RESOLVED is reachable
// from every non-terminal state (staff marks resolved) and CLOSED from
// every non-terminal state (finalize or force-close), so those edges are
// handled in CanTransition rather than enumerated here.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:         {TicketStatusInProgress},
	TicketStatusInProgress:   {TicketStatusPendingUser, TicketStatusEscalated},
	TicketStatusPendingUser:  {TicketStatusInProgress, TicketStatusEscalated},
	TicketStatusPendingStaff: {TicketStatusEscalated},
	TicketStatusEscalated:    {TicketStatusInProgress},
	TicketStatusResolved:     {},
	TicketStatusClosed:       {},
}

// CanTransition reports whether the move from current to target is in the
// allowed table.
func CanTransition(current, target TicketStatus) bool {
	if current.Terminal() {
		return false
	}
	if !current.Valid() || !target.Valid() {
		return false
	}
	if target == TicketStatusResolved || target == TicketStatusClosed {
		return true
	}
	for _, candidate := range allowedTransitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// Ticket is the aggregate tracked by the lifecycle core. The record is
// owned by the repository; the core works on transient copies and writes
// mutations back under the Version guard.
type Ticket struct {
	ID                  string
	DisplayID           int64
	ScopeID             string
	CategoryID          string
	CreatorID           string
	ClaimedByID         *string
	Status              TicketStatus
	OpenedAt            time.Time
	LastStaffResponseAt *time.Time
	LastUserResponseAt  *time.Time
	LastMessageAt       *time.Time
	ClosedAt            *time.Time
	ClosureReason       *string
	Version             int64
}

// LastActivityAt returns the most recent activity timestamp, falling back
// to the opening time when no message was ever recorded.
func (t *Ticket) LastActivityAt() time.Time {
	latest := t.OpenedAt
	for _, ts := range []*time.Time{t.LastMessageAt, t.LastStaffResponseAt, t.LastUserResponseAt} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}

// Transition applies a state change at the given time, together with the
// timestamp fields it implies. On a disallowed move the ticket is left
// unchanged and an INVALID_TRANSITION error is returned.
func (t *Ticket) Transition(target TicketStatus, at time.Time) error {
	if !CanTransition(t.Status, target) {
		return apperrors.NewInvalidTransition(string(t.Status), string(target))
	}
	t.Status = target
	if target == TicketStatusClosed && t.ClosedAt == nil {
		closedAt := at
		t.ClosedAt = &closedAt
	}
	return nil
}

// Clone returns a deep copy so scan iterations never mutate shared state.
func (t *Ticket) Clone() *Ticket {
	clone := *t
	clone.ClaimedByID = clonePtr(t.ClaimedByID)
	clone.LastStaffResponseAt = clonePtr(t.LastStaffResponseAt)
	clone.LastUserResponseAt = clonePtr(t.LastUserResponseAt)
	clone.LastMessageAt = clonePtr(t.LastMessageAt)
	clone.ClosedAt = clonePtr(t.ClosedAt)
	clone.ClosureReason = clonePtr(t.ClosureReason)
	return &clone
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	copied := *v
	return &copied
}
