package events

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketTransitioned    EventType = "ticket_transitioned"
	EventTicketEscalated       EventType = "ticket_escalated"
	EventTicketAutoClosed      EventType = "ticket_auto_closed"
	EventMaintenanceStarted    EventType = "maintenance_started"
	EventMaintenanceEnded      EventType = "maintenance_ended"
	EventStaffMetricsRefreshed EventType = "staff_metrics_refreshed"
)

// Event represents a domain event emitted by services and the monitor.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ScopeID   string      `json:"scope_id"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketTransitionedPayload payload.
type TicketTransitionedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Reason    string              `json:"reason,omitempty"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Kind       domain.SLAKind `json:"kind"`
	Percentage float64        `json:"percentage"`
}

// TicketAutoClosedPayload payload.
type TicketAutoClosedPayload struct {
	Reason         string    `json:"reason"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// MaintenancePayload payload for window start/end events.
type MaintenancePayload struct {
	WindowID    string    `json:"window_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
}

// StaffMetricsRefreshedPayload payload.
type StaffMetricsRefreshedPayload struct {
	StaffID        string `json:"staff_id"`
	TicketsHandled int    `json:"tickets_handled"`
}
