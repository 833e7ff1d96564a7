package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/events"
)

// StartEventLogWorker subscribes an audit logger to every domain event so
// manual transitions and monitor actions share one trail.
func StartEventLogWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	handler := func(ctx context.Context, event events.Event) error {
		logger.Info("domain event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("scope_id", event.ScopeID),
			zap.String("ticket_id", event.TicketID),
			zap.String("actor", event.Actor),
			zap.Any("payload", event.Payload))
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketTransitioned,
		events.EventTicketEscalated,
		events.EventTicketAutoClosed,
		events.EventMaintenanceStarted,
		events.EventMaintenanceEnded,
		events.EventStaffMetricsRefreshed,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
