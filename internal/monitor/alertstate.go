package monitor

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// AlertStateStore remembers the highest alert severity already raised
// for a (scope, ticket, kind) triple so repeated scans stay idempotent:
// an alert goes out only when severity rises above the recorded level.
type AlertStateStore interface {
	LastLevel(ctx context.Context, scopeID, ticketID string, kind domain.SLAKind) (domain.AlertLevel, error)
	Record(ctx context.Context, scopeID, ticketID string, kind domain.SLAKind, level domain.AlertLevel) error
	// Clear drops all state for a ticket, typically once it is closed.
	Clear(ctx context.Context, scopeID, ticketID string) error
}

type memoryAlertState struct {
	mu     sync.RWMutex
	levels map[string]domain.AlertLevel
}

// NewMemoryAlertStateStore creates a process-local store. State does not
// survive restarts; after a restart each ticket can re-alert once.
func NewMemoryAlertStateStore() AlertStateStore {
	return &memoryAlertState{levels: make(map[string]domain.AlertLevel)}
}

func alertKey(scopeID, ticketID string, kind domain.SLAKind) string {
	return scopeID + ":" + ticketID + ":" + string(kind)
}

func (s *memoryAlertState) LastLevel(_ context.Context, scopeID, ticketID string, kind domain.SLAKind) (domain.AlertLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[alertKey(scopeID, ticketID, kind)], nil
}

func (s *memoryAlertState) Record(_ context.Context, scopeID, ticketID string, kind domain.SLAKind, level domain.AlertLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[alertKey(scopeID, ticketID, kind)] = level
	return nil
}

func (s *memoryAlertState) Clear(_ context.Context, scopeID, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range []domain.SLAKind{domain.SLAKindResponse, domain.SLAKindResolution} {
		delete(s.levels, alertKey(scopeID, ticketID, kind))
	}
	return nil
}
