package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// In-memory repository implementations. They back the test suite and let
// the service boot without a Postgres DSN, and they honor the same
// version-guard semantics as the Postgres implementations.

type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

// NewMemoryTicketRepository returns an empty in-memory ticket store.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.Version = 1
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return ticket.Clone(), nil
}

func (r *memoryTicketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	if stored.Version != ticket.Version {
		return apperrors.NewWriteConflict("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	ticket.Version++
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *memoryTicketRepository) ListOpen(ctx context.Context, scopeID string) ([]domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool {
		return t.ScopeID == scopeID && !t.Status.Terminal()
	})
}

func (r *memoryTicketRepository) ListInactiveSince(ctx context.Context, scopeID string, cutoff time.Time) ([]domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool {
		return t.ScopeID == scopeID && !t.Status.Terminal() && !t.LastActivityAt().After(cutoff)
	})
}

func (r *memoryTicketRepository) ListClosedForStaff(ctx context.Context, scopeID, staffID string, since time.Time) ([]domain.Ticket, error) {
	return r.list(func(t *domain.Ticket) bool {
		return t.ScopeID == scopeID &&
			t.Status == domain.TicketStatusClosed &&
			t.ClaimedByID != nil && *t.ClaimedByID == staffID &&
			t.ClosedAt != nil && !t.ClosedAt.Before(since)
	})
}

func (r *memoryTicketRepository) ListStaffWithClosedSince(ctx context.Context, scopeID string, since time.Time) ([]string, error) {
	closed, err := r.list(func(t *domain.Ticket) bool {
		return t.ScopeID == scopeID &&
			t.Status == domain.TicketStatusClosed &&
			t.ClaimedByID != nil &&
			t.ClosedAt != nil && !t.ClosedAt.Before(since)
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var result []string
	for i := range closed {
		staffID := *closed[i].ClaimedByID
		if !seen[staffID] {
			seen[staffID] = true
			result = append(result, staffID)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (r *memoryTicketRepository) list(match func(*domain.Ticket) bool) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if match(ticket) {
			result = append(result, *ticket.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OpenedAt.Equal(result[j].OpenedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})
	return result, nil
}

// MemorySLARepository is an in-memory SLA definition store with a Put
// method for seeding.
type MemorySLARepository struct {
	mu   sync.RWMutex
	defs map[string]*domain.SLADefinition
}

// NewMemorySLARepository returns an empty in-memory SLA store.
func NewMemorySLARepository() *MemorySLARepository {
	return &MemorySLARepository{defs: make(map[string]*domain.SLADefinition)}
}

// Put seeds or replaces a definition.
func (r *MemorySLARepository) Put(def *domain.SLADefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *def
	r.defs[def.ScopeID+"/"+def.CategoryID] = &copied
}

func (r *MemorySLARepository) GetByCategory(ctx context.Context, scopeID, categoryID string) (*domain.SLADefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[scopeID+"/"+categoryID]
	if !ok {
		return nil, apperrors.NewNotFound("sla definition", map[string]any{
			"scope_id":    scopeID,
			"category_id": categoryID,
		})
	}
	copied := *def
	return &copied, nil
}

type memoryMaintenanceRepository struct {
	mu      sync.RWMutex
	windows map[string]*domain.MaintenanceWindow
}

// NewMemoryMaintenanceRepository returns an empty in-memory window store.
func NewMemoryMaintenanceRepository() MaintenanceRepository {
	return &memoryMaintenanceRepository{windows: make(map[string]*domain.MaintenanceWindow)}
}

func (r *memoryMaintenanceRepository) Create(ctx context.Context, window *domain.MaintenanceWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = time.Now().UTC()
	}
	copied := *window
	r.windows[window.ID] = &copied
	return nil
}

func (r *memoryMaintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	window, ok := r.windows[id]
	if !ok {
		return nil, apperrors.NewNotFound("maintenance window", map[string]any{"window_id": id})
	}
	copied := *window
	return &copied, nil
}

func (r *memoryMaintenanceRepository) Save(ctx context.Context, window *domain.MaintenanceWindow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.windows[window.ID]; !ok {
		return apperrors.NewNotFound("maintenance window", map[string]any{"window_id": window.ID})
	}
	copied := *window
	r.windows[window.ID] = &copied
	return nil
}

func (r *memoryMaintenanceRepository) ListByScope(ctx context.Context, scopeID string) ([]domain.MaintenanceWindow, error) {
	return r.listWindows(func(w *domain.MaintenanceWindow) bool {
		return w.ScopeID == scopeID
	})
}

func (r *memoryMaintenanceRepository) ListUnfinished(ctx context.Context) ([]domain.MaintenanceWindow, error) {
	return r.listWindows(func(w *domain.MaintenanceWindow) bool {
		return w.Status == domain.WindowStatusScheduled || w.Status == domain.WindowStatusActive
	})
}

func (r *memoryMaintenanceRepository) listWindows(match func(*domain.MaintenanceWindow) bool) ([]domain.MaintenanceWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.MaintenanceWindow
	for _, window := range r.windows {
		if match(window) {
			result = append(result, *window)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result, nil
}

type memoryStaffPerformanceRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.StaffPerformanceRecord
}

// NewMemoryStaffPerformanceRepository returns an empty in-memory metrics store.
func NewMemoryStaffPerformanceRepository() StaffPerformanceRepository {
	return &memoryStaffPerformanceRepository{records: make(map[string]*domain.StaffPerformanceRecord)}
}

func (r *memoryStaffPerformanceRepository) Get(ctx context.Context, scopeID, staffID string) (*domain.StaffPerformanceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[scopeID+"/"+staffID]
	if !ok {
		return nil, apperrors.NewNotFound("staff performance record", map[string]any{
			"scope_id": scopeID,
			"staff_id": staffID,
		})
	}
	return record.Clone(), nil
}

func (r *memoryStaffPerformanceRepository) Upsert(ctx context.Context, record *domain.StaffPerformanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ScopeID+"/"+record.StaffID] = record.Clone()
	return nil
}

// MemoryScopeRepository is an in-memory scope store with a Put method for
// seeding.
type MemoryScopeRepository struct {
	mu     sync.RWMutex
	scopes map[string]*domain.ScopeConfig
}

// NewMemoryScopeRepository returns an empty in-memory scope store.
func NewMemoryScopeRepository() *MemoryScopeRepository {
	return &MemoryScopeRepository{scopes: make(map[string]*domain.ScopeConfig)}
}

// Put seeds or replaces a scope config.
func (r *MemoryScopeRepository) Put(scope *domain.ScopeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *scope
	r.scopes[scope.ScopeID] = &copied
}

func (r *MemoryScopeRepository) Get(ctx context.Context, scopeID string) (*domain.ScopeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scope, ok := r.scopes[scopeID]
	if !ok {
		return nil, apperrors.NewNotFound("scope", map[string]any{"scope_id": scopeID})
	}
	copied := *scope
	return &copied, nil
}

func (r *MemoryScopeRepository) List(ctx context.Context) ([]domain.ScopeConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.ScopeConfig
	for _, scope := range r.scopes {
		result = append(result, *scope)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScopeID < result[j].ScopeID
	})
	return result, nil
}
