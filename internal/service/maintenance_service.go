package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// MaintenanceDeps bundles the maintenance service's collaborators.
type MaintenanceDeps struct {
	Windows repository.MaintenanceRepository
	Scopes  repository.ScopeRepository
	Logger  *zap.Logger
	Now     func() time.Time
}

// MaintenanceService manages the maintenance window schedule. Activation
// and completion are the monitor's job; this service only books and
// cancels windows.
type MaintenanceService struct {
	windows repository.MaintenanceRepository
	scopes  repository.ScopeRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewMaintenanceService creates the service.
func NewMaintenanceService(deps MaintenanceDeps) *MaintenanceService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		windows: deps.Windows,
		scopes:  deps.Scopes,
		logger:  deps.Logger,
		now:     now,
	}
}

// Schedule books a new window in SCHEDULED state.
func (s *MaintenanceService) Schedule(ctx context.Context, scopeID string, start, end time.Time, description, createdBy string) (*domain.MaintenanceWindow, error) {
	if !end.After(start) {
		return nil, apperrors.NewValidationError("window end must be after its start", map[string]any{
			"start_time": start,
			"end_time":   end,
		})
	}
	if !start.After(s.now()) {
		return nil, apperrors.NewValidationError("window must start in the future", map[string]any{
			"start_time": start,
		})
	}
	if _, err := s.scopes.Get(ctx, scopeID); err != nil {
		return nil, err
	}

	window := &domain.MaintenanceWindow{
		ID:          uuid.New().String(),
		ScopeID:     scopeID,
		StartTime:   start,
		EndTime:     end,
		Description: description,
		CreatedBy:   createdBy,
		Status:      domain.WindowStatusScheduled,
		CreatedAt:   s.now(),
	}
	if err := s.windows.Create(ctx, window); err != nil {
		return nil, err
	}

	s.logger.Info("maintenance window scheduled",
		zap.String("window_id", window.ID),
		zap.String("scope_id", scopeID),
		zap.Time("start_time", start),
		zap.Time("end_time", end))
	return window, nil
}

// List returns every window of the scope.
func (s *MaintenanceService) List(ctx context.Context, scopeID string) ([]domain.MaintenanceWindow, error) {
	return s.windows.ListByScope(ctx, scopeID)
}

// Cancel marks a SCHEDULED or ACTIVE window as CANCELLED.
func (s *MaintenanceService) Cancel(ctx context.Context, windowID string) (*domain.MaintenanceWindow, error) {
	window, err := s.windows.GetByID(ctx, windowID)
	if err != nil {
		return nil, err
	}
	if window.Status == domain.WindowStatusCompleted || window.Status == domain.WindowStatusCancelled {
		return nil, apperrors.NewValidationError("window is already finished", map[string]any{
			"window_id": windowID,
			"status":    string(window.Status),
		})
	}

	window.Status = domain.WindowStatusCancelled
	if err := s.windows.Save(ctx, window); err != nil {
		return nil, err
	}

	s.logger.Info("maintenance window cancelled",
		zap.String("window_id", window.ID),
		zap.String("scope_id", window.ScopeID))
	return window, nil
}
