package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// ScheduleWindowRequest books a maintenance window.
type ScheduleWindowRequest struct {
	ScopeID     string    `json:"scope_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
}

// WindowResponse is the API shape of a maintenance window.
type WindowResponse struct {
	ID          string    `json:"id"`
	ScopeID     string    `json:"scope_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// FromWindow maps the domain window to its API shape.
func FromWindow(w *domain.MaintenanceWindow) WindowResponse {
	return WindowResponse{
		ID:          w.ID,
		ScopeID:     w.ScopeID,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		Description: w.Description,
		CreatedBy:   w.CreatedBy,
		Status:      string(w.Status),
		CreatedAt:   w.CreatedAt,
	}
}

// FromWindows maps a window slice.
func FromWindows(windows []domain.MaintenanceWindow) []WindowResponse {
	out := make([]WindowResponse, 0, len(windows))
	for i := range windows {
		out = append(out, FromWindow(&windows[i]))
	}
	return out
}
