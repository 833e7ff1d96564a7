package domain

import "time"

// WindowStatus enumerates the lifecycle of a maintenance window. The
// scheduler moves windows SCHEDULED -> ACTIVE -> COMPLETED; operators may
// cancel a window before it completes.
type WindowStatus string

const (
	WindowStatusScheduled WindowStatus = "SCHEDULED"
	WindowStatusActive    WindowStatus = "ACTIVE"
	WindowStatusCompleted WindowStatus = "COMPLETED"
	WindowStatusCancelled WindowStatus = "CANCELLED"
)

// MaintenanceWindow is a pre-announced maintenance period for one scope.
type MaintenanceWindow struct {
	ID          string
	ScopeID     string
	StartTime   time.Time
	EndTime     time.Time
	Description string
	CreatedBy   string
	Status      WindowStatus
	CreatedAt   time.Time
}

// IsActive reports whether the window is the currently active one.
func (w *MaintenanceWindow) IsActive() bool {
	return w.Status == WindowStatusActive
}

// ShouldActivate reports whether the scheduler should flip the window to
// ACTIVE at the given time.
func (w *MaintenanceWindow) ShouldActivate(now time.Time) bool {
	return w.Status == WindowStatusScheduled &&
		!w.StartTime.After(now) && w.EndTime.After(now)
}

// ShouldComplete reports whether the scheduler should flip the window to
// COMPLETED at the given time.
func (w *MaintenanceWindow) ShouldComplete(now time.Time) bool {
	if w.Status == WindowStatusActive && !w.EndTime.After(now) {
		return true
	}
	// A scheduled window whose whole span elapsed between scans is
	// completed without ever activating.
	return w.Status == WindowStatusScheduled && !w.EndTime.After(now)
}
