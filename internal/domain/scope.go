package domain

import "time"

// ScopeConfig holds per-tenant settings the monitor needs. Tickets, SLA
// definitions and staff records are all partitioned by scope.
type ScopeConfig struct {
	ScopeID         string
	Name            string
	AutoCloseHours  int // 0 disables the auto-close scan for the scope
	AlertWebhookURL string
	CreatedAt       time.Time
}

// AutoCloseCutoff returns the last-activity cutoff before which tickets
// are force-closed, or the zero time when auto-close is disabled.
func (s *ScopeConfig) AutoCloseCutoff(now time.Time) time.Time {
	if s.AutoCloseHours <= 0 {
		return time.Time{}
	}
	return now.Add(-time.Duration(s.AutoCloseHours) * time.Hour)
}
