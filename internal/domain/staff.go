package domain

import "time"

// StaffPerformanceRecord aggregates handling metrics for one staff member
// within one scope. Averages are nil until at least one closed ticket has
// been considered; they are never zeroed by an empty recomputation.
type StaffPerformanceRecord struct {
	ScopeID              string
	StaffID              string
	TicketsHandled       int
	AvgResponseSeconds   *float64
	AvgResolutionSeconds *float64
	SLAComplianceRate    *float64
	OnDuty               bool
	OnDutySince          *time.Time
	LastUpdated          time.Time
}

// Clone returns a copy safe to mutate during recomputation.
func (r *StaffPerformanceRecord) Clone() *StaffPerformanceRecord {
	clone := *r
	clone.AvgResponseSeconds = clonePtr(r.AvgResponseSeconds)
	clone.AvgResolutionSeconds = clonePtr(r.AvgResolutionSeconds)
	clone.SLAComplianceRate = clonePtr(r.SLAComplianceRate)
	clone.OnDutySince = clonePtr(r.OnDutySince)
	return &clone
}
