package dto

import (
	"time"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
)

// StaffPerformanceResponse is the API shape of a performance record.
type StaffPerformanceResponse struct {
	ScopeID              string     `json:"scope_id"`
	StaffID              string     `json:"staff_id"`
	TicketsHandled       int        `json:"tickets_handled"`
	AvgResponseSeconds   *float64   `json:"avg_response_seconds,omitempty"`
	AvgResolutionSeconds *float64   `json:"avg_resolution_seconds,omitempty"`
	SLAComplianceRate    *float64   `json:"sla_compliance_rate,omitempty"`
	OnDuty               bool       `json:"on_duty"`
	OnDutySince          *time.Time `json:"on_duty_since,omitempty"`
	LastUpdated          time.Time  `json:"last_updated"`
}

// FromStaffPerformance maps the domain record to its API shape.
func FromStaffPerformance(r *domain.StaffPerformanceRecord) StaffPerformanceResponse {
	return StaffPerformanceResponse{
		ScopeID:              r.ScopeID,
		StaffID:              r.StaffID,
		TicketsHandled:       r.TicketsHandled,
		AvgResponseSeconds:   r.AvgResponseSeconds,
		AvgResolutionSeconds: r.AvgResolutionSeconds,
		SLAComplianceRate:    r.SLAComplianceRate,
		OnDuty:               r.OnDuty,
		OnDutySince:          r.OnDutySince,
		LastUpdated:          r.LastUpdated,
	}
}
