package domain

import (
	"time"

	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

// SLADefinition is the per-category time budget configured by
// administrators. Read-only to this core.
type SLADefinition struct {
	ID                string
	ScopeID           string
	CategoryID        string
	Name              string
	ResponseMinutes   int
	ResolutionMinutes int
}

// AlertLevel orders SLA severity. The ordering matters: the monitor only
// re-dispatches an alert when severity increases.
type AlertLevel int

const (
	AlertLevelOK AlertLevel = iota
	AlertLevelWarning
	AlertLevelBreached
)

func (l AlertLevel) String() string {
	switch l {
	case AlertLevelWarning:
		return "WARNING"
	case AlertLevelBreached:
		return "BREACHED"
	default:
		return "OK"
	}
}

// SLAKind distinguishes the two clocks a ticket runs against.
type SLAKind string

const (
	SLAKindResponse   SLAKind = "RESPONSE"
	SLAKindResolution SLAKind = "RESOLUTION"
)

// SLACheck is the outcome of a single clock evaluation.
type SLACheck struct {
	Kind           SLAKind
	Level          AlertLevel
	ElapsedMinutes float64
	BudgetMinutes  int
	Percentage     float64
}

// SLAStatus carries both checks plus the combined level. A response
// breach takes precedence for Level, but callers alert on each check
// independently so a later resolution breach still raises its own alert.
type SLAStatus struct {
	Level      AlertLevel
	Response   SLACheck
	Resolution SLACheck
}

// DefaultWarningThreshold is the percentage of the resolution budget at
// which the clock reports WARNING.
const DefaultWarningThreshold = 75.0

// EvaluateSLA runs the SLA clock for a ticket against its category's
// definition. warnThreshold <= 0 falls back to DefaultWarningThreshold.
func EvaluateSLA(t *Ticket, def *SLADefinition, now time.Time, warnThreshold float64) (*SLAStatus, error) {
	if def.ResponseMinutes <= 0 || def.ResolutionMinutes <= 0 {
		return nil, apperrors.NewConfigurationError("SLA budgets must be positive minutes", map[string]any{
			"sla_id":             def.ID,
			"response_minutes":   def.ResponseMinutes,
			"resolution_minutes": def.ResolutionMinutes,
		})
	}
	if warnThreshold <= 0 {
		warnThreshold = DefaultWarningThreshold
	}

	elapsed := now.Sub(t.OpenedAt).Minutes()
	if elapsed < 0 {
		elapsed = 0
	}

	response := SLACheck{
		Kind:           SLAKindResponse,
		Level:          AlertLevelOK,
		ElapsedMinutes: elapsed,
		BudgetMinutes:  def.ResponseMinutes,
		Percentage:     capPercentage(elapsed / float64(def.ResponseMinutes) * 100),
	}
	if t.LastStaffResponseAt == nil && elapsed > float64(def.ResponseMinutes) {
		response.Level = AlertLevelBreached
		response.Percentage = 100
	}

	resolution := SLACheck{
		Kind:           SLAKindResolution,
		ElapsedMinutes: elapsed,
		BudgetMinutes:  def.ResolutionMinutes,
		Percentage:     capPercentage(elapsed / float64(def.ResolutionMinutes) * 100),
	}
	switch {
	case resolution.Percentage >= 100:
		resolution.Level = AlertLevelBreached
	case resolution.Percentage >= warnThreshold:
		resolution.Level = AlertLevelWarning
	default:
		resolution.Level = AlertLevelOK
	}

	level := resolution.Level
	if response.Level > level {
		level = response.Level
	}

	return &SLAStatus{Level: level, Response: response, Resolution: resolution}, nil
}

func capPercentage(pct float64) float64 {
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
