package domain

import (
	"testing"
	"time"

	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

func slaDef(responseMin, resolutionMin int) *SLADefinition {
	return &SLADefinition{
		ID:                "sla-1",
		ScopeID:           "scope-1",
		CategoryID:        "cat-1",
		Name:              "standard",
		ResponseMinutes:   responseMin,
		ResolutionMinutes: resolutionMin,
	}
}

func TestEvaluateSLAResponseBreach(t *testing.T) {
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &Ticket{Status: TicketStatusOpen, OpenedAt: opened}

	// 61 minutes elapsed against a 60 minute response budget, no staff
	// response yet.
	status, err := EvaluateSLA(ticket, slaDef(60, 480), opened.Add(61*time.Minute), 0)
	if err != nil {
		t.Fatalf("EvaluateSLA returned error: %v", err)
	}
	if status.Response.Level != AlertLevelBreached {
		t.Fatalf("response level = %s, want BREACHED", status.Response.Level)
	}
	if status.Response.Percentage != 100 {
		t.Fatalf("response percentage = %v, want 100", status.Response.Percentage)
	}
	if status.Level != AlertLevelBreached {
		t.Fatalf("combined level = %s, want BREACHED", status.Level)
	}
}

func TestEvaluateSLAResponseSatisfiedByStaffReply(t *testing.T) {
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	responded := opened.Add(10 * time.Minute)
	ticket := &Ticket{Status: TicketStatusInProgress, OpenedAt: opened, LastStaffResponseAt: &responded}

	status, err := EvaluateSLA(ticket, slaDef(60, 480), opened.Add(2*time.Hour), 0)
	if err != nil {
		t.Fatalf("EvaluateSLA returned error: %v", err)
	}
	if status.Response.Level != AlertLevelOK {
		t.Fatalf("response level = %s, want OK after staff reply", status.Response.Level)
	}
}

func TestEvaluateSLAWarningBoundary(t *testing.T) {
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	responded := opened.Add(time.Minute)
	ticket := &Ticket{Status: TicketStatusInProgress, OpenedAt: opened, LastStaffResponseAt: &responded}

	// 90 of 120 minutes is exactly the default 75% threshold.
	status, err := EvaluateSLA(ticket, slaDef(60, 120), opened.Add(90*time.Minute), 0)
	if err != nil {
		t.Fatalf("EvaluateSLA returned error: %v", err)
	}
	if status.Resolution.Level != AlertLevelWarning {
		t.Fatalf("resolution level = %s, want WARNING at threshold", status.Resolution.Level)
	}
	if status.Resolution.Percentage != 75 {
		t.Fatalf("resolution percentage = %v, want 75", status.Resolution.Percentage)
	}
}

func TestEvaluateSLAResolutionBreachCapsPercentage(t *testing.T) {
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	responded := opened.Add(time.Minute)
	ticket := &Ticket{Status: TicketStatusInProgress, OpenedAt: opened, LastStaffResponseAt: &responded}

	status, err := EvaluateSLA(ticket, slaDef(60, 120), opened.Add(300*time.Minute), 0)
	if err != nil {
		t.Fatalf("EvaluateSLA returned error: %v", err)
	}
	if status.Resolution.Level != AlertLevelBreached {
		t.Fatalf("resolution level = %s, want BREACHED", status.Resolution.Level)
	}
	if status.Resolution.Percentage != 100 {
		t.Fatalf("resolution percentage = %v, want capped at 100", status.Resolution.Percentage)
	}
}

func TestEvaluateSLAZeroBudget(t *testing.T) {
	ticket := &Ticket{Status: TicketStatusOpen, OpenedAt: time.Now()}

	_, err := EvaluateSLA(ticket, slaDef(0, 480), time.Now(), 0)
	if !apperrors.IsCode(err, apperrors.CodeConfigurationError) {
		t.Fatalf("expected CONFIGURATION_ERROR for zero budget, got %v", err)
	}

	_, err = EvaluateSLA(ticket, slaDef(60, -5), time.Now(), 0)
	if !apperrors.IsCode(err, apperrors.CodeConfigurationError) {
		t.Fatalf("expected CONFIGURATION_ERROR for negative budget, got %v", err)
	}
}

func TestEvaluateSLACustomWarningThreshold(t *testing.T) {
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	responded := opened.Add(time.Minute)
	ticket := &Ticket{Status: TicketStatusInProgress, OpenedAt: opened, LastStaffResponseAt: &responded}

	status, err := EvaluateSLA(ticket, slaDef(60, 120), opened.Add(60*time.Minute), 50)
	if err != nil {
		t.Fatalf("EvaluateSLA returned error: %v", err)
	}
	if status.Resolution.Level != AlertLevelWarning {
		t.Fatalf("resolution level = %s, want WARNING at 50%% threshold", status.Resolution.Level)
	}
}
