package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/domain"
	"github.com/spec-kit/ticket-lifecycle/internal/repository"
	apperrors "github.com/spec-kit/ticket-lifecycle/pkg/util"
)

func newMaintenanceFixture(now time.Time) (*MaintenanceService, repository.MaintenanceRepository) {
	windows := repository.NewMemoryMaintenanceRepository()
	scopes := repository.NewMemoryScopeRepository()
	scopes.Put(&domain.ScopeConfig{ScopeID: testScope, Name: "support"})

	svc := NewMaintenanceService(MaintenanceDeps{
		Windows: windows,
		Scopes:  scopes,
		Logger:  zap.NewNop(),
		Now:     func() time.Time { return now },
	})
	return svc, windows
}

func TestScheduleWindow(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	svc, windows := newMaintenanceFixture(now)
	ctx := context.Background()

	window, err := svc.Schedule(ctx, testScope, now.Add(time.Hour), now.Add(3*time.Hour), "db upgrade", "alice")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if window.Status != domain.WindowStatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED", window.Status)
	}

	stored, err := windows.GetByID(ctx, window.ID)
	if err != nil {
		t.Fatalf("stored window missing: %v", err)
	}
	if stored.CreatedBy != "alice" {
		t.Fatalf("created_by = %s, want alice", stored.CreatedBy)
	}
}

func TestScheduleWindowValidation(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	svc, _ := newMaintenanceFixture(now)
	ctx := context.Background()

	// End before start.
	_, err := svc.Schedule(ctx, testScope, now.Add(3*time.Hour), now.Add(time.Hour), "", "alice")
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED for inverted span, got %v", err)
	}

	// Start not in the future.
	_, err = svc.Schedule(ctx, testScope, now.Add(-time.Minute), now.Add(time.Hour), "", "alice")
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED for past start, got %v", err)
	}

	// Unknown scope.
	_, err = svc.Schedule(ctx, "nope", now.Add(time.Hour), now.Add(2*time.Hour), "", "alice")
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for unknown scope, got %v", err)
	}
}

func TestCancelWindow(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	svc, _ := newMaintenanceFixture(now)
	ctx := context.Background()

	window, err := svc.Schedule(ctx, testScope, now.Add(time.Hour), now.Add(3*time.Hour), "", "alice")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, window.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.WindowStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}

	// Cancelling twice fails.
	if _, err := svc.Cancel(ctx, window.ID); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("expected VALIDATION_FAILED on second cancel, got %v", err)
	}
}
