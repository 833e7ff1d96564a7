package domain

import (
	"testing"
	"time"
)

func TestWindowShouldActivate(t *testing.T) {
	start := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	w := &MaintenanceWindow{Status: WindowStatusScheduled, StartTime: start, EndTime: end}

	if w.ShouldActivate(start.Add(-time.Minute)) {
		t.Fatalf("window activated before its start")
	}
	if !w.ShouldActivate(start) {
		t.Fatalf("window did not activate at its start")
	}
	if !w.ShouldActivate(start.Add(time.Hour)) {
		t.Fatalf("window did not activate mid-span")
	}

	w.Status = WindowStatusCancelled
	if w.ShouldActivate(start.Add(time.Hour)) {
		t.Fatalf("cancelled window activated")
	}
}

func TestWindowShouldComplete(t *testing.T) {
	start := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	active := &MaintenanceWindow{Status: WindowStatusActive, StartTime: start, EndTime: end}
	if active.ShouldComplete(end.Add(-time.Minute)) {
		t.Fatalf("active window completed before its end")
	}
	if !active.ShouldComplete(end) {
		t.Fatalf("active window did not complete at its end")
	}

	// A scheduled window whose whole span elapsed between passes
	// completes without ever activating.
	missed := &MaintenanceWindow{Status: WindowStatusScheduled, StartTime: start, EndTime: end}
	if !missed.ShouldComplete(end.Add(time.Minute)) {
		t.Fatalf("fully elapsed scheduled window did not complete")
	}
	if missed.ShouldComplete(start.Add(time.Hour)) {
		t.Fatalf("scheduled window completed mid-span")
	}
}
