package entity

import (
	"testing"
	"time"
)

func TestClassSpotsLeft(t *testing.T) {
	if got := (Class{Capacity: 9, Enrolled: 4}).SpotsLeft(); got != 5 {
		t.Errorf("SpotsLeft = %d, want 5", got)
	}
	if got := (Class{Capacity: 9, Enrolled: 9}).SpotsLeft(); got != 0 {
		t.Errorf("full class SpotsLeft = %d, want 0", got)
	}
	// Overbooked data must not go negative.
	if got := (Class{Capacity: 9, Enrolled: 11}).SpotsLeft(); got != 0 {
		t.Errorf("overbooked SpotsLeft = %d, want 0", got)
	}
}

func TestClassOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	class := Class{ScheduledTime: base, DurationMinutes: 60}

	if !class.Overlaps(base.Add(30*time.Minute), 60) {
		t.Errorf("9:30-10:30 should overlap 9:00-10:00")
	}
	if class.Overlaps(base.Add(60*time.Minute), 60) {
		t.Errorf("back-to-back intervals should not overlap")
	}
	if class.Overlaps(base.Add(-45*time.Minute), 45) {
		t.Errorf("interval ending at class start should not overlap")
	}
	if !class.Overlaps(base.Add(-30*time.Minute), 45) {
		t.Errorf("8:30-9:15 should overlap 9:00-10:00")
	}
}
