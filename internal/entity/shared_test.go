package entity

import (
	"testing"
	"time"
)

func TestParseCourseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want CourseLevel
	}{
		{"beginner", LevelBeginner},
		{" Beginner ", LevelBeginner},
		{"upper_intermediate", LevelUpper},
		{"upper-intermediate", LevelUpper},
		{"ADVANCED", LevelAdvanced},
		{"expert", LevelUnspecified},
		{"", LevelUnspecified},
	}
	for _, tc := range cases {
		if got := ParseCourseLevel(tc.raw); got != tc.want {
			t.Errorf("ParseCourseLevel(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestUrgencyForScoreBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  UrgencyLevel
	}{
		{0, UrgencyLow},
		{39.9, UrgencyLow},
		{40, UrgencyMedium},
		{59.9, UrgencyMedium},
		{60, UrgencyHigh},
		{79.9, UrgencyHigh},
		{80, UrgencyUrgent},
		{100, UrgencyUrgent},
	}
	for _, tc := range cases {
		if got := UrgencyForScore(tc.score); got != tc.want {
			t.Errorf("UrgencyForScore(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}

	// Monotonicity over the full range.
	prev := UrgencyForScore(0).Rank()
	for score := 1.0; score <= 100; score++ {
		rank := UrgencyForScore(score).Rank()
		if rank < prev {
			t.Fatalf("urgency rank dropped at score %v", score)
		}
		prev = rank
	}
}

func TestPaceForLessonsPerWeek(t *testing.T) {
	if got := PaceForLessonsPerWeek(0.5); got != PaceSlow {
		t.Errorf("0.5 lessons/week = %q, want slow", got)
	}
	if got := PaceForLessonsPerWeek(1); got != PaceAverage {
		t.Errorf("1 lesson/week = %q, want average", got)
	}
	if got := PaceForLessonsPerWeek(3); got != PaceAverage {
		t.Errorf("3 lessons/week = %q, want average", got)
	}
	if got := PaceForLessonsPerWeek(3.1); got != PaceFast {
		t.Errorf("3.1 lessons/week = %q, want fast", got)
	}
}

func TestLessonKeyOrdering(t *testing.T) {
	if !(LessonKey{Unit: 1, Lesson: 9}).Before(LessonKey{Unit: 2, Lesson: 1}) {
		t.Errorf("1-9 should come before 2-1")
	}
	if !(LessonKey{Unit: 2, Lesson: 1}).Before(LessonKey{Unit: 2, Lesson: 2}) {
		t.Errorf("2-1 should come before 2-2")
	}
	if (LessonKey{Unit: 2, Lesson: 2}).Before(LessonKey{Unit: 2, Lesson: 2}) {
		t.Errorf("a key should not come before itself")
	}
	if got := (LessonKey{Unit: 3, Lesson: 7}).String(); got != "3-7" {
		t.Errorf("String() = %q, want 3-7", got)
	}
}

func TestTimeSlotNextOccurrence(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday9 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	slot := TimeSlot{Weekday: time.Wednesday, Hour: 14}
	got := slot.NextOccurrence(monday9)
	want := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("NextOccurrence = %v, want %v", got, want)
	}

	// Same instant matches.
	slot = TimeSlot{Weekday: time.Monday, Hour: 9}
	if got := slot.NextOccurrence(monday9); !got.Equal(monday9) {
		t.Errorf("exact match should return from, got %v", got)
	}

	// Earlier hour on the same weekday rolls to next week.
	slot = TimeSlot{Weekday: time.Monday, Hour: 8}
	got = slot.NextOccurrence(monday9)
	want = time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("past-hour slot = %v, want %v", got, want)
	}
}
