package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

func attendanceRecord(studentID, classID string, status entity.AttendanceStatus, size int, at time.Time) entity.AttendanceRecord {
	return entity.AttendanceRecord{
		StudentID: studentID,
		ClassID:   classID,
		Status:    status,
		ClassSize: size,
		StartsAt:  at,
	}
}

func TestGenerateLearningAnalytics(t *testing.T) {
	students := newFakeStudentRepo()
	feedback := &fakeFeedbackRepo{}
	attendance := &fakeAttendanceRepo{peers: map[string][]string{"s1": {"s3", "s2"}}}

	students.students["s1"] = entity.Student{ID: "s1", LearningStyle: entity.StyleVisual}

	base := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC) // a Monday
	// Two weeks of history: three attended classes, one absence.
	attendance.records = []entity.AttendanceRecord{
		attendanceRecord("s1", "k1", entity.AttendancePresent, 4, base),
		attendanceRecord("s1", "k2", entity.AttendancePresent, 6, base.AddDate(0, 0, 3)),
		attendanceRecord("s1", "k3", entity.AttendanceLate, 4, base.AddDate(0, 0, 7)),
		attendanceRecord("s1", "k4", entity.AttendanceAbsent, 4, base.AddDate(0, 0, 14)),
	}
	feedback.entries = []entity.FeedbackEntry{
		{StudentID: "s1", ClassID: "k1", Rating: 5, CreatedAt: base},
		{StudentID: "s1", ClassID: "k2", Rating: 3, CreatedAt: base.AddDate(0, 0, 3)},
		{StudentID: "s1", ClassID: "k3", Rating: 4, CreatedAt: base.AddDate(0, 0, 7)},
	}

	estimator := NewAnalyticsEstimator(students, feedback, attendance, nil)
	got, err := estimator.GenerateLearningAnalytics(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GenerateLearningAnalytics: %v", err)
	}

	// 3 attended over a 2-week span.
	if got.LearningVelocity != 1.5 {
		t.Fatalf("velocity = %v, want 1.5", got.LearningVelocity)
	}
	// 2 of 3 ratings >= 4.
	if got.RetentionRate < 66.6 || got.RetentionRate > 66.7 {
		t.Fatalf("retention = %v, want ~66.67", got.RetentionRate)
	}
	// 40*(2/4 present) + 60*(4/5 avg rating) = 20 + 48.
	if got.EngagementScore != 68 {
		t.Fatalf("engagement = %v, want 68", got.EngagementScore)
	}
	// Size 4 averages (5+4)/2 = 4.5, size 6 averages 3.
	if got.OptimalClassSize != 4 {
		t.Fatalf("optimal class size = %d, want 4", got.OptimalClassSize)
	}
	if got.PreferredLearningStyle != entity.StyleVisual {
		t.Fatalf("style = %s, want visual", got.PreferredLearningStyle)
	}
	if len(got.PeerCompatibility) != 2 || got.PeerCompatibility[0] != "s2" {
		t.Fatalf("peers = %v, want sorted [s2 s3]", got.PeerCompatibility)
	}
	if len(got.BestTimeSlots) == 0 {
		t.Fatalf("best time slots empty")
	}
	if first := got.BestTimeSlots[0]; first.Weekday != time.Monday || first.Hour != 9 {
		t.Fatalf("top slot = %+v, want Monday 9", first)
	}
}

func TestGenerateLearningAnalyticsLateCountsAttendedNotPresent(t *testing.T) {
	students := newFakeStudentRepo()
	students.students["s1"] = entity.Student{ID: "s1"}
	attendance := &fakeAttendanceRepo{records: []entity.AttendanceRecord{
		attendanceRecord("s1", "k1", entity.AttendanceLate, 4, time.Now()),
	}}

	estimator := NewAnalyticsEstimator(students, &fakeFeedbackRepo{}, attendance, nil)
	got, err := estimator.GenerateLearningAnalytics(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GenerateLearningAnalytics: %v", err)
	}
	// Late counts toward velocity but not toward the present-only buckets.
	if got.LearningVelocity != 1 {
		t.Fatalf("velocity = %v, want 1", got.LearningVelocity)
	}
	if len(got.BestTimeSlots) != 0 {
		t.Fatalf("late attendance produced best slots %v", got.BestTimeSlots)
	}
}

func TestGenerateLearningAnalyticsEmptyHistory(t *testing.T) {
	students := newFakeStudentRepo()
	students.students["s1"] = entity.Student{ID: "s1"}

	estimator := NewAnalyticsEstimator(students, &fakeFeedbackRepo{}, &fakeAttendanceRepo{}, nil)
	got, err := estimator.GenerateLearningAnalytics(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GenerateLearningAnalytics: %v", err)
	}
	if got.LearningVelocity != 0 || got.RetentionRate != 0 || got.EngagementScore != 0 {
		t.Fatalf("empty history produced non-zero rates: %+v", got)
	}
	if got.OptimalClassSize != defaultOptimalClassSize {
		t.Fatalf("optimal class size = %d, want default %d", got.OptimalClassSize, defaultOptimalClassSize)
	}
	if got.PreferredLearningStyle != entity.StyleMixed {
		t.Fatalf("style = %s, want mixed fallback", got.PreferredLearningStyle)
	}
}

func TestGenerateLearningAnalyticsCache(t *testing.T) {
	students := newFakeStudentRepo()
	students.students["s1"] = entity.Student{ID: "s1"}
	cache := &fakeAnalyticsCache{}

	estimator := NewAnalyticsEstimator(students, &fakeFeedbackRepo{}, &fakeAttendanceRepo{}, cache)

	if _, err := estimator.GenerateLearningAnalytics(context.Background(), "s1"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	got, err := estimator.GenerateLearningAnalytics(context.Background(), "s1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if got.StudentID != "s1" {
		t.Fatalf("cached analytics for %s", got.StudentID)
	}
	if cache.sets != 1 {
		t.Fatalf("cache hit recomputed analytics, sets = %d", cache.sets)
	}
}

func TestGenerateLearningAnalyticsUnknownStudentBypassesCache(t *testing.T) {
	cache := &fakeAnalyticsCache{entries: map[string]entity.LearningAnalytics{
		"ghost": {StudentID: "ghost"},
	}}
	estimator := NewAnalyticsEstimator(newFakeStudentRepo(), &fakeFeedbackRepo{}, &fakeAttendanceRepo{}, cache)

	_, err := estimator.GenerateLearningAnalytics(context.Background(), "ghost")
	if !errors.Is(err, entity.ErrStudentNotFound) {
		t.Fatalf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestTopicPerformance(t *testing.T) {
	history := []entity.FeedbackEntry{
		{Rating: 2, AreasForImprovement: []string{"grammar"}},
		{Rating: 4, AreasForImprovement: []string{"grammar", "listening"}},
	}
	got := topicPerformance(history)
	if len(got) != 2 {
		t.Fatalf("got %d topics, want 2", len(got))
	}
	// Sorted alphabetically: grammar first.
	if got[0].Topic != "grammar" || got[0].MasteryLevel != 60 || !got[0].RequiresReview {
		t.Fatalf("grammar = %+v", got[0])
	}
	if got[1].Topic != "listening" || got[1].MasteryLevel != 80 || got[1].RequiresReview {
		t.Fatalf("listening = %+v", got[1])
	}
}
