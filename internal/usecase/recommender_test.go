package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// recommenderFixture is a student, a full preferred class, and a handful of
// open candidates at the same level.
type recommenderFixture struct {
	students   *fakeStudentRepo
	classes    *fakeClassRepo
	curriculum *fakeCurriculumRepo
	feedback   *fakeFeedbackRepo
	waitlist   *fakeWaitlistRepo
	rec        *recommender
	base       time.Time
}

func newRecommenderFixture(t *testing.T) *recommenderFixture {
	t.Helper()
	f := &recommenderFixture{
		students:   newFakeStudentRepo(),
		classes:    &fakeClassRepo{booked: make(map[string][]entity.Class)},
		curriculum: newFakeCurriculumRepo(),
		feedback:   &fakeFeedbackRepo{},
		waitlist:   &fakeWaitlistRepo{lengths: make(map[string]int)},
		base:       time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), // a Tuesday
	}

	f.students.students["s1"] = entity.Student{ID: "s1", Level: entity.LevelIntermediate}
	f.students.enrollments = []entity.Enrollment{
		{StudentID: "s1", CourseID: "c1", CurrentUnit: 2, CurrentLesson: 1},
	}

	for _, id := range []string{"a", "b", "c", "d"} {
		item := contentItem("item-"+id, "c1", 2, 2, 4)
		if err := f.curriculum.UpsertContentItem(context.Background(), &item); err != nil {
			t.Fatalf("seed content: %v", err)
		}
	}

	// The class the student wanted: full.
	f.classes.classes = []entity.Class{{
		ID:              "pref",
		CourseID:        "c1",
		TeacherID:       "t-pref",
		Level:           entity.LevelIntermediate,
		ClassType:       entity.ClassGroup,
		ScheduledTime:   f.base,
		DurationMinutes: 60,
		Capacity:        4,
		Enrolled:        4,
		ContentItemIDs:  []string{"item-a", "item-b", "item-c"},
	}}

	analytics := NewAnalyticsEstimator(f.students, f.feedback, &fakeAttendanceRepo{}, nil)
	f.rec = NewRecommender(
		f.students, f.classes, f.curriculum, f.feedback, f.waitlist,
		analytics, entity.RecommendationWeights{}, fixedDistance{km: 3}, quietLogger(),
	).(*recommender)
	return f
}

func (f *recommenderFixture) addClass(class entity.Class) {
	if class.Level == "" {
		class.Level = entity.LevelIntermediate
	}
	if class.DurationMinutes == 0 {
		class.DurationMinutes = 60
	}
	f.classes.classes = append(f.classes.classes, class)
}

func TestFindAlternativesContentPool(t *testing.T) {
	f := newRecommenderFixture(t)
	// Two of the three preferred items: 66% overlap, in the content pool.
	f.addClass(entity.Class{
		ID:             "alt-content",
		CourseID:       "c9",
		TeacherID:      "t2",
		ScheduledTime:  f.base.AddDate(0, 0, 1),
		Capacity:       6,
		Enrolled:       2,
		ContentItemIDs: []string{"item-a", "item-b", "item-d"},
	})
	// Unrelated course, no overlap, unrated teacher: belongs to no pool.
	f.addClass(entity.Class{
		ID:            "no-pool",
		CourseID:      "c9",
		TeacherID:     "t9",
		ScheduledTime: f.base.AddDate(0, 0, 2),
		Capacity:      6,
	})

	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d recommendations, want only the content match", len(got))
	}

	rec := got[0]
	if rec.AlternativeClass.ID != "alt-content" {
		t.Fatalf("recommended %s, want alt-content", rec.AlternativeClass.ID)
	}
	if rec.Breakdown.ContentSimilarity < 66 || rec.Breakdown.ContentSimilarity > 67 {
		t.Fatalf("content similarity = %v, want ~66.7", rec.Breakdown.ContentSimilarity)
	}
	if rec.Availability != entity.AvailabilityImmediate {
		t.Fatalf("availability = %s, want immediate", rec.Availability)
	}
	if rec.ConfidenceLevel < minConfidenceLevel || rec.ConfidenceLevel > 1 {
		t.Fatalf("confidence %v out of range", rec.ConfidenceLevel)
	}
	if rec.Reasoning == "" || len(rec.Benefits) == 0 {
		t.Fatalf("missing reasoning or benefits")
	}
}

func TestFindAlternativesTimePool(t *testing.T) {
	f := newRecommenderFixture(t)
	// Same course two days later, inside a requested window: the
	// time-alternative pool.
	f.addClass(entity.Class{
		ID:            "alt-time",
		CourseID:      "c1",
		TeacherID:     "t2",
		ScheduledTime: f.base.AddDate(0, 0, 2), // Thursday 10:00
		Capacity:      4,
		Enrolled:      3,
	})

	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
		TimeWindows:      []entity.TimeSlot{{Weekday: time.Thursday, Hour: 10}},
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 1 || got[0].AlternativeClass.ID != "alt-time" {
		t.Fatalf("got %v, want [alt-time]", got)
	}
	if got[0].Type != entity.RecommendationTimeAlternative {
		t.Fatalf("type = %s, want time_alternative", got[0].Type)
	}
	if got[0].Availability != entity.AvailabilityLimitedSpots {
		t.Fatalf("availability = %s, want limited_spots", got[0].Availability)
	}
}

func TestFindAlternativesTimePoolRespectsStoredAvailability(t *testing.T) {
	f := newRecommenderFixture(t)
	f.addClass(entity.Class{
		ID:            "alt-time",
		CourseID:      "c1",
		TeacherID:     "t2",
		ScheduledTime: f.base.AddDate(0, 0, 2), // Thursday 10:00
		Capacity:      4,
	})

	// The stored weekly availability does not cover Thursday mornings.
	f.students.availability["s1"] = []entity.TimeSlot{{Weekday: time.Monday, Hour: 9}}
	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("class outside stored availability recommended: %v", got)
	}

	f.students.availability["s1"] = []entity.TimeSlot{{Weekday: time.Thursday, Hour: 10}}
	got, err = f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 1 || got[0].AlternativeClass.ID != "alt-time" {
		t.Fatalf("got %v, want [alt-time] once availability covers the slot", got)
	}
}

func TestFindAlternativesTeacherPool(t *testing.T) {
	f := newRecommenderFixture(t)
	// The student rated t-fav 4.5 on average: 90% compatibility.
	f.feedback.entries = []entity.FeedbackEntry{
		{StudentID: "s1", TeacherID: "t-fav", ClassID: "old-1", Rating: 4, CreatedAt: f.base.AddDate(0, -1, 0)},
		{StudentID: "s1", TeacherID: "t-fav", ClassID: "old-2", Rating: 5, CreatedAt: f.base.AddDate(0, 0, -14)},
	}
	f.addClass(entity.Class{
		ID:            "alt-teacher",
		CourseID:      "c9",
		TeacherID:     "t-fav",
		ScheduledTime: f.base.AddDate(0, 0, 3),
		Capacity:      6,
	})

	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 1 || got[0].AlternativeClass.ID != "alt-teacher" {
		t.Fatalf("got %v, want [alt-teacher]", got)
	}
	if got[0].Breakdown.TeacherCompatibility != 90 {
		t.Fatalf("teacher compatibility = %v, want 90", got[0].Breakdown.TeacherCompatibility)
	}
	if got[0].Type != entity.RecommendationTeacherMatch {
		t.Fatalf("type = %s, want teacher_match", got[0].Type)
	}
}

func TestFindAlternativesWaitlist(t *testing.T) {
	f := newRecommenderFixture(t)
	full := entity.Class{
		ID:             "alt-full",
		CourseID:       "c9",
		TeacherID:      "t2",
		ScheduledTime:  f.base.AddDate(0, 0, 1),
		Capacity:       4,
		Enrolled:       4,
		ContentItemIDs: []string{"item-a", "item-b", "item-c"},
	}
	f.addClass(full)
	f.waitlist.lengths["alt-full"] = 1 // one student already queued

	// Without the flag, full classes are dropped.
	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("full class recommended without waitlist opt-in: %v", got)
	}

	got, err = f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
		IncludeWaitlist:  true,
	})
	if err != nil {
		t.Fatalf("FindAlternatives with waitlist: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want the preferred class plus alt-full", len(got))
	}

	// The full preferred class leads the list as a waitlist entry: nobody is
	// queued yet, so joining means position 1.
	mine := got[0]
	if mine.AlternativeClass.ID != "pref" {
		t.Fatalf("first recommendation = %s, want the preferred class", mine.AlternativeClass.ID)
	}
	if mine.Type != entity.RecommendationWaitlist {
		t.Fatalf("preferred type = %s, want waitlist", mine.Type)
	}
	if mine.EstimatedWait == nil || *mine.EstimatedWait != 2 {
		t.Fatalf("preferred estimated wait = %v, want 2 days", mine.EstimatedWait)
	}
	if mine.SpotProbability == nil || math.Abs(*mine.SpotProbability-0.9) > 1e-9 {
		t.Fatalf("preferred spot probability = %v, want 0.9", mine.SpotProbability)
	}

	rec := got[1]
	if rec.AlternativeClass.ID != "alt-full" {
		t.Fatalf("second recommendation = %s, want alt-full", rec.AlternativeClass.ID)
	}
	if rec.Type != entity.RecommendationWaitlist {
		t.Fatalf("type = %s, want waitlist", rec.Type)
	}
	// Joining as position 2: 2 days per position, probability 1 - 2*0.1.
	if rec.EstimatedWait == nil || *rec.EstimatedWait != 4 {
		t.Fatalf("estimated wait = %v, want 4 days", rec.EstimatedWait)
	}
	if rec.SpotProbability == nil || math.Abs(*rec.SpotProbability-0.8) > 1e-9 {
		t.Fatalf("spot probability = %v, want 0.8", rec.SpotProbability)
	}
	if rec.Availability != entity.AvailabilityWaitlist {
		t.Fatalf("availability = %s, want waitlist", rec.Availability)
	}
}

func TestFindAlternativesSkipsBookingConflicts(t *testing.T) {
	f := newRecommenderFixture(t)
	conflicting := entity.Class{
		ID:             "alt-conflict",
		CourseID:       "c1",
		TeacherID:      "t2",
		ScheduledTime:  f.base.AddDate(0, 0, 2),
		Capacity:       6,
		ContentItemIDs: []string{"item-a", "item-b", "item-c"},
	}
	f.addClass(conflicting)
	// The student already has a class overlapping that interval.
	f.classes.booked["s1"] = []entity.Class{{
		ID:              "mine",
		ScheduledTime:   f.base.AddDate(0, 0, 2).Add(30 * time.Minute),
		DurationMinutes: 60,
	}}

	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("conflicting class recommended: %v", got)
	}
}

func TestFindAlternativesMaxDistance(t *testing.T) {
	f := newRecommenderFixture(t)
	lat, lng := 3.15, 101.7
	f.students.students["s1"] = entity.Student{
		ID: "s1", Level: entity.LevelIntermediate, Latitude: &lat, Longitude: &lng,
	}
	f.rec.distance = fixedDistance{km: 12}

	farLat, farLng := 3.3, 101.9
	f.addClass(entity.Class{
		ID:             "alt-far",
		CourseID:       "c9",
		TeacherID:      "t2",
		ScheduledTime:  f.base.AddDate(0, 0, 1),
		Capacity:       6,
		Latitude:       &farLat,
		Longitude:      &farLng,
		ContentItemIDs: []string{"item-a", "item-b", "item-c"},
	})

	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
		MaxDistanceKm:    10,
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("class 12km away recommended under a 10km cap: %v", got)
	}

	got, err = f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
		MaxDistanceKm:    20,
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d recommendations under a 20km cap, want 1", len(got))
	}
	if got[0].DistanceKm == nil || *got[0].DistanceKm != 12 {
		t.Fatalf("distance = %v, want 12", got[0].DistanceKm)
	}
}

func TestFindAlternativesPrefersOnlineOverFarCampus(t *testing.T) {
	f := newRecommenderFixture(t)
	lat, lng := 3.15, 101.7
	f.students.students["s1"] = entity.Student{
		ID: "s1", Level: entity.LevelIntermediate, Latitude: &lat, Longitude: &lng,
	}
	f.rec.distance = fixedDistance{km: 8}

	farLat, farLng := 3.3, 101.9
	f.addClass(entity.Class{
		ID:             "alt-campus",
		CourseID:       "c9",
		TeacherID:      "t2",
		ScheduledTime:  f.base.AddDate(0, 0, 1),
		Capacity:       6,
		Latitude:       &farLat,
		Longitude:      &farLng,
		ContentItemIDs: []string{"item-a", "item-b", "item-c"},
	})
	f.addClass(entity.Class{
		ID:             "alt-online",
		CourseID:       "c9",
		TeacherID:      "t2",
		ScheduledTime:  f.base.AddDate(0, 0, 1),
		Capacity:       6,
		IsOnline:       true,
		ContentItemIDs: []string{"item-a", "item-b", "item-c"},
	})

	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
		MaxDistanceKm:    10,
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d recommendations, want both classes", len(got))
	}
	if got[0].AlternativeClass.ID != "alt-online" {
		t.Fatalf("top recommendation = %s, want the online class", got[0].AlternativeClass.ID)
	}
	if got[0].Breakdown.LocationConvenience != 100 {
		t.Fatalf("online location convenience = %v, want 100", got[0].Breakdown.LocationConvenience)
	}
	// 8 km against a 10 km cap leaves a fifth of the convenience.
	if math.Abs(got[1].Breakdown.LocationConvenience-20) > 1e-9 {
		t.Fatalf("campus location convenience = %v, want 20", got[1].Breakdown.LocationConvenience)
	}
	if got[1].DistanceKm == nil || *got[1].DistanceKm != 8 {
		t.Fatalf("campus distance = %v, want 8", got[1].DistanceKm)
	}
}

func TestFindAlternativesRankingAndCap(t *testing.T) {
	f := newRecommenderFixture(t)
	// Twelve content-pool candidates with decreasing overlap quality: full
	// overlap classes must outrank the partial one, and only ten survive.
	for i := 0; i < 11; i++ {
		f.addClass(entity.Class{
			ID:             "alt-good-" + string(rune('a'+i)),
			CourseID:       "c9",
			TeacherID:      "t2",
			ScheduledTime:  f.base.Add(time.Duration(24*(i+1)) * time.Hour),
			Capacity:       6,
			ContentItemIDs: []string{"item-a", "item-b", "item-c"},
		})
	}
	f.addClass(entity.Class{
		ID:             "alt-partial",
		CourseID:       "c9",
		TeacherID:      "t2",
		ScheduledTime:  f.base.AddDate(0, 0, 20),
		Capacity:       6,
		ContentItemIDs: []string{"item-a", "item-b"},
	})

	got, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID:        "s1",
		PreferredClassID: "pref",
	})
	if err != nil {
		t.Fatalf("FindAlternatives: %v", err)
	}
	if len(got) != maxRecommendations {
		t.Fatalf("got %d recommendations, want capped at %d", len(got), maxRecommendations)
	}
	for i := 1; i < len(got); i++ {
		prev := got[i-1].OverallScore * got[i-1].ConfidenceLevel
		cur := got[i].OverallScore * got[i].ConfidenceLevel
		if cur > prev {
			t.Fatalf("ranking not descending at %d: %v then %v", i, prev, cur)
		}
	}
}

func TestFindAlternativesUnknownInputs(t *testing.T) {
	f := newRecommenderFixture(t)

	if _, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID: "", PreferredClassID: "pref",
	}); !errors.Is(err, entity.ErrInvalidStudentID) {
		t.Fatalf("empty student err = %v, want ErrInvalidStudentID", err)
	}

	if _, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID: "ghost", PreferredClassID: "pref",
	}); !errors.Is(err, entity.ErrStudentNotFound) {
		t.Fatalf("ghost student err = %v, want ErrStudentNotFound", err)
	}

	if _, err := f.rec.FindAlternatives(context.Background(), entity.RecommendationRequest{
		StudentID: "s1", PreferredClassID: "ghost",
	}); !errors.Is(err, entity.ErrClassNotFound) {
		t.Fatalf("ghost class err = %v, want ErrClassNotFound", err)
	}
}
