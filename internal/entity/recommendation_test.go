package entity

import (
	"math"
	"testing"
)

func TestAvailabilityForSpots(t *testing.T) {
	cases := []struct {
		spots int
		want  AvailabilityStatus
	}{
		{5, AvailabilityImmediate},
		{2, AvailabilityImmediate},
		{1, AvailabilityLimitedSpots},
		{0, AvailabilityWaitlist},
	}
	for _, tc := range cases {
		if got := AvailabilityForSpots(tc.spots); got != tc.want {
			t.Errorf("AvailabilityForSpots(%d) = %q, want %q", tc.spots, got, tc.want)
		}
	}
}

func TestConfidenceMultiplierOrdering(t *testing.T) {
	statuses := []AvailabilityStatus{
		AvailabilityImmediate,
		AvailabilityLimitedSpots,
		AvailabilityWaitlist,
		AvailabilityUnavailable,
	}
	for i := 1; i < len(statuses); i++ {
		if statuses[i].ConfidenceMultiplier() >= statuses[i-1].ConfidenceMultiplier() {
			t.Errorf("%q multiplier should be below %q", statuses[i], statuses[i-1])
		}
	}
}

func TestScoreBreakdownOverall(t *testing.T) {
	weights := DefaultRecommendationWeights()

	sum := weights.ContentSimilarity + weights.ScheduleCompatibility +
		weights.TeacherCompatibility + weights.PaceMatch + weights.DifficultyMatch +
		weights.LocationConvenience + weights.PeerCompatibility + weights.ClassSizeFit
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("default weights sum to %v, want 1.0", sum)
	}

	uniform := RecommendationScoreBreakdown{
		ContentSimilarity:     70,
		ScheduleCompatibility: 70,
		TeacherCompatibility:  70,
		PaceMatch:             70,
		DifficultyMatch:       70,
		LocationConvenience:   70,
		PeerCompatibility:     70,
		ClassSizeFit:          70,
	}
	if got := uniform.Overall(weights); math.Abs(got-70) > 1e-9 {
		t.Errorf("uniform breakdown Overall = %v, want 70", got)
	}

	// Out-of-range inputs clamp rather than escape [0, 100].
	inflated := RecommendationScoreBreakdown{ContentSimilarity: 1000}
	heavy := RecommendationWeights{ContentSimilarity: 2}
	if got := inflated.Overall(heavy); got != 100 {
		t.Errorf("inflated Overall = %v, want 100", got)
	}
	negative := RecommendationScoreBreakdown{ContentSimilarity: -500}
	if got := negative.Overall(heavy); got != 0 {
		t.Errorf("negative Overall = %v, want 0", got)
	}
}
