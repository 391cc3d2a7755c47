package entity

// AvailabilityStatus describes how bookable a candidate class currently is.
type AvailabilityStatus string

const (
	AvailabilityImmediate    AvailabilityStatus = "immediate"
	AvailabilityLimitedSpots AvailabilityStatus = "limited_spots"
	AvailabilityWaitlist     AvailabilityStatus = "waitlist"
	AvailabilityUnavailable  AvailabilityStatus = "unavailable"
)

// AvailabilityForSpots buckets a remaining seat count: two or more spots book
// immediately, one is limited, zero goes to the waitlist.
func AvailabilityForSpots(spotsLeft int) AvailabilityStatus {
	switch {
	case spotsLeft >= 2:
		return AvailabilityImmediate
	case spotsLeft >= 1:
		return AvailabilityLimitedSpots
	default:
		return AvailabilityWaitlist
	}
}

// ConfidenceMultiplier scales recommendation confidence by availability.
func (s AvailabilityStatus) ConfidenceMultiplier() float64 {
	switch s {
	case AvailabilityImmediate:
		return 1.0
	case AvailabilityLimitedSpots:
		return 0.9
	case AvailabilityWaitlist:
		return 0.7
	default:
		return 0.3
	}
}

// RecommendationType labels an alternative by its dominant strength.
type RecommendationType string

const (
	RecommendationContentSimilar    RecommendationType = "content_similar"
	RecommendationTimeAlternative   RecommendationType = "time_alternative"
	RecommendationTeacherMatch      RecommendationType = "teacher_match"
	RecommendationWaitlist          RecommendationType = "waitlist"
	RecommendationLocationOptimized RecommendationType = "location_optimized"
)

// RecommendationWeights blends the eight scoring factors into the overall
// score. Defaults sum to 1.0.
type RecommendationWeights struct {
	ContentSimilarity     float64 `json:"content_similarity" mapstructure:"content_similarity"`
	ScheduleCompatibility float64 `json:"schedule_compatibility" mapstructure:"schedule_compatibility"`
	TeacherCompatibility  float64 `json:"teacher_compatibility" mapstructure:"teacher_compatibility"`
	PaceMatch             float64 `json:"pace_match" mapstructure:"pace_match"`
	DifficultyMatch       float64 `json:"difficulty_match" mapstructure:"difficulty_match"`
	LocationConvenience   float64 `json:"location_convenience" mapstructure:"location_convenience"`
	PeerCompatibility     float64 `json:"peer_compatibility" mapstructure:"peer_compatibility"`
	ClassSizeFit          float64 `json:"class_size_fit" mapstructure:"class_size_fit"`
}

// DefaultRecommendationWeights returns the stock factor weighting.
func DefaultRecommendationWeights() RecommendationWeights {
	return RecommendationWeights{
		ContentSimilarity:     0.25,
		ScheduleCompatibility: 0.20,
		TeacherCompatibility:  0.15,
		PaceMatch:             0.10,
		DifficultyMatch:       0.10,
		LocationConvenience:   0.08,
		PeerCompatibility:     0.07,
		ClassSizeFit:          0.05,
	}
}

// RecommendationScoreBreakdown holds the eight factor scores, each 0-100.
type RecommendationScoreBreakdown struct {
	ContentSimilarity     float64 `json:"contentSimilarity"`
	ScheduleCompatibility float64 `json:"scheduleCompatibility"`
	TeacherCompatibility  float64 `json:"teacherCompatibility"`
	PaceMatch             float64 `json:"paceMatch"`
	DifficultyMatch       float64 `json:"difficultyMatch"`
	LocationConvenience   float64 `json:"locationConvenience"`
	PeerCompatibility     float64 `json:"peerCompatibility"`
	ClassSizeFit          float64 `json:"classSizeFit"`
}

// Overall combines the breakdown through the given weights, clamped to [0,100].
func (b RecommendationScoreBreakdown) Overall(w RecommendationWeights) float64 {
	score := b.ContentSimilarity*w.ContentSimilarity +
		b.ScheduleCompatibility*w.ScheduleCompatibility +
		b.TeacherCompatibility*w.TeacherCompatibility +
		b.PaceMatch*w.PaceMatch +
		b.DifficultyMatch*w.DifficultyMatch +
		b.LocationConvenience*w.LocationConvenience +
		b.PeerCompatibility*w.PeerCompatibility +
		b.ClassSizeFit*w.ClassSizeFit
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RecommendationRequest asks for alternatives to a class the student cannot
// take (full or conflicting).
type RecommendationRequest struct {
	StudentID        string     `json:"student_id"`
	PreferredClassID string     `json:"preferred_class_id"`
	TimeWindows      []TimeSlot `json:"time_windows,omitempty"`
	MaxDistanceKm    float64    `json:"max_distance_km,omitempty"`
	IncludeWaitlist  bool       `json:"include_waitlist,omitempty"`
}

// AlternativeClassRecommendation is one ranked alternative. Wait-time fields
// are only set on waitlist recommendations.
type AlternativeClassRecommendation struct {
	AlternativeClass ScheduledClass               `json:"alternativeClass"`
	OverallScore     float64                      `json:"overallScore"`
	Breakdown        RecommendationScoreBreakdown `json:"scoreBreakdown"`
	Type             RecommendationType           `json:"type"`
	Reasoning        string                       `json:"reasoning"`
	Benefits         []string                     `json:"benefits"`
	Drawbacks        []string                     `json:"drawbacks"`
	ConfidenceLevel  float64                      `json:"confidenceLevel"`
	Availability     AvailabilityStatus           `json:"availability"`
	DistanceKm       *float64                     `json:"distance,omitempty"`
	EstimatedWait    *int                         `json:"estimatedWaitTime,omitempty"`
	SpotProbability  *float64                     `json:"spotProbability,omitempty"`
}
