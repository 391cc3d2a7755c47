package entity

// TopicPerformance aggregates feedback for a single topic token.
type TopicPerformance struct {
	Topic          string  `json:"topic"`
	MasteryLevel   float64 `json:"mastery_level"`
	RequiresReview bool    `json:"requires_review"`
}

// LearningAnalytics captures the behavioural profile derived from a student's
// attendance and feedback history.
type LearningAnalytics struct {
	StudentID              string             `json:"student_id"`
	LearningVelocity       float64            `json:"learning_velocity"`
	RetentionRate          float64            `json:"retention_rate"`
	EngagementScore        float64            `json:"engagement_score"`
	PreferredLearningStyle LearningStyle      `json:"preferred_learning_style"`
	OptimalClassSize       int                `json:"optimal_class_size"`
	BestTimeSlots          []TimeSlot         `json:"best_time_slots"`
	PeerCompatibility      []string           `json:"peer_compatibility"`
	TopicPerformance       []TopicPerformance `json:"topic_performance"`
}
