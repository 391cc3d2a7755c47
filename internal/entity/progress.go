package entity

import "time"

// StudentProgress summarises one student's standing in one course, computed
// fresh per invocation from enrollment, feedback and attendance history.
type StudentProgress struct {
	StudentID           string        `json:"student_id"`
	CourseID            string        `json:"course_id"`
	CurrentUnit         int           `json:"current_unit"`
	CurrentLesson       int           `json:"current_lesson"`
	ProgressPercentage  float64       `json:"progress_percentage"`
	LastCompletedLesson int           `json:"last_completed_lesson"`
	LastClassDate       *time.Time    `json:"last_class_date,omitempty"`
	LearningPace        LearningPace  `json:"learning_pace"`
	StrugglingTopics    []string      `json:"struggling_topics"`
	MasteredTopics      []string      `json:"mastered_topics"`
	LearningGoals       []string      `json:"learning_goals"`
	NextPriorityContent []ContentItem `json:"next_priority_content"`
}

// Position returns the furthest completed curriculum point.
func (p StudentProgress) Position() LessonKey {
	return LessonKey{Unit: p.CurrentUnit, Lesson: p.CurrentLesson}
}

// UnlearnedContent is the gap report for one (student, course) pair: the
// curriculum items not yet completed plus the urgency of closing the gap.
type UnlearnedContent struct {
	StudentID             string        `json:"student_id"`
	CourseID              string        `json:"course_id"`
	ContentItems          []ContentItem `json:"content_items"`
	PriorityScore         float64       `json:"priority_score"`
	UrgencyLevel          UrgencyLevel  `json:"urgency_level"`
	RecommendedClassType  ClassType     `json:"recommended_class_type"`
	EstimatedLearningTime int           `json:"estimated_learning_time"`
	GroupingCompatibility []string      `json:"grouping_compatibility"`
}
