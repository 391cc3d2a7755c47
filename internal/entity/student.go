package entity

// Student is the stored learner record the engine reads. Coordinates are only
// present for students attending a physical branch.
type Student struct {
	ID            string        `json:"id"`
	FullName      string        `json:"full_name"`
	Level         CourseLevel   `json:"level"`
	LearningGoals []string      `json:"learning_goals"`
	LearningStyle LearningStyle `json:"learning_style"`
	Latitude      *float64      `json:"latitude,omitempty"`
	Longitude     *float64      `json:"longitude,omitempty"`
}

// Enrollment ties a student to a course with the stored progress fields.
// progress_percentage is maintained by the application on lesson completion
// and is monotonically non-decreasing for a fixed course.
type Enrollment struct {
	StudentID           string  `json:"student_id"`
	CourseID            string  `json:"course_id"`
	CurrentUnit         int     `json:"current_unit"`
	CurrentLesson       int     `json:"current_lesson"`
	ProgressPercentage  float64 `json:"progress_percentage"`
	LastCompletedLesson int     `json:"last_completed_lesson"`
}

// Position returns the furthest completed curriculum point of the enrollment.
func (e Enrollment) Position() LessonKey {
	return LessonKey{Unit: e.CurrentUnit, Lesson: e.CurrentLesson}
}
