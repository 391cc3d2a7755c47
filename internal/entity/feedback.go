package entity

import "time"

// FeedbackEntry records a completed lesson plus the rating the student gave
// it. Completion diffing treats the presence of an entry for (unit, lesson)
// as completion of that curriculum item.
type FeedbackEntry struct {
	ID                  string    `json:"id"`
	StudentID           string    `json:"student_id"`
	CourseID            string    `json:"course_id"`
	ClassID             string    `json:"class_id"`
	TeacherID           string    `json:"teacher_id"`
	UnitNumber          int       `json:"unit_number"`
	LessonNumber        int       `json:"lesson_number"`
	Rating              int       `json:"rating"`
	Strengths           []string  `json:"strengths"`
	AreasForImprovement []string  `json:"areas_for_improvement"`
	CreatedAt           time.Time `json:"created_at"`
}

// Key returns the curriculum position the feedback completes.
func (f FeedbackEntry) Key() LessonKey {
	return LessonKey{Unit: f.UnitNumber, Lesson: f.LessonNumber}
}

// AttendanceStatus is the recorded outcome of one booked seat.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// AttendanceRecord is one attendance row for a booked class.
type AttendanceRecord struct {
	StudentID string           `json:"student_id"`
	ClassID   string           `json:"class_id"`
	TeacherID string           `json:"teacher_id"`
	Status    AttendanceStatus `json:"status"`
	ClassSize int              `json:"class_size"`
	StartsAt  time.Time        `json:"starts_at"`
}

// Attended reports whether the seat counts as an attended class.
func (a AttendanceRecord) Attended() bool {
	return a.Status == AttendancePresent || a.Status == AttendanceLate
}
