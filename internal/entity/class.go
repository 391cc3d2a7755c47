package entity

import "time"

// Class is a bookable class offering with live capacity counters, as read
// from the classes collection.
type Class struct {
	ID              string      `json:"id"`
	CourseID        string      `json:"course_id"`
	TeacherID       string      `json:"teacher_id"`
	Level           CourseLevel `json:"level"`
	ClassType       ClassType   `json:"class_type"`
	ScheduledTime   time.Time   `json:"scheduled_time"`
	DurationMinutes int         `json:"duration_minutes"`
	Capacity        int         `json:"capacity"`
	Enrolled        int         `json:"enrolled"`
	IsOnline        bool        `json:"is_online"`
	Latitude        *float64    `json:"latitude,omitempty"`
	Longitude       *float64    `json:"longitude,omitempty"`
	ContentItemIDs  []string    `json:"content_item_ids"`
}

// SpotsLeft returns the remaining seat count, never negative.
func (c Class) SpotsLeft() int {
	if left := c.Capacity - c.Enrolled; left > 0 {
		return left
	}
	return 0
}

// EndTime returns the instant the class finishes.
func (c Class) EndTime() time.Time {
	return c.ScheduledTime.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the class interval intersects [start, start+duration).
func (c Class) Overlaps(start time.Time, durationMinutes int) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return c.ScheduledTime.Before(end) && start.Before(c.EndTime())
}

// WaitlistEntry is one row of a class waitlist queue.
type WaitlistEntry struct {
	ClassID   string    `json:"class_id"`
	StudentID string    `json:"student_id"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}
