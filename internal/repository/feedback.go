package repository

import (
	"context"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// FeedbackRepository reads lesson-completion feedback history. Entries double
// as completion markers for content-gap diffing.
type FeedbackRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]entity.FeedbackEntry, error)
	ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]entity.FeedbackEntry, error)
	// ListCompletionsByCourse returns the completed lesson keys of every
	// student enrolled in the course in one round trip, keyed by student ID.
	ListCompletionsByCourse(ctx context.Context, courseID string) (map[string][]entity.LessonKey, error)
	// AverageRatingForTeacher returns the student's mean rating of classes
	// taught by the teacher; ok is false when no such feedback exists.
	AverageRatingForTeacher(ctx context.Context, studentID, teacherID string) (avg float64, ok bool, err error)
	Insert(ctx context.Context, entry *entity.FeedbackEntry) error
}
