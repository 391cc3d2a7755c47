package repository

import (
	"context"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// StudentRepository abstracts persistence for students and their enrollments
// to keep the engine storage agnostic.
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Student, error)
	ListIDsByLevel(ctx context.Context, level entity.CourseLevel) ([]string, error)
	ListEnrollments(ctx context.Context, studentID string) ([]entity.Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]entity.Enrollment, error)
	UpdateEnrollmentProgress(ctx context.Context, enrollment entity.Enrollment) error
	ListAvailability(ctx context.Context, studentID string) ([]entity.TimeSlot, error)
}
