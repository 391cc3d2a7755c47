package repository

import (
	"context"
	"time"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// ListClassQuery holds parameters for listing class offerings. Filter and
// order inputs are bound by pkg/filterexpr.
type ListClassQuery struct {
	Pagination

	Level         entity.CourseLevel
	CourseID      string
	TeacherID     string
	ScheduledFrom *time.Time
	ScheduledTo   *time.Time
	OnlyOpen      bool

	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// ClassRepository reads bookable class offerings and per-student bookings.
type ClassRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Class, error)
	List(ctx context.Context, query *ListClassQuery) ([]entity.Class, int64, error)
	// ListOpenByLevel returns future classes at the level that still accept
	// bookings or waitlisting.
	ListOpenByLevel(ctx context.Context, level entity.CourseLevel) ([]entity.Class, error)
	// ListBookedByStudent returns the student's upcoming booked classes for
	// conflict checks.
	ListBookedByStudent(ctx context.Context, studentID string) ([]entity.Class, error)
}
