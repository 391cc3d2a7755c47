package repository

import (
	"context"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// TeacherRepository reads instructor records and weekly availability.
type TeacherRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Teacher, error)
	List(ctx context.Context) ([]entity.Teacher, error)
	ListAvailability(ctx context.Context, teacherID string) ([]entity.TimeSlot, error)
}
