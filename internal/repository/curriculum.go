package repository

import (
	"context"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// CurriculumRepository reads the course catalog and its ordered content.
// Writes exist only for the curriculum import path.
type CurriculumRepository interface {
	GetCourse(ctx context.Context, id string) (*entity.Course, error)
	ListCourses(ctx context.Context) ([]entity.Course, error)
	// ListCourseContent returns the full curriculum of a course ordered by
	// (unit, lesson, id).
	ListCourseContent(ctx context.Context, courseID string) ([]entity.ContentItem, error)
	ListContentByIDs(ctx context.Context, ids []string) ([]entity.ContentItem, error)
	UpsertCourse(ctx context.Context, course *entity.Course) error
	UpsertContentItem(ctx context.Context, item *entity.ContentItem) error
}
