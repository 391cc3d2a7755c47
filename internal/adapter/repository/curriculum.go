package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

type curriculumRepository struct{ pool *pgxpool.Pool }

// NewCurriculumRepository creates a PostgreSQL-backed CurriculumRepository.
func NewCurriculumRepository(pool *pgxpool.Pool) repository.CurriculumRepository {
	return &curriculumRepository{pool: pool}
}

func (r *curriculumRepository) GetCourse(ctx context.Context, id string) (*entity.Course, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, level, total_units FROM courses WHERE id = $1`, id)

	var (
		course entity.Course
		level  string
	)
	if err := row.Scan(&course.ID, &course.Title, &level, &course.TotalUnits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	course.Level = entity.ParseCourseLevel(level)
	return &course, nil
}

func (r *curriculumRepository) ListCourses(ctx context.Context) ([]entity.Course, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, level, total_units FROM courses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	var out []entity.Course
	for rows.Next() {
		var (
			course entity.Course
			level  string
		)
		if err := rows.Scan(&course.ID, &course.Title, &level, &course.TotalUnits); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		course.Level = entity.ParseCourseLevel(level)
		out = append(out, course)
	}
	return out, rows.Err()
}

const contentColumns = `id, course_id, title, unit_number, lesson_number, content_type,
	difficulty_level, prerequisites, estimated_duration, tags, objectives`

func (r *curriculumRepository) ListCourseContent(ctx context.Context, courseID string) ([]entity.ContentItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contentColumns+` FROM course_content
		WHERE course_id = $1 ORDER BY unit_number, lesson_number, id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list course content: %w", err)
	}
	defer rows.Close()
	return scanContentItems(rows)
}

func (r *curriculumRepository) ListContentByIDs(ctx context.Context, ids []string) ([]entity.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+contentColumns+` FROM course_content
		WHERE id = ANY($1) ORDER BY unit_number, lesson_number, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list content by ids: %w", err)
	}
	defer rows.Close()
	return scanContentItems(rows)
}

func (r *curriculumRepository) UpsertCourse(ctx context.Context, course *entity.Course) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO courses (id, title, level, total_units)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, level = EXCLUDED.level, total_units = EXCLUDED.total_units`,
		course.ID, course.Title, string(course.Level), course.TotalUnits)
	if err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}

func (r *curriculumRepository) UpsertContentItem(ctx context.Context, item *entity.ContentItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO course_content (id, course_id, title, unit_number, lesson_number, content_type,
			difficulty_level, prerequisites, estimated_duration, tags, objectives)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET course_id = EXCLUDED.course_id,
		    title = EXCLUDED.title,
		    unit_number = EXCLUDED.unit_number,
		    lesson_number = EXCLUDED.lesson_number,
		    content_type = EXCLUDED.content_type,
		    difficulty_level = EXCLUDED.difficulty_level,
		    prerequisites = EXCLUDED.prerequisites,
		    estimated_duration = EXCLUDED.estimated_duration,
		    tags = EXCLUDED.tags,
		    objectives = EXCLUDED.objectives`,
		item.ID, item.CourseID, item.Title, item.UnitNumber, item.LessonNumber,
		string(item.ContentType), item.DifficultyLevel, item.Prerequisites,
		item.EstimatedDurationMinutes, item.Tags, item.LearningObjectives)
	if err != nil {
		return fmt.Errorf("upsert content item: %w", err)
	}
	return nil
}

func scanContentItems(rows pgx.Rows) ([]entity.ContentItem, error) {
	var out []entity.ContentItem
	for rows.Next() {
		var (
			item        entity.ContentItem
			contentType string
		)
		if err := rows.Scan(&item.ID, &item.CourseID, &item.Title, &item.UnitNumber,
			&item.LessonNumber, &contentType, &item.DifficultyLevel, &item.Prerequisites,
			&item.EstimatedDurationMinutes, &item.Tags, &item.LearningObjectives); err != nil {
			return nil, fmt.Errorf("scan content item: %w", err)
		}
		item.ContentType = entity.ParseContentType(contentType)
		item.Normalize()
		out = append(out, item)
	}
	return out, rows.Err()
}
