package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

type studentRepository struct{ pool *pgxpool.Pool }

// NewStudentRepository creates a PostgreSQL-backed StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) repository.StudentRepository {
	return &studentRepository{pool: pool}
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*entity.Student, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, level, learning_goals, learning_style, latitude, longitude
		FROM students WHERE id = $1`, id)

	var (
		s     entity.Student
		level string
		style string
	)
	if err := row.Scan(&s.ID, &s.FullName, &level, &s.LearningGoals, &style, &s.Latitude, &s.Longitude); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrStudentNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}
	s.Level = entity.ParseCourseLevel(level)
	s.LearningStyle = entity.ParseLearningStyle(style)
	return &s, nil
}

func (r *studentRepository) ListIDsByLevel(ctx context.Context, level entity.CourseLevel) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM students WHERE level = $1 ORDER BY id`, string(level))
	if err != nil {
		return nil, fmt.Errorf("list student ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan student id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *studentRepository) ListEnrollments(ctx context.Context, studentID string) ([]entity.Enrollment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id, course_id, current_unit, current_lesson, progress_percentage, last_completed_lesson
		FROM enrollments WHERE student_id = $1 ORDER BY course_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()
	return scanEnrollments(rows)
}

func (r *studentRepository) ListEnrollmentsByCourse(ctx context.Context, courseID string) ([]entity.Enrollment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id, course_id, current_unit, current_lesson, progress_percentage, last_completed_lesson
		FROM enrollments WHERE course_id = $1 ORDER BY student_id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	defer rows.Close()
	return scanEnrollments(rows)
}

func (r *studentRepository) UpdateEnrollmentProgress(ctx context.Context, enrollment entity.Enrollment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE enrollments
		SET current_unit = $3, current_lesson = $4, progress_percentage = $5, last_completed_lesson = $6
		WHERE student_id = $1 AND course_id = $2`,
		enrollment.StudentID, enrollment.CourseID,
		enrollment.CurrentUnit, enrollment.CurrentLesson,
		enrollment.ProgressPercentage, enrollment.LastCompletedLesson)
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrEnrollmentNotFound
	}
	return nil
}

func (r *studentRepository) ListAvailability(ctx context.Context, studentID string) ([]entity.TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, hour FROM student_availability
		WHERE student_id = $1 ORDER BY weekday, hour`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list student availability: %w", err)
	}
	defer rows.Close()
	return scanTimeSlots(rows)
}

func scanEnrollments(rows pgx.Rows) ([]entity.Enrollment, error) {
	var out []entity.Enrollment
	for rows.Next() {
		var e entity.Enrollment
		if err := rows.Scan(&e.StudentID, &e.CourseID, &e.CurrentUnit, &e.CurrentLesson,
			&e.ProgressPercentage, &e.LastCompletedLesson); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanTimeSlots(rows pgx.Rows) ([]entity.TimeSlot, error) {
	var out []entity.TimeSlot
	for rows.Next() {
		var weekday, hour int
		if err := rows.Scan(&weekday, &hour); err != nil {
			return nil, fmt.Errorf("scan time slot: %w", err)
		}
		out = append(out, entity.TimeSlot{Weekday: time.Weekday(weekday), Hour: hour})
	}
	return out, rows.Err()
}
