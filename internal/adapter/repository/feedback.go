package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

type feedbackRepository struct{ pool *pgxpool.Pool }

// NewFeedbackRepository creates a PostgreSQL-backed FeedbackRepository.
func NewFeedbackRepository(pool *pgxpool.Pool) repository.FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

const feedbackColumns = `id, student_id, course_id, class_id, teacher_id,
	unit_number, lesson_number, rating, strengths, improvements, created_at`

func (r *feedbackRepository) ListByStudent(ctx context.Context, studentID string) ([]entity.FeedbackEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+feedbackColumns+` FROM feedback
		WHERE student_id = $1 ORDER BY created_at, id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

func (r *feedbackRepository) ListByStudentCourse(ctx context.Context, studentID, courseID string) ([]entity.FeedbackEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+feedbackColumns+` FROM feedback
		WHERE student_id = $1 AND course_id = $2 ORDER BY created_at, id`, studentID, courseID)
	if err != nil {
		return nil, fmt.Errorf("list course feedback: %w", err)
	}
	defer rows.Close()
	return scanFeedback(rows)
}

func (r *feedbackRepository) ListCompletionsByCourse(ctx context.Context, courseID string) (map[string][]entity.LessonKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id, unit_number, lesson_number FROM feedback
		WHERE course_id = $1 ORDER BY student_id, unit_number, lesson_number`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	completions := make(map[string][]entity.LessonKey)
	for rows.Next() {
		var (
			studentID string
			key       entity.LessonKey
		)
		if err := rows.Scan(&studentID, &key.Unit, &key.Lesson); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions[studentID] = append(completions[studentID], key)
	}
	return completions, rows.Err()
}

func (r *feedbackRepository) AverageRatingForTeacher(ctx context.Context, studentID, teacherID string) (float64, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM feedback
		WHERE student_id = $1 AND teacher_id = $2 AND rating > 0`, studentID, teacherID)

	var (
		avg   float64
		count int64
	)
	if err := row.Scan(&avg, &count); err != nil {
		return 0, false, fmt.Errorf("average teacher rating: %w", err)
	}
	return avg, count > 0, nil
}

func (r *feedbackRepository) Insert(ctx context.Context, entry *entity.FeedbackEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO feedback (id, student_id, course_id, class_id, teacher_id,
			unit_number, lesson_number, rating, strengths, improvements, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.StudentID, entry.CourseID, entry.ClassID, entry.TeacherID,
		entry.UnitNumber, entry.LessonNumber, entry.Rating,
		entry.Strengths, entry.AreasForImprovement, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

func scanFeedback(rows pgx.Rows) ([]entity.FeedbackEntry, error) {
	var out []entity.FeedbackEntry
	for rows.Next() {
		var e entity.FeedbackEntry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.ClassID, &e.TeacherID,
			&e.UnitNumber, &e.LessonNumber, &e.Rating,
			&e.Strengths, &e.AreasForImprovement, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
