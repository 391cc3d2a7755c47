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

type teacherRepository struct{ pool *pgxpool.Pool }

// NewTeacherRepository creates a PostgreSQL-backed TeacherRepository.
func NewTeacherRepository(pool *pgxpool.Pool) repository.TeacherRepository {
	return &teacherRepository{pool: pool}
}

func (r *teacherRepository) GetByID(ctx context.Context, id string) (*entity.Teacher, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, specializations, max_classes_per_day
		FROM teachers WHERE id = $1`, id)

	var t entity.Teacher
	if err := row.Scan(&t.ID, &t.FullName, &t.Specializations, &t.MaxClassesPerDay); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrTeacherNotFound
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &t, nil
}

func (r *teacherRepository) List(ctx context.Context) ([]entity.Teacher, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, specializations, max_classes_per_day
		FROM teachers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var out []entity.Teacher
	for rows.Next() {
		var t entity.Teacher
		if err := rows.Scan(&t.ID, &t.FullName, &t.Specializations, &t.MaxClassesPerDay); err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *teacherRepository) ListAvailability(ctx context.Context, teacherID string) ([]entity.TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, hour FROM teacher_availability
		WHERE teacher_id = $1 ORDER BY weekday, hour`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	defer rows.Close()
	return scanTimeSlots(rows)
}
