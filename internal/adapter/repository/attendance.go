package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

type attendanceRepository struct{ pool *pgxpool.Pool }

// NewAttendanceRepository creates a PostgreSQL-backed AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) repository.AttendanceRepository {
	return &attendanceRepository{pool: pool}
}

func (r *attendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]entity.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT student_id, class_id, teacher_id, status, class_size, starts_at
		FROM attendance WHERE student_id = $1 ORDER BY starts_at, class_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []entity.AttendanceRecord
	for rows.Next() {
		var (
			rec    entity.AttendanceRecord
			status string
		)
		if err := rows.Scan(&rec.StudentID, &rec.ClassID, &rec.TeacherID, &status,
			&rec.ClassSize, &rec.StartsAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		rec.Status = entity.AttendanceStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *attendanceRepository) ListPeerStudentIDs(ctx context.Context, studentID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT peer.student_id
		FROM attendance own
		JOIN attendance peer ON peer.class_id = own.class_id AND peer.student_id <> own.student_id
		WHERE own.student_id = $1
		ORDER BY peer.student_id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}
	defer rows.Close()

	var peers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan peer: %w", err)
		}
		peers = append(peers, id)
	}
	return peers, rows.Err()
}
