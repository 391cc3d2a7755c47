package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

type waitlistRepository struct{ pool *pgxpool.Pool }

// NewWaitlistRepository creates a PostgreSQL-backed WaitlistRepository.
func NewWaitlistRepository(pool *pgxpool.Pool) repository.WaitlistRepository {
	return &waitlistRepository{pool: pool}
}

func (r *waitlistRepository) Position(ctx context.Context, classID, studentID string) (int, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT position FROM waitlist WHERE class_id = $1 AND student_id = $2`, classID, studentID)

	var pos int
	if err := row.Scan(&pos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("waitlist position: %w", err)
	}
	return pos, true, nil
}

func (r *waitlistRepository) Length(ctx context.Context, classID string) (int, error) {
	row := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM waitlist WHERE class_id = $1`, classID)

	var length int
	if err := row.Scan(&length); err != nil {
		return 0, fmt.Errorf("waitlist length: %w", err)
	}
	return length, nil
}
