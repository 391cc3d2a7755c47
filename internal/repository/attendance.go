package repository

import (
	"context"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// AttendanceRepository reads booking/attendance history.
type AttendanceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]entity.AttendanceRecord, error)
	// ListPeerStudentIDs returns the distinct students who shared at least
	// one class with the given student (single join, not per-class scans).
	ListPeerStudentIDs(ctx context.Context, studentID string) ([]string, error)
}
