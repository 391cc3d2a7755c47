package repository

import "context"

// WaitlistRepository reads class waitlist queues.
type WaitlistRepository interface {
	// Position returns the student's 1-based queue position; ok is false
	// when the student is not queued.
	Position(ctx context.Context, classID, studentID string) (pos int, ok bool, err error)
	Length(ctx context.Context, classID string) (int, error)
}
