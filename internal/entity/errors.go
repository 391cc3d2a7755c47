package entity

import "errors"

// Domain errors for scheduling and related aggregates. Store failures are
// wrapped with context at call sites and bubble up unchanged; these sentinels
// mark the conditions the engine itself detects.
var (
	ErrStudentNotFound    = errors.New("student not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrClassNotFound      = errors.New("class not found")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrInvalidTimeRange   = errors.New("end date precedes start date")
	ErrInvalidStudentID   = errors.New("invalid student ID")
	ErrEmptyComposition   = errors.New("composition has no students")
)
