package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/config"
)

// schemaDDL is the full schema, applied idempotently.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS students (
    id             TEXT PRIMARY KEY,
    full_name      TEXT NOT NULL DEFAULT '',
    level          TEXT NOT NULL DEFAULT '',
    learning_goals TEXT[] NOT NULL DEFAULT '{}',
    learning_style TEXT NOT NULL DEFAULT 'mixed',
    latitude       DOUBLE PRECISION,
    longitude      DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS courses (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    level       TEXT NOT NULL DEFAULT '',
    total_units INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS course_content (
    id                 TEXT PRIMARY KEY,
    course_id          TEXT NOT NULL REFERENCES courses(id),
    title              TEXT NOT NULL DEFAULT '',
    unit_number        INTEGER NOT NULL,
    lesson_number      INTEGER NOT NULL,
    content_type       TEXT NOT NULL DEFAULT 'reading',
    difficulty_level   INTEGER NOT NULL DEFAULT 0,
    prerequisites      TEXT[] NOT NULL DEFAULT '{}',
    estimated_duration INTEGER NOT NULL DEFAULT 0,
    tags               TEXT[] NOT NULL DEFAULT '{}',
    objectives         TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_course_content_position
    ON course_content (course_id, unit_number, lesson_number);

CREATE TABLE IF NOT EXISTS enrollments (
    student_id            TEXT NOT NULL REFERENCES students(id),
    course_id             TEXT NOT NULL REFERENCES courses(id),
    current_unit          INTEGER NOT NULL DEFAULT 0,
    current_lesson        INTEGER NOT NULL DEFAULT 0,
    progress_percentage   DOUBLE PRECISION NOT NULL DEFAULT 0,
    last_completed_lesson INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (student_id, course_id)
);

CREATE TABLE IF NOT EXISTS teachers (
    id                  TEXT PRIMARY KEY,
    full_name           TEXT NOT NULL DEFAULT '',
    specializations     TEXT[] NOT NULL DEFAULT '{}',
    max_classes_per_day INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS teacher_availability (
    teacher_id TEXT NOT NULL REFERENCES teachers(id),
    weekday    INTEGER NOT NULL,
    hour       INTEGER NOT NULL,
    PRIMARY KEY (teacher_id, weekday, hour)
);

CREATE TABLE IF NOT EXISTS student_availability (
    student_id TEXT NOT NULL REFERENCES students(id),
    weekday    INTEGER NOT NULL,
    hour       INTEGER NOT NULL,
    PRIMARY KEY (student_id, weekday, hour)
);

CREATE TABLE IF NOT EXISTS classes (
    id               TEXT PRIMARY KEY,
    course_id        TEXT NOT NULL DEFAULT '',
    teacher_id       TEXT NOT NULL DEFAULT '',
    level            TEXT NOT NULL DEFAULT '',
    class_type       TEXT NOT NULL DEFAULT 'group',
    scheduled_time   TIMESTAMPTZ NOT NULL,
    duration_minutes INTEGER NOT NULL DEFAULT 60,
    capacity         INTEGER NOT NULL DEFAULT 0,
    enrolled         INTEGER NOT NULL DEFAULT 0,
    is_online        BOOLEAN NOT NULL DEFAULT FALSE,
    latitude         DOUBLE PRECISION,
    longitude        DOUBLE PRECISION,
    content_item_ids TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_classes_level_time ON classes (level, scheduled_time);

CREATE TABLE IF NOT EXISTS bookings (
    class_id   TEXT NOT NULL REFERENCES classes(id),
    student_id TEXT NOT NULL REFERENCES students(id),
    PRIMARY KEY (class_id, student_id)
);

CREATE TABLE IF NOT EXISTS feedback (
    id            TEXT PRIMARY KEY,
    student_id    TEXT NOT NULL,
    course_id     TEXT NOT NULL DEFAULT '',
    class_id      TEXT NOT NULL DEFAULT '',
    teacher_id    TEXT NOT NULL DEFAULT '',
    unit_number   INTEGER NOT NULL DEFAULT 0,
    lesson_number INTEGER NOT NULL DEFAULT 0,
    rating        INTEGER NOT NULL DEFAULT 0,
    strengths     TEXT[] NOT NULL DEFAULT '{}',
    improvements  TEXT[] NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_feedback_student_course ON feedback (student_id, course_id);
CREATE INDEX IF NOT EXISTS idx_feedback_course ON feedback (course_id);

CREATE TABLE IF NOT EXISTS attendance (
    student_id TEXT NOT NULL,
    class_id   TEXT NOT NULL,
    teacher_id TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL DEFAULT 'present',
    class_size INTEGER NOT NULL DEFAULT 0,
    starts_at  TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (student_id, class_id)
);
CREATE INDEX IF NOT EXISTS idx_attendance_class ON attendance (class_id);

CREATE TABLE IF NOT EXISTS waitlist (
    class_id   TEXT NOT NULL,
    student_id TEXT NOT NULL,
    position   INTEGER NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (class_id, student_id)
);
`

// RunMigrations applies the schema to the configured database through
// database/sql so it works before the pgx pool exists.
func RunMigrations(cfg *config.Config) error {
	db, err := sql.Open("postgres", cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sql db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
