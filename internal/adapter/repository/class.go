package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

type classRepository struct{ pool *pgxpool.Pool }

// NewClassRepository creates a PostgreSQL-backed ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) repository.ClassRepository {
	return &classRepository{pool: pool}
}

const classColumns = `id, course_id, teacher_id, level, class_type, scheduled_time,
	duration_minutes, capacity, enrolled, is_online, latitude, longitude, content_item_ids`

// classOrderColumns whitelists order keys bound by filterexpr. Keys outside
// the map fall back to scheduled_time.
var classOrderColumns = map[string]string{
	"id":             "id",
	"scheduled_time": "scheduled_time",
	"duration":       "duration_minutes",
	"level":          "level",
	"enrolled":       "enrolled",
}

func (r *classRepository) GetByID(ctx context.Context, id string) (*entity.Class, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+classColumns+` FROM classes WHERE id = $1`, id)
	class, err := scanClass(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrClassNotFound
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	return class, nil
}

func (r *classRepository) List(ctx context.Context, query *repository.ListClassQuery) ([]entity.Class, int64, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if query.Level != entity.LevelUnspecified {
		conds = append(conds, "level = "+arg(string(query.Level)))
	}
	if query.CourseID != "" {
		conds = append(conds, "course_id = "+arg(query.CourseID))
	}
	if query.TeacherID != "" {
		conds = append(conds, "teacher_id = "+arg(query.TeacherID))
	}
	if query.ScheduledFrom != nil {
		conds = append(conds, "scheduled_time >= "+arg(*query.ScheduledFrom))
	}
	if query.ScheduledTo != nil {
		conds = append(conds, "scheduled_time <= "+arg(*query.ScheduledTo))
	}
	if query.OnlyOpen {
		conds = append(conds, "enrolled < capacity")
	}

	sql := `SELECT ` + classColumns + `, COUNT(*) OVER() AS total FROM classes`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY " + orderClause(query.PrimaryKey, query.PrimaryDesc) +
		", " + orderClause(query.SecondaryKey, query.SecondaryDesc)
	if query.PageSize > 0 {
		sql += fmt.Sprintf(" LIMIT %d OFFSET %d", query.PageSize, query.Offset())
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	var (
		out   []entity.Class
		total int64
	)
	for rows.Next() {
		var (
			c         entity.Class
			level     string
			classType string
		)
		if err := rows.Scan(&c.ID, &c.CourseID, &c.TeacherID, &level, &classType,
			&c.ScheduledTime, &c.DurationMinutes, &c.Capacity, &c.Enrolled,
			&c.IsOnline, &c.Latitude, &c.Longitude, &c.ContentItemIDs, &total); err != nil {
			return nil, 0, fmt.Errorf("scan class: %w", err)
		}
		c.Level = entity.ParseCourseLevel(level)
		c.ClassType = entity.ClassType(classType)
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *classRepository) ListOpenByLevel(ctx context.Context, level entity.CourseLevel) ([]entity.Class, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+classColumns+` FROM classes
		WHERE level = $1 AND scheduled_time > now()
		ORDER BY scheduled_time, id`, string(level))
	if err != nil {
		return nil, fmt.Errorf("list open classes: %w", err)
	}
	defer rows.Close()
	return scanClasses(rows)
}

func (r *classRepository) ListBookedByStudent(ctx context.Context, studentID string) ([]entity.Class, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+qualifiedClassColumns()+` FROM classes c
		JOIN bookings b ON b.class_id = c.id
		WHERE b.student_id = $1 AND c.scheduled_time > now()
		ORDER BY c.scheduled_time, c.id`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list booked classes: %w", err)
	}
	defer rows.Close()
	return scanClasses(rows)
}

func orderClause(key string, desc bool) string {
	column, ok := classOrderColumns[key]
	if !ok {
		column = "scheduled_time"
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

func qualifiedClassColumns() string {
	cols := strings.Split(classColumns, ",")
	for i, col := range cols {
		cols[i] = "c." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

func scanClass(row pgx.Row) (*entity.Class, error) {
	var (
		c         entity.Class
		level     string
		classType string
	)
	if err := row.Scan(&c.ID, &c.CourseID, &c.TeacherID, &level, &classType,
		&c.ScheduledTime, &c.DurationMinutes, &c.Capacity, &c.Enrolled,
		&c.IsOnline, &c.Latitude, &c.Longitude, &c.ContentItemIDs); err != nil {
		return nil, err
	}
	c.Level = entity.ParseCourseLevel(level)
	c.ClassType = entity.ClassType(classType)
	return &c, nil
}

func scanClasses(rows pgx.Rows) ([]entity.Class, error) {
	var out []entity.Class
	for rows.Next() {
		class, err := scanClass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, *class)
	}
	return out, rows.Err()
}
