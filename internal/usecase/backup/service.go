// Package backup dumps and restores the scheduler's tables as NDJSON. The
// format is line-oriented: one meta record followed by one record per row,
// so dumps stream and diff well.
package backup

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	_ "github.com/lib/pq" // postgres driver
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
)

var errNoTablesSelected = errors.New("backup: no tables selected")

// tableOrder lists every backed-up table in foreign-key dependency order.
// Import inserts in this order so references resolve.
var tableOrder = []string{
	"students",
	"courses",
	"course_content",
	"enrollments",
	"teachers",
	"teacher_availability",
	"student_availability",
	"classes",
	"bookings",
	"feedback",
	"attendance",
	"waitlist",
}

type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

type Service struct {
	dsn       string
	batchSize int
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService constructs a backup service bound to the provided DSN.
func NewService(dsn string, opts ...Option) (*Service, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("backup: DSN is required")
	}

	svc := &Service{dsn: dsn, batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	tables   []string
	reporter ProgressReporter
}

// WithTables restricts export to the provided table names (snake_case as in DB).
func WithTables(tables []string) ExportOption {
	return func(cfg *exportConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	tables []string
}

// WithImportTables restricts import to the provided table names.
func WithImportTables(tables []string) ImportOption {
	return func(cfg *importConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Table      string         `json:"table,omitempty"`
	Row        map[string]any `json:"row,omitempty"`
}

func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := selectTables(cfg.tables)
	if err != nil {
		return err
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		count, err := countTableRows(ctx, db, table)
		if err != nil {
			return fmt.Errorf("count table %s: %w", table, err)
		}
		counts[table] = count
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := time.Now().UTC()
	meta := record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		Tables:     tables,
		RowCounts:  counts,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	for _, table := range tables {
		reporter.StartTable(table, counts[table])
		if err := s.exportTable(ctx, db, table, reporter, writer); err != nil {
			return err
		}
		reporter.FinishTable(table)
	}
	return writer.Flush()
}

func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := selectTables(cfg.tables)
	if err != nil {
		return err
	}
	wanted := make(map[string]struct{}, len(tables))
	for _, table := range tables {
		wanted[table] = struct{}{}
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	sawMeta := false
	batch := map[string][]map[string]any{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return fmt.Errorf("backup: malformed record: %w", err)
		}

		switch rec.Type {
		case "meta":
			if rec.Version != formatVersion {
				return fmt.Errorf("backup: unsupported format version %d", rec.Version)
			}
			sawMeta = true
		case "row":
			if !sawMeta {
				return errors.New("backup: row record before meta record")
			}
			if _, ok := wanted[rec.Table]; !ok {
				continue
			}
			batch[rec.Table] = append(batch[rec.Table], rec.Row)
			if len(batch[rec.Table]) >= s.batchSize {
				if err := insertRows(ctx, db, rec.Table, batch[rec.Table]); err != nil {
					return err
				}
				batch[rec.Table] = nil
			}
		default:
			return fmt.Errorf("backup: unknown record type %q", rec.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("backup: read input: %w", err)
	}
	if !sawMeta {
		return errors.New("backup: input holds no meta record")
	}

	// Flush remaining batches in dependency order.
	for _, table := range tables {
		if rows := batch[table]; len(rows) > 0 {
			if err := insertRows(ctx, db, table, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Service) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("backup: open database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("backup: ping database: %w", err)
	}
	return db, nil
}

func (s *Service) exportTable(ctx context.Context, db *sql.DB, table string, reporter ProgressReporter, writer *bufio.Writer) error {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return fmt.Errorf("backup: query table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("backup: columns of %s: %w", table, err)
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return fmt.Errorf("backup: scan row of %s: %w", table, err)
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = encodeValue(values[i])
		}
		if err := writeRecord(writer, record{Type: "row", Table: table, Row: row}); err != nil {
			return err
		}
		reporter.Increment(table, 1)
	}
	return rows.Err()
}

func selectTables(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string{}, tableOrder...), nil
	}

	wanted := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		known := false
		for _, table := range tableOrder {
			if table == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("backup: unknown table %q", name)
		}
		wanted[name] = struct{}{}
	}
	if len(wanted) == 0 {
		return nil, errNoTablesSelected
	}

	// Preserve dependency order regardless of how tables were requested.
	selected := make([]string, 0, len(wanted))
	for _, table := range tableOrder {
		if _, ok := wanted[table]; ok {
			selected = append(selected, table)
		}
	}
	return selected, nil
}

func countTableRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func insertRows(ctx context.Context, db *sql.DB, table string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	// All rows of one table share the column set of the first row.
	columns := make([]string, 0, len(rows[0]))
	for column := range rows[0] {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("backup: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("backup: prepare insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(columns))
		for i, column := range columns {
			args[i] = decodeValue(row[column])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("backup: insert into %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// binaryKey marks values that could not be stored as UTF-8 text.
const binaryKey = "$binary"

func encodeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		if utf8.Valid(v) {
			return string(v)
		}
		return map[string]any{binaryKey: base64.StdEncoding.EncodeToString(v)}
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

func decodeValue(value any) any {
	wrapped, ok := value.(map[string]any)
	if !ok {
		return value
	}
	encoded, ok := wrapped[binaryKey].(string)
	if !ok {
		return value
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return value
	}
	return raw
}

func writeRecord(writer *bufio.Writer, rec record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("backup: marshal record: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("backup: write record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("backup: write record: %w", err)
	}
	return nil
}
