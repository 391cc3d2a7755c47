package backup

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSelectTablesDefaultsToAll(t *testing.T) {
	tables, err := selectTables(nil)
	if err != nil {
		t.Fatalf("selectTables: %v", err)
	}
	if !reflect.DeepEqual(tables, tableOrder) {
		t.Fatalf("tables = %v", tables)
	}
}

func TestSelectTablesKeepsDependencyOrder(t *testing.T) {
	tables, err := selectTables([]string{"classes", "STUDENTS", " courses "})
	if err != nil {
		t.Fatalf("selectTables: %v", err)
	}
	want := []string{"students", "courses", "classes"}
	if !reflect.DeepEqual(tables, want) {
		t.Fatalf("tables = %v, want %v", tables, want)
	}
}

func TestSelectTablesRejectsUnknown(t *testing.T) {
	if _, err := selectTables([]string{"words"}); err == nil {
		t.Fatalf("unknown table accepted")
	}
	if _, err := selectTables([]string{" ", ""}); !errors.Is(err, errNoTablesSelected) {
		t.Fatalf("blank selection: %v", err)
	}
}

func TestEncodeDecodeValues(t *testing.T) {
	if got := encodeValue([]byte("plain text")); got != "plain text" {
		t.Fatalf("utf-8 bytes = %v", got)
	}

	binary := []byte{0xff, 0xfe, 0x00}
	encoded := encodeValue(binary)
	wrapped, ok := encoded.(map[string]any)
	if !ok || wrapped[binaryKey] == nil {
		t.Fatalf("binary encoding = %v", encoded)
	}
	decoded := decodeValue(wrapped)
	if !bytes.Equal(decoded.([]byte), binary) {
		t.Fatalf("binary round trip = %v", decoded)
	}

	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	if got := encodeValue(at); got != "2026-03-02T08:30:00Z" {
		t.Fatalf("time encoding = %v", got)
	}

	// Scalars pass through untouched.
	if got := decodeValue(42.0); got != 42.0 {
		t.Fatalf("scalar decode = %v", got)
	}
}

func TestWriteRecordEmitsOneLine(t *testing.T) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)

	rec := record{Type: "row", Table: "students", Row: map[string]any{"id": "s1"}}
	if err := writeRecord(writer, rec); err != nil {
		t.Fatalf("writeRecord: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	line := buf.String()
	if line[len(line)-1] != '\n' {
		t.Fatalf("record not newline terminated: %q", line)
	}

	var parsed record
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Type != "row" || parsed.Table != "students" || parsed.Row["id"] != "s1" {
		t.Fatalf("parsed = %+v", parsed)
	}
}

func TestNewServiceValidatesDSN(t *testing.T) {
	if _, err := NewService("  "); err == nil {
		t.Fatalf("blank DSN accepted")
	}

	svc, err := NewService("postgres://localhost/scheduler", WithBatchSize(64))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if svc.batchSize != 64 {
		t.Fatalf("batchSize = %d", svc.batchSize)
	}

	svc, err = NewService("postgres://localhost/scheduler", WithBatchSize(-1))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if svc.batchSize != defaultBatchSize {
		t.Fatalf("batchSize = %d, want default %d", svc.batchSize, defaultBatchSize)
	}
}
