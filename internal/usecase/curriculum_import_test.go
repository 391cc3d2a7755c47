package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

const sampleCurriculum = `
courses:
  - id: everyday-english
    title: Everyday English
    level: intermediate
    total_units: 2
    content:
      - id: ee-1-1
        title: Greetings
        unit: 1
        lesson: 1
        type: speaking
        duration_minutes: 50
        objectives:
          - introduce yourself
      - id: ee-1-2
        title: Small Talk
        unit: 1
        lesson: 2
        prerequisites:
          - ee-1-1
      - id: ""
        title: broken item
        unit: 0
        lesson: 0
  - id: ""
    title: course without id
`

func TestCurriculumImport(t *testing.T) {
	curriculum := newFakeCurriculumRepo()
	importer := NewCurriculumImporter(curriculum, quietLogger())

	summary, err := importer.Import(context.Background(), strings.NewReader(sampleCurriculum))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Courses != 1 || summary.ContentItems != 2 || summary.Skipped != 2 {
		t.Fatalf("summary = %+v, want 1 course, 2 items, 2 skipped", summary)
	}

	course, err := curriculum.GetCourse(context.Background(), "everyday-english")
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if course.Level != entity.LevelIntermediate || course.TotalUnits != 2 {
		t.Fatalf("course = %+v", course)
	}

	items, err := curriculum.ListCourseContent(context.Background(), "everyday-english")
	if err != nil {
		t.Fatalf("ListCourseContent: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	first := items[0]
	if first.ContentType != entity.ContentSpeaking || first.EstimatedDurationMinutes != 50 {
		t.Fatalf("first item = %+v", first)
	}
	second := items[1]
	// Normalize fills the omitted fields.
	if second.ContentType != entity.ContentReading {
		t.Fatalf("default content type = %s, want reading", second.ContentType)
	}
	if second.EstimatedDurationMinutes != 45 {
		t.Fatalf("default duration = %d, want 45", second.EstimatedDurationMinutes)
	}
	if second.DifficultyLevel != entity.DifficultyFor(1, 2) {
		t.Fatalf("derived difficulty = %d", second.DifficultyLevel)
	}
	if len(second.Prerequisites) != 1 || second.Prerequisites[0] != "ee-1-1" {
		t.Fatalf("prerequisites = %v", second.Prerequisites)
	}
}

func TestCurriculumImportRejectsGarbage(t *testing.T) {
	importer := NewCurriculumImporter(newFakeCurriculumRepo(), quietLogger())
	if _, err := importer.Import(context.Background(), strings.NewReader("courses: [not a mapping")); err == nil {
		t.Fatalf("malformed yaml accepted")
	}
}

func TestCurriculumImportFileMissing(t *testing.T) {
	importer := NewCurriculumImporter(newFakeCurriculumRepo(), quietLogger())
	if _, err := importer.ImportFile(context.Background(), "/nonexistent/curriculum.yaml"); err == nil {
		t.Fatalf("missing file accepted")
	}
}
