package usecase

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

// CurriculumImporter loads course catalogs from YAML files into the store.
type CurriculumImporter interface {
	ImportFile(ctx context.Context, path string) (*ImportSummary, error)
	Import(ctx context.Context, r io.Reader) (*ImportSummary, error)
}

// ImportSummary reports what an import run touched.
type ImportSummary struct {
	Courses      int `json:"courses"`
	ContentItems int `json:"content_items"`
	Skipped      int `json:"skipped"`
}

// NewCurriculumImporter wires the importer.
func NewCurriculumImporter(curriculum repository.CurriculumRepository, logger *logrus.Logger) CurriculumImporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &curriculumImporter{curriculum: curriculum, log: logger}
}

type curriculumImporter struct {
	curriculum repository.CurriculumRepository
	log        *logrus.Logger
}

// curriculumFile is the YAML document shape.
type curriculumFile struct {
	Courses []courseDoc `yaml:"courses"`
}

type courseDoc struct {
	ID         string       `yaml:"id"`
	Title      string       `yaml:"title"`
	Level      string       `yaml:"level"`
	TotalUnits int          `yaml:"total_units"`
	Content    []contentDoc `yaml:"content"`
}

type contentDoc struct {
	ID              string   `yaml:"id"`
	Title           string   `yaml:"title"`
	Unit            int      `yaml:"unit"`
	Lesson          int      `yaml:"lesson"`
	Type            string   `yaml:"type"`
	Difficulty      int      `yaml:"difficulty"`
	DurationMinutes int      `yaml:"duration_minutes"`
	Prerequisites   []string `yaml:"prerequisites"`
	Tags            []string `yaml:"tags"`
	Objectives      []string `yaml:"objectives"`
}

func (i *curriculumImporter) ImportFile(ctx context.Context, path string) (*ImportSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curriculum file: %w", err)
	}
	defer f.Close()
	return i.Import(ctx, f)
}

func (i *curriculumImporter) Import(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	var doc curriculumFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode curriculum yaml: %w", err)
	}

	summary := &ImportSummary{}
	for _, courseDoc := range doc.Courses {
		if courseDoc.ID == "" || courseDoc.Title == "" {
			i.log.WithField("course_id", courseDoc.ID).Warn("course missing id or title, skipped")
			summary.Skipped++
			continue
		}

		course := &entity.Course{
			ID:         courseDoc.ID,
			Title:      courseDoc.Title,
			Level:      entity.ParseCourseLevel(courseDoc.Level),
			TotalUnits: courseDoc.TotalUnits,
		}
		if err := i.curriculum.UpsertCourse(ctx, course); err != nil {
			return summary, fmt.Errorf("upsert course %s: %w", course.ID, err)
		}
		summary.Courses++

		for _, itemDoc := range courseDoc.Content {
			if itemDoc.ID == "" || itemDoc.Unit <= 0 || itemDoc.Lesson <= 0 {
				i.log.WithFields(logrus.Fields{
					"course_id":  course.ID,
					"content_id": itemDoc.ID,
				}).Warn("content item missing id or position, skipped")
				summary.Skipped++
				continue
			}

			item := &entity.ContentItem{
				ID:                       itemDoc.ID,
				CourseID:                 course.ID,
				Title:                    itemDoc.Title,
				UnitNumber:               itemDoc.Unit,
				LessonNumber:             itemDoc.Lesson,
				ContentType:              entity.ParseContentType(itemDoc.Type),
				DifficultyLevel:          itemDoc.Difficulty,
				Prerequisites:            itemDoc.Prerequisites,
				EstimatedDurationMinutes: itemDoc.DurationMinutes,
				Tags:                     itemDoc.Tags,
				LearningObjectives:       itemDoc.Objectives,
			}
			item.Normalize()
			if err := i.curriculum.UpsertContentItem(ctx, item); err != nil {
				return summary, fmt.Errorf("upsert content %s: %w", item.ID, err)
			}
			summary.ContentItems++
		}
	}

	i.log.WithFields(logrus.Fields{
		"courses": summary.Courses,
		"content": summary.ContentItems,
		"skipped": summary.Skipped,
	}).Info("curriculum import finished")
	return summary, nil
}
