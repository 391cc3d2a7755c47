package entity

import "math"

// ContentItem is one curriculum lesson as stored in the materials catalog.
type ContentItem struct {
	ID                       string      `json:"id"`
	CourseID                 string      `json:"course_id"`
	Title                    string      `json:"title"`
	UnitNumber               int         `json:"unit_number"`
	LessonNumber             int         `json:"lesson_number"`
	ContentType              ContentType `json:"content_type"`
	DifficultyLevel          int         `json:"difficulty_level"`
	Prerequisites            []string    `json:"prerequisites"`
	EstimatedDurationMinutes int         `json:"estimated_duration_minutes"`
	Tags                     []string    `json:"tags"`
	LearningObjectives       []string    `json:"learning_objectives"`
}

// Key returns the curriculum position of the item.
func (c ContentItem) Key() LessonKey {
	return LessonKey{Unit: c.UnitNumber, Lesson: c.LessonNumber}
}

// DifficultyFor derives a 1-10 difficulty level from a curriculum position
// (floor(unit*1.5 + lesson*0.3), capped at 10).
func DifficultyFor(unit, lesson int) int {
	level := int(math.Floor(float64(unit)*1.5 + float64(lesson)*0.3))
	if level < 1 {
		return 1
	}
	if level > 10 {
		return 10
	}
	return level
}

// Normalize fills derived fields that the store may not carry.
func (c *ContentItem) Normalize() {
	if c.DifficultyLevel == 0 {
		c.DifficultyLevel = DifficultyFor(c.UnitNumber, c.LessonNumber)
	}
	if c.ContentType == "" {
		c.ContentType = ContentReading
	}
	if c.EstimatedDurationMinutes == 0 {
		c.EstimatedDurationMinutes = 45
	}
}

// Course is the catalog record a curriculum belongs to.
type Course struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Level      CourseLevel `json:"level"`
	TotalUnits int         `json:"total_units"`
}
