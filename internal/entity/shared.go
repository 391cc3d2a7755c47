package entity

import (
	"fmt"
	"strings"
	"time"
)

// CourseLevel represents the proficiency band a course (and its students) belongs to.
type CourseLevel string

const (
	LevelUnspecified  CourseLevel = ""
	LevelBeginner     CourseLevel = "beginner"
	LevelElementary   CourseLevel = "elementary"
	LevelIntermediate CourseLevel = "intermediate"
	LevelUpper        CourseLevel = "upper_intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

// ParseCourseLevel converts an arbitrary string into a supported CourseLevel value.
func ParseCourseLevel(raw string) CourseLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "beginner":
		return LevelBeginner
	case "elementary":
		return LevelElementary
	case "intermediate":
		return LevelIntermediate
	case "upper_intermediate", "upper-intermediate":
		return LevelUpper
	case "advanced":
		return LevelAdvanced
	default:
		return LevelUnspecified
	}
}

// ContentType classifies a curriculum item by the skill it trains.
type ContentType string

const (
	ContentReading   ContentType = "reading"
	ContentListening ContentType = "listening"
	ContentSpeaking  ContentType = "speaking"
)

// ParseContentType converts stored content metadata into a supported type, defaulting to reading.
func ParseContentType(raw string) ContentType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "listening":
		return ContentListening
	case "speaking":
		return ContentSpeaking
	default:
		return ContentReading
	}
}

// LearningPace buckets how fast a student completes lessons.
type LearningPace string

const (
	PaceSlow    LearningPace = "slow"
	PaceAverage LearningPace = "average"
	PaceFast    LearningPace = "fast"
)

// PaceForLessonsPerWeek derives the pace bucket from a lessons/week rate.
// Below one lesson a week is slow, above three is fast.
func PaceForLessonsPerWeek(rate float64) LearningPace {
	switch {
	case rate < 1:
		return PaceSlow
	case rate > 3:
		return PaceFast
	default:
		return PaceAverage
	}
}

// UrgencyLevel is the coarse scheduling bucket derived from a priority score.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyUrgent UrgencyLevel = "urgent"
)

// UrgencyForScore maps a priority score (0-100) onto its urgency bucket.
// The mapping is monotone: a higher score never yields a lower bucket.
func UrgencyForScore(score float64) UrgencyLevel {
	switch {
	case score >= 80:
		return UrgencyUrgent
	case score >= 60:
		return UrgencyHigh
	case score >= 40:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Rank orders urgency buckets for sorting and rule evaluation.
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyUrgent:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// ClassType distinguishes one-on-one classes from group classes.
type ClassType string

const (
	ClassIndividual ClassType = "individual"
	ClassGroup      ClassType = "group"
)

// LearningStyle is the student's preferred mode of instruction.
type LearningStyle string

const (
	StyleVisual      LearningStyle = "visual"
	StyleAuditory    LearningStyle = "auditory"
	StyleKinesthetic LearningStyle = "kinesthetic"
	StyleMixed       LearningStyle = "mixed"
)

// ParseLearningStyle converts stored metadata into a supported style, defaulting to mixed.
func ParseLearningStyle(raw string) LearningStyle {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "visual":
		return StyleVisual
	case "auditory":
		return StyleAuditory
	case "kinesthetic":
		return StyleKinesthetic
	default:
		return StyleMixed
	}
}

// LessonKey identifies a curriculum position by unit and lesson number.
type LessonKey struct {
	Unit   int `json:"unit"`
	Lesson int `json:"lesson"`
}

// String renders the canonical "unit-lesson" form used for completion diffing.
func (k LessonKey) String() string {
	return fmt.Sprintf("%d-%d", k.Unit, k.Lesson)
}

// Before reports whether k comes strictly earlier in the curriculum than other.
func (k LessonKey) Before(other LessonKey) bool {
	if k.Unit != other.Unit {
		return k.Unit < other.Unit
	}
	return k.Lesson < other.Lesson
}

// TimeSlot is a recurring weekly (day, hour) bucket.
type TimeSlot struct {
	Weekday time.Weekday `json:"weekday"`
	Hour    int          `json:"hour"`
}

// NextOccurrence returns the first instant matching the slot at or after from.
func (s TimeSlot) NextOccurrence(from time.Time) time.Time {
	candidate := time.Date(from.Year(), from.Month(), from.Day(), s.Hour, 0, 0, 0, from.Location())
	for candidate.Weekday() != s.Weekday || candidate.Before(from) {
		next := candidate.AddDate(0, 0, 1)
		candidate = time.Date(next.Year(), next.Month(), next.Day(), s.Hour, 0, 0, 0, from.Location())
	}
	return candidate
}
