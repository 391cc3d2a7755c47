package entity

import "time"

// TimeRange bounds a scheduling run.
type TimeRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Validate rejects inverted ranges before any processing starts.
func (r TimeRange) Validate() error {
	if r.EndDate.Before(r.StartDate) {
		return ErrInvalidTimeRange
	}
	return nil
}

// OptimizationWeights distributes the optimizer's attention across factors.
// The factors conventionally sum to 1.0.
type OptimizationWeights struct {
	ContentPriority       float64 `json:"content_priority" mapstructure:"content_priority"`
	StudentPreference     float64 `json:"student_preference" mapstructure:"student_preference"`
	TeacherAvailability   float64 `json:"teacher_availability" mapstructure:"teacher_availability"`
	ClassSizeOptimization float64 `json:"class_size_optimization" mapstructure:"class_size_optimization"`
	TimeEfficiency        float64 `json:"time_efficiency" mapstructure:"time_efficiency"`
}

// SchedulingConstraints are the hard bounds the engine enforces.
type SchedulingConstraints struct {
	MaxStudentsPerGroup   int `json:"max_students_per_group" mapstructure:"max_students_per_group"`
	MinStudentsPerGroup   int `json:"min_students_per_group" mapstructure:"min_students_per_group"`
	MaxClassesPerDay      int `json:"max_classes_per_day" mapstructure:"max_classes_per_day"`
	MinBreakMinutes       int `json:"min_break_minutes" mapstructure:"min_break_minutes"`
	MaxDifficultyVariance int `json:"max_difficulty_variance" mapstructure:"max_difficulty_variance"`
}

// RulesEngineConfig is the read-mostly process-wide configuration of the
// rules engine. It is never mutated in place: a request override is merged
// into a request-scoped copy via Merge.
type RulesEngineConfig struct {
	Strategy                string                `json:"strategy" mapstructure:"strategy"`
	Weights                 OptimizationWeights   `json:"optimization_weights" mapstructure:"optimization_weights"`
	Constraints             SchedulingConstraints `json:"constraints" mapstructure:"constraints"`
	SchedulingHorizonDays   int                   `json:"scheduling_horizon_days" mapstructure:"scheduling_horizon_days"`
	ReoptimizationFrequency string                `json:"reoptimization_frequency" mapstructure:"reoptimization_frequency"`
}

// DefaultRulesEngineConfig returns the stock configuration.
func DefaultRulesEngineConfig() RulesEngineConfig {
	return RulesEngineConfig{
		Strategy: "balanced",
		Weights: OptimizationWeights{
			ContentPriority:       0.30,
			StudentPreference:     0.20,
			TeacherAvailability:   0.20,
			ClassSizeOptimization: 0.15,
			TimeEfficiency:        0.15,
		},
		Constraints: SchedulingConstraints{
			MaxStudentsPerGroup:   9,
			MinStudentsPerGroup:   2,
			MaxClassesPerDay:      4,
			MinBreakMinutes:       15,
			MaxDifficultyVariance: 2,
		},
		SchedulingHorizonDays:   14,
		ReoptimizationFrequency: "weekly",
	}
}

// ConfigOverride carries per-request adjustments to the engine config.
// Nil fields keep the default value.
type ConfigOverride struct {
	Strategy              *string              `json:"strategy,omitempty"`
	Weights               *OptimizationWeights `json:"optimization_weights,omitempty"`
	MaxStudentsPerGroup   *int                 `json:"max_students_per_group,omitempty"`
	MinStudentsPerGroup   *int                 `json:"min_students_per_group,omitempty"`
	MaxClassesPerDay      *int                 `json:"max_classes_per_day,omitempty"`
	SchedulingHorizonDays *int                 `json:"scheduling_horizon_days,omitempty"`
}

// Merge applies the override onto a copy of the config and returns the copy.
// The receiver is left untouched so concurrent requests never interfere.
func (c RulesEngineConfig) Merge(override *ConfigOverride) RulesEngineConfig {
	merged := c
	if override == nil {
		return merged
	}
	if override.Strategy != nil {
		merged.Strategy = *override.Strategy
	}
	if override.Weights != nil {
		merged.Weights = *override.Weights
	}
	if override.MaxStudentsPerGroup != nil {
		merged.Constraints.MaxStudentsPerGroup = *override.MaxStudentsPerGroup
	}
	if override.MinStudentsPerGroup != nil {
		merged.Constraints.MinStudentsPerGroup = *override.MinStudentsPerGroup
	}
	if override.MaxClassesPerDay != nil {
		merged.Constraints.MaxClassesPerDay = *override.MaxClassesPerDay
	}
	if override.SchedulingHorizonDays != nil {
		merged.SchedulingHorizonDays = *override.SchedulingHorizonDays
	}
	return merged
}

// SchedulingRequest asks the engine to schedule a set of students (explicit
// IDs, or every student at a level when the list is empty).
type SchedulingRequest struct {
	StudentIDs        []string        `json:"student_ids"`
	Level             CourseLevel     `json:"level,omitempty"`
	TimeRange         TimeRange       `json:"time_range"`
	OptimizationGoals []string        `json:"optimization_goals"`
	Override          *ConfigOverride `json:"config_override,omitempty"`
}

// SchedulingDecision wraps a composition with a candidate teacher and slot,
// pending acceptance by the optimizer.
type SchedulingDecision struct {
	ID                   string           `json:"id"`
	Composition          ClassComposition `json:"composition"`
	TeacherID            string           `json:"teacher_id,omitempty"`
	ScheduledTime        *time.Time       `json:"scheduled_time,omitempty"`
	DurationMinutes      int              `json:"duration_minutes"`
	OptimizationScore    float64          `json:"optimization_score"`
	ConfidenceScore      float64          `json:"confidence_score"`
	Rationale            string           `json:"rationale"`
	ConstraintsSatisfied []string         `json:"constraints_satisfied"`
	ConstraintsViolated  []string         `json:"constraints_violated"`
}

// ScheduledClass is the committed output of a scheduling run. Instances are
// immutable once produced; a new optimization run emits new instances.
type ScheduledClass struct {
	ID                 string        `json:"id"`
	StudentIDs         []string      `json:"student_ids"`
	TeacherID          string        `json:"teacher_id"`
	ContentItems       []ContentItem `json:"content_items"`
	ScheduledTime      time.Time     `json:"scheduled_time"`
	DurationMinutes    int           `json:"duration_minutes"`
	ClassType          ClassType     `json:"class_type"`
	RoomOrLink         string        `json:"room_or_link"`
	PreparationNotes   string        `json:"preparation_notes"`
	LearningObjectives []string      `json:"learning_objectives"`
	SuccessCriteria    []string      `json:"success_criteria"`
}

// EndTime returns the instant the class finishes.
func (c ScheduledClass) EndTime() time.Time {
	return c.ScheduledTime.Add(time.Duration(c.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the class interval intersects [start, start+duration).
// Interval overlap is checked, not slot identity, so 9:00-10:00 conflicts
// with 9:30-10:30.
func (c ScheduledClass) Overlaps(start time.Time, durationMinutes int) bool {
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	return c.ScheduledTime.Before(end) && start.Before(c.EndTime())
}

// PerformanceMetrics summarises the quality of a scheduling run. Coverage,
// satisfaction and teacher utilization are estimates pending richer
// instrumentation.
type PerformanceMetrics struct {
	StudentsScheduled   int     `json:"students_scheduled"`
	ClassesCreated      int     `json:"classes_created"`
	AverageUtilization  float64 `json:"average_utilization"`
	ContentCoverage     float64 `json:"content_coverage"`
	StudentSatisfaction float64 `json:"student_satisfaction"`
	TeacherUtilization  float64 `json:"teacher_utilization"`
}

// SchedulingResult is the accepted schedule plus everything left over.
type SchedulingResult struct {
	ScheduledClasses    []ScheduledClass   `json:"scheduled_classes"`
	UnscheduledStudents []string           `json:"unscheduled_students"`
	Metrics             PerformanceMetrics `json:"metrics"`
}

// SchedulingResponse is the engine's always-answer envelope: on internal
// failure Success is false and Error is set instead of propagating.
type SchedulingResponse struct {
	Success          bool              `json:"success"`
	Result           *SchedulingResult `json:"result,omitempty"`
	Error            string            `json:"error,omitempty"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	Recommendations  []string          `json:"recommendations"`
}
