package entity

import "fmt"

// ClassComposition is a proposed grouping of students plus the content they
// will jointly study in one class. Compositions are value objects emitted by
// the composition builder and consumed once by the rules engine.
type ClassComposition struct {
	ID                  string        `json:"id"`
	StudentIDs          []string      `json:"student_ids"`
	ContentFocus        []ContentItem `json:"content_focus"`
	ClassType           ClassType     `json:"class_type"`
	RecommendedDuration int           `json:"recommended_duration"`
	DifficultyLevel     int           `json:"difficulty_level"`
	TeacherRequirements []string      `json:"teacher_requirements"`
	SchedulingPriority  UrgencyLevel  `json:"scheduling_priority"`
	OptimalClassSize    int           `json:"optimal_class_size"`
	LearningObjectives  []string      `json:"learning_objectives"`
	PrerequisiteCheck   bool          `json:"prerequisite_check"`
}

// Validate enforces the structural invariants of a composition: between one
// and maxStudents unique members, and individual iff exactly one member.
func (c ClassComposition) Validate(maxStudents int) error {
	if len(c.StudentIDs) == 0 {
		return ErrEmptyComposition
	}
	if len(c.StudentIDs) > maxStudents {
		return fmt.Errorf("composition %s holds %d students, limit %d", c.ID, len(c.StudentIDs), maxStudents)
	}
	seen := make(map[string]struct{}, len(c.StudentIDs))
	for _, id := range c.StudentIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("composition %s repeats student %s", c.ID, id)
		}
		seen[id] = struct{}{}
	}
	if c.ClassType == ClassIndividual && len(c.StudentIDs) != 1 {
		return fmt.Errorf("composition %s is individual with %d students", c.ID, len(c.StudentIDs))
	}
	if c.ClassType == ClassGroup && len(c.StudentIDs) == 1 {
		return fmt.Errorf("composition %s is group with a single student", c.ID)
	}
	return nil
}
