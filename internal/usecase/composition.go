package usecase

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
)

// CompositionBuilder turns per-student content gaps into viable class
// compositions: shared-gap groups where enough students align, individual
// classes for everyone else.
type CompositionBuilder interface {
	BuildCompositions(gaps map[string][]entity.UnlearnedContent, cfg entity.RulesEngineConfig) []entity.ClassComposition
}

// NewCompositionBuilder returns the default builder.
func NewCompositionBuilder() CompositionBuilder {
	return &compositionBuilder{newID: uuid.NewString}
}

type compositionBuilder struct {
	newID func() string
}

const (
	minClassDuration       = 45
	maxClassDuration       = 120
	individualMaxDuration  = 90
	individualMaxItems     = 3
	groupSizeHardDifficult = 4
	groupSizeDifficult     = 6
)

// contentGroup is one (course, unit-lesson) bucket shared by several students.
type contentGroup struct {
	courseID string
	key      entity.LessonKey
	item     entity.ContentItem
	members  []string
}

func (b *compositionBuilder) BuildCompositions(gaps map[string][]entity.UnlearnedContent, cfg entity.RulesEngineConfig) []entity.ClassComposition {
	groups := collectGroups(gaps)

	assigned := make(map[string]struct{})
	var compositions []entity.ClassComposition

	for _, group := range groups {
		members := lo.Filter(group.members, func(id string, _ int) bool {
			_, taken := assigned[id]
			return !taken
		})
		if len(members) < cfg.Constraints.MinStudentsPerGroup {
			continue
		}

		size := optimalGroupSize(group.item.DifficultyLevel, cfg.Constraints.MaxStudentsPerGroup, len(members))
		for _, chunk := range lo.Chunk(members, size) {
			comp := b.groupComposition(group, chunk, gaps)
			compositions = append(compositions, comp)
			// Only students the composition actually carries are taken;
			// members dropped by the difficulty rules stay available for
			// later groups or the individual fallback.
			for _, id := range comp.StudentIDs {
				assigned[id] = struct{}{}
			}
		}
	}

	// Students matching no group fall through to individual compositions
	// built from their most urgent gap.
	studentIDs := lo.Keys(gaps)
	sort.Strings(studentIDs)
	for _, studentID := range studentIDs {
		if _, taken := assigned[studentID]; taken {
			continue
		}
		if comp := b.individualComposition(studentID, gaps[studentID]); comp != nil {
			compositions = append(compositions, *comp)
		}
	}
	return compositions
}

// collectGroups buckets unlearned items by (course, unit-lesson) and orders
// the buckets by curriculum position for a deterministic pass.
func collectGroups(gaps map[string][]entity.UnlearnedContent) []contentGroup {
	byKey := make(map[string]*contentGroup)
	for studentID, entries := range gaps {
		for _, entry := range entries {
			for _, item := range entry.ContentItems {
				mapKey := entry.CourseID + "/" + item.Key().String()
				group, ok := byKey[mapKey]
				if !ok {
					group = &contentGroup{courseID: entry.CourseID, key: item.Key(), item: item}
					byKey[mapKey] = group
				}
				group.members = append(group.members, studentID)
			}
		}
	}

	groups := make([]contentGroup, 0, len(byKey))
	for _, group := range byKey {
		group.members = lo.Uniq(group.members)
		sort.Strings(group.members)
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].courseID != groups[j].courseID {
			return groups[i].courseID < groups[j].courseID
		}
		return groups[i].key.Before(groups[j].key)
	})
	return groups
}

// optimalGroupSize shrinks groups as content gets harder: 4 above difficulty
// 7, 6 above 5, otherwise the configured maximum; never above the member count.
func optimalGroupSize(difficulty, configuredMax, memberCount int) int {
	size := configuredMax
	switch {
	case difficulty > 7:
		size = groupSizeHardDifficult
	case difficulty > 5:
		size = groupSizeDifficult
	}
	if size > memberCount {
		size = memberCount
	}
	if size < 1 {
		size = 1
	}
	return size
}

func (b *compositionBuilder) groupComposition(group contentGroup, members []string, gaps map[string][]entity.UnlearnedContent) entity.ClassComposition {
	classType := entity.ClassGroup
	if len(members) == 1 || group.item.DifficultyLevel > 8 {
		classType = entity.ClassIndividual
	}
	if classType == entity.ClassIndividual && len(members) > 1 {
		// Difficulty pushed the group to individual attention; keep the
		// invariant by scheduling only the first member here. The rest stay
		// unassigned and fall through to individual compositions.
		members = members[:1]
	}

	priority := entity.UrgencyLow
	for _, id := range members {
		for _, entry := range gaps[id] {
			if entry.CourseID == group.courseID && entry.UrgencyLevel.Rank() > priority.Rank() {
				priority = entry.UrgencyLevel
			}
		}
	}

	return entity.ClassComposition{
		ID:                  b.newID(),
		StudentIDs:          members,
		ContentFocus:        []entity.ContentItem{group.item},
		ClassType:           classType,
		RecommendedDuration: clampDuration(group.item.EstimatedDurationMinutes, maxClassDuration),
		DifficultyLevel:     group.item.DifficultyLevel,
		TeacherRequirements: teacherRequirements([]entity.ContentItem{group.item}),
		SchedulingPriority:  priority,
		OptimalClassSize:    len(members),
		LearningObjectives:  lo.Uniq(group.item.LearningObjectives),
		PrerequisiteCheck:   prerequisitesMet([]entity.ContentItem{group.item}, gapItemIDs(gaps, members)),
	}
}

// individualComposition builds a one-student composition from the student's
// highest-urgency gap, capped at three items and ninety minutes.
func (b *compositionBuilder) individualComposition(studentID string, entries []entity.UnlearnedContent) *entity.ClassComposition {
	if len(entries) == 0 {
		return nil
	}

	top := entries[0]
	for _, entry := range entries[1:] {
		if entry.PriorityScore > top.PriorityScore {
			top = entry
		}
	}
	if len(top.ContentItems) == 0 {
		return nil
	}

	focus := top.ContentItems
	if len(focus) > individualMaxItems {
		focus = focus[:individualMaxItems]
	}
	duration := lo.SumBy(focus, func(item entity.ContentItem) int { return item.EstimatedDurationMinutes })

	comp := entity.ClassComposition{
		ID:                  b.newID(),
		StudentIDs:          []string{studentID},
		ContentFocus:        focus,
		ClassType:           entity.ClassIndividual,
		RecommendedDuration: clampDuration(duration, individualMaxDuration),
		DifficultyLevel:     maxDifficulty(focus),
		TeacherRequirements: teacherRequirements(focus),
		SchedulingPriority:  top.UrgencyLevel,
		OptimalClassSize:    1,
		LearningObjectives:  lo.Uniq(lo.FlatMap(focus, func(item entity.ContentItem, _ int) []string { return item.LearningObjectives })),
		PrerequisiteCheck:   prerequisitesMet(focus, gapItemIDs(map[string][]entity.UnlearnedContent{studentID: entries}, []string{studentID})),
	}
	return &comp
}

func clampDuration(minutes, ceiling int) int {
	if minutes < minClassDuration {
		return minClassDuration
	}
	if minutes > ceiling {
		return ceiling
	}
	return minutes
}

func maxDifficulty(items []entity.ContentItem) int {
	level := 0
	for _, item := range items {
		if item.DifficultyLevel > level {
			level = item.DifficultyLevel
		}
	}
	return level
}

// teacherRequirements derives specialization tags from the content types in
// focus.
func teacherRequirements(items []entity.ContentItem) []string {
	tags := lo.Map(items, func(item entity.ContentItem, _ int) string { return string(item.ContentType) })
	tags = lo.Uniq(tags)
	sort.Strings(tags)
	return tags
}

// gapItemIDs collects every unlearned content ID of the given students, used
// to check that focus prerequisites are already learned.
func gapItemIDs(gaps map[string][]entity.UnlearnedContent, students []string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, studentID := range students {
		for _, entry := range gaps[studentID] {
			for _, item := range entry.ContentItems {
				ids[item.ID] = struct{}{}
			}
		}
	}
	return ids
}

// prerequisitesMet reports whether no focus prerequisite is itself still
// unlearned by a participant.
func prerequisitesMet(focus []entity.ContentItem, unlearnedIDs map[string]struct{}) bool {
	for _, item := range focus {
		for _, prereq := range item.Prerequisites {
			if prereq == item.ID {
				continue
			}
			if _, missing := unlearnedIDs[prereq]; missing {
				return false
			}
		}
	}
	return true
}
