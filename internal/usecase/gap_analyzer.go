package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

// GapAnalyzer computes per-student curriculum gaps: what remains unlearned,
// how urgent it is, and which peers could study it together.
type GapAnalyzer interface {
	// AnalyzeStudentProgress summarises the student's standing in every
	// enrolled course. A student with no enrollments yields an empty slice,
	// not an error.
	AnalyzeStudentProgress(ctx context.Context, studentID string) ([]entity.StudentProgress, error)
	// IdentifyUnlearnedContent diffs the curriculum against completed
	// lessons per enrollment. courseID narrows the scan when non-empty.
	IdentifyUnlearnedContent(ctx context.Context, studentID, courseID string) ([]entity.UnlearnedContent, error)
	// FindCompatibleStudents returns students at the level whose unlearned
	// content overlaps any target item within two lessons of the same unit.
	FindCompatibleStudents(ctx context.Context, items []entity.ContentItem, level entity.CourseLevel) ([]string, error)
}

// NewGapAnalyzer wires the analyzer with its read-side repositories.
func NewGapAnalyzer(
	students repository.StudentRepository,
	curriculum repository.CurriculumRepository,
	feedback repository.FeedbackRepository,
	attendance repository.AttendanceRepository,
) GapAnalyzer {
	return &gapAnalyzer{
		students:   students,
		curriculum: curriculum,
		feedback:   feedback,
		attendance: attendance,
		clock:      time.Now,
	}
}

type gapAnalyzer struct {
	students   repository.StudentRepository
	curriculum repository.CurriculumRepository
	feedback   repository.FeedbackRepository
	attendance repository.AttendanceRepository
	clock      func() time.Time
}

const (
	strugglingRatingBelow  = 3
	masteredRatingFrom     = 4
	nextContentCount       = 3
	maxGroupingPeers       = 8
	groupingLessonSpread   = 1
	compatibleLessonSpread = 2
)

func (a *gapAnalyzer) AnalyzeStudentProgress(ctx context.Context, studentID string) ([]entity.StudentProgress, error) {
	student, err := a.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	enrollments, err := a.students.ListEnrollments(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return []entity.StudentProgress{}, nil
	}

	attendance, err := a.attendance.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	lastClass := lastClassDate(attendance, a.clock())

	result := make([]entity.StudentProgress, 0, len(enrollments))
	for _, enrollment := range enrollments {
		history, err := a.feedback.ListByStudentCourse(ctx, studentID, enrollment.CourseID)
		if err != nil {
			return nil, fmt.Errorf("list feedback for course %s: %w", enrollment.CourseID, err)
		}
		items, err := a.curriculum.ListCourseContent(ctx, enrollment.CourseID)
		if err != nil {
			return nil, fmt.Errorf("list curriculum for course %s: %w", enrollment.CourseID, err)
		}

		progress := entity.StudentProgress{
			StudentID:           studentID,
			CourseID:            enrollment.CourseID,
			CurrentUnit:         enrollment.CurrentUnit,
			CurrentLesson:       enrollment.CurrentLesson,
			ProgressPercentage:  enrollment.ProgressPercentage,
			LastCompletedLesson: enrollment.LastCompletedLesson,
			LastClassDate:       lastClass,
			LearningPace:        paceFromHistory(history),
			StrugglingTopics:    topicsFromFeedback(history, false),
			MasteredTopics:      topicsFromFeedback(history, true),
			LearningGoals:       student.LearningGoals,
			NextPriorityContent: nextContentAfter(items, enrollment.Position(), nextContentCount),
		}
		result = append(result, progress)
	}
	return result, nil
}

func (a *gapAnalyzer) IdentifyUnlearnedContent(ctx context.Context, studentID, courseID string) ([]entity.UnlearnedContent, error) {
	enrollments, err := a.students.ListEnrollments(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if courseID != "" {
		enrollments = lo.Filter(enrollments, func(e entity.Enrollment, _ int) bool {
			return e.CourseID == courseID
		})
	}
	if len(enrollments) == 0 {
		return []entity.UnlearnedContent{}, nil
	}

	result := make([]entity.UnlearnedContent, 0, len(enrollments))
	for _, enrollment := range enrollments {
		gap, err := a.courseGap(ctx, enrollment)
		if err != nil {
			return nil, err
		}
		if gap == nil {
			continue // curriculum fully covered
		}
		result = append(result, *gap)
	}
	return result, nil
}

// courseGap builds the UnlearnedContent entry for one enrollment, or nil when
// every curriculum item is completed.
func (a *gapAnalyzer) courseGap(ctx context.Context, enrollment entity.Enrollment) (*entity.UnlearnedContent, error) {
	items, err := a.curriculum.ListCourseContent(ctx, enrollment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list curriculum for course %s: %w", enrollment.CourseID, err)
	}
	history, err := a.feedback.ListByStudentCourse(ctx, enrollment.StudentID, enrollment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list feedback for course %s: %w", enrollment.CourseID, err)
	}

	completed := completionSet(lo.Map(history, func(f entity.FeedbackEntry, _ int) entity.LessonKey {
		return f.Key()
	}))
	unlearned := lo.Filter(items, func(item entity.ContentItem, _ int) bool {
		_, done := completed[item.Key()]
		return !done
	})
	if len(unlearned) == 0 {
		return nil, nil
	}

	struggling := topicsFromFeedback(history, false)
	score := priorityScoreFor(enrollment.ProgressPercentage, len(struggling), len(unlearned), paceFromHistory(history))

	peers, err := a.groupingCompatibility(ctx, enrollment, unlearned)
	if err != nil {
		return nil, err
	}

	gap := &entity.UnlearnedContent{
		StudentID:             enrollment.StudentID,
		CourseID:              enrollment.CourseID,
		ContentItems:          unlearned,
		PriorityScore:         score,
		UrgencyLevel:          entity.UrgencyForScore(score),
		RecommendedClassType:  recommendedClassType(struggling, unlearned),
		EstimatedLearningTime: lo.SumBy(unlearned, func(item entity.ContentItem) int { return item.EstimatedDurationMinutes }),
		GroupingCompatibility: peers,
	}
	return gap, nil
}

// groupingCompatibility scans the other students of the course for overlapping
// unlearned positions (same unit, lesson within ±1). Completions are loaded in
// a single batch query rather than per student.
func (a *gapAnalyzer) groupingCompatibility(ctx context.Context, enrollment entity.Enrollment, unlearned []entity.ContentItem) ([]string, error) {
	enrolled, err := a.students.ListEnrollmentsByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	completions, err := a.feedback.ListCompletionsByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list course completions: %w", err)
	}
	items, err := a.curriculum.ListCourseContent(ctx, enrollment.CourseID)
	if err != nil {
		return nil, fmt.Errorf("list curriculum for course %s: %w", enrollment.CourseID, err)
	}

	targets := lo.Map(unlearned, func(item entity.ContentItem, _ int) entity.LessonKey { return item.Key() })

	var peers []string
	for _, other := range enrolled {
		if other.StudentID == enrollment.StudentID {
			continue
		}
		otherUnlearned := unlearnedKeys(items, completions[other.StudentID])
		if keysOverlap(targets, otherUnlearned, groupingLessonSpread) {
			peers = append(peers, other.StudentID)
		}
	}
	sort.Strings(peers)
	if len(peers) > maxGroupingPeers {
		peers = peers[:maxGroupingPeers]
	}
	return peers, nil
}

func (a *gapAnalyzer) FindCompatibleStudents(ctx context.Context, items []entity.ContentItem, level entity.CourseLevel) ([]string, error) {
	if len(items) == 0 {
		return []string{}, nil
	}

	candidates, err := a.students.ListIDsByLevel(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("list students at level %s: %w", level, err)
	}
	atLevel := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		atLevel[id] = struct{}{}
	}

	targetsByCourse := lo.GroupBy(items, func(item entity.ContentItem) string { return item.CourseID })

	matched := make(map[string]struct{})
	for courseID, courseItems := range targetsByCourse {
		curriculum, err := a.curriculum.ListCourseContent(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("list curriculum for course %s: %w", courseID, err)
		}
		completions, err := a.feedback.ListCompletionsByCourse(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("list course completions: %w", err)
		}
		enrolled, err := a.students.ListEnrollmentsByCourse(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("list course enrollments: %w", err)
		}

		targets := lo.Map(courseItems, func(item entity.ContentItem, _ int) entity.LessonKey { return item.Key() })
		for _, enrollment := range enrolled {
			if _, ok := atLevel[enrollment.StudentID]; !ok {
				continue
			}
			if keysOverlap(targets, unlearnedKeys(curriculum, completions[enrollment.StudentID]), compatibleLessonSpread) {
				matched[enrollment.StudentID] = struct{}{}
			}
		}
	}

	result := lo.Keys(matched)
	sort.Strings(result)
	return result, nil
}

// paceFromHistory derives the lessons/week pace bucket from completion
// timestamps. Histories shorter than a week count as one week.
func paceFromHistory(history []entity.FeedbackEntry) entity.LearningPace {
	if len(history) == 0 {
		return entity.PaceSlow
	}
	first, last := history[0].CreatedAt, history[0].CreatedAt
	for _, entry := range history[1:] {
		if entry.CreatedAt.Before(first) {
			first = entry.CreatedAt
		}
		if entry.CreatedAt.After(last) {
			last = entry.CreatedAt
		}
	}
	weeks := last.Sub(first).Hours() / 24 / 7
	if weeks < 1 {
		weeks = 1
	}
	return entity.PaceForLessonsPerWeek(float64(len(history)) / weeks)
}

// topicsFromFeedback collects distinct topic tokens: strengths from entries
// rated >= 4 when mastered, otherwise areas for improvement from entries
// rated < 3.
func topicsFromFeedback(history []entity.FeedbackEntry, mastered bool) []string {
	var topics []string
	for _, entry := range history {
		if mastered && entry.Rating >= masteredRatingFrom {
			topics = append(topics, entry.Strengths...)
		}
		if !mastered && entry.Rating < strugglingRatingBelow {
			topics = append(topics, entry.AreasForImprovement...)
		}
	}
	return lo.Uniq(topics)
}

func nextContentAfter(items []entity.ContentItem, position entity.LessonKey, limit int) []entity.ContentItem {
	upcoming := lo.Filter(items, func(item entity.ContentItem, _ int) bool {
		return position.Before(item.Key())
	})
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// priorityScoreFor sums the weighted urgency factors and clamps to [0,100]:
// low progress +30 (+15 under 75%), struggling topics +20 over three (+10
// over one), unlearned volume +25 over ten (+15 over five), slow pace +15,
// fast pace -10.
func priorityScoreFor(progressPct float64, strugglingCount, unlearnedCount int, pace entity.LearningPace) float64 {
	var score float64
	switch {
	case progressPct < 50:
		score += 30
	case progressPct < 75:
		score += 15
	}
	switch {
	case strugglingCount > 3:
		score += 20
	case strugglingCount > 1:
		score += 10
	}
	switch {
	case unlearnedCount > 10:
		score += 25
	case unlearnedCount > 5:
		score += 15
	}
	switch pace {
	case entity.PaceSlow:
		score += 15
	case entity.PaceFast:
		score -= 10
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// recommendedClassType suggests individual attention for students with more
// than two struggling topics or any unlearned item above difficulty 7.
func recommendedClassType(struggling []string, unlearned []entity.ContentItem) entity.ClassType {
	if len(struggling) > 2 {
		return entity.ClassIndividual
	}
	for _, item := range unlearned {
		if item.DifficultyLevel > 7 {
			return entity.ClassIndividual
		}
	}
	return entity.ClassGroup
}

func completionSet(keys []entity.LessonKey) map[entity.LessonKey]struct{} {
	set := make(map[entity.LessonKey]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}

func unlearnedKeys(curriculum []entity.ContentItem, completed []entity.LessonKey) []entity.LessonKey {
	done := completionSet(completed)
	var keys []entity.LessonKey
	for _, item := range curriculum {
		if _, ok := done[item.Key()]; !ok {
			keys = append(keys, item.Key())
		}
	}
	return keys
}

// keysOverlap reports whether any pair of keys shares a unit with lessons at
// most spread apart.
func keysOverlap(a, b []entity.LessonKey, spread int) bool {
	for _, ka := range a {
		for _, kb := range b {
			if ka.Unit != kb.Unit {
				continue
			}
			diff := ka.Lesson - kb.Lesson
			if diff < 0 {
				diff = -diff
			}
			if diff <= spread {
				return true
			}
		}
	}
	return false
}

func lastClassDate(records []entity.AttendanceRecord, now time.Time) *time.Time {
	var last *time.Time
	for _, record := range records {
		if record.StartsAt.After(now) {
			continue
		}
		if last == nil || record.StartsAt.After(*last) {
			ts := record.StartsAt
			last = &ts
		}
	}
	return last
}
