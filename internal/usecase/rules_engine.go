package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

// RoomAllocator assigns a room or meeting link to an accepted class.
// Implementations must be deterministic for a given sequence of calls so
// scheduling runs are reproducible.
type RoomAllocator interface {
	Allocate(classType entity.ClassType, startsAt time.Time) string
}

// SchedulingRulesEngine runs the end-to-end scheduling pipeline: gap
// analysis, composition, rule evaluation, teacher and slot assignment, and
// greedy conflict-free placement.
type SchedulingRulesEngine interface {
	// ScheduleClasses always answers: internal failures degrade into a
	// response with Success=false rather than an error.
	ScheduleClasses(ctx context.Context, req entity.SchedulingRequest) entity.SchedulingResponse
	// Rules exposes the active rule set for inspection.
	Rules() []Rule
}

// NewSchedulingRulesEngine wires the engine. rules may be nil to use the
// default set, rooms may be nil to use the deterministic default allocator.
func NewSchedulingRulesEngine(
	cfg entity.RulesEngineConfig,
	rules []Rule,
	gaps GapAnalyzer,
	builder CompositionBuilder,
	students repository.StudentRepository,
	teachers repository.TeacherRepository,
	rooms RoomAllocator,
	logger *logrus.Logger,
) SchedulingRulesEngine {
	if rules == nil {
		rules = DefaultSchedulingRules()
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })
	if rooms == nil {
		rooms = &roundRobinRooms{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &rulesEngine{
		cfg:      cfg,
		rules:    rules,
		gaps:     gaps,
		builder:  builder,
		students: students,
		teachers: teachers,
		rooms:    rooms,
		log:      logger,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
}

type rulesEngine struct {
	cfg      entity.RulesEngineConfig
	rules    []Rule
	gaps     GapAnalyzer
	builder  CompositionBuilder
	students repository.StudentRepository
	teachers repository.TeacherRepository
	rooms    RoomAllocator
	log      *logrus.Logger

	clock func() time.Time
	newID func() string
}

const (
	confidenceBase          = 50.0
	confidenceTeacherMatch  = 20.0
	confidenceSlotFound     = 15.0
	confidencePrereqMet     = 10.0
	confidenceOptimalSize   = 5.0
	lowConfidenceThreshold  = 60.0
	defaultScheduleDuration = 60
)

func (e *rulesEngine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

func (e *rulesEngine) ScheduleClasses(ctx context.Context, req entity.SchedulingRequest) entity.SchedulingResponse {
	started := e.clock()
	cfg := e.cfg.Merge(req.Override)

	resp := e.schedule(ctx, req, cfg)
	resp.ProcessingTimeMs = time.Since(started).Milliseconds()
	if resp.Recommendations == nil {
		resp.Recommendations = []string{}
	}
	return resp
}

func (e *rulesEngine) schedule(ctx context.Context, req entity.SchedulingRequest, cfg entity.RulesEngineConfig) entity.SchedulingResponse {
	if err := req.TimeRange.Validate(); err != nil {
		return failure(err)
	}

	studentIDs := req.StudentIDs
	if len(studentIDs) == 0 {
		ids, err := e.students.ListIDsByLevel(ctx, req.Level)
		if err != nil {
			return failure(fmt.Errorf("resolve students at level %s: %w", req.Level, err))
		}
		studentIDs = ids
	}
	studentIDs = lo.Uniq(studentIDs)
	sort.Strings(studentIDs)

	gapsByStudent := make(map[string][]entity.UnlearnedContent, len(studentIDs))
	var unscheduled []string
	for _, studentID := range studentIDs {
		entries, err := e.gaps.IdentifyUnlearnedContent(ctx, studentID, "")
		if err != nil {
			// One bad student record must not sink the whole run.
			e.log.WithError(err).WithField("student_id", studentID).Warn("gap analysis failed, student left unscheduled")
			unscheduled = append(unscheduled, studentID)
			continue
		}
		if len(entries) > 0 {
			gapsByStudent[studentID] = entries
		}
	}

	compositions := e.builder.BuildCompositions(gapsByStudent, cfg)
	decisions, roster := e.decide(ctx, compositions, cfg)
	accepted, leftOver := e.optimize(ctx, decisions, req.TimeRange, cfg, roster)
	unscheduled = append(unscheduled, leftOver...)
	sort.Strings(unscheduled)

	result := &entity.SchedulingResult{
		ScheduledClasses:    accepted,
		UnscheduledStudents: lo.Uniq(unscheduled),
		Metrics:             e.metrics(accepted, decisions, len(roster)),
	}
	return entity.SchedulingResponse{
		Success:         true,
		Result:          result,
		Recommendations: e.recommendations(result, decisions),
	}
}

// decide pairs every composition with a candidate teacher, pre-sorted by
// rule-adjusted priority; the optimizer re-orders by weighted score and keeps
// this order for ties. The teacher roster is returned keyed by ID for the
// optimizer's day-load checks.
func (e *rulesEngine) decide(ctx context.Context, compositions []entity.ClassComposition, cfg entity.RulesEngineConfig) ([]entity.SchedulingDecision, map[string]entity.Teacher) {
	teachers, err := e.teachers.List(ctx)
	if err != nil {
		e.log.WithError(err).Warn("teacher roster unavailable, decisions degrade to unassigned")
	}
	roster := lo.KeyBy(teachers, func(t entity.Teacher) string { return t.ID })

	type ranked struct {
		decision entity.SchedulingDecision
		rank     int
	}
	out := make([]ranked, 0, len(compositions))
	for _, comp := range compositions {
		adj := applyRules(e.rules, comp)
		if adj.forceIndividual && comp.ClassType != entity.ClassIndividual {
			comp.ClassType = entity.ClassIndividual
			comp.StudentIDs = comp.StudentIDs[:1]
		}
		if adj.maxDuration > 0 && comp.RecommendedDuration > adj.maxDuration {
			comp.RecommendedDuration = adj.maxDuration
		}

		decision := entity.SchedulingDecision{
			ID:          e.newID(),
			Composition: comp,
		}
		if err := comp.Validate(cfg.Constraints.MaxStudentsPerGroup); err != nil {
			decision.ConstraintsViolated = append(decision.ConstraintsViolated, err.Error())
		} else {
			decision.ConstraintsSatisfied = append(decision.ConstraintsSatisfied, "composition_bounds")
		}

		requirements := lo.Uniq(append(append([]string{}, comp.TeacherRequirements...), adj.extraTags...))
		for _, teacher := range teachers {
			if teacher.Specializes(requirements) {
				decision.TeacherID = teacher.ID
				break
			}
		}
		decision.DurationMinutes = comp.RecommendedDuration
		if decision.DurationMinutes <= 0 {
			decision.DurationMinutes = defaultScheduleDuration
		}

		decision.ConfidenceScore = confidenceBase
		if decision.TeacherID != "" {
			decision.ConfidenceScore += confidenceTeacherMatch
			decision.ConstraintsSatisfied = append(decision.ConstraintsSatisfied, "teacher_specialization")
		} else {
			decision.ConstraintsViolated = append(decision.ConstraintsViolated, "no_matching_teacher")
		}
		if comp.PrerequisiteCheck {
			decision.ConfidenceScore += confidencePrereqMet
		}
		if len(comp.StudentIDs) == comp.OptimalClassSize {
			decision.ConfidenceScore += confidenceOptimalSize
		}
		decision.Rationale = decisionRationale(comp, adj, decision.TeacherID)

		out = append(out, ranked{decision: decision, rank: comp.SchedulingPriority.Rank() + adj.priorityBoost})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].rank != out[j].rank {
			return out[i].rank > out[j].rank
		}
		if a, b := out[i].decision.Composition.DifficultyLevel, out[j].decision.Composition.DifficultyLevel; a != b {
			return a > b
		}
		return out[i].decision.Composition.ID < out[j].decision.Composition.ID
	})
	return lo.Map(out, func(r ranked, _ int) entity.SchedulingDecision { return r.decision }), roster
}

// optimize scores every decision with the configured weights, then greedily
// places them into teacher availability slots inside the requested range,
// rejecting interval overlaps, day-load breaches and missing breaks.
// Decisions are updated in place with their score, slot and final confidence.
// Greedy placement trades optimality for O(n·slots) runtime; the stable sort
// keeps the priority pre-order from decide for equally scored work.
func (e *rulesEngine) optimize(ctx context.Context, decisions []entity.SchedulingDecision, window entity.TimeRange, cfg entity.RulesEngineConfig, roster map[string]entity.Teacher) ([]entity.ScheduledClass, []string) {
	now := e.clock()
	from := window.StartDate
	if now.After(from) {
		from = now
	}
	until := window.EndDate
	if horizon := now.AddDate(0, 0, cfg.SchedulingHorizonDays); horizon.Before(until) {
		until = horizon
	}

	availability := make(map[string][]entity.TimeSlot)
	teacherBusy := make(map[string][]entity.ScheduledClass)
	studentBusy := make(map[string][]entity.ScheduledClass)
	teacherDayLoad := make(map[string]map[string]int)

	// Scoring pass: a trial placement against an empty calendar tells whether
	// any slot exists at all before contention is considered.
	for i := range decisions {
		decision := &decisions[i]
		slotExists := false
		if decision.TeacherID != "" && len(decision.ConstraintsViolated) == 0 {
			slots := e.teacherSlots(ctx, availability, decision.TeacherID)
			_, slotExists = e.placeDecision(decision, slots, from, until, cfg, roster,
				map[string][]entity.ScheduledClass{}, map[string][]entity.ScheduledClass{}, map[string]map[string]int{})
		}
		decision.OptimizationScore = optimizationScore(*decision, slotExists, cfg.Weights)
	}
	sort.SliceStable(decisions, func(i, j int) bool {
		return decisions[i].OptimizationScore > decisions[j].OptimizationScore
	})

	var accepted []entity.ScheduledClass
	unplaced := make(map[string]struct{})

	for i := range decisions {
		decision := &decisions[i]
		comp := decision.Composition
		if decision.TeacherID == "" || len(decision.ConstraintsViolated) > 0 {
			markUnplaced(unplaced, comp.StudentIDs)
			continue
		}

		slots := e.teacherSlots(ctx, availability, decision.TeacherID)
		startAt, found := e.placeDecision(decision, slots, from, until, cfg, roster, teacherBusy, studentBusy, teacherDayLoad)
		if !found {
			markUnplaced(unplaced, comp.StudentIDs)
			continue
		}

		decision.ScheduledTime = &startAt
		decision.ConfidenceScore += confidenceSlotFound
		if decision.ConfidenceScore > 100 {
			decision.ConfidenceScore = 100
		}
		decision.ConstraintsSatisfied = append(decision.ConstraintsSatisfied, "conflict_free_slot")

		class := entity.ScheduledClass{
			ID:                 e.newID(),
			StudentIDs:         comp.StudentIDs,
			TeacherID:          decision.TeacherID,
			ContentItems:       comp.ContentFocus,
			ScheduledTime:      startAt,
			DurationMinutes:    decision.DurationMinutes,
			ClassType:          comp.ClassType,
			RoomOrLink:         e.rooms.Allocate(comp.ClassType, startAt),
			PreparationNotes:   preparationNotes(comp),
			LearningObjectives: comp.LearningObjectives,
			SuccessCriteria:    successCriteria(comp),
		}
		accepted = append(accepted, class)

		teacherBusy[decision.TeacherID] = append(teacherBusy[decision.TeacherID], class)
		day := startAt.Format("2006-01-02")
		if teacherDayLoad[decision.TeacherID] == nil {
			teacherDayLoad[decision.TeacherID] = make(map[string]int)
		}
		teacherDayLoad[decision.TeacherID][day]++
		for _, studentID := range comp.StudentIDs {
			studentBusy[studentID] = append(studentBusy[studentID], class)
		}
	}

	placed := make(map[string]struct{})
	for _, class := range accepted {
		for _, studentID := range class.StudentIDs {
			placed[studentID] = struct{}{}
		}
	}
	var leftOver []string
	for studentID := range unplaced {
		if _, ok := placed[studentID]; !ok {
			leftOver = append(leftOver, studentID)
		}
	}
	sort.Strings(leftOver)
	return accepted, leftOver
}

// teacherSlots fetches a teacher's weekly availability once per run; a fetch
// failure degrades to no slots.
func (e *rulesEngine) teacherSlots(ctx context.Context, cache map[string][]entity.TimeSlot, teacherID string) []entity.TimeSlot {
	if slots, ok := cache[teacherID]; ok {
		return slots
	}
	fetched, err := e.teachers.ListAvailability(ctx, teacherID)
	if err != nil {
		e.log.WithError(err).WithField("teacher_id", teacherID).Warn("teacher availability unavailable")
		fetched = nil
	}
	cache[teacherID] = fetched
	return fetched
}

// optimizationScore folds the configured weights over a decision: the urgency
// base scaled by content priority, the class-size fit, teacher and slot
// presence, and half the confidence, capped at 100.
func optimizationScore(decision entity.SchedulingDecision, slotExists bool, weights entity.OptimizationWeights) float64 {
	comp := decision.Composition

	score := urgencyBaseScore(comp.SchedulingPriority) * weights.ContentPriority
	if comp.OptimalClassSize > 0 {
		fit := float64(len(comp.StudentIDs)) / float64(comp.OptimalClassSize)
		if fit > 1 {
			fit = 1 / fit
		}
		score += fit * 100 * weights.ClassSizeOptimization
	}
	if decision.TeacherID != "" {
		score += 100 * weights.TeacherAvailability
	}
	if slotExists {
		score += 100 * weights.TimeEfficiency
	}
	score += decision.ConfidenceScore / 2 * weights.StudentPreference

	if score > 100 {
		score = 100
	}
	return score
}

// urgencyBaseScore maps urgency to the optimizer's base points.
func urgencyBaseScore(urgency entity.UrgencyLevel) float64 {
	switch urgency {
	case entity.UrgencyUrgent:
		return 100
	case entity.UrgencyHigh:
		return 75
	case entity.UrgencyMedium:
		return 50
	default:
		return 25
	}
}

// placeDecision scans the teacher's weekly slots chronologically and returns
// the first start time free of conflicts for teacher and every student.
func (e *rulesEngine) placeDecision(
	decision *entity.SchedulingDecision,
	slots []entity.TimeSlot,
	from, until time.Time,
	cfg entity.RulesEngineConfig,
	roster map[string]entity.Teacher,
	teacherBusy, studentBusy map[string][]entity.ScheduledClass,
	teacherDayLoad map[string]map[string]int,
) (time.Time, bool) {
	if len(slots) == 0 || !from.Before(until) {
		return time.Time{}, false
	}

	maxPerDay := cfg.Constraints.MaxClassesPerDay
	if teacher, ok := roster[decision.TeacherID]; ok && teacher.MaxClassesPerDay > 0 && teacher.MaxClassesPerDay < maxPerDay {
		maxPerDay = teacher.MaxClassesPerDay
	}

	var candidates []time.Time
	for _, slot := range slots {
		for at := slot.NextOccurrence(from); !at.After(until); at = slot.NextOccurrence(at.AddDate(0, 0, 1)) {
			candidates = append(candidates, at)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })

	for _, at := range candidates {
		if teacherDayLoad[decision.TeacherID][at.Format("2006-01-02")] >= maxPerDay {
			continue
		}
		if hasConflict(teacherBusy[decision.TeacherID], at, decision.DurationMinutes, cfg.Constraints.MinBreakMinutes) {
			continue
		}
		conflicted := false
		for _, studentID := range decision.Composition.StudentIDs {
			if hasConflict(studentBusy[studentID], at, decision.DurationMinutes, 0) {
				conflicted = true
				break
			}
		}
		if !conflicted {
			return at, true
		}
	}
	return time.Time{}, false
}

// hasConflict checks interval overlap against the busy list, padding the
// existing intervals with the break so back-to-back classes keep a gap.
func hasConflict(busy []entity.ScheduledClass, at time.Time, durationMinutes, breakMinutes int) bool {
	padding := time.Duration(breakMinutes) * time.Minute
	end := at.Add(time.Duration(durationMinutes) * time.Minute)
	for _, class := range busy {
		blockStart := class.ScheduledTime.Add(-padding)
		blockEnd := class.EndTime().Add(padding)
		if blockStart.Before(end) && at.Before(blockEnd) {
			return true
		}
	}
	return false
}

func markUnplaced(set map[string]struct{}, studentIDs []string) {
	for _, id := range studentIDs {
		set[id] = struct{}{}
	}
}

func (e *rulesEngine) metrics(accepted []entity.ScheduledClass, decisions []entity.SchedulingDecision, rosterSize int) entity.PerformanceMetrics {
	students := make(map[string]struct{})
	teachers := make(map[string]struct{})
	for _, class := range accepted {
		teachers[class.TeacherID] = struct{}{}
		for _, id := range class.StudentIDs {
			students[id] = struct{}{}
		}
	}

	var utilization, confidence float64
	placedDecisions := 0
	for _, decision := range decisions {
		if decision.ScheduledTime == nil {
			continue
		}
		placedDecisions++
		confidence += decision.ConfidenceScore
		if optimal := decision.Composition.OptimalClassSize; optimal > 0 {
			utilization += float64(len(decision.Composition.StudentIDs)) / float64(optimal)
		}
	}
	if placedDecisions > 0 {
		utilization /= float64(placedDecisions)
		confidence /= float64(placedDecisions)
	}

	var coverage float64
	if len(decisions) > 0 {
		coverage = float64(placedDecisions) / float64(len(decisions)) * 100
	}
	var teacherUtilization float64
	if rosterSize > 0 {
		teacherUtilization = float64(len(teachers)) / float64(rosterSize) * 100
	}

	return entity.PerformanceMetrics{
		StudentsScheduled:   len(students),
		ClassesCreated:      len(accepted),
		AverageUtilization:  utilization,
		ContentCoverage:     coverage,
		StudentSatisfaction: confidence,
		TeacherUtilization:  teacherUtilization,
	}
}

func (e *rulesEngine) recommendations(result *entity.SchedulingResult, decisions []entity.SchedulingDecision) []string {
	var out []string
	if n := len(result.UnscheduledStudents); n > 0 {
		out = append(out, fmt.Sprintf("%d student(s) could not be placed; widen the time range or add teacher availability", n))
	}
	missingTeacher := lo.CountBy(decisions, func(d entity.SchedulingDecision) bool { return d.TeacherID == "" })
	if missingTeacher > 0 {
		out = append(out, fmt.Sprintf("%d class composition(s) found no teacher with the required specializations", missingTeacher))
	}
	if len(result.ScheduledClasses) == 0 && len(decisions) > 0 {
		out = append(out, "no classes fit the requested window; consider extending the scheduling horizon")
	}
	if result.Metrics.StudentSatisfaction > 0 && result.Metrics.StudentSatisfaction < lowConfidenceThreshold {
		out = append(out, "scheduling confidence is low; review teacher availability density for this level")
	}
	return out
}

func decisionRationale(comp entity.ClassComposition, adj ruleAdjustments, teacherID string) string {
	rationale := fmt.Sprintf("%s priority, difficulty %d, %d student(s)", comp.SchedulingPriority, comp.DifficultyLevel, len(comp.StudentIDs))
	if len(adj.matched) > 0 {
		rationale += "; rules: " + joinNames(adj.matched)
	}
	if teacherID == "" {
		rationale += "; no teacher covers " + joinNames(comp.TeacherRequirements)
	}
	return rationale
}

func joinNames(names []string) string {
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}

func preparationNotes(comp entity.ClassComposition) string {
	return fmt.Sprintf("Cover %d curriculum item(s) at difficulty %d; check prerequisites: %t", len(comp.ContentFocus), comp.DifficultyLevel, comp.PrerequisiteCheck)
}

func successCriteria(comp entity.ClassComposition) []string {
	criteria := make([]string, 0, len(comp.ContentFocus))
	for _, item := range comp.ContentFocus {
		criteria = append(criteria, fmt.Sprintf("students complete %s (unit %d lesson %d)", item.Title, item.UnitNumber, item.LessonNumber))
	}
	return criteria
}

// roundRobinRooms is the default deterministic allocator: group classes cycle
// through the fixed room pool, individual classes use hour-keyed pods.
type roundRobinRooms struct {
	next int
}

var defaultRoomPool = []string{"Room A", "Room B", "Room C", "Room D"}

func (r *roundRobinRooms) Allocate(classType entity.ClassType, startsAt time.Time) string {
	if classType == entity.ClassIndividual {
		return fmt.Sprintf("Pod %d", startsAt.Hour()%4+1)
	}
	room := defaultRoomPool[r.next%len(defaultRoomPool)]
	r.next++
	return room
}

func failure(err error) entity.SchedulingResponse {
	return entity.SchedulingResponse{
		Success: false,
		Error:   err.Error(),
	}
}
