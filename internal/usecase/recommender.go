package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

// DistanceEstimator computes the distance between two coordinates in
// kilometres. Injected so tests can pin distances.
type DistanceEstimator interface {
	DistanceKm(fromLat, fromLng, toLat, toLng float64) float64
}

// Recommender finds ranked alternatives for a class the student cannot take.
type Recommender interface {
	FindAlternatives(ctx context.Context, req entity.RecommendationRequest) ([]entity.AlternativeClassRecommendation, error)
}

// NewRecommender wires the recommendation service. weights may be zero to use
// the defaults, distance may be nil to use haversine.
func NewRecommender(
	students repository.StudentRepository,
	classes repository.ClassRepository,
	curriculum repository.CurriculumRepository,
	feedback repository.FeedbackRepository,
	waitlist repository.WaitlistRepository,
	analytics AnalyticsEstimator,
	weights entity.RecommendationWeights,
	distance DistanceEstimator,
	logger *logrus.Logger,
) Recommender {
	if weights == (entity.RecommendationWeights{}) {
		weights = entity.DefaultRecommendationWeights()
	}
	if distance == nil {
		distance = haversine{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &recommender{
		students:   students,
		classes:    classes,
		curriculum: curriculum,
		feedback:   feedback,
		waitlist:   waitlist,
		analytics:  analytics,
		weights:    weights,
		distance:   distance,
		log:        logger,
	}
}

type recommender struct {
	students   repository.StudentRepository
	classes    repository.ClassRepository
	curriculum repository.CurriculumRepository
	feedback   repository.FeedbackRepository
	waitlist   repository.WaitlistRepository
	analytics  AnalyticsEstimator
	weights    entity.RecommendationWeights
	distance   DistanceEstimator
	log        *logrus.Logger
}

const (
	maxRecommendations       = 10
	contentPoolMinOverlap    = 60.0
	teacherPoolMinScore      = 70.0
	strongFactorThreshold    = 80.0
	contentBoostThreshold    = 85.0
	contentBoostFactor       = 1.1
	neutralTeacherScore      = 70.0
	neutralPeerScore         = 60.0
	neutralLocationScore     = 50.0
	onlineLocationScore      = 100.0
	defaultDistanceCapKm     = 20.0
	waitlistDaysPerPosition  = 2
	waitlistProbabilityStep  = 0.1
	waitlistProbabilityFloor = 0.1
	minConfidenceLevel       = 0.1
)

func (r *recommender) FindAlternatives(ctx context.Context, req entity.RecommendationRequest) ([]entity.AlternativeClassRecommendation, error) {
	if req.StudentID == "" {
		return nil, entity.ErrInvalidStudentID
	}
	student, err := r.students.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	preferred, err := r.classes.GetByID(ctx, req.PreferredClassID)
	if err != nil {
		return nil, err
	}

	profile, err := r.analytics.GenerateLearningAnalytics(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("analytics for student %s: %w", req.StudentID, err)
	}
	enrollments, err := r.students.ListEnrollments(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	booked, err := r.classes.ListBookedByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	storedSlots, err := r.students.ListAvailability(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}

	candidates, err := r.classes.ListOpenByLevel(ctx, student.Level)
	if err != nil {
		return nil, fmt.Errorf("list open classes at level %s: %w", student.Level, err)
	}

	teacherScores := make(map[string]teacherRating)
	var out []entity.AlternativeClassRecommendation
	var preferredWaitlist *entity.AlternativeClassRecommendation
	for _, candidate := range candidates {
		if candidate.ID == preferred.ID {
			// The class the student actually wanted: when it is full and the
			// student accepts waitlisting, it leads the list as a waitlist
			// entry instead of being dropped.
			if req.IncludeWaitlist && candidate.SpotsLeft() == 0 {
				rec, ok, err := r.scoreCandidate(ctx, req, student, preferred, candidate, profile, enrollments, storedSlots, teacherScores)
				if err != nil {
					r.log.WithError(err).WithField("class_id", candidate.ID).Warn("preferred class scoring failed, skipped")
				} else if ok {
					preferredWaitlist = &rec
				}
			}
			continue
		}
		if conflictsWithBookings(booked, candidate) {
			continue
		}

		rec, ok, err := r.scoreCandidate(ctx, req, student, preferred, candidate, profile, enrollments, storedSlots, teacherScores)
		if err != nil {
			// A broken candidate record must not abort the whole request.
			r.log.WithError(err).WithField("class_id", candidate.ID).Warn("candidate scoring failed, skipped")
			continue
		}
		if ok {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a := out[i].OverallScore * out[i].ConfidenceLevel
		b := out[j].OverallScore * out[j].ConfidenceLevel
		if a != b {
			return a > b
		}
		return out[i].AlternativeClass.ID < out[j].AlternativeClass.ID
	})
	if preferredWaitlist != nil {
		out = append([]entity.AlternativeClassRecommendation{*preferredWaitlist}, out...)
	}
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out, nil
}

// scoreCandidate decides pool membership, builds the eight-factor breakdown
// and assembles the recommendation. ok is false when the class belongs to no
// pool or is filtered out.
func (r *recommender) scoreCandidate(
	ctx context.Context,
	req entity.RecommendationRequest,
	student *entity.Student,
	preferred *entity.Class,
	candidate entity.Class,
	profile *entity.LearningAnalytics,
	enrollments []entity.Enrollment,
	storedSlots []entity.TimeSlot,
	teacherScores map[string]teacherRating,
) (entity.AlternativeClassRecommendation, bool, error) {
	var zero entity.AlternativeClassRecommendation

	contentScore := contentOverlap(preferred.ContentItemIDs, candidate.ContentItemIDs)
	teacherScore, rated, err := r.teacherScore(ctx, req.StudentID, candidate.TeacherID, teacherScores)
	if err != nil {
		return zero, false, err
	}

	inContentPool := contentScore >= contentPoolMinOverlap
	inTimePool := candidate.CourseID == preferred.CourseID &&
		!candidate.ScheduledTime.Equal(preferred.ScheduledTime) &&
		matchesWindows(candidate, req.TimeWindows) &&
		matchesWindows(candidate, storedSlots)
	inTeacherPool := rated && teacherScore >= teacherPoolMinScore
	if !inContentPool && !inTimePool && !inTeacherPool {
		return zero, false, nil
	}

	distanceKm, locationScore := r.locationScore(student, candidate, req.MaxDistanceKm)
	if req.MaxDistanceKm > 0 && distanceKm != nil && *distanceKm > req.MaxDistanceKm {
		return zero, false, nil
	}

	availability := entity.AvailabilityForSpots(candidate.SpotsLeft())
	if availability == entity.AvailabilityWaitlist && !req.IncludeWaitlist {
		return zero, false, nil
	}

	sched := r.toScheduledClass(ctx, candidate)
	breakdown := entity.RecommendationScoreBreakdown{
		ContentSimilarity:     contentScore,
		ScheduleCompatibility: scheduleScore(candidate, profile.BestTimeSlots, req.TimeWindows),
		TeacherCompatibility:  teacherScore,
		PaceMatch:             paceScore(profile.LearningVelocity, candidate.DurationMinutes),
		DifficultyMatch:       difficultyScore(maxDifficulty(sched.ContentItems), candidate.CourseID, enrollments),
		LocationConvenience:   locationScore,
		PeerCompatibility:     neutralPeerScore,
		ClassSizeFit:          classSizeScore(candidate, profile.OptimalClassSize),
	}
	overall := breakdown.Overall(r.weights)

	confidence := overall / 100 * availability.ConfidenceMultiplier()
	if breakdown.ContentSimilarity > contentBoostThreshold {
		confidence *= contentBoostFactor
	}
	if confidence < minConfidenceLevel {
		confidence = minConfidenceLevel
	}
	if confidence > 1 {
		confidence = 1
	}

	rec := entity.AlternativeClassRecommendation{
		AlternativeClass: sched,
		OverallScore:     overall,
		Breakdown:        breakdown,
		Type:             classify(breakdown, availability),
		Reasoning:        reasoning(breakdown, candidate),
		Benefits:         benefits(breakdown, availability),
		Drawbacks:        drawbacks(breakdown, availability, distanceKm),
		ConfidenceLevel:  confidence,
		Availability:     availability,
		DistanceKm:       distanceKm,
	}

	if availability == entity.AvailabilityWaitlist {
		if err := r.fillWaitlistEstimates(ctx, req.StudentID, candidate.ID, &rec); err != nil {
			return zero, false, err
		}
	}
	return rec, true, nil
}

// fillWaitlistEstimates projects the student's queue outcome: two days of
// wait per position and a linearly decaying spot probability floored at 0.1.
func (r *recommender) fillWaitlistEstimates(ctx context.Context, studentID, classID string, rec *entity.AlternativeClassRecommendation) error {
	pos, queued, err := r.waitlist.Position(ctx, classID, studentID)
	if err != nil {
		return fmt.Errorf("waitlist position: %w", err)
	}
	if !queued {
		length, err := r.waitlist.Length(ctx, classID)
		if err != nil {
			return fmt.Errorf("waitlist length: %w", err)
		}
		pos = length + 1
	}

	waitDays := waitlistDaysPerPosition * pos
	probability := 1 - float64(pos)*waitlistProbabilityStep
	if probability < waitlistProbabilityFloor {
		probability = waitlistProbabilityFloor
	}
	rec.Type = entity.RecommendationWaitlist
	rec.EstimatedWait = &waitDays
	rec.SpotProbability = &probability
	return nil
}

// teacherScore returns the 0-100 compatibility with the teacher and whether
// the student has actually rated them; unrated teachers score neutral.
func (r *recommender) teacherScore(ctx context.Context, studentID, teacherID string, cache map[string]teacherRating) (float64, bool, error) {
	if rating, ok := cache[teacherID]; ok {
		return rating.score, rating.rated, nil
	}
	avg, rated, err := r.feedback.AverageRatingForTeacher(ctx, studentID, teacherID)
	if err != nil {
		return 0, false, fmt.Errorf("teacher rating: %w", err)
	}
	score := neutralTeacherScore
	if rated {
		score = avg / 5 * 100
	}
	cache[teacherID] = teacherRating{score: score, rated: rated}
	return score, rated, nil
}

type teacherRating struct {
	score float64
	rated bool
}

// locationScore returns the candidate's distance (nil when unknown or online)
// and a 0-100 convenience score. Online classes are maximally convenient; a
// physical class decays linearly to zero at the student's distance cap.
func (r *recommender) locationScore(student *entity.Student, candidate entity.Class, maxKm float64) (*float64, float64) {
	if candidate.IsOnline {
		return nil, onlineLocationScore
	}
	if student.Latitude == nil || student.Longitude == nil || candidate.Latitude == nil || candidate.Longitude == nil {
		return nil, neutralLocationScore
	}
	if maxKm <= 0 {
		maxKm = defaultDistanceCapKm
	}
	km := r.distance.DistanceKm(*student.Latitude, *student.Longitude, *candidate.Latitude, *candidate.Longitude)
	score := (1 - km/maxKm) * 100
	if score < 0 {
		score = 0
	}
	return &km, score
}

// toScheduledClass projects a bookable offering into the recommendation
// payload shape, resolving its content items best-effort.
func (r *recommender) toScheduledClass(ctx context.Context, class entity.Class) entity.ScheduledClass {
	var items []entity.ContentItem
	if len(class.ContentItemIDs) > 0 {
		fetched, err := r.curriculum.ListContentByIDs(ctx, class.ContentItemIDs)
		if err != nil {
			r.log.WithError(err).WithField("class_id", class.ID).Warn("content items unavailable for recommendation")
		} else {
			items = fetched
		}
	}
	var objectives []string
	for _, item := range items {
		objectives = append(objectives, item.LearningObjectives...)
	}
	return entity.ScheduledClass{
		ID:                 class.ID,
		TeacherID:          class.TeacherID,
		ContentItems:       items,
		ScheduledTime:      class.ScheduledTime,
		DurationMinutes:    class.DurationMinutes,
		ClassType:          class.ClassType,
		LearningObjectives: objectives,
	}
}

// contentOverlap is the share of the preferred class's content covered by the
// candidate, as a percentage.
func contentOverlap(preferred, candidate []string) float64 {
	if len(preferred) == 0 {
		return 0
	}
	covered := make(map[string]struct{}, len(candidate))
	for _, id := range candidate {
		covered[id] = struct{}{}
	}
	hits := 0
	for _, id := range preferred {
		if _, ok := covered[id]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(preferred)) * 100
}

func matchesWindows(class entity.Class, windows []entity.TimeSlot) bool {
	if len(windows) == 0 {
		return true
	}
	slot := entity.TimeSlot{Weekday: class.ScheduledTime.Weekday(), Hour: class.ScheduledTime.Hour()}
	for _, window := range windows {
		if window == slot {
			return true
		}
	}
	return false
}

// scheduleScore rewards classes landing in the student's historically best
// slots or explicitly requested windows.
func scheduleScore(class entity.Class, bestSlots, windows []entity.TimeSlot) float64 {
	slot := entity.TimeSlot{Weekday: class.ScheduledTime.Weekday(), Hour: class.ScheduledTime.Hour()}
	for _, window := range windows {
		if window == slot {
			return 100
		}
	}
	for _, best := range bestSlots {
		if best == slot {
			return 95
		}
		if best.Weekday == slot.Weekday {
			return 70
		}
	}
	return 40
}

// paceScore matches class length against the student's velocity: fast
// learners tolerate long sessions, slow learners score best on short ones.
func paceScore(velocity float64, durationMinutes int) float64 {
	pace := entity.PaceForLessonsPerWeek(velocity)
	longSession := durationMinutes > 60
	switch {
	case pace == entity.PaceFast && longSession:
		return 90
	case pace == entity.PaceSlow && !longSession:
		return 90
	case pace == entity.PaceAverage:
		return 75
	default:
		return 55
	}
}

// difficultyScore compares the class content's difficulty with the student's
// current position in the matching course. Unknown difficulty or no matching
// enrollment scores neutral.
func difficultyScore(classDifficulty int, courseID string, enrollments []entity.Enrollment) float64 {
	if classDifficulty <= 0 {
		return 60
	}
	for _, enrollment := range enrollments {
		if enrollment.CourseID != courseID {
			continue
		}
		studentLevel := entity.DifficultyFor(enrollment.CurrentUnit, enrollment.CurrentLesson)
		gap := math.Abs(float64(studentLevel - classDifficulty))
		score := 100 - gap*10
		if score < 0 {
			return 0
		}
		return score
	}
	return 60
}

func classSizeScore(class entity.Class, optimalSize int) float64 {
	if optimalSize <= 0 {
		optimalSize = defaultOptimalClassSize
	}
	projected := class.Enrolled + 1
	gap := math.Abs(float64(projected - optimalSize))
	score := 100 - gap*20
	if score < 0 {
		return 0
	}
	return score
}

// classify labels the recommendation by its first strong factor, in the fixed
// precedence content, schedule, teacher, location. With no strong factor the
// label falls back to content similarity, the pool most alternatives come from.
func classify(b entity.RecommendationScoreBreakdown, availability entity.AvailabilityStatus) entity.RecommendationType {
	if availability == entity.AvailabilityWaitlist {
		return entity.RecommendationWaitlist
	}
	switch {
	case b.ContentSimilarity > strongFactorThreshold:
		return entity.RecommendationContentSimilar
	case b.ScheduleCompatibility > strongFactorThreshold:
		return entity.RecommendationTimeAlternative
	case b.TeacherCompatibility > strongFactorThreshold:
		return entity.RecommendationTeacherMatch
	case b.LocationConvenience > strongFactorThreshold:
		return entity.RecommendationLocationOptimized
	default:
		return entity.RecommendationContentSimilar
	}
}

func reasoning(b entity.RecommendationScoreBreakdown, class entity.Class) string {
	return fmt.Sprintf("content overlap %.0f%%, schedule fit %.0f, teacher fit %.0f for the %s class on %s",
		b.ContentSimilarity, b.ScheduleCompatibility, b.TeacherCompatibility,
		class.ClassType, class.ScheduledTime.Format("Mon 15:04"))
}

func benefits(b entity.RecommendationScoreBreakdown, availability entity.AvailabilityStatus) []string {
	var out []string
	if b.ContentSimilarity >= contentPoolMinOverlap {
		out = append(out, "covers most of the content you were aiming for")
	}
	if b.ScheduleCompatibility >= strongFactorThreshold {
		out = append(out, "lands in a time slot you historically attend")
	}
	if b.TeacherCompatibility >= teacherPoolMinScore {
		out = append(out, "taught by a teacher you rated well")
	}
	if availability == entity.AvailabilityImmediate {
		out = append(out, "bookable right now")
	}
	return out
}

func drawbacks(b entity.RecommendationScoreBreakdown, availability entity.AvailabilityStatus, distanceKm *float64) []string {
	var out []string
	if b.ContentSimilarity < contentPoolMinOverlap {
		out = append(out, "content only partially matches your gap")
	}
	if availability == entity.AvailabilityLimitedSpots {
		out = append(out, "only one spot left")
	}
	if availability == entity.AvailabilityWaitlist {
		out = append(out, "currently full, waitlist only")
	}
	if distanceKm != nil && *distanceKm > 10 {
		out = append(out, fmt.Sprintf("%.1f km away", *distanceKm))
	}
	return out
}

func conflictsWithBookings(booked []entity.Class, candidate entity.Class) bool {
	for _, class := range booked {
		if class.Overlaps(candidate.ScheduledTime, candidate.DurationMinutes) {
			return true
		}
	}
	return false
}

// haversine is the default great-circle distance estimator.
type haversine struct{}

const earthRadiusKm = 6371.0

func (haversine) DistanceKm(fromLat, fromLng, toLat, toLng float64) float64 {
	dLat := (toLat - fromLat) * math.Pi / 180
	dLng := (toLng - fromLng) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(fromLat*math.Pi/180)*math.Cos(toLat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
