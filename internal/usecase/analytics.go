package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

// AnalyticsCache caches computed analytics per student. Implementations are
// best-effort: a failed lookup is treated as a miss.
type AnalyticsCache interface {
	Get(ctx context.Context, studentID string) (*entity.LearningAnalytics, error)
	Set(ctx context.Context, analytics *entity.LearningAnalytics) error
}

// AnalyticsEstimator derives a student's behavioural profile from attendance
// and feedback history.
type AnalyticsEstimator interface {
	GenerateLearningAnalytics(ctx context.Context, studentID string) (*entity.LearningAnalytics, error)
}

// NewAnalyticsEstimator wires the estimator. cache may be nil to disable the
// read-through cache.
func NewAnalyticsEstimator(
	students repository.StudentRepository,
	feedback repository.FeedbackRepository,
	attendance repository.AttendanceRepository,
	cache AnalyticsCache,
) AnalyticsEstimator {
	return &analyticsEstimator{
		students:   students,
		feedback:   feedback,
		attendance: attendance,
		cache:      cache,
	}
}

type analyticsEstimator struct {
	students   repository.StudentRepository
	feedback   repository.FeedbackRepository
	attendance repository.AttendanceRepository
	cache      AnalyticsCache
}

const (
	defaultOptimalClassSize = 4
	bestTimeSlotCount       = 5
	topicMasteryScale       = 20
)

func (e *analyticsEstimator) GenerateLearningAnalytics(ctx context.Context, studentID string) (*entity.LearningAnalytics, error) {
	student, err := e.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if cached, err := e.cache.Get(ctx, studentID); err == nil && cached != nil {
			return cached, nil
		}
	}

	attendance, err := e.attendance.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	history, err := e.feedback.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	peers, err := e.attendance.ListPeerStudentIDs(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}
	sort.Strings(peers)

	analytics := &entity.LearningAnalytics{
		StudentID:              studentID,
		LearningVelocity:       learningVelocity(attendance),
		RetentionRate:          retentionRate(history),
		EngagementScore:        engagementScore(attendance, history),
		PreferredLearningStyle: student.LearningStyle,
		OptimalClassSize:       optimalClassSize(attendance, history),
		BestTimeSlots:          bestTimeSlots(attendance),
		PeerCompatibility:      peers,
		TopicPerformance:       topicPerformance(history),
	}
	if analytics.PreferredLearningStyle == "" {
		analytics.PreferredLearningStyle = entity.StyleMixed
	}

	if e.cache != nil {
		_ = e.cache.Set(ctx, analytics) // best effort
	}
	return analytics, nil
}

// learningVelocity is attended classes per week across the span of the
// attendance history, zero when there is none.
func learningVelocity(records []entity.AttendanceRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	attended := 0
	first, last := records[0].StartsAt, records[0].StartsAt
	for _, record := range records {
		if record.Attended() {
			attended++
		}
		if record.StartsAt.Before(first) {
			first = record.StartsAt
		}
		if record.StartsAt.After(last) {
			last = record.StartsAt
		}
	}
	weeks := last.Sub(first).Hours() / 24 / 7
	if weeks < 1 {
		weeks = 1
	}
	return float64(attended) / weeks
}

// retentionRate is the share of feedback entries rated 4 or higher.
func retentionRate(history []entity.FeedbackEntry) float64 {
	if len(history) == 0 {
		return 0
	}
	positive := 0
	for _, entry := range history {
		if entry.Rating >= masteredRatingFrom {
			positive++
		}
	}
	return float64(positive) / float64(len(history)) * 100
}

// engagementScore blends attendance rate (40%) with average rating (60%).
func engagementScore(records []entity.AttendanceRecord, history []entity.FeedbackEntry) float64 {
	var attendanceRate float64
	if len(records) > 0 {
		present := 0
		for _, record := range records {
			if record.Status == entity.AttendancePresent {
				present++
			}
		}
		attendanceRate = float64(present) / float64(len(records))
	}

	var ratingShare float64
	if len(history) > 0 {
		total := 0
		for _, entry := range history {
			total += entry.Rating
		}
		ratingShare = float64(total) / float64(len(history)) / 5
	}

	score := 40*attendanceRate + 60*ratingShare
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// optimalClassSize picks the historical class size with the best average
// rating, defaulting to 4 when history is too thin to tell.
func optimalClassSize(records []entity.AttendanceRecord, history []entity.FeedbackEntry) int {
	sizeByClass := make(map[string]int, len(records))
	for _, record := range records {
		sizeByClass[record.ClassID] = record.ClassSize
	}

	sum := make(map[int]int)
	count := make(map[int]int)
	for _, entry := range history {
		size, ok := sizeByClass[entry.ClassID]
		if !ok || size <= 0 {
			continue
		}
		sum[size] += entry.Rating
		count[size]++
	}
	if len(count) == 0 {
		return defaultOptimalClassSize
	}

	best, bestAvg := 0, -1.0
	sizes := make([]int, 0, len(count))
	for size := range count {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	for _, size := range sizes {
		avg := float64(sum[size]) / float64(count[size])
		if avg > bestAvg {
			best, bestAvg = size, avg
		}
	}
	return best
}

// bestTimeSlots ranks (weekday, hour) buckets by count of present
// attendances and keeps the top five.
func bestTimeSlots(records []entity.AttendanceRecord) []entity.TimeSlot {
	counts := make(map[entity.TimeSlot]int)
	for _, record := range records {
		if record.Status != entity.AttendancePresent {
			continue
		}
		slot := entity.TimeSlot{Weekday: record.StartsAt.Weekday(), Hour: record.StartsAt.Hour()}
		counts[slot]++
	}

	slots := make([]entity.TimeSlot, 0, len(counts))
	for slot := range counts {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if counts[slots[i]] != counts[slots[j]] {
			return counts[slots[i]] > counts[slots[j]]
		}
		if slots[i].Weekday != slots[j].Weekday {
			return slots[i].Weekday < slots[j].Weekday
		}
		return slots[i].Hour < slots[j].Hour
	})
	if len(slots) > bestTimeSlotCount {
		slots = slots[:bestTimeSlotCount]
	}
	return slots
}

// topicPerformance aggregates improvement-area tokens into per-topic mastery
// (average rating x20) and flags topics any entry rated below 3.
func topicPerformance(history []entity.FeedbackEntry) []entity.TopicPerformance {
	sum := make(map[string]int)
	count := make(map[string]int)
	review := make(map[string]bool)
	for _, entry := range history {
		for _, topic := range entry.AreasForImprovement {
			sum[topic] += entry.Rating
			count[topic]++
			if entry.Rating < strugglingRatingBelow {
				review[topic] = true
			}
		}
	}

	topics := make([]string, 0, len(count))
	for topic := range count {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	result := make([]entity.TopicPerformance, 0, len(topics))
	for _, topic := range topics {
		result = append(result, entity.TopicPerformance{
			Topic:          topic,
			MasteryLevel:   float64(sum[topic]) / float64(count[topic]) * topicMasteryScale,
			RequiresReview: review[topic],
		})
	}
	return result
}
