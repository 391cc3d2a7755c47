package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

// In-memory repository fakes. Each clones returned slices so tests cannot
// mutate fake state by accident.

type fakeStudentRepo struct {
	mu           sync.Mutex
	students     map[string]entity.Student
	enrollments  []entity.Enrollment
	availability map[string][]entity.TimeSlot

	listEnrollmentsErr map[string]error
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{
		students:           make(map[string]entity.Student),
		availability:       make(map[string][]entity.TimeSlot),
		listEnrollmentsErr: make(map[string]error),
	}
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id string) (*entity.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	student, ok := f.students[id]
	if !ok {
		return nil, entity.ErrStudentNotFound
	}
	clone := student
	return &clone, nil
}

func (f *fakeStudentRepo) ListIDsByLevel(_ context.Context, level entity.CourseLevel) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, student := range f.students {
		if level == entity.LevelUnspecified || student.Level == level {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeStudentRepo) ListEnrollments(_ context.Context, studentID string) ([]entity.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listEnrollmentsErr[studentID]; err != nil {
		return nil, err
	}
	var out []entity.Enrollment
	for _, e := range f.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) ListEnrollmentsByCourse(_ context.Context, courseID string) ([]entity.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Enrollment
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) UpdateEnrollmentProgress(_ context.Context, enrollment entity.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			f.enrollments[i] = enrollment
			return nil
		}
	}
	return entity.ErrEnrollmentNotFound
}

func (f *fakeStudentRepo) ListAvailability(_ context.Context, studentID string) ([]entity.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.TimeSlot(nil), f.availability[studentID]...), nil
}

type fakeCurriculumRepo struct {
	mu      sync.Mutex
	courses map[string]entity.Course
	content map[string][]entity.ContentItem
}

func newFakeCurriculumRepo() *fakeCurriculumRepo {
	return &fakeCurriculumRepo{
		courses: make(map[string]entity.Course),
		content: make(map[string][]entity.ContentItem),
	}
}

func (f *fakeCurriculumRepo) GetCourse(_ context.Context, id string) (*entity.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	course, ok := f.courses[id]
	if !ok {
		return nil, entity.ErrCourseNotFound
	}
	clone := course
	return &clone, nil
}

func (f *fakeCurriculumRepo) ListCourses(_ context.Context) ([]entity.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Course
	for _, course := range f.courses {
		out = append(out, course)
	}
	return out, nil
}

func (f *fakeCurriculumRepo) ListCourseContent(_ context.Context, courseID string) ([]entity.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.ContentItem(nil), f.content[courseID]...), nil
}

func (f *fakeCurriculumRepo) ListContentByIDs(_ context.Context, ids []string) ([]entity.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []entity.ContentItem
	for _, items := range f.content {
		for _, item := range items {
			if _, ok := wanted[item.ID]; ok {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func (f *fakeCurriculumRepo) UpsertCourse(_ context.Context, course *entity.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[course.ID] = *course
	return nil
}

func (f *fakeCurriculumRepo) UpsertContentItem(_ context.Context, item *entity.ContentItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.content[item.CourseID]
	for i, existing := range items {
		if existing.ID == item.ID {
			items[i] = *item
			f.content[item.CourseID] = items
			return nil
		}
	}
	f.content[item.CourseID] = append(items, *item)
	return nil
}

type fakeFeedbackRepo struct {
	mu      sync.Mutex
	entries []entity.FeedbackEntry
}

func (f *fakeFeedbackRepo) ListByStudent(_ context.Context, studentID string) ([]entity.FeedbackEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.FeedbackEntry
	for _, e := range f.entries {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeFeedbackRepo) ListByStudentCourse(_ context.Context, studentID, courseID string) ([]entity.FeedbackEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.FeedbackEntry
	for _, e := range f.entries {
		if e.StudentID == studentID && e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeFeedbackRepo) ListCompletionsByCourse(_ context.Context, courseID string) (map[string][]entity.LessonKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]entity.LessonKey)
	for _, e := range f.entries {
		if e.CourseID == courseID {
			out[e.StudentID] = append(out[e.StudentID], e.Key())
		}
	}
	return out, nil
}

func (f *fakeFeedbackRepo) AverageRatingForTeacher(_ context.Context, studentID, teacherID string) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, n := 0, 0
	for _, e := range f.entries {
		if e.StudentID == studentID && e.TeacherID == teacherID {
			sum += e.Rating
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return float64(sum) / float64(n), true, nil
}

func (f *fakeFeedbackRepo) Insert(_ context.Context, entry *entity.FeedbackEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records []entity.AttendanceRecord
	peers   map[string][]string
}

func (f *fakeAttendanceRepo) ListByStudent(_ context.Context, studentID string) ([]entity.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.AttendanceRecord
	for _, r := range f.records {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceRepo) ListPeerStudentIDs(_ context.Context, studentID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.peers == nil {
		return nil, nil
	}
	return append([]string(nil), f.peers[studentID]...), nil
}

type fakeTeacherRepo struct {
	mu           sync.Mutex
	teachers     []entity.Teacher
	availability map[string][]entity.TimeSlot
}

func (f *fakeTeacherRepo) GetByID(_ context.Context, id string) (*entity.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teachers {
		if t.ID == id {
			clone := t
			return &clone, nil
		}
	}
	return nil, entity.ErrTeacherNotFound
}

func (f *fakeTeacherRepo) List(_ context.Context) ([]entity.Teacher, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Teacher(nil), f.teachers...), nil
}

func (f *fakeTeacherRepo) ListAvailability(_ context.Context, teacherID string) ([]entity.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.TimeSlot(nil), f.availability[teacherID]...), nil
}

type fakeClassRepo struct {
	mu      sync.Mutex
	classes []entity.Class
	booked  map[string][]entity.Class
}

func (f *fakeClassRepo) GetByID(_ context.Context, id string) (*entity.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.classes {
		if c.ID == id {
			clone := c
			return &clone, nil
		}
	}
	return nil, entity.ErrClassNotFound
}

func (f *fakeClassRepo) List(_ context.Context, _ *repository.ListClassQuery) ([]entity.Class, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Class(nil), f.classes...), int64(len(f.classes)), nil
}

func (f *fakeClassRepo) ListOpenByLevel(_ context.Context, level entity.CourseLevel) ([]entity.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Class
	for _, c := range f.classes {
		if level == entity.LevelUnspecified || c.Level == level {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeClassRepo) ListBookedByStudent(_ context.Context, studentID string) ([]entity.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.booked == nil {
		return nil, nil
	}
	return append([]entity.Class(nil), f.booked[studentID]...), nil
}

type fakeWaitlistRepo struct {
	mu        sync.Mutex
	positions map[string]map[string]int
	lengths   map[string]int
}

func (f *fakeWaitlistRepo) Position(_ context.Context, classID, studentID string) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pos, ok := f.positions[classID][studentID]
	return pos, ok, nil
}

func (f *fakeWaitlistRepo) Length(_ context.Context, classID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lengths[classID], nil
}

type fakeAnalyticsCache struct {
	mu      sync.Mutex
	entries map[string]entity.LearningAnalytics
	gets    int
	sets    int
}

func (f *fakeAnalyticsCache) Get(_ context.Context, studentID string) (*entity.LearningAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if cached, ok := f.entries[studentID]; ok {
		clone := cached
		return &clone, nil
	}
	return nil, nil
}

func (f *fakeAnalyticsCache) Set(_ context.Context, analytics *entity.LearningAnalytics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.entries == nil {
		f.entries = make(map[string]entity.LearningAnalytics)
	}
	f.entries[analytics.StudentID] = *analytics
	return nil
}

// fixedClock pins time for deterministic scheduling assertions.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// sequenceIDs replaces uuid generation with predictable identifiers.
func sequenceIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// fixedDistance always reports the same distance, whatever the coordinates.
type fixedDistance struct {
	km float64
}

func (d fixedDistance) DistanceKm(_, _, _, _ float64) float64 { return d.km }
