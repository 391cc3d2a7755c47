package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
)

const maxPageSize = 1000

// scheduleClassesRequest is the JSON body of a scheduling run.
type scheduleClassesRequest struct {
	StudentIDs        []string               `json:"student_ids" validate:"omitempty,dive,required"`
	Level             string                 `json:"level" validate:"omitempty,oneof=beginner elementary intermediate upper_intermediate advanced"`
	StartDate         time.Time              `json:"start_date" validate:"required"`
	EndDate           time.Time              `json:"end_date" validate:"required"`
	OptimizationGoals []string               `json:"optimization_goals"`
	Override          *entity.ConfigOverride `json:"config_override"`
}

func (r scheduleClassesRequest) toEntity() entity.SchedulingRequest {
	return entity.SchedulingRequest{
		StudentIDs: r.StudentIDs,
		Level:      entity.ParseCourseLevel(r.Level),
		TimeRange: entity.TimeRange{
			StartDate: r.StartDate,
			EndDate:   r.EndDate,
		},
		OptimizationGoals: r.OptimizationGoals,
		Override:          r.Override,
	}
}

// timeSlotDTO is a weekly (weekday, hour) preference in a request body.
type timeSlotDTO struct {
	Weekday int `json:"weekday" validate:"min=0,max=6"`
	Hour    int `json:"hour" validate:"min=0,max=23"`
}

// recommendationRequest is the JSON body of an alternatives lookup.
type recommendationRequest struct {
	StudentID        string        `json:"student_id" validate:"required"`
	PreferredClassID string        `json:"preferred_class_id" validate:"required"`
	TimeWindows      []timeSlotDTO `json:"time_windows" validate:"omitempty,dive"`
	MaxDistanceKm    float64       `json:"max_distance_km" validate:"gte=0"`
	IncludeWaitlist  bool          `json:"include_waitlist"`
}

func (r recommendationRequest) toEntity() entity.RecommendationRequest {
	windows := make([]entity.TimeSlot, 0, len(r.TimeWindows))
	for _, w := range r.TimeWindows {
		windows = append(windows, entity.TimeSlot{Weekday: time.Weekday(w.Weekday), Hour: w.Hour})
	}
	return entity.RecommendationRequest{
		StudentID:        r.StudentID,
		PreferredClassID: r.PreferredClassID,
		TimeWindows:      windows,
		MaxDistanceKm:    r.MaxDistanceKm,
		IncludeWaitlist:  r.IncludeWaitlist,
	}
}

func listClassQueryFrom(r *http.Request) *repository.ListClassQuery {
	query := &repository.ListClassQuery{}
	query.PageNo = int32(queryInt(r, "page_no", 1))
	query.PageSize = int32(queryInt(r, "page_size", 20))
	if query.PageNo < 1 {
		query.PageNo = 1
	}
	if query.PageSize < 1 {
		query.PageSize = 20
	}
	if query.PageSize > maxPageSize {
		query.PageSize = maxPageSize
	}
	query.OnlyOpen = r.URL.Query().Get("only_open") == "true"
	return query
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// listClassesResponse is the paginated class listing envelope.
type listClassesResponse struct {
	Classes  []entity.Class `json:"classes"`
	Total    int64          `json:"total"`
	PageNo   int32          `json:"page_no"`
	PageSize int32          `json:"page_size"`
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error string `json:"error"`
}
