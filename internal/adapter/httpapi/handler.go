package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/repository"
	"github.com/epireve/hey-peter-scheduler/internal/usecase"
	"github.com/epireve/hey-peter-scheduler/pkg/filterexpr"
)

// Handler exposes the scheduling engine over JSON HTTP.
type Handler struct {
	engine      usecase.SchedulingRulesEngine
	gaps        usecase.GapAnalyzer
	analytics   usecase.AnalyticsEstimator
	recommender usecase.Recommender
	importer    usecase.CurriculumImporter
	classes     repository.ClassRepository
	validate    *validator.Validate
	logger      *logrus.Logger
}

// NewHandler wires the HTTP handler.
func NewHandler(
	engine usecase.SchedulingRulesEngine,
	gaps usecase.GapAnalyzer,
	analytics usecase.AnalyticsEstimator,
	recommender usecase.Recommender,
	importer usecase.CurriculumImporter,
	classes repository.ClassRepository,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		engine:      engine,
		gaps:        gaps,
		analytics:   analytics,
		recommender: recommender,
		importer:    importer,
		classes:     classes,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/scheduling/run", h.scheduleClasses)
	mux.HandleFunc("GET /api/v1/students/{id}/progress", h.studentProgress)
	mux.HandleFunc("GET /api/v1/students/{id}/gaps", h.studentGaps)
	mux.HandleFunc("GET /api/v1/students/{id}/analytics", h.studentAnalytics)
	mux.HandleFunc("POST /api/v1/recommendations", h.recommendAlternatives)
	mux.HandleFunc("GET /api/v1/classes", h.listClasses)
	mux.HandleFunc("POST /api/v1/curriculum/import", h.importCurriculum)
	mux.HandleFunc("GET /healthz", h.health)
	return requestLogger(h.logger, mux)
}

func (h *Handler) scheduleClasses(w http.ResponseWriter, r *http.Request) {
	var req scheduleClassesRequest
	if !h.decode(w, r, &req) {
		return
	}

	// The engine reports failures inside its response envelope.
	resp := h.engine.ScheduleClasses(r.Context(), req.toEntity())
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) studentProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.gaps.AnalyzeStudentProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if progress == nil {
		progress = []entity.StudentProgress{}
	}
	h.writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) studentGaps(w http.ResponseWriter, r *http.Request) {
	gaps, err := h.gaps.IdentifyUnlearnedContent(r.Context(), r.PathValue("id"), r.URL.Query().Get("course_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if gaps == nil {
		gaps = []entity.UnlearnedContent{}
	}
	h.writeJSON(w, http.StatusOK, gaps)
}

func (h *Handler) studentAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.analytics.GenerateLearningAnalytics(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, analytics)
}

func (h *Handler) recommendAlternatives(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if !h.decode(w, r, &req) {
		return
	}

	recommendations, err := h.recommender.FindAlternatives(r.Context(), req.toEntity())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if recommendations == nil {
		recommendations = []entity.AlternativeClassRecommendation{}
	}
	h.writeJSON(w, http.StatusOK, recommendations)
}

func (h *Handler) listClasses(w http.ResponseWriter, r *http.Request) {
	query := listClassQueryFrom(r)
	in := filterexpr.Input{
		Filter:  r.URL.Query().Get("filter"),
		OrderBy: r.URL.Query().Get("order_by"),
	}
	if err := filterexpr.Bind(in, query, listClassesSchema); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	classes, total, err := h.classes.List(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if classes == nil {
		classes = []entity.Class{}
	}
	h.writeJSON(w, http.StatusOK, listClassesResponse{
		Classes:  classes,
		Total:    total,
		PageNo:   query.PageNo,
		PageSize: query.PageSize,
	})
}

func (h *Handler) importCurriculum(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	summary, err := h.importer.Import(r.Context(), r.Body)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode parses and validates a JSON body, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrStudentNotFound),
		errors.Is(err, entity.ErrCourseNotFound),
		errors.Is(err, entity.ErrClassNotFound),
		errors.Is(err, entity.ErrTeacherNotFound),
		errors.Is(err, entity.ErrEnrollmentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidStudentID),
		errors.Is(err, entity.ErrInvalidTimeRange):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).Error("request failed")
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.WithError(err).Error("encode response")
	}
}
