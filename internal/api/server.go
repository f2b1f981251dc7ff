package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ryoyoshi29/TimeInventory/internal/calendar"
	"github.com/ryoyoshi29/TimeInventory/internal/feedback"
	"github.com/ryoyoshi29/TimeInventory/internal/metrics"
	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/recurrence"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
	"github.com/ryoyoshi29/TimeInventory/internal/service"
	"github.com/ryoyoshi29/TimeInventory/internal/timeline"
)

// Server provides the HTTP API.
type Server struct {
	svc       *service.Service
	merger    *timeline.Merger
	resolver  *timeline.Resolver
	generator *feedback.Generator
	importer  *calendar.Importer
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	loc       *time.Location
	mux       *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it. The
// generator and importer may be nil when their features are not configured;
// the corresponding endpoints then respond with an error.
func NewServer(
	svc *service.Service,
	merger *timeline.Merger,
	resolver *timeline.Resolver,
	generator *feedback.Generator,
	importer *calendar.Importer,
	m *metrics.Metrics,
	logger *logrus.Logger,
	loc *time.Location,
) *Server {
	if loc == nil {
		loc = time.Local
	}
	s := &Server{
		svc: svc, merger: merger, resolver: resolver,
		generator: generator, importer: importer,
		metrics: m, logger: logger, loc: loc,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Categories
	s.handle("GET /api/categories", s.handleListCategories)
	s.handle("POST /api/categories", s.handleSaveCategory)
	s.handle("DELETE /api/categories/{id}", s.handleDeleteCategory)

	// API – Log events
	s.handle("GET /api/logs", s.handleListLogs)
	s.handle("POST /api/logs", s.handleSaveLog)
	s.handle("PUT /api/logs/{id}", s.handleUpdateLog)
	s.handle("DELETE /api/logs/{id}", s.handleDeleteLog)

	// API – Timer
	s.handle("POST /api/timer/start", s.handleStartTimer)
	s.handle("POST /api/timer/stop", s.handleStopTimer)
	s.handle("GET /api/timer", s.handleActiveTimer)

	// API – Planned events and recurring series
	s.handle("GET /api/plans", s.handleListPlans)
	s.handle("POST /api/plans", s.handleSavePlan)
	s.handle("PUT /api/plans/{id}", s.handleEditSeries)
	s.handle("DELETE /api/plans/{id}", s.handleDeleteSeries)
	s.handle("PUT /api/plans/{id}/occurrences/{index}", s.handleEditOccurrence)
	s.handle("DELETE /api/plans/{id}/occurrences/{index}", s.handleDeleteOccurrence)

	// API – Timeline
	s.handle("GET /api/timeline", s.handleTimeline)

	// API – Feedback
	s.handle("POST /api/feedback", s.handleGenerateFeedback)
	s.handle("GET /api/feedback", s.handleGetFeedback)

	// API – Calendar import
	s.handle("POST /api/import/ics", s.handleImportICS)

	// Operational endpoints
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// handle registers a handler wrapped with request metrics.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.RecordRequest(pattern, strconv.Itoa(rec.status))
		s.metrics.ObserveDuration(pattern, time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads the request body into dst and returns an error message on
// failure.  The caller should return immediately when ok == false.
func (s *Server) decodeJSON(r *http.Request, dst any) (ok bool, errMsg string) {
	if r.Body == nil {
		return false, "request body is empty"
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}
	return true, ""
}

// pathUUID extracts the {id} path value as a UUID.
func pathUUID(r *http.Request) (uuid.UUID, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing id in path")
	}
	return uuid.Parse(raw)
}

// pathIndex extracts the {index} path value as a non-negative integer.
func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	if raw == "" {
		return 0, fmt.Errorf("missing index in path")
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("index must be a non-negative integer")
	}
	return idx, nil
}

// requireDateRange reads the from/to query parameters.  It writes an error
// response and returns false when either is absent or invalid.
func (s *Server) requireDateRange(w http.ResponseWriter, r *http.Request) (from, to models.Date, ok bool) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw == "" || toRaw == "" {
		s.respondError(w, http.StatusBadRequest, "from and to query parameters are required (YYYY-MM-DD)")
		return from, to, false
	}
	var err error
	if from, err = models.ParseDate(fromRaw); err != nil {
		s.respondError(w, http.StatusBadRequest, "from must be a YYYY-MM-DD date")
		return from, to, false
	}
	if to, err = models.ParseDate(toRaw); err != nil {
		s.respondError(w, http.StatusBadRequest, "to must be a YYYY-MM-DD date")
		return from, to, false
	}
	if to.Before(from) {
		s.respondError(w, http.StatusBadRequest, "to must not be before from")
		return from, to, false
	}
	return from, to, true
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.ListCategories(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to list categories")
		s.respondError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	s.respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if ok, msg := s.decodeJSON(r, &category); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.svc.SaveCategory(r.Context(), &category); err != nil {
		if errors.Is(err, models.ErrValidation) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.WithError(err).Error("failed to save category")
		s.respondError(w, http.StatusInternalServerError, "failed to save category")
		return
	}
	s.respondJSON(w, http.StatusCreated, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	switch err := s.svc.DeleteCategory(r.Context(), id); {
	case err == nil:
		s.respondJSON(w, http.StatusNoContent, nil)
	case errors.Is(err, service.ErrCategoryNotFound):
		s.respondError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, repository.ErrCategoryInUse):
		s.respondError(w, http.StatusConflict, "category is referenced by existing events")
	default:
		s.logger.WithError(err).Error("failed to delete category")
		s.respondError(w, http.StatusInternalServerError, "failed to delete category")
	}
}

// ---------------------------------------------------------------------------
// Log events
// ---------------------------------------------------------------------------

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.requireDateRange(w, r)
	if !ok {
		return
	}
	logs, err := s.svc.ListLogEvents(r.Context(), from.StartOfDay(s.loc), to.AddDays(1).StartOfDay(s.loc))
	if err != nil {
		s.logger.WithError(err).Error("failed to list log events")
		s.respondError(w, http.StatusInternalServerError, "failed to list log events")
		return
	}
	s.respondJSON(w, http.StatusOK, logs)
}

func (s *Server) handleSaveLog(w http.ResponseWriter, r *http.Request) {
	var event models.LogEvent
	if ok, msg := s.decodeJSON(r, &event); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.saveLogEvent(r.Context(), w, &event); err == nil {
		s.respondJSON(w, http.StatusCreated, event)
	}
}

func (s *Server) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	if _, err := s.svc.GetLogEvent(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrLogEventNotFound) {
			s.respondError(w, http.StatusNotFound, "log event not found")
			return
		}
		s.logger.WithError(err).Error("failed to load log event")
		s.respondError(w, http.StatusInternalServerError, "failed to load log event")
		return
	}

	var event models.LogEvent
	if ok, msg := s.decodeJSON(r, &event); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	event.ID = id
	if err := s.saveLogEvent(r.Context(), w, &event); err == nil {
		s.respondJSON(w, http.StatusOK, event)
	}
}

// saveLogEvent persists the event, writing the error response itself. The
// returned error only signals that a response was already sent.
func (s *Server) saveLogEvent(ctx context.Context, w http.ResponseWriter, event *models.LogEvent) error {
	if err := s.svc.SaveLogEvent(ctx, event); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCategoryNotFound):
			s.respondError(w, http.StatusBadRequest, "category not found")
		default:
			s.logger.WithError(err).Error("failed to save log event")
			s.respondError(w, http.StatusInternalServerError, "failed to save log event")
		}
		return err
	}
	return nil
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	if err := s.svc.DeleteLogEvent(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrLogEventNotFound) {
			s.respondError(w, http.StatusNotFound, "log event not found")
			return
		}
		s.logger.WithError(err).Error("failed to delete log event")
		s.respondError(w, http.StatusInternalServerError, "failed to delete log event")
		return
	}
	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Timer
// ---------------------------------------------------------------------------

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Activity   string    `json:"activity"`
		CategoryID uuid.UUID `json:"category_id"`
		Memo       string    `json:"memo"`
	}
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := s.svc.StartTimer(r.Context(), req.Activity, req.CategoryID, req.Memo)
	switch {
	case err == nil:
		s.metrics.SetTimerRunning(true)
		s.respondJSON(w, http.StatusCreated, event)
	case errors.Is(err, service.ErrTimerRunning):
		s.respondError(w, http.StatusConflict, "a timer is already running")
	case errors.Is(err, service.ErrCategoryNotFound):
		s.respondError(w, http.StatusBadRequest, "category not found")
	case errors.Is(err, models.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).Error("failed to start timer")
		s.respondError(w, http.StatusInternalServerError, "failed to start timer")
	}
}

func (s *Server) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	event, err := s.svc.StopTimer(r.Context())
	switch {
	case err == nil && event == nil:
		// Under the minimum duration; discarded.
		s.metrics.SetTimerRunning(false)
		s.respondJSON(w, http.StatusNoContent, nil)
	case err == nil:
		s.metrics.SetTimerRunning(false)
		s.respondJSON(w, http.StatusOK, event)
	case errors.Is(err, service.ErrNoRunningTimer):
		s.respondError(w, http.StatusNotFound, "no running timer")
	default:
		s.logger.WithError(err).Error("failed to stop timer")
		s.respondError(w, http.StatusInternalServerError, "failed to stop timer")
	}
}

func (s *Server) handleActiveTimer(w http.ResponseWriter, r *http.Request) {
	event, err := s.svc.ActiveTimer(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("failed to lookup running timer")
		s.respondError(w, http.StatusInternalServerError, "failed to lookup running timer")
		return
	}
	if event == nil {
		s.respondJSON(w, http.StatusNoContent, nil)
		return
	}
	s.respondJSON(w, http.StatusOK, event)
}

// ---------------------------------------------------------------------------
// Planned events and recurring series
// ---------------------------------------------------------------------------

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.requireDateRange(w, r)
	if !ok {
		return
	}
	plans, err := s.svc.Plans.ListForWindow(r.Context(), from.StartOfDay(s.loc), to.AddDays(1).StartOfDay(s.loc))
	if err != nil {
		s.logger.WithError(err).Error("failed to list planned events")
		s.respondError(w, http.StatusInternalServerError, "failed to list planned events")
		return
	}
	s.respondJSON(w, http.StatusOK, plans)
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var event models.PlannedEvent
	if ok, msg := s.decodeJSON(r, &event); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if err := s.svc.SavePlannedEvent(r.Context(), &event); err != nil {
		switch {
		case errors.Is(err, models.ErrValidation):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCategoryNotFound):
			s.respondError(w, http.StatusBadRequest, "category not found")
		default:
			s.logger.WithError(err).Error("failed to save planned event")
			s.respondError(w, http.StatusInternalServerError, "failed to save planned event")
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, event)
}

func (s *Server) handleEditSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	var patch models.EventPatch
	if ok, msg := s.decodeJSON(r, &patch); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	event, err := s.resolver.EditSeries(r.Context(), id, patch)
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, event)
	case errors.Is(err, timeline.ErrSeriesNotFound):
		s.respondError(w, http.StatusNotFound, "planned event not found")
	case errors.Is(err, models.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).Error("failed to edit planned event")
		s.respondError(w, http.StatusInternalServerError, "failed to edit planned event")
	}
}

func (s *Server) handleDeleteSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	switch err := s.resolver.DeleteSeries(r.Context(), id); {
	case err == nil:
		s.respondJSON(w, http.StatusNoContent, nil)
	case errors.Is(err, timeline.ErrSeriesNotFound):
		s.respondError(w, http.StatusNotFound, "planned event not found")
	default:
		s.logger.WithError(err).Error("failed to delete planned event")
		s.respondError(w, http.StatusInternalServerError, "failed to delete planned event")
	}
}

func (s *Server) handleEditOccurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch models.EventPatch
	if ok, msg := s.decodeJSON(r, &patch); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	s.respondOccurrenceResult(w, s.resolver.EditOccurrence(r.Context(), id, index, patch))
}

func (s *Server) handleDeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	index, err := pathIndex(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondOccurrenceResult(w, s.resolver.DeleteOccurrence(r.Context(), id, index))
}

func (s *Server) respondOccurrenceResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusNoContent, nil)
	case errors.Is(err, timeline.ErrSeriesNotFound):
		s.respondError(w, http.StatusNotFound, "recurring series not found")
	case errors.Is(err, timeline.ErrInvalidOccurrence):
		s.respondError(w, http.StatusBadRequest, "occurrence index does not exist for this series")
	case errors.Is(err, models.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).Error("failed to update occurrence")
		s.respondError(w, http.StatusInternalServerError, "failed to update occurrence")
	}
}

// ---------------------------------------------------------------------------
// Timeline
// ---------------------------------------------------------------------------

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	from, to, ok := s.requireDateRange(w, r)
	if !ok {
		return
	}
	view, err := s.merger.Range(r.Context(), from, to, s.loc)
	if err != nil {
		if errors.Is(err, recurrence.ErrExpansionLimit) {
			s.metrics.RecordExpansionLimit()
			s.respondError(w, http.StatusUnprocessableEntity, "a recurring series expands past the supported occurrence limit")
			return
		}
		s.logger.WithError(err).Error("failed to assemble timeline")
		s.respondError(w, http.StatusInternalServerError, "failed to assemble timeline")
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

// ---------------------------------------------------------------------------
// Feedback
// ---------------------------------------------------------------------------

func (s *Server) handleGenerateFeedback(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		s.respondError(w, http.StatusServiceUnavailable, "feedback generation is not configured")
		return
	}
	var req struct {
		Date models.Date         `json:"date"`
		Mode models.FeedbackMode `json:"mode"`
	}
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Date.IsZero() {
		s.respondError(w, http.StatusBadRequest, "date is required (YYYY-MM-DD)")
		return
	}

	fb, err := s.generator.Generate(r.Context(), req.Date, req.Mode)
	switch {
	case err == nil:
		s.metrics.RecordFeedback("ok")
		s.respondJSON(w, http.StatusCreated, fb)
	case errors.Is(err, feedback.ErrNotConfigured):
		s.respondError(w, http.StatusServiceUnavailable, "feedback generation is not configured")
	case errors.Is(err, feedback.ErrAPIFailure), errors.Is(err, feedback.ErrBadResponse):
		s.metrics.RecordFeedback("error")
		s.logger.WithError(err).Error("feedback generation failed")
		s.respondError(w, http.StatusBadGateway, "feedback generation failed")
	default:
		s.metrics.RecordFeedback("error")
		s.logger.WithError(err).Error("feedback generation failed")
		s.respondError(w, http.StatusInternalServerError, "feedback generation failed")
	}
}

func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		s.respondError(w, http.StatusBadRequest, "date query parameter is required (YYYY-MM-DD)")
		return
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "date must be a YYYY-MM-DD date")
		return
	}

	fb, err := s.svc.Feedbacks.GetByDate(r.Context(), date)
	if err != nil {
		s.logger.WithError(err).Error("failed to load feedback")
		s.respondError(w, http.StatusInternalServerError, "failed to load feedback")
		return
	}
	if fb == nil {
		s.respondError(w, http.StatusNotFound, "no feedback generated for this date")
		return
	}
	s.respondJSON(w, http.StatusOK, fb)
}

// ---------------------------------------------------------------------------
// Calendar import
// ---------------------------------------------------------------------------

func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		s.respondError(w, http.StatusServiceUnavailable, "calendar import is not configured")
		return
	}
	var req struct {
		URL        string                    `json:"url"`
		Payload    string                    `json:"payload"`
		CategoryID uuid.UUID                 `json:"category_id"`
		Source     models.PlannedEventSource `json:"source"`
	}
	if ok, msg := s.decodeJSON(r, &req); !ok {
		s.respondError(w, http.StatusBadRequest, msg)
		return
	}
	if (req.URL == "") == (req.Payload == "") {
		s.respondError(w, http.StatusBadRequest, "exactly one of url or payload is required")
		return
	}
	if _, err := s.svc.GetCategory(r.Context(), req.CategoryID); err != nil {
		s.respondError(w, http.StatusBadRequest, "category not found")
		return
	}
	source := req.Source
	if source == "" {
		source = models.SourceGoogleCalendar
	}

	var (
		result *calendar.ImportResult
		err    error
	)
	if req.URL != "" {
		result, err = s.importer.ImportURL(r.Context(), req.URL, req.CategoryID, source)
	} else {
		result, err = s.importer.Import(r.Context(), []byte(req.Payload), req.CategoryID, source)
	}
	if err != nil {
		s.logger.WithError(err).Error("calendar import failed")
		s.respondError(w, http.StatusBadGateway, "calendar import failed")
		return
	}

	s.metrics.RecordImportedEvents("imported", result.Imported)
	s.metrics.RecordImportedEvents("updated", result.Updated)
	s.metrics.RecordImportedEvents("skipped", result.Skipped)
	s.respondJSON(w, http.StatusOK, result)
}
