package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoyoshi29/TimeInventory/internal/calendar"
	"github.com/ryoyoshi29/TimeInventory/internal/metrics"
	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository/memory"
	"github.com/ryoyoshi29/TimeInventory/internal/service"
	"github.com/ryoyoshi29/TimeInventory/internal/timeline"
)

type testEnv struct {
	server *Server
	store  *memory.Store
	svc    *service.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore()
	svc := service.New(logger,
		store.Categories(), store.LogEvents(), store.PlannedEvents(),
		store.Exceptions(), store.Settings(), store.Feedbacks(),
	)
	merger := timeline.NewMerger(store.LogEvents(), store.PlannedEvents(), store.Categories(), store.Exceptions(), logger)
	resolver := timeline.NewResolver(store.PlannedEvents(), store.Exceptions(), logger)
	importer := calendar.NewImporter(store.PlannedEvents(), logger)

	server := NewServer(svc, merger, resolver, nil, importer, metrics.New(), logger, time.UTC)
	return &testEnv{server: server, store: store, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) seedCategory(t *testing.T) *models.Category {
	t.Helper()
	category := &models.Category{Name: "Work", ColorARGB: 0xFF2196F3}
	require.NoError(t, e.svc.SaveCategory(context.Background(), category))
	return category
}

func TestCategories_CRUD(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/categories", map[string]any{
		"name": "Study", "color_argb": 0xFF4CAF50,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	var created models.Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)

	rr = e.do(t, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []models.Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rr = e.do(t, http.MethodDelete, "/api/categories/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(t, http.MethodDelete, "/api/categories/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCategories_ValidationError(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/categories", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTimer_Endpoints(t *testing.T) {
	e := newTestEnv(t)
	category := e.seedCategory(t)

	rr := e.do(t, http.MethodGet, "/api/timer", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/timer/start", map[string]any{
		"activity": "Deep work", "category_id": category.ID,
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/timer/start", map[string]any{
		"activity": "Another", "category_id": category.ID,
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/timer", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Stopping immediately discards the sub-minute event.
	rr = e.do(t, http.MethodPost, "/api/timer/stop", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(t, http.MethodPost, "/api/timer/stop", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTimeline_Endpoint(t *testing.T) {
	e := newTestEnv(t)
	category := e.seedCategory(t)
	ctx := context.Background()

	require.NoError(t, e.store.PlannedEvents().Upsert(ctx, &models.PlannedEvent{
		ID:         uuid.New(),
		Activity:   "Jog",
		CategoryID: category.ID,
		StartAt:    time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC),
		Recurrence: &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1},
		Source:     models.SourceManual,
		IsActive:   true,
	}))

	rr := e.do(t, http.MethodGet, "/api/timeline?from=2026-03-02&to=2026-03-04", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var view timeline.RangeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Len(t, view.Planned, 3)

	rr = e.do(t, http.MethodGet, "/api/timeline?from=2026-03-04&to=2026-03-02", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/timeline", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOccurrence_Endpoints(t *testing.T) {
	e := newTestEnv(t)
	category := e.seedCategory(t)
	ctx := context.Background()

	count := 4
	plan := &models.PlannedEvent{
		ID:         uuid.New(),
		Activity:   "Jog",
		CategoryID: category.ID,
		StartAt:    time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC),
		EndAt:      time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC),
		Recurrence: &models.RecurrenceRule{Frequency: models.FrequencyDaily, Interval: 1, Count: &count},
		Source:     models.SourceManual,
		IsActive:   true,
	}
	require.NoError(t, e.store.PlannedEvents().Upsert(ctx, plan))

	base := fmt.Sprintf("/api/plans/%s/occurrences", plan.ID)

	rr := e.do(t, http.MethodPut, base+"/1", map[string]any{"activity": "Swim"})
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = e.do(t, http.MethodDelete, base+"/2", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Index past the count bound.
	rr = e.do(t, http.MethodDelete, base+"/9", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown series.
	rr = e.do(t, http.MethodDelete, fmt.Sprintf("/api/plans/%s/occurrences/0", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/timeline?from=2026-03-02&to=2026-03-06", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var view timeline.RangeView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Len(t, view.Planned, 3)
	assert.Equal(t, "Swim", view.Planned[1].Activity)
	assert.True(t, view.Planned[1].IsException)
}

func TestFeedback_NotConfigured(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodPost, "/api/feedback", map[string]any{
		"date": "2026-03-02", "mode": "NORMAL",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/feedback?date=2026-03-02", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodGet, "/api/categories", nil)

	rr := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "timeinventory_http_requests_total")
}
