package feedback

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository/memory"
	"github.com/ryoyoshi29/TimeInventory/internal/timeline"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeGemini returns a test server that responds with the canned KPT body
// and records the prompt it received.
func fakeGemini(t *testing.T, kptBody string, gotPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				ResponseMimeType string `json:"responseMimeType"`
			} `json:"generationConfig"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		if gotPrompt != nil && len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			*gotPrompt = req.Contents[0].Parts[0].Text
		}

		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": kptBody}},
				},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

const validKPT = `{
	"summary": "A focused day with a strong morning block.",
	"keep": {"title": "Morning focus", "description": "Deep work before noon went well."},
	"problem": {"title": "Late start", "description": "The afternoon plan slipped by an hour."},
	"tryAction": {"title": "Buffer time", "description": "Schedule a 15 minute buffer between blocks."}
}`

func newTestGenerator(t *testing.T, baseURL string) (*Generator, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	logger := discardLogger()
	merger := timeline.NewMerger(store.LogEvents(), store.PlannedEvents(), store.Categories(), store.Exceptions(), logger)
	client := NewGeminiClient("test-key", "gemini-test").WithBaseURL(baseURL)
	return NewGenerator(merger, store.Feedbacks(), client, logger, time.UTC), store
}

func TestGenerate_StoresFeedback(t *testing.T) {
	var prompt string
	srv := fakeGemini(t, validKPT, &prompt)
	defer srv.Close()

	gen, store := newTestGenerator(t, srv.URL)
	ctx := context.Background()

	category := &models.Category{ID: uuid.New(), Name: "Work", ColorARGB: 0xFF2196F3}
	require.NoError(t, store.Categories().Upsert(ctx, category))
	end := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.LogEvents().Upsert(ctx, &models.LogEvent{
		ID:         uuid.New(),
		StartAt:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		EndAt:      &end,
		Activity:   "Write report",
		CategoryID: category.ID,
	}))

	date := models.NewDate(2026, 3, 2)
	fb, err := gen.Generate(ctx, date, models.FeedbackModeStrict)
	require.NoError(t, err)

	assert.Equal(t, date, fb.TargetDate)
	assert.Equal(t, "Morning focus", fb.Keep.Title)
	assert.Equal(t, "Buffer time", fb.Try.Title)

	assert.Contains(t, prompt, "- 09:00 - 10:00: [Work] Write report")
	assert.Contains(t, prompt, "demanding tone")

	stored, err := gen.GetByDate(ctx, date)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, fb.Summary, stored.Summary)
}

func TestGenerate_EmptyDayPrompt(t *testing.T) {
	var prompt string
	srv := fakeGemini(t, validKPT, &prompt)
	defer srv.Close()

	gen, _ := newTestGenerator(t, srv.URL)

	_, err := gen.Generate(context.Background(), models.NewDate(2026, 3, 2), models.FeedbackModeNormal)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(prompt, "(none)"))
}

func TestGenerate_BadResponse(t *testing.T) {
	srv := fakeGemini(t, `{"summary": ""}`, nil)
	defer srv.Close()

	gen, _ := newTestGenerator(t, srv.URL)

	_, err := gen.Generate(context.Background(), models.NewDate(2026, 3, 2), models.FeedbackModeNormal)
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestGenerate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	gen, _ := newTestGenerator(t, srv.URL)

	_, err := gen.Generate(context.Background(), models.NewDate(2026, 3, 2), models.FeedbackModeNormal)
	assert.ErrorIs(t, err, ErrAPIFailure)
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	store := memory.NewStore()
	logger := discardLogger()
	merger := timeline.NewMerger(store.LogEvents(), store.PlannedEvents(), store.Categories(), store.Exceptions(), logger)
	gen := NewGenerator(merger, store.Feedbacks(), NewGeminiClient("", "gemini-test"), logger, time.UTC)

	_, err := gen.Generate(context.Background(), models.NewDate(2026, 3, 2), models.FeedbackModeNormal)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
