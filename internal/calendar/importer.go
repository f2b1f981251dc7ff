// Package calendar imports planned events from external ICS calendar feeds.
package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"

	"github.com/ryoyoshi29/TimeInventory/internal/models"
	"github.com/ryoyoshi29/TimeInventory/internal/repository"
)

// maxFeedBytes bounds how much of a remote feed is read.
const maxFeedBytes = 10 << 20

// ImportResult summarizes one feed import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings,omitempty"`
}

// Importer parses ICS feeds into planned events. Events are keyed by their
// ICS UID so re-importing the same feed updates instead of duplicating.
type Importer struct {
	plans      repository.PlannedEventRepository
	logger     *logrus.Logger
	httpClient *http.Client
}

// NewImporter creates an importer backed by the given planned event store.
func NewImporter(plans repository.PlannedEventRepository, logger *logrus.Logger) *Importer {
	return &Importer{
		plans:  plans,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ImportURL fetches an ICS feed over HTTP and imports its events.
func (i *Importer) ImportURL(ctx context.Context, url string, categoryID uuid.UUID, source models.PlannedEventSource) (*ImportResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar feed: %w", err)
	}

	return i.Import(ctx, body, categoryID, source)
}

// Import parses an ICS payload and upserts one planned event per VEVENT.
// Recurrence rules the schedule model cannot express are imported as single
// events with a warning.
func (i *Importer) Import(ctx context.Context, payload []byte, categoryID uuid.UUID, source models.PlannedEventSource) (*ImportResult, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICS payload: %w", err)
	}

	result := &ImportResult{}
	for _, ve := range cal.Events() {
		if err := i.importEvent(ctx, ve, categoryID, source, result); err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, err.Error())
			i.logger.WithError(err).Warn("Skipped unparseable calendar event")
		}
	}

	i.logger.WithFields(logrus.Fields{
		"imported": result.Imported,
		"updated":  result.Updated,
		"skipped":  result.Skipped,
	}).Info("Calendar feed import completed")
	return result, nil
}

func (i *Importer) importEvent(ctx context.Context, ve *ical.VEvent, categoryID uuid.UUID, source models.PlannedEventSource, result *ImportResult) error {
	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return fmt.Errorf("event missing UID")
	}
	uid := uidProp.Value

	start, err := ve.GetStartAt()
	if err != nil {
		return fmt.Errorf("event %s: missing start time: %w", uid, err)
	}
	end, err := ve.GetEndAt()
	if err != nil || !end.After(start) {
		end = start.Add(time.Hour)
	}

	activity := uid
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		activity = p.Value
	}
	memo := ""
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		memo = p.Value
	}

	allDay := false
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			allDay = true
		}
	}

	var rule *models.RecurrenceRule
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		rule, err = mapRRule(p.Value)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("event %s: %v; imported as a single event", uid, err))
			rule = nil
		}
	}

	existing, err := i.plans.GetByExternalID(ctx, uid)
	if err != nil {
		return fmt.Errorf("event %s: lookup failed: %w", uid, err)
	}

	event := &models.PlannedEvent{
		ID:                 uuid.New(),
		Activity:           activity,
		CategoryID:         categoryID,
		StartAt:            start,
		EndAt:              end,
		AllDay:             allDay,
		Recurrence:         rule,
		Memo:               memo,
		ExternalCalendarID: &uid,
		Source:             source,
		IsActive:           true,
	}
	if existing != nil {
		event.ID = existing.ID
		event.CreatedAt = existing.CreatedAt
	}

	if err := event.Validate(); err != nil {
		return fmt.Errorf("event %s: %w", uid, err)
	}
	if err := i.plans.Upsert(ctx, event); err != nil {
		return fmt.Errorf("event %s: save failed: %w", uid, err)
	}

	if existing != nil {
		result.Updated++
	} else {
		result.Imported++
	}
	return nil
}

// mapRRule converts an RFC 5545 RRULE into the schedule model's recurrence
// rule. Only the DAILY, WEEKLY and MONTHLY frequencies with interval, BYDAY,
// COUNT and UNTIL are representable.
func mapRRule(raw string) (*models.RecurrenceRule, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return nil, fmt.Errorf("unparseable RRULE %q: %w", raw, err)
	}

	rule := &models.RecurrenceRule{Interval: opt.Interval}
	if rule.Interval < 1 {
		rule.Interval = 1
	}

	switch opt.Freq {
	case rrule.DAILY:
		rule.Frequency = models.FrequencyDaily
	case rrule.WEEKLY:
		rule.Frequency = models.FrequencyWeekly
	case rrule.MONTHLY:
		rule.Frequency = models.FrequencyMonthly
	default:
		return nil, fmt.Errorf("unsupported RRULE frequency in %q", raw)
	}

	for _, wd := range opt.Byweekday {
		// rrule weekdays are Monday-based; time.Weekday is Sunday-based.
		rule.DaysOfWeek = append(rule.DaysOfWeek, time.Weekday((wd.Day()+1)%7))
	}
	if len(rule.DaysOfWeek) > 0 && rule.Frequency != models.FrequencyWeekly {
		return nil, fmt.Errorf("BYDAY is only supported with FREQ=WEEKLY in %q", raw)
	}

	if opt.Count > 0 {
		count := opt.Count
		rule.Count = &count
	}
	if !opt.Until.IsZero() {
		until := models.DateOf(opt.Until)
		rule.EndDate = &until
	}

	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("RRULE %q maps to an invalid rule: %w", raw, err)
	}
	return rule, nil
}
