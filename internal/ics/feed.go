// Package ics reads holidays from an iCalendar subscription and writes
// stored events out as an iCalendar document.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/emersion/go-ical"

	"schoolcal/internal/models"
)

// Feed fetches an ICS URL on every call and returns the all-day entries of a year.
type Feed struct {
	client   *http.Client
	logger   *slog.Logger
	url      string
	location *time.Location
}

// NewFeed creates a feed for rawURL. A zero timeout leaves bounding to the
// request context.
func NewFeed(logger *slog.Logger, rawURL string, timeout time.Duration, loc *time.Location) *Feed {
	if loc == nil {
		loc = time.UTC
	}
	return &Feed{
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		url:      rawURL,
		location: loc,
	}
}

// Holidays fetches the feed and returns the events whose start falls in year.
func (f *Feed) Holidays(ctx context.Context, year int) ([]models.Holiday, error) {
	if f.url == "" {
		return nil, errors.New("ics url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ics request: %w", err)
	}

	f.logger.Debug("Fetching ICS holidays", "url", redactURL(f.url), "year", year)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ics feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics feed returned %s", resp.Status)
	}
	return ParseHolidays(resp.Body, year, f.location)
}

// ParseHolidays decodes every calendar in r and keeps events starting in year.
func ParseHolidays(r io.Reader, year int, loc *time.Location) ([]models.Holiday, error) {
	dec := ical.NewDecoder(r)
	var out []models.Holiday
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode ics feed: %w", err)
		}
		out = append(out, CalendarHolidays(cal, year, loc)...)
	}
	return out, nil
}

// CalendarHolidays returns the events of cal whose start falls in year.
// Events without a readable DTSTART are skipped.
func CalendarHolidays(cal *ical.Calendar, year int, loc *time.Location) []models.Holiday {
	var out []models.Holiday
	for _, ev := range cal.Events() {
		start, err := ev.DateTimeStart(loc)
		if err != nil || start.IsZero() {
			continue
		}
		start = start.In(loc)
		if start.Year() != year {
			continue
		}
		title, _ := ev.Props.Text(ical.PropSummary)
		out = append(out, models.Holiday{Date: start.Format("2006-01-02"), Title: title})
	}
	return out
}

// redactURL hides query strings, which often carry private calendar tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
