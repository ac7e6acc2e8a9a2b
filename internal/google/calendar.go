package google

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"schoolcal/internal/models"
)

// HolidayClient reads public holidays from a Google calendar.
type HolidayClient struct {
	service    *calendar.Service
	logger     *slog.Logger
	calendarID string
	location   *time.Location
}

// NewHolidayClient creates a holiday reader for calendarID. Year boundaries are
// computed in loc.
func NewHolidayClient(ctx context.Context, logger *slog.Logger, calendarID string, loc *time.Location, opts ...option.ClientOption) (*HolidayClient, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HolidayClient{service: service, logger: logger, calendarID: calendarID, location: loc}, nil
}

// Holidays returns the all-day entries of the holiday calendar that start in year.
func (c *HolidayClient) Holidays(ctx context.Context, year int) ([]models.Holiday, error) {
	c.logger.Debug("Fetching holidays", "calendarID", c.calendarID, "year", year)
	tmin := time.Date(year, time.January, 1, 0, 0, 0, 0, c.location)
	tmax := tmin.AddDate(1, 0, 0)

	var holidays []models.Holiday
	err := c.service.Events.List(c.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(tmin.Format(time.RFC3339)).
		TimeMax(tmax.Format(time.RFC3339)).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			holidays = append(holidays, toHolidays(page.Items)...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve holidays: %w", err)
	}

	c.logger.Debug("Fetched holidays from Google Calendar", "count", len(holidays), "year", year)
	return holidays, nil
}

func toHolidays(items []*calendar.Event) []models.Holiday {
	var out []models.Holiday
	for _, item := range items {
		if item.Start == nil {
			continue
		}
		date := item.Start.Date
		// Holidays are all-day entries; fall back to the timed start just in case.
		if date == "" && len(item.Start.DateTime) >= len("2006-01-02") {
			date = item.Start.DateTime[:len("2006-01-02")]
		}
		if date == "" {
			continue
		}
		out = append(out, models.Holiday{Date: date, Title: item.Summary})
	}
	return out
}
