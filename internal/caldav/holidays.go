// Package caldav reads holidays from a named calendar on a CalDAV server.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/emersion/go-webdav/caldav"

	"schoolcal/internal/ics"
	"schoolcal/internal/models"
)

// customTransport adds Basic Auth and the client's user agent to each request.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.Username != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "schoolcal/1.0")
	return t.Transport.RoundTrip(req)
}

// HolidayClient queries a CalDAV calendar for holidays. The calendar is located
// by display name on first use.
type HolidayClient struct {
	client       *caldav.Client
	logger       *slog.Logger
	calendarName string
	location     *time.Location

	mu           sync.Mutex
	calendarPath string
}

// NewHolidayClient creates a client for the calendar named calendarName under endpoint.
func NewHolidayClient(logger *slog.Logger, endpoint, username, password, calendarName string, timeout time.Duration, loc *time.Location) (*HolidayClient, error) {
	transport := &customTransport{
		Username:  username,
		Password:  password,
		Transport: http.DefaultTransport,
	}
	httpClient := &http.Client{Transport: transport, Timeout: timeout}

	client, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &HolidayClient{client: client, logger: logger, calendarName: calendarName, location: loc}, nil
}

// Holidays returns the events of the calendar that start in year.
func (c *HolidayClient) Holidays(ctx context.Context, year int) ([]models.Holiday, error) {
	calendarPath, err := c.resolve(ctx)
	if err != nil {
		return nil, err
	}

	objects, err := c.client.QueryCalendar(ctx, calendarPath, yearQuery(year, c.location))
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}
	holidays := holidaysFromObjects(objects, year, c.location)
	c.logger.Debug("Fetched holidays from CalDAV", "calendar", c.calendarName, "count", len(holidays), "year", year)
	return holidays, nil
}

func (c *HolidayClient) resolve(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calendarPath != "" {
		return c.calendarPath, nil
	}
	c.logger.Info("Finding CalDAV calendar", "calendarName", c.calendarName)
	p, err := c.findCalendar(ctx, c.calendarName)
	if err != nil {
		return "", fmt.Errorf("could not find calendar '%s': %w", c.calendarName, err)
	}
	c.calendarPath = p
	c.logger.Info("Successfully found CalDAV calendar", "path", p)
	return p, nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *HolidayClient) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.client.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.client.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}

// yearQuery asks for every VEVENT overlapping year.
func yearQuery(year int, loc *time.Location) *caldav.CalendarQuery {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	return &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{{Name: "VEVENT", AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: start.UTC(),
				End:   start.AddDate(1, 0, 0).UTC(),
			}},
		},
	}
}

func holidaysFromObjects(objects []caldav.CalendarObject, year int, loc *time.Location) []models.Holiday {
	var out []models.Holiday
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		out = append(out, ics.CalendarHolidays(obj.Data, year, loc)...)
	}
	return out
}
