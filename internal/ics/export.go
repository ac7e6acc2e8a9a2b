package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"schoolcal/internal/models"
)

// ProductID identifies documents produced by Export.
const ProductID = "-//schoolcal//EN"

// Export writes events as one VCALENDAR with an all-day VEVENT per event.
// Events with an unparseable date are skipped.
func Export(w io.Writer, events []models.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	for _, e := range events {
		ve, ok := toICal(e, now)
		if !ok {
			continue
		}
		cal.Children = append(cal.Children, ve)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// toICal converts a stored event into an all-day VEVENT.
func toICal(e models.Event, now time.Time) (*ical.Component, bool) {
	day, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return nil, false
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID)
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ve.Props.SetDate(ical.PropDateTimeStart, day)
	ve.Props.SetDate(ical.PropDateTimeEnd, day.AddDate(0, 0, 1))

	if desc := description(e); desc != "" {
		ve.Props.SetText(ical.PropDescription, desc)
	}
	if e.Location != "" {
		ve.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Category != "" {
		ve.Props.SetText(ical.PropCategories, e.Category)
	}
	if e.CreatedByEmail != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText(fmt.Sprintf("mailto:%s", e.CreatedByEmail))
		ve.Props.Add(p)
	}
	return ve, true
}

// description prefixes the free-text time range, which has no iCalendar field.
func description(e models.Event) string {
	parts := make([]string, 0, 2)
	if e.Time != "" {
		parts = append(parts, e.Time)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, "\n")
}
