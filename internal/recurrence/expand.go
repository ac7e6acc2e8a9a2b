// Package recurrence expands a repeat rule into the concrete dates of a batch
// of single-day events.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxOccurrences caps one expansion so a single request cannot append an
// unbounded number of rows.
const MaxOccurrences = 366

// DateLayout is the calendar date format used throughout the API.
const DateLayout = "2006-01-02"

var (
	ErrRangeInverted = errors.New("end date is before start date")
	ErrTooMany       = fmt.Errorf("repeat rule yields more than %d dates", MaxOccurrences)
	ErrNoDates       = errors.New("no dates match the repeat rule")
)

var weekdays = map[time.Weekday]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

// Expand returns every day in [start, until] (both inclusive, compared by
// calendar date), restricted to the given weekdays when any are given.
func Expand(start, until time.Time, days []time.Weekday) ([]time.Time, error) {
	start = midnight(start)
	until = midnight(until)
	if until.Before(start) {
		return nil, ErrRangeInverted
	}

	opt := rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: start,
		Until:   until,
		// one past the cap is enough to detect an oversized range
		Count: MaxOccurrences + 1,
	}
	for _, d := range days {
		wd, ok := weekdays[d]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %d", d)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build repeat rule: %w", err)
	}

	dates := rule.All()
	if len(dates) > MaxOccurrences {
		return nil, ErrTooMany
	}
	if len(dates) == 0 {
		return nil, ErrNoDates
	}
	return dates, nil
}

// ExpandDates is Expand on YYYY-MM-DD strings.
func ExpandDates(start, until string, days []time.Weekday) ([]string, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	u, err := time.Parse(DateLayout, until)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", until, err)
	}
	dates, err := Expand(s, u, days)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
