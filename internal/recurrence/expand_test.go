package recurrence

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestExpandDates(t *testing.T) {
	tests := []struct {
		name  string
		start string
		until string
		days  []time.Weekday
		want  []string
	}{
		{
			name:  "every day inclusive",
			start: "2025-06-01",
			until: "2025-06-03",
			want:  []string{"2025-06-01", "2025-06-02", "2025-06-03"},
		},
		{
			name:  "single day",
			start: "2025-06-01",
			until: "2025-06-01",
			want:  []string{"2025-06-01"},
		},
		{
			// 2025-06-02 is a Monday
			name:  "mondays and wednesdays",
			start: "2025-06-01",
			until: "2025-06-15",
			days:  []time.Weekday{time.Monday, time.Wednesday},
			want:  []string{"2025-06-02", "2025-06-04", "2025-06-09", "2025-06-11"},
		},
		{
			name:  "across month end",
			start: "2025-01-30",
			until: "2025-02-02",
			days:  []time.Weekday{time.Saturday, time.Sunday},
			want:  []string{"2025-02-01", "2025-02-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandDates(tt.start, tt.until, tt.days)
			if err != nil {
				t.Fatalf("ExpandDates: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandErrors(t *testing.T) {
	if _, err := ExpandDates("2025-06-10", "2025-06-01", nil); !errors.Is(err, ErrRangeInverted) {
		t.Errorf("inverted range: got %v", err)
	}
	if _, err := ExpandDates("2025-06-02", "2025-06-03", []time.Weekday{time.Sunday}); !errors.Is(err, ErrNoDates) {
		t.Errorf("no matching weekday: got %v", err)
	}
	if _, err := ExpandDates("2024-01-01", "2026-01-01", nil); !errors.Is(err, ErrTooMany) {
		t.Errorf("over cap: got %v", err)
	}
	start := time.Now()
	if _, err := ExpandDates("2025-01-01", "9999-12-31", nil); !errors.Is(err, ErrTooMany) {
		t.Errorf("far-future end: got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("far-future end took %v; expansion should stop at the cap", elapsed)
	}
	if _, err := ExpandDates("2025-01-01", "9999-12-31", []time.Weekday{time.Monday}); !errors.Is(err, ErrTooMany) {
		t.Errorf("far-future weekly: got %v", err)
	}
	if _, err := ExpandDates("2025-6-1", "2025-06-03", nil); err == nil {
		t.Error("malformed date should fail")
	}
	if _, err := ExpandDates("2025-06-01", "2025-06-03", []time.Weekday{9}); err == nil {
		t.Error("invalid weekday should fail")
	}
}

func TestExpandAllowsExactlyTheCap(t *testing.T) {
	// 2024 is a leap year
	got, err := ExpandDates("2024-01-01", "2024-12-31", nil)
	if err != nil {
		t.Fatalf("ExpandDates: %v", err)
	}
	if len(got) != MaxOccurrences {
		t.Errorf("got %d dates, want %d", len(got), MaxOccurrences)
	}
	if got[len(got)-1] != "2024-12-31" {
		t.Errorf("last date %s, want 2024-12-31", got[len(got)-1])
	}
}

func TestExpandIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	start := time.Date(2025, 6, 1, 18, 30, 0, 0, loc)
	until := time.Date(2025, 6, 2, 8, 0, 0, 0, loc)

	got, err := Expand(start, until, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d dates, want 2", len(got))
	}
}
