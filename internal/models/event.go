package models

// Event is one calendar event as stored in a single row of the event sheet.
// Column order is fixed; see ColumnCount and the Col* constants in the events package.
type Event struct {
	ID              string // Unique identifier generated at creation, never rewritten
	Title           string // Event title
	Date            string // Calendar date, YYYY-MM-DD
	Time            string // Free-text time range such as "09:00~10:00", may be empty
	Location        string // Where the event takes place
	Description     string // Longer description
	Category        string // One of the Category* values (legacy labels are kept as stored)
	CreatedByName   string // Display name of the creator
	CreatedByEmail  string // Email of the creator, used for ownership checks
	CreatedAt       string // Creation timestamp, set once
	ModifiedByName  string // Display name of the last modifier, empty until first update
	ModifiedByEmail string // Email of the last modifier, empty until first update
	ModifiedAt      string // Timestamp of the last update, empty until first update
}

// EventInput holds the user-editable fields of an event.
type EventInput struct {
	Title       string
	Date        string
	Time        string
	Location    string
	Description string
	Category    string
}

// Holiday is a read-only entry supplied by a holiday feed.
type Holiday struct {
	Date  string // YYYY-MM-DD
	Title string
}

const (
	CategoryEvent       = "event"
	CategoryReservation = "reservation"
	CategoryHoliday     = "holiday"
)
