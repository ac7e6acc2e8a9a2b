package events

import (
	"strings"

	"schoolcal/internal/models"
)

// Column positions of the event sheet (A..M). The order must never change:
// existing spreadsheets are read and written by position.
const (
	ColID = iota
	ColTitle
	ColDate
	ColTime
	ColLocation
	ColDescription
	ColCategory
	ColCreatedByName
	ColCreatedByEmail
	ColCreatedAt
	ColModifiedByName
	ColModifiedByEmail
	ColModifiedAt

	ColumnCount
)

// TimestampLayout is how createdAt/modifiedAt are written (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// padRow returns a copy of row with exactly ColumnCount cells. Legacy rows
// written before the metadata columns existed are shorter.
func padRow(row []string) []string {
	out := make([]string, ColumnCount)
	copy(out, row)
	return out
}

func toRow(e models.Event) []string {
	row := make([]string, ColumnCount)
	row[ColID] = e.ID
	row[ColTitle] = e.Title
	row[ColDate] = e.Date
	row[ColTime] = e.Time
	row[ColLocation] = e.Location
	row[ColDescription] = e.Description
	row[ColCategory] = e.Category
	row[ColCreatedByName] = e.CreatedByName
	row[ColCreatedByEmail] = e.CreatedByEmail
	row[ColCreatedAt] = e.CreatedAt
	row[ColModifiedByName] = e.ModifiedByName
	row[ColModifiedByEmail] = e.ModifiedByEmail
	row[ColModifiedAt] = e.ModifiedAt
	return row
}

func fromRow(row []string) models.Event {
	r := padRow(row)
	return models.Event{
		ID:              r[ColID],
		Title:           r[ColTitle],
		Date:            r[ColDate],
		Time:            r[ColTime],
		Location:        r[ColLocation],
		Description:     r[ColDescription],
		Category:        r[ColCategory],
		CreatedByName:   r[ColCreatedByName],
		CreatedByEmail:  r[ColCreatedByEmail],
		CreatedAt:       r[ColCreatedAt],
		ModifiedByName:  r[ColModifiedByName],
		ModifiedByEmail: r[ColModifiedByEmail],
		ModifiedAt:      r[ColModifiedAt],
	}
}

// applyInput writes the editable columns B..G.
func applyInput(row []string, in models.EventInput) {
	row[ColTitle] = in.Title
	row[ColDate] = in.Date
	row[ColTime] = in.Time
	row[ColLocation] = in.Location
	row[ColDescription] = in.Description
	row[ColCategory] = categoryOrDefault(in.Category)
}

func categoryOrDefault(c string) string {
	if c = strings.TrimSpace(c); c == "" {
		return models.CategoryEvent
	}
	return c
}

// indexOf returns the position of the row whose id cell equals id, or -1.
func indexOf(rows [][]string, id string) int {
	if id == "" {
		return -1
	}
	for i, r := range rows {
		if len(r) > ColID && r[ColID] == id {
			return i
		}
	}
	return -1
}
