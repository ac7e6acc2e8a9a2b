package events

import "schoolcal/internal/models"

type colorPair struct {
	background string
	border     string
}

var (
	defaultColor = colorPair{"#6b7280", "#4b5563"}
	holidayColor = colorPair{"#ef4444", "#dc2626"}

	// Legacy Korean labels are still present in older sheets.
	categoryColors = map[string]colorPair{
		models.CategoryEvent:       {"#3b82f6", "#2563eb"},
		"행사":                       {"#3b82f6", "#2563eb"},
		models.CategoryReservation: {"#10b981", "#059669"},
		"예약":                       {"#10b981", "#059669"},
		models.CategoryHoliday:     holidayColor,
		"공휴일":                      holidayColor,
	}
)

func colorFor(category string) colorPair {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return defaultColor
}

// toDisplay converts a stored event into its calendar representation.
func toDisplay(e models.Event) models.DisplayEvent {
	color := colorFor(e.Category)

	creatorName := e.CreatedByName
	if creatorName == "" {
		creatorName = e.CreatedByEmail
	}
	modifierName := e.ModifiedByName
	if modifierName == "" {
		modifierName = e.ModifiedByEmail
	}

	return models.DisplayEvent{
		ID:              e.ID,
		Title:           e.Title,
		Start:           e.Date,
		Time:            e.Time,
		Location:        e.Location,
		Description:     e.Description,
		Category:        e.Category,
		CreatedBy:       e.CreatedByEmail,
		CreatedAt:       e.CreatedAt,
		ModifiedBy:      e.ModifiedByEmail,
		ModifiedAt:      optional(e.ModifiedAt),
		AllDay:          true,
		BackgroundColor: color.background,
		BorderColor:     color.border,
		ExtendedProps: models.ExtendedProps{
			Time:         e.Time,
			Location:     e.Location,
			Description:  e.Description,
			Category:     e.Category,
			CreatedBy:    e.CreatedByEmail,
			CreatorName:  creatorName,
			CreatedAt:    e.CreatedAt,
			ModifiedBy:   optional(e.ModifiedByEmail),
			ModifierName: modifierName,
			ModifiedAt:   optional(e.ModifiedAt),
		},
	}
}

func holidayDisplay(h models.Holiday) models.DisplayEvent {
	return models.DisplayEvent{
		ID:              "holiday-" + h.Date,
		Title:           h.Title,
		Start:           h.Date,
		AllDay:          true,
		BackgroundColor: holidayColor.background,
		BorderColor:     holidayColor.border,
		ExtendedProps: models.ExtendedProps{
			Category:  models.CategoryHoliday,
			IsHoliday: true,
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
