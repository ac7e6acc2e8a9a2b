package models

// DisplayEvent is the calendar-ready representation returned by the API.
type DisplayEvent struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Start           string        `json:"start"`
	Time            string        `json:"time,omitempty"`
	Location        string        `json:"location,omitempty"`
	Description     string        `json:"description,omitempty"`
	Category        string        `json:"category,omitempty"`
	CreatedBy       string        `json:"createdBy,omitempty"`
	CreatedAt       string        `json:"createdAt,omitempty"`
	ModifiedBy      string        `json:"modifiedBy,omitempty"`
	ModifiedAt      *string       `json:"modifiedAt"`
	AllDay          bool          `json:"allDay"`
	BackgroundColor string        `json:"backgroundColor"`
	BorderColor     string        `json:"borderColor"`
	ExtendedProps   ExtendedProps `json:"extendedProps"`
}

// ExtendedProps carries the fields the calendar widget keeps alongside an entry.
type ExtendedProps struct {
	Time         string  `json:"time,omitempty"`
	Location     string  `json:"location,omitempty"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category"`
	CreatedBy    string  `json:"createdBy,omitempty"`
	CreatorName  string  `json:"creatorName,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	ModifiedBy   *string `json:"modifiedBy"`
	ModifierName string  `json:"modifierName,omitempty"`
	ModifiedAt   *string `json:"modifiedAt"`
	IsHoliday    bool    `json:"isHoliday,omitempty"`
}
