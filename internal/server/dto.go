package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	apperr "schoolcal/internal/errors"
	"schoolcal/internal/models"
)

// EventRequest is the body of create and update calls.
type EventRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"max=50"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"max=50"`
}

// BatchRequest is the body of POST /api/events/batch. The item limit matches
// recurrence.MaxOccurrences.
type BatchRequest struct {
	Events []EventRequest `json:"events" validate:"max=366,dive"`
}

// RepeatRequest is the body of POST /api/events/repeat. Weekdays use 0 for
// Sunday; an empty list repeats daily.
type RepeatRequest struct {
	Event    EventRequest `json:"event"`
	Until    string       `json:"until" validate:"required,datetime=2006-01-02"`
	Weekdays []int        `json:"weekdays" validate:"max=7,dive,min=0,max=6"`
}

func (r *EventRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Location = strings.TrimSpace(r.Location)
	r.Category = strings.TrimSpace(r.Category)
}

func (r EventRequest) input() models.EventInput {
	return models.EventInput{
		Title:       r.Title,
		Date:        r.Date,
		Time:        r.Time,
		Location:    r.Location,
		Description: r.Description,
		Category:    r.Category,
	}
}

func (r RepeatRequest) days() []time.Weekday {
	out := make([]time.Weekday, len(r.Weekdays))
	for i, d := range r.Weekdays {
		out[i] = time.Weekday(d)
	}
	return out
}

var fieldMessages = map[string]string{
	"Title":    "제목을 입력해주세요.",
	"Date":     "날짜 형식이 올바르지 않습니다.",
	"Until":    "종료 날짜 형식이 올바르지 않습니다.",
	"Weekdays": "요일 값이 올바르지 않습니다.",
	"Events":   "한 번에 추가할 수 있는 일정은 366개까지입니다.",
}

// validationError turns validator output into a single user-facing message.
func validationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return apperr.NewValidation("입력값이 올바르지 않습니다.")
	}
	fe := ve[0]
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return apperr.NewValidation(msg)
	}
	return apperr.NewValidation(fmt.Sprintf("%s 값이 올바르지 않습니다. (%s)", strings.ToLower(fe.Field()), fe.Tag()))
}
