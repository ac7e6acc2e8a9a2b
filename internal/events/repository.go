// Package events implements the event repository: it maps calendar events to
// rows of a tabular store and merges in holidays from an external feed.
//
// Row positions are never stored. Every mutation re-reads the table and scans
// for the id, so concurrent update/delete of the same id is last-write-wins and
// an update racing a delete may write to a stale position.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperr "schoolcal/internal/errors"
	"schoolcal/internal/models"
	"schoolcal/internal/store"
)

// NotFoundMessage is returned when no row carries the requested id.
const NotFoundMessage = "이벤트를 찾을 수 없습니다."

// HolidayFeed supplies read-only holidays for a calendar year.
type HolidayFeed interface {
	Holidays(ctx context.Context, year int) ([]models.Holiday, error)
}

// Repository provides event CRUD on top of a store.Table.
type Repository struct {
	logger   *slog.Logger
	table    store.Table
	holidays HolidayFeed
	location *time.Location
	now      func() time.Time
	newID    func() string
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for timestamps and the holiday year.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides how new event ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

// WithLocation sets the timezone used to decide the current holiday year.
func WithLocation(loc *time.Location) Option {
	return func(r *Repository) { r.location = loc }
}

// NewRepository creates a Repository. holidays may be nil to disable the feed.
func NewRepository(logger *slog.Logger, table store.Table, holidays HolidayFeed, opts ...Option) *Repository {
	r := &Repository{
		logger:   logger,
		table:    table,
		holidays: holidays,
		location: time.UTC,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns every stored event plus this year's holidays, unordered.
// A failing holiday feed is logged and skipped.
func (r *Repository) List(ctx context.Context) ([]models.DisplayEvent, error) {
	rows, err := r.table.ReadRows(ctx)
	if err != nil {
		r.logger.Error("Failed to read event rows", "error", err)
		return nil, apperr.NewUpstream(apperr.CodeStoreFailed, "failed to read events", err)
	}

	out := make([]models.DisplayEvent, 0, len(rows))
	out = append(out, r.holidayEntries(ctx)...)

	for _, row := range rows {
		if len(row) == 0 || row[ColID] == "" {
			continue
		}
		out = append(out, toDisplay(fromRow(row)))
	}

	r.logger.Debug("Listed events", "rows", len(rows), "returned", len(out))
	return out, nil
}

func (r *Repository) holidayEntries(ctx context.Context) []models.DisplayEvent {
	if r.holidays == nil {
		return nil
	}
	year := r.now().In(r.location).Year()
	holidays, err := r.holidays.Holidays(ctx, year)
	if err != nil {
		err = apperr.NewUpstream(apperr.CodeHolidayFailed, "failed to fetch holidays", err)
		r.logger.Warn("Failed to fetch holidays, proceeding without them", "year", year, "error", err)
		return nil
	}
	out := make([]models.DisplayEvent, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, holidayDisplay(h))
	}
	return out
}

// Events returns the stored events (no holidays) in row order.
func (r *Repository) Events(ctx context.Context) ([]models.Event, error) {
	rows, err := r.table.ReadRows(ctx)
	if err != nil {
		return nil, apperr.NewUpstream(apperr.CodeStoreFailed, "failed to read events", err)
	}
	var out []models.Event
	for _, row := range rows {
		if len(row) == 0 || row[ColID] == "" {
			continue
		}
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Get returns the event with the given id.
func (r *Repository) Get(ctx context.Context, id string) (models.Event, error) {
	rows, err := r.table.ReadRows(ctx)
	if err != nil {
		return models.Event{}, apperr.NewUpstream(apperr.CodeStoreFailed, "failed to read events", err)
	}
	idx := indexOf(rows, id)
	if idx < 0 {
		return models.Event{}, apperr.NewNotFound(NotFoundMessage)
	}
	return fromRow(rows[idx]), nil
}

// Create appends a new event and returns its id.
func (r *Repository) Create(ctx context.Context, in models.EventInput, who models.Identity) (string, error) {
	row := r.newRow(in, who, r.timestamp())
	if err := r.table.AppendRows(ctx, [][]string{row}); err != nil {
		r.logger.Error("Failed to append event", "title", in.Title, "error", err)
		return "", apperr.NewUpstream(apperr.CodeStoreFailed, "failed to create event", err)
	}
	r.logger.Info("Created event", "id", row[ColID], "date", in.Date, "by", who.Email)
	return row[ColID], nil
}

// CreateBatch appends all inputs in a single write. Every row shares the same
// createdAt. The write is not retried; a failure means nothing is reported as
// written even if the backend applied part of it.
func (r *Repository) CreateBatch(ctx context.Context, inputs []models.EventInput, who models.Identity) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	now := r.timestamp()
	rows := make([][]string, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, r.newRow(in, who, now))
	}
	if err := r.table.AppendRows(ctx, rows); err != nil {
		r.logger.Error("Failed to append event batch", "count", len(rows), "error", err)
		return 0, apperr.NewUpstream(apperr.CodeStoreFailed, "failed to create events", err)
	}
	r.logger.Info("Created event batch", "count", len(rows), "by", who.Email)
	return len(rows), nil
}

// Update rewrites the editable columns of the event and stamps the modifier.
// Creation metadata is left untouched.
func (r *Repository) Update(ctx context.Context, id string, in models.EventInput, who models.Identity) error {
	rows, err := r.table.ReadRows(ctx)
	if err != nil {
		r.logger.Error("Failed to read rows for update", "id", id, "error", err)
		return apperr.NewUpstream(apperr.CodeStoreFailed, "failed to read events", err)
	}
	idx := indexOf(rows, id)
	if idx < 0 {
		return apperr.NewNotFound(NotFoundMessage)
	}

	row := padRow(rows[idx])
	applyInput(row, in)
	row[ColModifiedByName] = who.Name()
	row[ColModifiedByEmail] = who.Email
	row[ColModifiedAt] = r.timestamp()

	if err := r.table.UpdateRow(ctx, idx, row); err != nil {
		r.logger.Error("Failed to update event row", "id", id, "index", idx, "error", err)
		return apperr.NewUpstream(apperr.CodeStoreFailed, "failed to update event", err)
	}
	r.logger.Info("Updated event", "id", id, "by", who.Email)
	return nil
}

// Delete removes the event's row.
func (r *Repository) Delete(ctx context.Context, id string) error {
	rows, err := r.table.ReadRows(ctx)
	if err != nil {
		r.logger.Error("Failed to read rows for delete", "id", id, "error", err)
		return apperr.NewUpstream(apperr.CodeStoreFailed, "failed to read events", err)
	}
	idx := indexOf(rows, id)
	if idx < 0 {
		return apperr.NewNotFound(NotFoundMessage)
	}
	if err := r.table.DeleteRow(ctx, idx); err != nil {
		r.logger.Error("Failed to delete event row", "id", id, "index", idx, "error", err)
		return apperr.NewUpstream(apperr.CodeStoreFailed, "failed to delete event", err)
	}
	r.logger.Info("Deleted event", "id", id)
	return nil
}

func (r *Repository) newRow(in models.EventInput, who models.Identity, createdAt string) []string {
	return toRow(models.Event{
		ID:             r.newID(),
		Title:          in.Title,
		Date:           in.Date,
		Time:           in.Time,
		Location:       in.Location,
		Description:    in.Description,
		Category:       categoryOrDefault(in.Category),
		CreatedByName:  who.Name(),
		CreatedByEmail: who.Email,
		CreatedAt:      createdAt,
	})
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format(TimestampLayout)
}
