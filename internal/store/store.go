// Package store defines the tabular backing-store contract used by the event
// repository, with in-memory and SQLite implementations. The Google Sheets
// implementation lives in internal/google.
package store

import "context"

// Table is a rectangular store of string cells, one record per row.
//
// Row indexes are 0-based positions in the slice returned by ReadRows. They are
// not stable: DeleteRow shifts every following row up by one, so callers must
// re-read before each mutation.
type Table interface {
	ReadRows(ctx context.Context) ([][]string, error)
	AppendRows(ctx context.Context, rows [][]string) error
	UpdateRow(ctx context.Context, index int, row []string) error
	DeleteRow(ctx context.Context, index int) error
}
