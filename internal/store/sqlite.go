package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS event_rows (
	seq   INTEGER PRIMARY KEY AUTOINCREMENT,
	cells TEXT NOT NULL
)`

// SQLite is a Table kept in a local SQLite file, used for development without a
// spreadsheet. Row order is insertion order; a row's position is its rank by seq.
type SQLite struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, logger *slog.Logger, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create event_rows table: %w", err)
	}

	logger.Info("Opened SQLite event store", "path", path)
	return &SQLite{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ReadRows returns all rows in insertion order.
func (s *SQLite) ReadRows(ctx context.Context) ([][]string, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT cells FROM event_rows ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rs.Close()

	var rows [][]string
	for rs.Next() {
		var raw string
		if err := rs.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode row cells: %w", err)
		}
		rows = append(rows, cells)
	}
	return rows, rs.Err()
}

// AppendRows inserts all rows in one transaction.
func (s *SQLite) AppendRows(ctx context.Context, rows [][]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to encode row cells: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO event_rows (cells) VALUES (?)`, string(raw)); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	return tx.Commit()
}

// UpdateRow overwrites the row at index.
func (s *SQLite) UpdateRow(ctx context.Context, index int, row []string) error {
	seq, err := s.seqAt(ctx, index)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode row cells: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE event_rows SET cells = ? WHERE seq = ?`, string(raw), seq); err != nil {
		return fmt.Errorf("failed to update row %d: %w", index, err)
	}
	return nil
}

// DeleteRow removes the row at index.
func (s *SQLite) DeleteRow(ctx context.Context, index int) error {
	seq, err := s.seqAt(ctx, index)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM event_rows WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("failed to delete row %d: %w", index, err)
	}
	return nil
}

// seqAt resolves a 0-based position to the row's primary key.
func (s *SQLite) seqAt(ctx context.Context, index int) (int64, error) {
	if index < 0 {
		return 0, fmt.Errorf("row index %d out of range", index)
	}
	var seq int64
	err := s.db.QueryRowContext(ctx, `SELECT seq FROM event_rows ORDER BY seq LIMIT 1 OFFSET ?`, index).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("row index %d out of range", index)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve row %d: %w", index, err)
	}
	return seq, nil
}
