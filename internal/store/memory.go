package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Table. It backs the "memory" store driver and tests.
type Memory struct {
	mu     sync.Mutex
	rows   [][]string
	writes int
}

// NewMemory creates a Memory table seeded with a copy of rows.
func NewMemory(rows ...[]string) *Memory {
	m := &Memory{}
	for _, r := range rows {
		m.rows = append(m.rows, cloneRow(r))
	}
	return m
}

// ReadRows returns a copy of all rows.
func (m *Memory) ReadRows(_ context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = cloneRow(r)
	}
	return out, nil
}

// AppendRows appends rows at the end.
func (m *Memory) AppendRows(_ context.Context, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows = append(m.rows, cloneRow(r))
	}
	m.writes++
	return nil
}

// UpdateRow replaces the row at index.
func (m *Memory) UpdateRow(_ context.Context, index int, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.rows) {
		return fmt.Errorf("row index %d out of range (rows: %d)", index, len(m.rows))
	}
	m.rows[index] = cloneRow(row)
	m.writes++
	return nil
}

// DeleteRow removes the row at index, shifting later rows up.
func (m *Memory) DeleteRow(_ context.Context, index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.rows) {
		return fmt.Errorf("row index %d out of range (rows: %d)", index, len(m.rows))
	}
	m.rows = append(m.rows[:index], m.rows[index+1:]...)
	m.writes++
	return nil
}

// Writes returns how many mutating calls succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func cloneRow(r []string) []string {
	return append([]string(nil), r...)
}
