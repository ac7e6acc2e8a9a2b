package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
)

func openTables(t *testing.T) map[string]Table {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	lite, err := OpenSQLite(context.Background(), logger, filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { lite.Close() })

	return map[string]Table{
		"memory": NewMemory(),
		"sqlite": lite,
	}
}

func TestTableContract(t *testing.T) {
	for name, table := range openTables(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := table.AppendRows(ctx, [][]string{{"a", "1"}, {"b", "2"}, {"c", "3"}}); err != nil {
				t.Fatalf("AppendRows: %v", err)
			}
			if err := table.UpdateRow(ctx, 1, []string{"b", "20", "extra"}); err != nil {
				t.Fatalf("UpdateRow: %v", err)
			}
			if err := table.DeleteRow(ctx, 0); err != nil {
				t.Fatalf("DeleteRow: %v", err)
			}

			rows, err := table.ReadRows(ctx)
			if err != nil {
				t.Fatalf("ReadRows: %v", err)
			}
			want := [][]string{{"b", "20", "extra"}, {"c", "3"}}
			if !reflect.DeepEqual(rows, want) {
				t.Errorf("got %v, want %v", rows, want)
			}

			// positions shift after a delete
			if err := table.DeleteRow(ctx, 1); err != nil {
				t.Fatalf("DeleteRow: %v", err)
			}
			rows, _ = table.ReadRows(ctx)
			if len(rows) != 1 || rows[0][0] != "b" {
				t.Errorf("got %v, want only row b", rows)
			}
		})
	}
}

func TestTableOutOfRange(t *testing.T) {
	for name, table := range openTables(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := table.UpdateRow(ctx, 0, []string{"x"}); err == nil {
				t.Error("UpdateRow on empty table should fail")
			}
			if err := table.DeleteRow(ctx, 3); err == nil {
				t.Error("DeleteRow out of range should fail")
			}
		})
	}
}

func TestMemoryCopiesRows(t *testing.T) {
	seed := []string{"id", "title"}
	m := NewMemory(seed)
	seed[1] = "mutated"

	rows, _ := m.ReadRows(context.Background())
	if rows[0][1] != "title" {
		t.Errorf("seed mutation leaked into table: %v", rows[0])
	}
	rows[0][0] = "changed"
	again, _ := m.ReadRows(context.Background())
	if again[0][0] != "id" {
		t.Errorf("ReadRows result mutation leaked into table: %v", again[0])
	}
	if m.Writes() != 0 {
		t.Errorf("Writes() = %d, want 0", m.Writes())
	}
}
