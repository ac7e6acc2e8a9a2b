package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"schoolcal/internal/models"
)

const maxCellWidth = 40

func printEvents(w io.Writer, list []models.Event) {
	rows := [][]string{{"DATE", "TIME", "TITLE", "CATEGORY", "CREATED BY", "ID"}}
	for _, e := range list {
		rows = append(rows, []string{e.Date, e.Time, e.Title, e.Category, e.CreatedByEmail, e.ID})
	}
	writeTable(w, rows)
	fmt.Fprintf(w, "%d event(s)\n", len(list))
}

func printHolidays(w io.Writer, list []models.Holiday) {
	rows := [][]string{{"DATE", "HOLIDAY"}}
	for _, h := range list {
		rows = append(rows, []string{h.Date, h.Title})
	}
	writeTable(w, rows)
}

// writeTable pads columns by display width so Korean titles line up.
func writeTable(w io.Writer, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(widths))
		for i := 0; i < len(widths) && i < len(row); i++ {
			cell := runewidth.Truncate(strings.ReplaceAll(row[i], "\n", " "), maxCellWidth, "…")
			cells[r][i] = cell
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for _, row := range cells {
		var sb strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}
