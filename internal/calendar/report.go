package calendar

import (
	"fmt"
	"io"
)

// WriteReport prints the week grid of g followed by the components of tok.
func WriteReport(w io.Writer, g *YearGrid, tok DateToken) error {
	headers := []string{"Week", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	rows := make([][]string, 0, g.Len()/7)
	for _, week := range g.Weeks() {
		row := make([]string, 0, 8)
		row = append(row, fmt.Sprintf("%d-W%02d", week[0].WeekYear, week[0].WeekNumber))
		for _, d := range week {
			row = append(row, d.Key)
		}
		rows = append(rows, row)
	}
	if err := printTable(w, headers, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nday=%s month=%s year=%s week=%d weekday=%s date=%s\n",
		tok.Day, tok.Month, tok.Year, tok.WeekNumber, tok.Weekday, tok.Canonical)
	return err
}

func printTable(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for _, line := range append([][]string{headers}, rows...) {
		for i, cell := range line {
			if _, err := fmt.Fprintf(w, "%-*s  ", widths[i], cell); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
