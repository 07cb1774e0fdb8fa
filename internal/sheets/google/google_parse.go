package google

import (
	"fmt"
	"strconv"
	"strings"

	"pmtrack/internal/core"
	ports "pmtrack/internal/sheets"
)

// Column order of the timesheet sheet.
var timesheetHeader = []string{"Entry", "Version", "Action", "Week", "Date", "User", "Project", "Part number", "Unit", "Task", "Hours"}

func rowValues(r ports.TimesheetRow) []any {
	return []any{
		r.EntryID,
		r.Version,
		r.Action,
		r.Week,
		r.Date.ISO(),
		r.User,
		r.Designation,
		r.PartNumber,
		r.Unit,
		r.Task,
		r.Hours,
	}
}

// parseTimesheet converts a values matrix (as returned by Sheets API) into
// rows. Header, blank and unparsable rows are skipped.
func parseTimesheet(values [][]interface{}) []ports.TimesheetRow {
	var out []ports.TimesheetRow
	for _, raw := range values {
		cols := toStrings(raw)
		if len(cols) < 5 {
			continue
		}
		id, err := strconv.ParseInt(cols[0], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		version, _ := strconv.ParseInt(safeGet(cols, 1), 10, 64)
		week, _ := strconv.Atoi(safeGet(cols, 3))
		date, err := core.ParseISODate(safeGet(cols, 4))
		if err != nil {
			continue
		}
		hours, _ := parseHoursCell(safeGet(cols, 10))
		out = append(out, ports.TimesheetRow{
			EntryID:     id,
			Version:     version,
			Action:      safeGet(cols, 2),
			Week:        week,
			Date:        date,
			User:        safeGet(cols, 5),
			Designation: safeGet(cols, 6),
			PartNumber:  safeGet(cols, 7),
			Unit:        safeGet(cols, 8),
			Task:        safeGet(cols, 9),
			Hours:       hours,
		})
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseHoursCell accepts the decimal comma a localized sheet may render.
func parseHoursCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
