// Package sheets exports worked hours to a timesheet spreadsheet.
package sheets

import (
	"context"

	"pmtrack/internal/core"
)

// TimesheetRow is one exported line. Deletions are exported as rows too, so
// the sheet stays an append-only log of record changes.
type TimesheetRow struct {
	EntryID     int64
	Version     int64
	Action      string
	Week        int
	Date        core.Date
	User        string
	Designation string
	PartNumber  string
	Unit        string
	Task        string
	Hours       float64
}

// Key identifies a row for deduplication.
func (r TimesheetRow) Key() RowKey {
	return RowKey{EntryID: r.EntryID, Version: r.Version, Action: r.Action}
}

// RowKey is the identity of an exported change.
type RowKey struct {
	EntryID int64
	Version int64
	Action  string
}

// Ports for outbound adapters.
type (
	// TimesheetWriter appends rows. Appending a row whose key is already
	// present returns the existing reference and writes nothing.
	TimesheetWriter interface {
		AppendEntry(ctx context.Context, row TimesheetRow) (rowRef string, err error)
	}

	// TimesheetReader lists the rows exported for one year.
	TimesheetReader interface {
		ListRows(ctx context.Context, year int) ([]TimesheetRow, error)
	}
)
