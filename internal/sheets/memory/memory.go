package memory

import (
	"context"
	"fmt"
	"sync"

	"pmtrack/internal/sheets"
)

// Store keeps exported rows in process, one slice per year.
type Store struct {
	mu   sync.Mutex
	rows map[int][]sheets.TimesheetRow
	refs map[sheets.RowKey]string
}

var (
	_ sheets.TimesheetWriter = (*Store)(nil)
	_ sheets.TimesheetReader = (*Store)(nil)
)

func New() *Store {
	return &Store{
		rows: make(map[int][]sheets.TimesheetRow),
		refs: make(map[sheets.RowKey]string),
	}
}

// AppendEntry stores the row and returns a synthetic row reference.
func (s *Store) AppendEntry(_ context.Context, row sheets.TimesheetRow) (string, error) {
	if row.EntryID <= 0 {
		return "", fmt.Errorf("timesheet row without entry id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ref, ok := s.refs[row.Key()]; ok {
		return ref, nil
	}
	year := row.Date.Year()
	s.rows[year] = append(s.rows[year], row)
	ref := fmt.Sprintf("mem:%d:%d", year, len(s.rows[year]))
	s.refs[row.Key()] = ref
	return ref, nil
}

func (s *Store) ListRows(_ context.Context, year int) ([]sheets.TimesheetRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.TimesheetRow(nil), s.rows[year]...), nil
}

// Len returns the number of rows across all years.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}
