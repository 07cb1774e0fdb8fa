package services

import (
	"context"
	"fmt"

	"pmtrack/internal/calendar"
	"pmtrack/internal/core"
	"pmtrack/internal/store"
)

// CalendarQueryService lists worked hours per day, scoped by the caller's role.
type CalendarQueryService struct {
	reader store.WorkRecordReader
}

func NewCalendarQueryService(reader store.WorkRecordReader) *CalendarQueryService {
	return &CalendarQueryService{reader: reader}
}

// scope restricts f to the user's own records unless the user sees everything.
func scope(f store.WorkedHoursFilter, user core.User) store.WorkedHoursFilter {
	if !user.CanViewAll() {
		f.UserID = user.ID
	}
	return f
}

// EntriesForDate returns the records of one day visible to user, ordered by id.
// No match yields an empty slice.
func (s *CalendarQueryService) EntriesForDate(ctx context.Context, date core.Date, user core.User) ([]core.EntrySummary, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("entries for date: %w", core.ErrZeroDate)
	}
	records, err := s.reader.FindWorkedHours(ctx, scope(store.WorkedHoursFilter{Date: date}, user))
	if err != nil {
		return nil, fmt.Errorf("find worked hours on %s: %w", date.ISO(), err)
	}
	return newResolver(s.reader).summarizeAll(ctx, records)
}

// Summarize resolves the labels of a single record.
func (s *CalendarQueryService) Summarize(ctx context.Context, w core.WorkedHours) (core.EntrySummary, error) {
	return newResolver(s.reader).summarize(ctx, w)
}

// YearCalendar is a year grid with the visible entries of each day keyed by DD/MM/YYYY.
type YearCalendar struct {
	Grid    *calendar.YearGrid
	Entries map[string][]core.EntrySummary
}

// HoursOn sums the hours shown on one day of the calendar.
func (c *YearCalendar) HoursOn(key string) float64 {
	var h float64
	for _, e := range c.Entries[key] {
		h += e.Amount
	}
	return core.Round(h, 3)
}

// YearCalendar fetches the whole grid range in one query, padding days included.
func (s *CalendarQueryService) YearCalendar(ctx context.Context, year int, user core.User) (*YearCalendar, error) {
	grid, err := calendar.BuildYearGrid(year)
	if err != nil {
		return nil, err
	}
	f := scope(store.WorkedHoursFilter{From: grid.Start(), To: grid.End()}, user)
	records, err := s.reader.FindWorkedHours(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("find worked hours of %d: %w", year, err)
	}
	summaries, err := newResolver(s.reader).summarizeAll(ctx, records)
	if err != nil {
		return nil, err
	}

	cal := &YearCalendar{Grid: grid, Entries: make(map[string][]core.EntrySummary)}
	for _, e := range summaries {
		key := calendar.FormatDate(e.DateOfWork.Time)
		cal.Entries[key] = append(cal.Entries[key], e)
	}
	return cal, nil
}

// resolver memoizes reference lookups for the duration of one listing.
type resolver struct {
	reader   store.WorkRecordReader
	users    map[int64]*core.User
	units    map[int64]*core.Unit
	projects map[int64]*core.Project
	tasks    map[int64]*core.Task
}

func newResolver(reader store.WorkRecordReader) *resolver {
	return &resolver{
		reader:   reader,
		users:    make(map[int64]*core.User),
		units:    make(map[int64]*core.Unit),
		projects: make(map[int64]*core.Project),
		tasks:    make(map[int64]*core.Task),
	}
}

func (r *resolver) summarizeAll(ctx context.Context, records []core.WorkedHours) ([]core.EntrySummary, error) {
	out := make([]core.EntrySummary, 0, len(records))
	for _, w := range records {
		e, err := r.summarize(ctx, w)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// summarize never fails on a dangling reference; only store errors abort.
func (r *resolver) summarize(ctx context.Context, w core.WorkedHours) (core.EntrySummary, error) {
	e := core.EntrySummary{
		EntryID:     w.ID,
		UserID:      w.UserID,
		User:        core.UnknownLabel,
		PartNumber:  core.UnknownLabel,
		UnitName:    core.UnknownLabel,
		Designation: core.UnknownLabel,
		Task:        core.UnknownLabel,
		Amount:      w.Amount,
		Hours:       core.FormatHours(w.Amount),
		DateOfWork:  w.DateOfWork,
	}

	u, err := memo(ctx, r.users, w.UserID, r.reader.FindUser)
	if err != nil {
		return e, fmt.Errorf("resolve user %d: %w", w.UserID, err)
	}
	if u != nil {
		e.User = u.DisplayName()
	}

	unit, err := memo(ctx, r.units, w.UnitID, r.reader.FindUnit)
	if err != nil {
		return e, fmt.Errorf("resolve unit %d: %w", w.UnitID, err)
	}
	if unit != nil {
		e.PartNumber = unit.PartNumber
		e.UnitName = unit.Name
		p, err := memo(ctx, r.projects, unit.ProjectID, r.reader.FindProject)
		if err != nil {
			return e, fmt.Errorf("resolve project %d: %w", unit.ProjectID, err)
		}
		if p != nil {
			e.Designation = p.Designation
		}
	}

	t, err := memo(ctx, r.tasks, w.TaskID, r.reader.FindTask)
	if err != nil {
		return e, fmt.Errorf("resolve task %d: %w", w.TaskID, err)
	}
	if t != nil {
		e.Task = t.Name
	}
	return e, nil
}

func memo[T any](ctx context.Context, cache map[int64]*T, id int64, find func(context.Context, int64) (*T, error)) (*T, error) {
	if v, ok := cache[id]; ok {
		return v, nil
	}
	v, err := find(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = v
	return v, nil
}
