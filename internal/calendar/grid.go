// Package calendar partitions a year into complete Monday-to-Sunday weeks
// and parses DD/MM/YYYY date tokens.
//
// Week numbers follow ISO 8601 everywhere in this package. Days padded in
// from an adjacent year keep their own ISO week and week-year, so the last
// days of December may belong to week 1 of the following year and the first
// days of January to week 52 or 53 of the previous one.
package calendar

import (
	"fmt"
	"time"

	"pmtrack/internal/core"
)

const (
	// DateLayout is the canonical DD/MM/YYYY form used as grid key.
	DateLayout = "02/01/2006"

	MinYear = 1
	// MaxYear keeps the padded days of the grid inside four-digit years.
	MaxYear = 9998
)

// Day is one cell of a year grid.
type Day struct {
	Date       core.Date
	Key        string // DD/MM/YYYY
	WeekNumber int
	WeekYear   int
	Weekday    time.Weekday
}

// WeekdayName returns the full English weekday name.
func (d Day) WeekdayName() string {
	return d.Weekday.String()
}

// InYear reports whether the day belongs to the grid's own year rather than padding.
func (d Day) InYear(year int) bool {
	return d.Date.Year() == year
}

// YearGrid covers every date from the Monday of the week containing
// January 1 through the Sunday of the week containing December 31.
type YearGrid struct {
	Year  int
	Days  []Day
	index map[string]int
}

// BuildYearGrid returns the week grid of year.
func BuildYearGrid(year int) (*YearGrid, error) {
	if year < MinYear || year > MaxYear {
		return nil, fmt.Errorf("year %d outside [%d, %d]: %w", year, MinYear, MaxYear, core.ErrInvalidArgument)
	}

	first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -mondayOffset(first.Weekday()))
	end := last.AddDate(0, 0, 6-mondayOffset(last.Weekday()))

	n := int(end.Sub(start).Hours()/24) + 1
	g := &YearGrid{
		Year:  year,
		Days:  make([]Day, 0, n),
		index: make(map[string]int, n),
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := newDay(d)
		g.index[day.Key] = len(g.Days)
		g.Days = append(g.Days, day)
	}
	return g, nil
}

// BuildCurrentYearGrid returns the grid of the year now falls in.
func BuildCurrentYearGrid(now time.Time) (*YearGrid, error) {
	return BuildYearGrid(now.Year())
}

func newDay(t time.Time) Day {
	wy, wn := t.ISOWeek()
	return Day{
		Date:       core.DateOf(t),
		Key:        t.Format(DateLayout),
		WeekNumber: wn,
		WeekYear:   wy,
		Weekday:    t.Weekday(),
	}
}

// mondayOffset maps Monday..Sunday to 0..6.
func mondayOffset(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// Lookup returns the day keyed by a DD/MM/YYYY string.
func (g *YearGrid) Lookup(key string) (Day, bool) {
	i, ok := g.index[key]
	if !ok {
		return Day{}, false
	}
	return g.Days[i], true
}

// Len returns the number of days in the grid, always a multiple of 7.
func (g *YearGrid) Len() int {
	return len(g.Days)
}

// Start is the first Monday of the grid.
func (g *YearGrid) Start() core.Date {
	return g.Days[0].Date
}

// End is the last Sunday of the grid.
func (g *YearGrid) End() core.Date {
	return g.Days[len(g.Days)-1].Date
}

// Weeks splits the grid into rows of seven days, Monday first.
func (g *YearGrid) Weeks() [][]Day {
	weeks := make([][]Day, 0, len(g.Days)/7)
	for i := 0; i+7 <= len(g.Days); i += 7 {
		weeks = append(weeks, g.Days[i:i+7])
	}
	return weeks
}

// WeekNumber returns the ISO 8601 week of t.
func WeekNumber(t time.Time) int {
	_, w := t.ISOWeek()
	return w
}

// FormatDate renders t as DD/MM/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
