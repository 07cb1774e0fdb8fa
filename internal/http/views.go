package http

import (
	"pmtrack/internal/aggregation"
	"pmtrack/internal/calendar"
	"pmtrack/internal/core"
	"pmtrack/internal/services"
)

// JSON shapes of the API. Dates are ISO strings; grid keys are DD/MM/YYYY.

type dayView struct {
	Date       string `json:"date"`
	Key        string `json:"key"`
	WeekNumber int    `json:"week"`
	WeekYear   int    `json:"week_year"`
	Weekday    string `json:"weekday"`
	InYear     bool   `json:"in_year"`
}

type gridView struct {
	Year  int         `json:"year"`
	Start string      `json:"start"`
	End   string      `json:"end"`
	Weeks [][]dayView `json:"weeks"`
}

type calendarDayView struct {
	dayView
	Hours   float64     `json:"hours"`
	Entries []entryView `json:"entries,omitempty"`
}

type yearCalendarView struct {
	Year  int                 `json:"year"`
	Weeks [][]calendarDayView `json:"weeks"`
}

type tokenView struct {
	Day        string `json:"day"`
	Month      string `json:"month"`
	Year       string `json:"year"`
	WeekNumber int    `json:"week"`
	WeekYear   int    `json:"week_year"`
	Weekday    string `json:"weekday"`
	Canonical  string `json:"canonical"`
	Date       string `json:"date"`
}

type entryView struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	User        string  `json:"user"`
	PartNumber  string  `json:"part_number"`
	Unit        string  `json:"unit"`
	Designation string  `json:"designation"`
	Task        string  `json:"task"`
	Amount      float64 `json:"amount"`
	Hours       string  `json:"hours"`
	Date        string  `json:"date"`
}

type costView struct {
	ProjectID   int64    `json:"project_id"`
	Designation string   `json:"designation"`
	Hours       float64  `json:"hours"`
	Cost        float64  `json:"cost"`
	Ratio       float64  `json:"ratio"`
	HourRatio   *float64 `json:"hour_ratio,omitempty"`
}

type rollupView struct {
	costView
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}

type totalsView struct {
	Budget       float64 `json:"budget"`
	Cost         float64 `json:"cost"`
	Revenue      float64 `json:"revenue"`
	RatioPercent float64 `json:"ratio_percent"`
}

type overviewView struct {
	Totals   totalsView                `json:"totals"`
	Display  aggregation.TotalsDisplay `json:"display"`
	Projects []rollupView              `json:"projects"`
}

func newDayView(d calendar.Day, year int) dayView {
	return dayView{
		Date:       d.Date.ISO(),
		Key:        d.Key,
		WeekNumber: d.WeekNumber,
		WeekYear:   d.WeekYear,
		Weekday:    d.WeekdayName(),
		InYear:     d.InYear(year),
	}
}

func newGridView(g *calendar.YearGrid) gridView {
	v := gridView{Year: g.Year, Start: g.Start().ISO(), End: g.End().ISO()}
	for _, week := range g.Weeks() {
		row := make([]dayView, len(week))
		for i, d := range week {
			row[i] = newDayView(d, g.Year)
		}
		v.Weeks = append(v.Weeks, row)
	}
	return v
}

func newTokenView(t calendar.DateToken) tokenView {
	return tokenView{
		Day:        t.Day,
		Month:      t.Month,
		Year:       t.Year,
		WeekNumber: t.WeekNumber,
		WeekYear:   t.WeekYear,
		Weekday:    t.Weekday.String(),
		Canonical:  t.Canonical,
		Date:       t.Date.ISO(),
	}
}

func newEntryView(e core.EntrySummary) entryView {
	return entryView{
		ID:          e.EntryID,
		UserID:      e.UserID,
		User:        e.User,
		PartNumber:  e.PartNumber,
		Unit:        e.UnitName,
		Designation: e.Designation,
		Task:        e.Task,
		Amount:      e.Amount,
		Hours:       e.Hours,
		Date:        e.DateOfWork.ISO(),
	}
}

func newEntryViews(entries []core.EntrySummary) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = newEntryView(e)
	}
	return out
}

func newCostView(c core.ProjectCost) costView {
	return costView{
		ProjectID:   c.ProjectID,
		Designation: c.Designation,
		Hours:       c.Hours,
		Cost:        c.Cost,
		Ratio:       c.Ratio,
		HourRatio:   c.HourRatio,
	}
}

func newYearCalendarView(c *services.YearCalendar) yearCalendarView {
	g := c.Grid
	v := yearCalendarView{Year: g.Year}
	for _, week := range g.Weeks() {
		row := make([]calendarDayView, len(week))
		for i, d := range week {
			row[i] = calendarDayView{
				dayView: newDayView(d, g.Year),
				Hours:   c.HoursOn(d.Key),
				Entries: newEntryViews(c.Entries[d.Key]),
			}
		}
		v.Weeks = append(v.Weeks, row)
	}
	return v
}

func newOverviewView(t core.OrganizationTotals, rollups []aggregation.ProjectRollup) overviewView {
	v := overviewView{
		Totals: totalsView{
			Budget:       t.Budget,
			Cost:         t.Cost,
			Revenue:      t.Revenue,
			RatioPercent: t.RatioPercent,
		},
		Display:  aggregation.FormatTotals(t),
		Projects: make([]rollupView, len(rollups)),
	}
	for i, r := range rollups {
		rv := rollupView{costView: newCostView(r.Cost), Active: r.Project.Active()}
		if r.Err != nil {
			rv.Error = r.Err.Error()
		}
		v.Projects[i] = rv
	}
	return v
}
