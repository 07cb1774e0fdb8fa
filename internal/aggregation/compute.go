// Package aggregation computes hours, cost and budget figures from
// worked-hours records.
package aggregation

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"pmtrack/internal/core"
)

// SumHours adds up the amounts of records, rounded to 3 decimals.
func SumHours(records []core.WorkedHours) float64 {
	var h float64
	for _, w := range records {
		h += w.Amount
	}
	return core.Round(h, 3)
}

// ComputeProjectCost derives hours, cost and budget ratio of p from its
// records. With a zero budget it returns core.ErrInvalidState; hours and
// cost are still filled in so callers can show them.
func ComputeProjectCost(p core.Project, records []core.WorkedHours) (core.ProjectCost, error) {
	pc := core.ProjectCost{ProjectID: p.ID, Designation: p.Designation}
	pc.Hours = SumHours(records)
	pc.Cost = core.Round(pc.Hours*p.HourlyRate(), 3)

	if p.HourBudget != nil && *p.HourBudget > 0 {
		hr := core.Round(pc.Hours / *p.HourBudget * 100, 3)
		pc.HourRatio = &hr
	}

	if p.Budget == 0 {
		return pc, fmt.Errorf("project %s has no budget: %w", p.Designation, core.ErrInvalidState)
	}
	pc.Ratio = core.Round(pc.Cost/p.Budget*100, 3)
	return pc, nil
}

// ComputeOrganizationTotals prices every record at the rate of its unit's
// project. A record whose unit or project is gone cannot be priced and
// fails with core.ErrInvalidState, as does a zero total budget.
func ComputeOrganizationTotals(projects []core.Project, units []core.Unit, records []core.WorkedHours) (core.OrganizationTotals, error) {
	rates := make(map[int64]float64, len(projects))
	var budget float64
	for _, p := range projects {
		rates[p.ID] = p.HourlyRate()
		budget += p.Budget
	}
	unitProject := make(map[int64]int64, len(units))
	for _, u := range units {
		unitProject[u.ID] = u.ProjectID
	}

	var cost float64
	for _, w := range records {
		pid, ok := unitProject[w.UnitID]
		if !ok {
			return core.OrganizationTotals{}, fmt.Errorf("worked hours %d: unit %d unresolved: %w", w.ID, w.UnitID, core.ErrInvalidState)
		}
		rate, ok := rates[pid]
		if !ok {
			return core.OrganizationTotals{}, fmt.Errorf("worked hours %d: project %d unresolved: %w", w.ID, pid, core.ErrInvalidState)
		}
		cost += w.Amount * rate
	}

	if budget == 0 {
		return core.OrganizationTotals{}, fmt.Errorf("total budget is zero: %w", core.ErrInvalidState)
	}
	revenue := budget - cost
	return core.OrganizationTotals{
		Budget:       budget,
		Cost:         core.Round(cost, 3),
		Revenue:      core.Round(revenue, 3),
		RatioPercent: core.Round(revenue/budget*100, 2),
	}, nil
}

// TotalsDisplay holds organization totals formatted with thousands separators.
type TotalsDisplay struct {
	Budget       string `json:"budget"`
	Cost         string `json:"cost"`
	Revenue      string `json:"revenue"`
	RatioPercent string `json:"ratio_percent"`
}

func FormatTotals(t core.OrganizationTotals) TotalsDisplay {
	return TotalsDisplay{
		Budget:       humanize.Commaf(t.Budget),
		Cost:         humanize.Commaf(t.Cost),
		Revenue:      humanize.Commaf(t.Revenue),
		RatioPercent: humanize.Commaf(t.RatioPercent),
	}
}
