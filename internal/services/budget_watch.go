package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"pmtrack/internal/aggregation"
	"pmtrack/internal/core"
)

// Severity of a budget alert.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityExceeded Severity = "exceeded"
)

// BudgetAlert reports a project whose consumption crossed a threshold.
type BudgetAlert struct {
	ProjectID   int64
	Designation string
	Check       string
	Severity    Severity
	Percent     float64
	Message     string
}

// BudgetCheck is one rule evaluated against a project rollup.
// It returns nil when the project is within limits.
type BudgetCheck interface {
	Check(r aggregation.ProjectRollup, threshold float64) *BudgetAlert
}

// CostRatioCheck compares cost against the monetary budget.
type CostRatioCheck struct{}

func (CostRatioCheck) Check(r aggregation.ProjectRollup, threshold float64) *BudgetAlert {
	if r.Err != nil {
		return nil
	}
	return ratioAlert(r.Project, "cost", r.Cost.Ratio, threshold)
}

// HourBudgetCheck compares logged hours against the internal hour budget.
type HourBudgetCheck struct{}

func (HourBudgetCheck) Check(r aggregation.ProjectRollup, threshold float64) *BudgetAlert {
	if r.Cost.HourRatio == nil {
		return nil
	}
	return ratioAlert(r.Project, "hours", *r.Cost.HourRatio, threshold)
}

// MissingBudgetCheck flags projects that log hours without any budget.
type MissingBudgetCheck struct{}

func (MissingBudgetCheck) Check(r aggregation.ProjectRollup, _ float64) *BudgetAlert {
	if r.Err == nil || r.Cost.Hours == 0 {
		return nil
	}
	return &BudgetAlert{
		ProjectID:   r.Project.ID,
		Designation: r.Project.Designation,
		Check:       "budget",
		Severity:    SeverityWarning,
		Message:     fmt.Sprintf("%s logged %.1f h without a budget", r.Project.Designation, r.Cost.Hours),
	}
}

func ratioAlert(p core.Project, check string, percent, threshold float64) *BudgetAlert {
	var sev Severity
	switch {
	case percent >= 100:
		sev = SeverityExceeded
	case percent >= threshold:
		sev = SeverityWarning
	default:
		return nil
	}
	return &BudgetAlert{
		ProjectID:   p.ID,
		Designation: p.Designation,
		Check:       check,
		Severity:    sev,
		Percent:     percent,
		Message:     fmt.Sprintf("%s %s at %.1f%%", p.Designation, check, percent),
	}
}

var budgetChecks = map[string]BudgetCheck{
	"cost":   CostRatioCheck{},
	"hours":  HourBudgetCheck{},
	"budget": MissingBudgetCheck{},
}

// GetBudgetCheck returns the check registered under name.
func GetBudgetCheck(name string) (BudgetCheck, error) {
	c, ok := budgetChecks[name]
	if !ok {
		return nil, fmt.Errorf("unknown budget check %q: %w", name, core.ErrInvalidArgument)
	}
	return c, nil
}

// BudgetWatcher evaluates every registered check over the active projects.
type BudgetWatcher struct {
	engine    *aggregation.Engine
	threshold float64
}

// NewBudgetWatcher returns a watcher alerting at threshold percent.
func NewBudgetWatcher(engine *aggregation.Engine, threshold float64) *BudgetWatcher {
	if threshold <= 0 {
		threshold = 80
	}
	return &BudgetWatcher{engine: engine, threshold: threshold}
}

// Run returns the alerts of all active projects ordered by project id then check.
func (w *BudgetWatcher) Run(ctx context.Context) ([]BudgetAlert, error) {
	rollups, err := w.engine.ProjectRollups(ctx)
	if err != nil {
		return nil, fmt.Errorf("project rollups: %w", err)
	}

	names := make([]string, 0, len(budgetChecks))
	for name := range budgetChecks {
		names = append(names, name)
	}
	sort.Strings(names)

	var alerts []BudgetAlert
	for _, r := range rollups {
		if !r.Project.Active() {
			continue
		}
		for _, name := range names {
			if a := budgetChecks[name].Check(r, w.threshold); a != nil {
				alerts = append(alerts, *a)
			}
		}
	}

	for _, a := range alerts {
		slog.WarnContext(ctx, "Budget alert",
			"project", a.Designation,
			"check", a.Check,
			"severity", a.Severity,
			"percent", a.Percent)
	}
	slog.InfoContext(ctx, "Budget check completed", "projects", len(rollups), "alerts", len(alerts))
	return alerts, nil
}

// AlertsBySeverity counts alerts per severity; every severity is present.
func AlertsBySeverity(alerts []BudgetAlert) map[string]int {
	counts := map[string]int{
		string(SeverityWarning):  0,
		string(SeverityExceeded): 0,
	}
	for _, a := range alerts {
		counts[string(a.Severity)]++
	}
	return counts
}
