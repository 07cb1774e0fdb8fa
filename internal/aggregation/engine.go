package aggregation

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"pmtrack/internal/core"
	"pmtrack/internal/store"
)

// Engine runs the aggregations against a store.
type Engine struct {
	reader  store.WorkRecordReader
	workers int
}

func NewEngine(reader store.WorkRecordReader) *Engine {
	return &Engine{reader: reader, workers: 4}
}

// CostForProject returns the hours, cost and budget ratio of one project.
func (e *Engine) CostForProject(ctx context.Context, projectID int64) (core.ProjectCost, error) {
	p, err := e.reader.FindProject(ctx, projectID)
	if err != nil {
		return core.ProjectCost{}, fmt.Errorf("find project %d: %w", projectID, err)
	}
	if p == nil {
		return core.ProjectCost{}, fmt.Errorf("project %d: %w", projectID, core.ErrNotFound)
	}
	records, err := e.reader.FindWorkedHours(ctx, store.WorkedHoursFilter{ProjectID: p.ID})
	if err != nil {
		return core.ProjectCost{}, fmt.Errorf("find worked hours of project %d: %w", projectID, err)
	}
	pc, err := ComputeProjectCost(*p, records)
	if err != nil {
		return core.ProjectCost{}, err
	}
	return pc, nil
}

// TotalHoursForPartNumber sums the hours of every unit sharing pn,
// across projects. An unknown part number sums to zero.
func (e *Engine) TotalHoursForPartNumber(ctx context.Context, pn string) (float64, error) {
	units, err := e.reader.FindUnitsByPartNumber(ctx, pn)
	if err != nil {
		return 0, fmt.Errorf("find units %q: %w", pn, err)
	}
	var all []core.WorkedHours
	for _, u := range units {
		records, err := e.reader.FindWorkedHours(ctx, store.WorkedHoursFilter{UnitID: u.ID})
		if err != nil {
			return 0, fmt.Errorf("find worked hours of unit %d: %w", u.ID, err)
		}
		all = append(all, records...)
	}
	return SumHours(all), nil
}

// OrganizationTotals aggregates every project and record.
func (e *Engine) OrganizationTotals(ctx context.Context) (core.OrganizationTotals, error) {
	projects, err := e.reader.ListProjects(ctx)
	if err != nil {
		return core.OrganizationTotals{}, fmt.Errorf("list projects: %w", err)
	}
	units, err := e.reader.ListUnits(ctx, 0)
	if err != nil {
		return core.OrganizationTotals{}, fmt.Errorf("list units: %w", err)
	}
	records, err := e.reader.FindWorkedHours(ctx, store.WorkedHoursFilter{})
	if err != nil {
		return core.OrganizationTotals{}, fmt.Errorf("find worked hours: %w", err)
	}
	return ComputeOrganizationTotals(projects, units, records)
}

// ProjectRollup is one row of the per-project overview. Err is set when the
// row's ratio could not be computed; the other fields stay usable.
type ProjectRollup struct {
	Project core.Project
	Cost    core.ProjectCost
	Err     error
}

// ProjectRollups computes the cost of every project concurrently. Store
// failures abort the whole list; a project without budget only marks its row.
func (e *Engine) ProjectRollups(ctx context.Context) ([]ProjectRollup, error) {
	projects, err := e.reader.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := make([]ProjectRollup, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, p := range projects {
		g.Go(func() error {
			records, err := e.reader.FindWorkedHours(gctx, store.WorkedHoursFilter{ProjectID: p.ID})
			if err != nil {
				return fmt.Errorf("find worked hours of project %d: %w", p.ID, err)
			}
			pc, err := ComputeProjectCost(p, records)
			if err != nil {
				slog.WarnContext(gctx, "Project cost incomplete", "project_id", p.ID, "error", err)
			}
			out[i] = ProjectRollup{Project: p, Cost: pc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
