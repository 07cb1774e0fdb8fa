// Package store declares the persistence contracts of worked-hours records
// and the catalog they reference. Query-style lookups report absence with a
// nil result or an empty slice, never with an error.
package store

import (
	"context"
	"time"

	"pmtrack/internal/core"
)

// WorkedHoursFilter selects worked-hours records. Zero fields match anything.
// Date selects one day; From and To bound an inclusive range.
type WorkedHoursFilter struct {
	Date      core.Date
	From      core.Date
	To        core.Date
	UnitID    int64
	UserID    int64
	TaskID    int64
	ProjectID int64
}

// Match reports whether w satisfies the filter. unitProject resolves the
// project of a unit and is consulted only when ProjectID is set.
func (f WorkedHoursFilter) Match(w core.WorkedHours, unitProject func(unitID int64) int64) bool {
	if !f.Date.IsZero() && !w.DateOfWork.Equal(f.Date.Time) {
		return false
	}
	if !f.From.IsZero() && w.DateOfWork.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && w.DateOfWork.After(f.To.Time) {
		return false
	}
	if f.UnitID != 0 && w.UnitID != f.UnitID {
		return false
	}
	if f.UserID != 0 && w.UserID != f.UserID {
		return false
	}
	if f.TaskID != 0 && w.TaskID != f.TaskID {
		return false
	}
	if f.ProjectID != 0 && unitProject(w.UnitID) != f.ProjectID {
		return false
	}
	return true
}

// Ports used by the aggregation and calendar services.
type (
	WorkRecordReader interface {
		// FindWorkedHours returns matching records ordered by id.
		FindWorkedHours(ctx context.Context, f WorkedHoursFilter) ([]core.WorkedHours, error)
		GetWorkedHours(ctx context.Context, id int64) (*core.WorkedHours, error)
		FindProject(ctx context.Context, id int64) (*core.Project, error)
		FindProjectByDesignation(ctx context.Context, designation string) (*core.Project, error)
		ListProjects(ctx context.Context) ([]core.Project, error)
		FindUnit(ctx context.Context, id int64) (*core.Unit, error)
		// FindUnitsByPartNumber returns every unit sharing pn, across projects.
		FindUnitsByPartNumber(ctx context.Context, pn string) ([]core.Unit, error)
		// ListUnits returns the units of a project, or all units when projectID is 0.
		ListUnits(ctx context.Context, projectID int64) ([]core.Unit, error)
		FindTask(ctx context.Context, id int64) (*core.Task, error)
		FindUser(ctx context.Context, id int64) (*core.User, error)
	}

	WorkRecordWriter interface {
		// InsertWorkedHours fails with core.ErrConflict when the unit already
		// has a record on the same day.
		InsertWorkedHours(ctx context.Context, w core.WorkedHours) (core.WorkedHours, error)
		UpdateWorkedHoursAmount(ctx context.Context, id int64, amount float64) error
		DeleteWorkedHours(ctx context.Context, id int64) error
	}

	// Catalog maintains the entities worked-hours records point to.
	Catalog interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		ListTasks(ctx context.Context) ([]core.Task, error)
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		CreateProject(ctx context.Context, p core.Project) (core.Project, error)
		CreateUnit(ctx context.Context, u core.Unit) (core.Unit, error)
		CreateTask(ctx context.Context, t core.Task) (core.Task, error)
		DeactivateProject(ctx context.Context, id int64, at time.Time) error
		ReactivateProject(ctx context.Context, id int64) error
		MoveUnit(ctx context.Context, unitID, projectID int64) error
		// DeleteUnit and DeleteTask fail with core.ErrConflict while referenced.
		DeleteUnit(ctx context.Context, id int64) error
		DeleteTask(ctx context.Context, id int64) error
	}

	Store interface {
		WorkRecordReader
		WorkRecordWriter
		Catalog
		Ping(ctx context.Context) error
		Close() error
	}
)
