package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pmtrack/internal/core"
)

const projectColumns = `id, designation, customer_name, budget, hour_budget, rate, created_at, deactivated_at`

func scanProject(row interface{ Scan(...any) error }) (core.Project, error) {
	var (
		p           core.Project
		hourBudget  sql.NullFloat64
		rate        sql.NullFloat64
		created     string
		deactivated sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Designation, &p.CustomerName, &p.Budget, &hourBudget, &rate, &created, &deactivated); err != nil {
		return core.Project{}, err
	}
	p.HourBudget = floatPtr(hourBudget)
	p.Rate = floatPtr(rate)
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return core.Project{}, err
	}
	if deactivated.Valid {
		t, err := parseTime(deactivated.String)
		if err != nil {
			return core.Project{}, err
		}
		p.DeactivatedAt = &t
	}
	return p, nil
}

func (r *SQLiteRepository) FindProject(ctx context.Context, id int64) (*core.Project, error) {
	return r.findProject(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
}

func (r *SQLiteRepository) FindProjectByDesignation(ctx context.Context, designation string) (*core.Project, error) {
	return r.findProject(ctx, "SELECT "+projectColumns+" FROM projects WHERE designation = ?", designation)
}

func (r *SQLiteRepository) findProject(ctx context.Context, query string, arg any) (*core.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find project %v: %w", arg, err)
	}
	return &p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]core.Project, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]core.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) FindUnit(ctx context.Context, id int64) (*core.Unit, error) {
	var u core.Unit
	err := r.db.QueryRowContext(ctx, `SELECT id, project_id, part_number, name FROM units WHERE id = ?`, id).
		Scan(&u.ID, &u.ProjectID, &u.PartNumber, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find unit %d: %w", id, err)
	}
	return &u, nil
}

func (r *SQLiteRepository) FindUnitsByPartNumber(ctx context.Context, pn string) ([]core.Unit, error) {
	return r.listUnits(ctx, `SELECT id, project_id, part_number, name FROM units WHERE part_number = ? ORDER BY id`, pn)
}

func (r *SQLiteRepository) ListUnits(ctx context.Context, projectID int64) ([]core.Unit, error) {
	if projectID == 0 {
		return r.listUnits(ctx, `SELECT id, project_id, part_number, name FROM units ORDER BY id`)
	}
	return r.listUnits(ctx, `SELECT id, project_id, part_number, name FROM units WHERE project_id = ? ORDER BY id`, projectID)
}

func (r *SQLiteRepository) listUnits(ctx context.Context, query string, args ...any) ([]core.Unit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	out := make([]core.Unit, 0)
	for rows.Next() {
		var u core.Unit
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.PartNumber, &u.Name); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) FindTask(ctx context.Context, id int64) (*core.Task, error) {
	var t core.Task
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task %d: %w", id, err)
	}
	return &t, nil
}

func (r *SQLiteRepository) FindUser(ctx context.Context, id int64) (*core.User, error) {
	var u core.User
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT id, username, email, supplier, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.Supplier, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	u.Role = core.Role(role)
	return &u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, username, email, supplier, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]core.User, 0)
	for rows.Next() {
		var u core.User
		var role string
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Supplier, &role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Role = core.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]core.Task, 0)
	for rows.Next() {
		var t core.Task
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, supplier, role) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.Supplier, string(u.Role))
	if err != nil {
		return core.User{}, fmt.Errorf("create user %q: %w", u.Username, mapConstraint(err))
	}
	u.ID, err = res.LastInsertId()
	return u, err
}

func (r *SQLiteRepository) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC()
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	var deactivated sql.NullString
	if p.DeactivatedAt != nil {
		deactivated = sql.NullString{String: formatTime(*p.DeactivatedAt), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (designation, customer_name, budget, hour_budget, rate, created_at, deactivated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Designation, p.CustomerName, p.Budget, nullFloat(p.HourBudget), nullFloat(p.Rate), formatTime(p.CreatedAt), deactivated)
	if err != nil {
		return core.Project{}, fmt.Errorf("create project %q: %w", p.Designation, mapConstraint(err))
	}
	p.ID, err = res.LastInsertId()
	return p, err
}

func (r *SQLiteRepository) CreateUnit(ctx context.Context, u core.Unit) (core.Unit, error) {
	if err := u.Validate(); err != nil {
		return core.Unit{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO units (project_id, part_number, name) VALUES (?, ?, ?)`,
		u.ProjectID, u.PartNumber, u.Name)
	if err != nil {
		return core.Unit{}, fmt.Errorf("create unit %q: %w", u.PartNumber, mapConstraint(err))
	}
	u.ID, err = res.LastInsertId()
	return u, err
}

func (r *SQLiteRepository) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO tasks (name, description) VALUES (?, ?)`, t.Name, t.Description)
	if err != nil {
		return core.Task{}, fmt.Errorf("create task %q: %w", t.Name, err)
	}
	t.ID, err = res.LastInsertId()
	return t, err
}

func (r *SQLiteRepository) DeactivateProject(ctx context.Context, id int64, at time.Time) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		p, err := scanProject(tx.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %d: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load project %d: %w", id, err)
		}
		if !p.Active() {
			return fmt.Errorf("project %d already deactivated: %w", id, core.ErrInvalidState)
		}
		p.DeactivatedAt = &at
		if err := p.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE projects SET deactivated_at = ? WHERE id = ?`, formatTime(at), id)
		return err
	})
}

func (r *SQLiteRepository) ReactivateProject(ctx context.Context, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var deactivated sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT deactivated_at FROM projects WHERE id = ?`, id).Scan(&deactivated)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("project %d: %w", id, core.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load project %d: %w", id, err)
		}
		if !deactivated.Valid {
			return fmt.Errorf("project %d is active: %w", id, core.ErrInvalidState)
		}
		_, err = tx.ExecContext(ctx, `UPDATE projects SET deactivated_at = NULL WHERE id = ?`, id)
		return err
	})
}

func (r *SQLiteRepository) MoveUnit(ctx context.Context, unitID, projectID int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE units SET project_id = ? WHERE id = ?`, projectID, unitID)
	if err != nil {
		return fmt.Errorf("move unit %d: %w", unitID, mapConstraint(err))
	}
	return affectedOrNotFound(res, "unit", unitID)
}

func (r *SQLiteRepository) DeleteUnit(ctx context.Context, id int64) error {
	return r.deleteUnreferenced(ctx, "units", "unit_id", "unit", id)
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id int64) error {
	return r.deleteUnreferenced(ctx, "tasks", "task_id", "task", id)
}

func (r *SQLiteRepository) deleteUnreferenced(ctx context.Context, table, column, what string, id int64) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		used, err := exists(ctx, tx, "SELECT 1 FROM worked_hours WHERE "+column+" = ?", id)
		if err != nil {
			return fmt.Errorf("check %s references: %w", what, err)
		}
		if used {
			return fmt.Errorf("%s %d has worked hours: %w", what, id, core.ErrConflict)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete %s %d: %w", what, id, err)
		}
		return affectedOrNotFound(res, what, id)
	})
}
