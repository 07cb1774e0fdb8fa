package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pmtrack/internal/core"
	"pmtrack/internal/store"
)

const workedHoursColumns = `w.id, w.user_id, w.unit_id, w.task_id, w.time_amount, w.date_of_work`

func scanWorkedHours(row interface{ Scan(...any) error }) (core.WorkedHours, error) {
	var w core.WorkedHours
	var date string
	if err := row.Scan(&w.ID, &w.UserID, &w.UnitID, &w.TaskID, &w.Amount, &date); err != nil {
		return core.WorkedHours{}, err
	}
	d, err := core.ParseISODate(date)
	if err != nil {
		return core.WorkedHours{}, err
	}
	w.DateOfWork = d
	return w, nil
}

func (r *SQLiteRepository) FindWorkedHours(ctx context.Context, f store.WorkedHoursFilter) ([]core.WorkedHours, error) {
	var (
		where []string
		args  []any
	)
	if !f.Date.IsZero() {
		where = append(where, "w.date_of_work = ?")
		args = append(args, f.Date.ISO())
	}
	if !f.From.IsZero() {
		where = append(where, "w.date_of_work >= ?")
		args = append(args, f.From.ISO())
	}
	if !f.To.IsZero() {
		where = append(where, "w.date_of_work <= ?")
		args = append(args, f.To.ISO())
	}
	if f.UnitID != 0 {
		where = append(where, "w.unit_id = ?")
		args = append(args, f.UnitID)
	}
	if f.UserID != 0 {
		where = append(where, "w.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TaskID != 0 {
		where = append(where, "w.task_id = ?")
		args = append(args, f.TaskID)
	}
	if f.ProjectID != 0 {
		where = append(where, "w.unit_id IN (SELECT id FROM units WHERE project_id = ?)")
		args = append(args, f.ProjectID)
	}

	query := "SELECT " + workedHoursColumns + " FROM worked_hours w"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY w.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query worked hours: %w", err)
	}
	defer rows.Close()

	out := make([]core.WorkedHours, 0)
	for rows.Next() {
		w, err := scanWorkedHours(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worked hours: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetWorkedHours(ctx context.Context, id int64) (*core.WorkedHours, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+workedHoursColumns+" FROM worked_hours w WHERE w.id = ?", id)
	w, err := scanWorkedHours(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get worked hours %d: %w", id, err)
	}
	return &w, nil
}

// InsertWorkedHours checks references and the per-unit-and-day rule inside
// the inserting transaction; the unique index catches anything that slips by.
func (r *SQLiteRepository) InsertWorkedHours(ctx context.Context, w core.WorkedHours) (core.WorkedHours, error) {
	if err := w.Validate(); err != nil {
		return core.WorkedHours{}, err
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		refs := []struct {
			table string
			id    int64
		}{{"users", w.UserID}, {"units", w.UnitID}, {"tasks", w.TaskID}}
		for _, ref := range refs {
			ok, err := exists(ctx, tx, "SELECT 1 FROM "+ref.table+" WHERE id = ?", ref.id)
			if err != nil {
				return fmt.Errorf("check %s: %w", ref.table, err)
			}
			if !ok {
				return fmt.Errorf("%s %d: %w", strings.TrimSuffix(ref.table, "s"), ref.id, core.ErrNotFound)
			}
		}

		dup, err := exists(ctx, tx, "SELECT 1 FROM worked_hours WHERE unit_id = ? AND date_of_work = ?", w.UnitID, w.DateOfWork.ISO())
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup {
			return fmt.Errorf("unit %d already has hours on %s: %w", w.UnitID, w.DateOfWork.ISO(), core.ErrConflict)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO worked_hours (user_id, unit_id, task_id, time_amount, date_of_work, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			w.UserID, w.UnitID, w.TaskID, w.Amount, w.DateOfWork.ISO(), formatTime(r.now()))
		if err != nil {
			return fmt.Errorf("insert worked hours: %w", mapConstraint(err))
		}
		w.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.WorkedHours{}, err
	}

	slog.InfoContext(ctx, "Worked hours saved to SQLite",
		"id", w.ID,
		"unit_id", w.UnitID,
		"date_of_work", w.DateOfWork.ISO(),
		"time_amount", w.Amount)
	return w, nil
}

// UpdateWorkedHoursAmount bumps the record version and marks it for resync.
func (r *SQLiteRepository) UpdateWorkedHoursAmount(ctx context.Context, id int64, amount float64) error {
	if err := core.ValidateHours(amount); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE worked_hours SET time_amount = ?, version = version + 1, sync_status = 'pending' WHERE id = ?`,
		amount, id)
	if err != nil {
		return fmt.Errorf("update worked hours %d: %w", id, mapConstraint(err))
	}
	return affectedOrNotFound(res, "worked hours", id)
}

func (r *SQLiteRepository) DeleteWorkedHours(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM worked_hours WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete worked hours %d: %w", id, err)
	}
	return affectedOrNotFound(res, "worked hours", id)
}

// PendingSync identifies a record the timesheet has not caught up with.
type PendingSync struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

// GetPendingSync returns up to limit records waiting for export, oldest first.
func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM worked_hours WHERE sync_status != 'synced' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	defer rows.Close()

	var out []PendingSync
	for rows.Next() {
		var p PendingSync
		var created string
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		if p.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetVersion returns the current version of a record, or ErrNotFound.
func (r *SQLiteRepository) GetVersion(ctx context.Context, id int64) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `SELECT version FROM worked_hours WHERE id = ?`, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("worked hours %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get version %d: %w", id, err)
	}
	return v, nil
}

// MarkSynced records a successful export of the given version. A newer
// version written in the meantime stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id, version int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE worked_hours SET sync_status = 'synced', synced_at = ? WHERE id = ? AND version = ?`,
		formatTime(r.now()), id, version)
	if err != nil {
		return fmt.Errorf("mark worked hours synced: %w", err)
	}
	slog.InfoContext(ctx, "Worked hours marked as synced", "id", id, "version", version)
	return nil
}

// MarkSyncError flags a record whose export failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE worked_hours SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark worked hours sync error: %w", err)
	}
	return nil
}
