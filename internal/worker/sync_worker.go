// Package worker exports worked hours from the database to the timesheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pmtrack/internal/amqp"
	"pmtrack/internal/calendar"
	"pmtrack/internal/core"
	"pmtrack/internal/services"
	"pmtrack/internal/sheets"
	"pmtrack/internal/storage"
	"pmtrack/internal/store"
)

// SyncStore is the part of the SQLite repository the worker needs.
type SyncStore interface {
	store.WorkRecordReader
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	GetVersion(ctx context.Context, id int64) (int64, error)
	MarkSynced(ctx context.Context, id, version int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker handles synchronization of worked hours from SQLite to the timesheet
type SyncWorker struct {
	storage   SyncStore
	sheets    sheets.TimesheetWriter
	calendar  *services.CalendarQueryService
	batchSize int
	now       func() time.Time
}

func NewSyncWorker(storage SyncStore, writer sheets.TimesheetWriter, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    writer,
		calendar:  services.NewCalendarQueryService(storage),
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandleSyncMessage processes a single sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.WorkedHoursSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"version", msg.Version,
		"action", msg.Action)

	if msg.Action == amqp.ActionDelete {
		return w.exportDelete(ctx, msg)
	}
	return w.syncRecord(ctx, msg.ID)
}

func (w *SyncWorker) exportDelete(ctx context.Context, msg *amqp.WorkedHoursSyncMessage) error {
	// Messages without a date of work are filed by when they were sent.
	at := msg.DateOfWork
	if at.IsZero() {
		at = msg.Timestamp
	}
	if at.IsZero() {
		at = w.now()
	}
	date := core.DateOf(at)
	row := sheets.TimesheetRow{
		EntryID: msg.ID,
		Action:  amqp.ActionDelete,
		Week:    calendar.WeekNumber(date.Time),
		Date:    date,
	}
	ref, err := w.sheets.AppendEntry(ctx, row)
	if err != nil {
		return fmt.Errorf("export delete of %d: %w", msg.ID, err)
	}
	slog.InfoContext(ctx, "Exported worked hours deletion", "id", msg.ID, "sheets_ref", ref)
	return nil
}

// syncRecord exports the current state of a record. A record deleted
// before the worker got to it is skipped.
func (w *SyncWorker) syncRecord(ctx context.Context, id int64) error {
	rec, err := w.storage.GetWorkedHours(ctx, id)
	if err != nil {
		return fmt.Errorf("get worked hours from storage: %w", err)
	}
	if rec == nil {
		slog.InfoContext(ctx, "Worked hours no longer exist, skipping sync", "id", id)
		return nil
	}
	version, err := w.storage.GetVersion(ctx, id)
	if err != nil {
		return fmt.Errorf("get version: %w", err)
	}

	summary, err := w.calendar.Summarize(ctx, *rec)
	if err != nil {
		return fmt.Errorf("summarize worked hours %d: %w", id, err)
	}

	row := sheets.TimesheetRow{
		EntryID:     rec.ID,
		Version:     version,
		Action:      amqp.ActionUpsert,
		Week:        calendar.WeekNumber(rec.DateOfWork.Time),
		Date:        rec.DateOfWork,
		User:        summary.User,
		Designation: summary.Designation,
		PartNumber:  summary.PartNumber,
		Unit:        summary.UnitName,
		Task:        summary.Task,
		Hours:       rec.Amount,
	}

	ref, err := w.sheets.AppendEntry(ctx, row)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The export worked even if the flag cannot be written.
	if err := w.storage.MarkSynced(ctx, id, version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Successfully synced worked hours",
		"id", id,
		"version", version,
		"sheets_ref", ref,
		"hours", core.FormatHours(rec.Amount))
	return nil
}

// ProcessPendingWorkedHours exports records whose sync is still pending.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingWorkedHours(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize)
	return err
}

// StartupSyncCheck catches up with records missed while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.processPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending worked hours found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.storage.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending worked hours: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending worked hours", "count", len(pending))
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return synced, failed, err
		}
		if err := w.syncRecord(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync worked hours", "id", p.ID, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}
