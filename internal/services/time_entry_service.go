package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"pmtrack/internal/core"
	"pmtrack/internal/store"
)

// Publisher announces worked-hours changes to the timesheet exporter.
type Publisher interface {
	PublishWorkedHoursSync(ctx context.Context, id, version int64) error
	PublishWorkedHoursDelete(ctx context.Context, id int64, dateOfWork time.Time) error
}

// versioned is implemented by stores that track record versions.
type versioned interface {
	GetVersion(ctx context.Context, id int64) (int64, error)
}

// NewEntry is the input of TimeEntryService.Create.
type NewEntry struct {
	UnitID     int64
	TaskID     int64
	Amount     float64
	DateOfWork core.Date
}

// TimeEntryService creates and modifies worked-hours records and publishes
// a sync message after every successful write.
type TimeEntryService struct {
	store     store.Store
	publisher Publisher
	calendar  *CalendarQueryService
}

// NewTimeEntryService wires the service; publisher may be nil.
func NewTimeEntryService(s store.Store, publisher Publisher) *TimeEntryService {
	return &TimeEntryService{
		store:     s,
		publisher: publisher,
		calendar:  NewCalendarQueryService(s),
	}
}

// Create logs hours for user. A unit takes one record per day; a second one
// fails with core.ErrConflict. Deactivated projects accept no new hours.
func (s *TimeEntryService) Create(ctx context.Context, user core.User, in NewEntry) (core.WorkedHours, error) {
	w := core.WorkedHours{
		UserID:     user.ID,
		UnitID:     in.UnitID,
		TaskID:     in.TaskID,
		Amount:     in.Amount,
		DateOfWork: in.DateOfWork,
	}
	if err := w.Validate(); err != nil {
		return core.WorkedHours{}, err
	}

	unit, err := s.store.FindUnit(ctx, in.UnitID)
	if err != nil {
		return core.WorkedHours{}, fmt.Errorf("find unit %d: %w", in.UnitID, err)
	}
	if unit == nil {
		return core.WorkedHours{}, fmt.Errorf("unit %d: %w", in.UnitID, core.ErrNotFound)
	}
	project, err := s.store.FindProject(ctx, unit.ProjectID)
	if err != nil {
		return core.WorkedHours{}, fmt.Errorf("find project %d: %w", unit.ProjectID, err)
	}
	if project != nil && !project.Active() {
		return core.WorkedHours{}, fmt.Errorf("project %s is deactivated: %w", project.Designation, core.ErrInvalidState)
	}

	saved, err := s.store.InsertWorkedHours(ctx, w)
	if err != nil {
		return core.WorkedHours{}, fmt.Errorf("save worked hours: %w", err)
	}

	if err := s.publishSync(ctx, saved.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", saved.ID, "error", err)
	}
	return saved, nil
}

// Get returns one record with resolved labels. Users without the view-all
// capability only see their own records.
func (s *TimeEntryService) Get(ctx context.Context, user core.User, id int64) (core.EntrySummary, error) {
	w, err := s.load(ctx, id)
	if err != nil {
		return core.EntrySummary{}, err
	}
	if !user.CanViewAll() && w.UserID != user.ID {
		return core.EntrySummary{}, fmt.Errorf("worked hours %d: %w", id, core.ErrForbidden)
	}
	return s.calendar.Summarize(ctx, *w)
}

// UpdateAmount changes the hours of a record.
func (s *TimeEntryService) UpdateAmount(ctx context.Context, user core.User, id int64, amount float64) error {
	if err := core.ValidateHours(amount); err != nil {
		return err
	}
	w, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModify(w.UserID) {
		return fmt.Errorf("worked hours %d: %w", id, core.ErrForbidden)
	}
	if err := s.store.UpdateWorkedHoursAmount(ctx, id, amount); err != nil {
		return fmt.Errorf("update worked hours: %w", err)
	}

	slog.InfoContext(ctx, "Worked hours amount changed",
		"id", id,
		"from", w.Amount,
		"to", amount,
		"user_id", user.ID)

	if err := s.publishSync(ctx, id, s.version(ctx, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}
	return nil
}

// Delete removes a record.
func (s *TimeEntryService) Delete(ctx context.Context, user core.User, id int64) error {
	w, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !user.CanModify(w.UserID) {
		return fmt.Errorf("worked hours %d: %w", id, core.ErrForbidden)
	}
	if err := s.store.DeleteWorkedHours(ctx, id); err != nil {
		return fmt.Errorf("delete worked hours: %w", err)
	}

	if err := s.publishDelete(ctx, id, w.DateOfWork); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

func (s *TimeEntryService) load(ctx context.Context, id int64) (*core.WorkedHours, error) {
	w, err := s.store.GetWorkedHours(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get worked hours %d: %w", id, err)
	}
	if w == nil {
		return nil, fmt.Errorf("worked hours %d: %w", id, core.ErrNotFound)
	}
	return w, nil
}

// version returns the stored version, or 0 when the store does not track one.
func (s *TimeEntryService) version(ctx context.Context, id int64) int64 {
	v, ok := s.store.(versioned)
	if !ok {
		return 0
	}
	n, err := v.GetVersion(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read record version", "id", id, "error", err)
		return 0
	}
	return n
}

func (s *TimeEntryService) publishSync(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishWorkedHoursSync(ctx, id, version)
}

func (s *TimeEntryService) publishDelete(ctx context.Context, id int64, dateOfWork core.Date) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishWorkedHoursDelete(ctx, id, dateOfWork.Time)
}

// Close closes the store and the publisher when it holds a connection.
func (s *TimeEntryService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	return errors.Join(errs...)
}
