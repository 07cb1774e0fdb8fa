package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleUser       Role = "user"
)

// DefaultRate is the hourly rate applied to projects without an explicit one.
const DefaultRate = 120.0

// MaxDailyHours caps a single worked-hours record.
const MaxDailyHours = 12.0

type (
	Role string

	Date struct {
		time.Time
	}

	User struct {
		ID       int64
		Username string
		Email    string
		Supplier string
		Role     Role
	}

	Project struct {
		ID            int64
		Designation   string // HoV code, globally unique
		CustomerName  string
		Budget        float64
		HourBudget    *float64 // internal hour budget, optional
		Rate          *float64 // nil means DefaultRate
		CreatedAt     time.Time
		DeactivatedAt *time.Time
	}

	Unit struct {
		ID         int64
		ProjectID  int64
		PartNumber string
		Name       string
	}

	Task struct {
		ID          int64
		Name        string
		Description string
	}

	WorkedHours struct {
		ID         int64
		UserID     int64
		UnitID     int64
		TaskID     int64
		Amount     float64
		DateOfWork Date
	}
)

var (
	ErrZeroDate           = fmt.Errorf("date cannot be zero: %w", ErrInvalidArgument)
	ErrInvalidDay         = fmt.Errorf("invalid day: %w", ErrInvalidArgument)
	ErrInvalidMonth       = fmt.Errorf("invalid month: %w", ErrInvalidArgument)
	ErrInvalidHours       = fmt.Errorf("invalid hours: %w", ErrInvalidArgument)
	ErrInvalidRole        = fmt.Errorf("invalid role: %w", ErrInvalidArgument)
	ErrInvalidBudget      = fmt.Errorf("invalid budget: %w", ErrInvalidArgument)
	ErrEmptyDesignation   = fmt.Errorf("empty designation: %w", ErrInvalidArgument)
	ErrEmptyUsername      = fmt.Errorf("empty username: %w", ErrInvalidArgument)
	ErrEmptyPartNumber    = fmt.Errorf("empty part number: %w", ErrInvalidArgument)
	ErrEmptyTaskName      = fmt.Errorf("empty task name: %w", ErrInvalidArgument)
	ErrMissingReference   = fmt.Errorf("missing reference: %w", ErrInvalidArgument)
	ErrDeactivationBefore = fmt.Errorf("deactivation precedes creation: %w", ErrInvalidArgument)
)

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// ISO returns the date as YYYY-MM-DD, the storage representation.
func (d Date) ISO() string {
	return d.Format(time.DateOnly)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock and location of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseISODate parses a YYYY-MM-DD string.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrMalformedDate)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (r Role) Validate() error {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleUser:
		return nil
	default:
		return ErrInvalidRole
	}
}

// CanViewAll reports whether u sees every user's records.
func (u User) CanViewAll() bool {
	return u.Role == RoleAdmin || u.Role == RoleSupervisor
}

// CanModify reports whether u may change a record owned by ownerID.
// Supervisors read everything but only change their own records.
func (u User) CanModify(ownerID int64) bool {
	return u.Role == RoleAdmin || u.ID == ownerID
}

// DisplayName is the label shown next to a user's entries.
func (u User) DisplayName() string {
	return u.Username
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	return u.Role.Validate()
}

// HourlyRate returns the project rate, falling back to DefaultRate.
func (p Project) HourlyRate() float64 {
	if p.Rate == nil {
		return DefaultRate
	}
	return *p.Rate
}

// Clone returns a copy of p that shares no pointers with it.
func (p Project) Clone() Project {
	p.HourBudget = clonePtr(p.HourBudget)
	p.Rate = clonePtr(p.Rate)
	p.DeactivatedAt = clonePtr(p.DeactivatedAt)
	return p
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Active reports whether the project has not been deactivated.
func (p Project) Active() bool {
	return p.DeactivatedAt == nil
}

func (p Project) Validate() error {
	if strings.TrimSpace(p.Designation) == "" {
		return ErrEmptyDesignation
	}
	if p.Budget < 0 {
		return ErrInvalidBudget
	}
	if p.HourBudget != nil && *p.HourBudget < 0 {
		return ErrInvalidBudget
	}
	if p.Rate != nil && *p.Rate < 0 {
		return fmt.Errorf("negative rate: %w", ErrInvalidArgument)
	}
	if p.DeactivatedAt != nil && p.DeactivatedAt.Before(p.CreatedAt) {
		return ErrDeactivationBefore
	}
	return nil
}

func (u Unit) Validate() error {
	if u.ProjectID <= 0 {
		return ErrMissingReference
	}
	if strings.TrimSpace(u.PartNumber) == "" {
		return ErrEmptyPartNumber
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyTaskName
	}
	return nil
}

func (w WorkedHours) Validate() error {
	if err := w.DateOfWork.Validate(); err != nil {
		return fmt.Errorf("date of work: %w", err)
	}
	if w.UserID <= 0 || w.UnitID <= 0 || w.TaskID <= 0 {
		return ErrMissingReference
	}
	return ValidateHours(w.Amount)
}
