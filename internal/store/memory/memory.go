// Package memory is an in-process store used by tests and the memory backend.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pmtrack/internal/core"
	"pmtrack/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]core.User
	projects map[int64]core.Project
	units    map[int64]core.Unit
	tasks    map[int64]core.Task
	hours    map[int64]core.WorkedHours
	now      func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[int64]core.User),
		projects: make(map[int64]core.Project),
		units:    make(map[int64]core.Unit),
		tasks:    make(map[int64]core.Task),
		hours:    make(map[int64]core.WorkedHours),
		now:      time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) FindWorkedHours(_ context.Context, f store.WorkedHoursFilter) ([]core.WorkedHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unitProject := func(unitID int64) int64 { return s.units[unitID].ProjectID }
	out := make([]core.WorkedHours, 0)
	for _, w := range s.hours {
		if f.Match(w, unitProject) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetWorkedHours(_ context.Context, id int64) (*core.WorkedHours, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.hours, id), nil
}

func (s *Store) FindProject(_ context.Context, id int64) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := lookup(s.projects, id)
	if p == nil {
		return nil, nil
	}
	c := p.Clone()
	return &c, nil
}

func (s *Store) FindProjectByDesignation(_ context.Context, designation string) (*core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.Designation == designation {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) ListProjects(context.Context) ([]core.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := sortedValues(s.projects, func(p core.Project) int64 { return p.ID })
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out, nil
}

func (s *Store) FindUnit(_ context.Context, id int64) (*core.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.units, id), nil
}

func (s *Store) FindUnitsByPartNumber(_ context.Context, pn string) ([]core.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Unit, 0)
	for _, u := range sortedValues(s.units, func(u core.Unit) int64 { return u.ID }) {
		if u.PartNumber == pn {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) ListUnits(_ context.Context, projectID int64) ([]core.Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Unit, 0)
	for _, u := range sortedValues(s.units, func(u core.Unit) int64 { return u.ID }) {
		if projectID == 0 || u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) FindTask(_ context.Context, id int64) (*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.tasks, id), nil
}

func (s *Store) FindUser(_ context.Context, id int64) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.users, id), nil
}

// InsertWorkedHours checks references and the one-record-per-unit-and-day
// rule under the write lock, so concurrent inserts cannot both pass.
func (s *Store) InsertWorkedHours(_ context.Context, w core.WorkedHours) (core.WorkedHours, error) {
	if err := w.Validate(); err != nil {
		return core.WorkedHours{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[w.UserID]; !ok {
		return core.WorkedHours{}, fmt.Errorf("user %d: %w", w.UserID, core.ErrNotFound)
	}
	if _, ok := s.units[w.UnitID]; !ok {
		return core.WorkedHours{}, fmt.Errorf("unit %d: %w", w.UnitID, core.ErrNotFound)
	}
	if _, ok := s.tasks[w.TaskID]; !ok {
		return core.WorkedHours{}, fmt.Errorf("task %d: %w", w.TaskID, core.ErrNotFound)
	}
	for _, other := range s.hours {
		if other.UnitID == w.UnitID && other.DateOfWork.Equal(w.DateOfWork.Time) {
			return core.WorkedHours{}, fmt.Errorf("unit %d already has hours on %s: %w", w.UnitID, w.DateOfWork.ISO(), core.ErrConflict)
		}
	}
	w.ID = s.id()
	s.hours[w.ID] = w
	return w, nil
}

func (s *Store) UpdateWorkedHoursAmount(_ context.Context, id int64, amount float64) error {
	if err := core.ValidateHours(amount); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.hours[id]
	if !ok {
		return fmt.Errorf("worked hours %d: %w", id, core.ErrNotFound)
	}
	w.Amount = amount
	s.hours[id] = w
	return nil
}

func (s *Store) DeleteWorkedHours(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hours[id]; !ok {
		return fmt.Errorf("worked hours %d: %w", id, core.ErrNotFound)
	}
	delete(s.hours, id)
	return nil
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.users, func(u core.User) int64 { return u.ID }), nil
}

func (s *Store) ListTasks(context.Context) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.tasks, func(t core.Task) int64 { return t.ID }), nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.users {
		if strings.EqualFold(other.Username, u.Username) {
			return core.User{}, fmt.Errorf("username %q: %w", u.Username, core.ErrConflict)
		}
	}
	u.ID = s.id()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) CreateProject(_ context.Context, p core.Project) (core.Project, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	if err := p.Validate(); err != nil {
		return core.Project{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.projects {
		if other.Designation == p.Designation {
			return core.Project{}, fmt.Errorf("designation %q: %w", p.Designation, core.ErrConflict)
		}
	}
	p.ID = s.id()
	s.projects[p.ID] = p.Clone()
	return p.Clone(), nil
}

func (s *Store) CreateUnit(_ context.Context, u core.Unit) (core.Unit, error) {
	if err := u.Validate(); err != nil {
		return core.Unit{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[u.ProjectID]; !ok {
		return core.Unit{}, fmt.Errorf("project %d: %w", u.ProjectID, core.ErrNotFound)
	}
	u.ID = s.id()
	s.units[u.ID] = u
	return u, nil
}

func (s *Store) CreateTask(_ context.Context, t core.Task) (core.Task, error) {
	if err := t.Validate(); err != nil {
		return core.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.tasks[t.ID] = t
	return t, nil
}

func (s *Store) DeactivateProject(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return fmt.Errorf("project %d: %w", id, core.ErrNotFound)
	}
	if !p.Active() {
		return fmt.Errorf("project %d already deactivated: %w", id, core.ErrInvalidState)
	}
	at = at.UTC()
	p.DeactivatedAt = &at
	if err := p.Validate(); err != nil {
		return err
	}
	s.projects[id] = p
	return nil
}

func (s *Store) ReactivateProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return fmt.Errorf("project %d: %w", id, core.ErrNotFound)
	}
	if p.Active() {
		return fmt.Errorf("project %d is active: %w", id, core.ErrInvalidState)
	}
	p.DeactivatedAt = nil
	s.projects[id] = p
	return nil
}

func (s *Store) MoveUnit(_ context.Context, unitID, projectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitID]
	if !ok {
		return fmt.Errorf("unit %d: %w", unitID, core.ErrNotFound)
	}
	if _, ok := s.projects[projectID]; !ok {
		return fmt.Errorf("project %d: %w", projectID, core.ErrNotFound)
	}
	u.ProjectID = projectID
	s.units[unitID] = u
	return nil
}

func (s *Store) DeleteUnit(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[id]; !ok {
		return fmt.Errorf("unit %d: %w", id, core.ErrNotFound)
	}
	for _, w := range s.hours {
		if w.UnitID == id {
			return fmt.Errorf("unit %d has worked hours: %w", id, core.ErrConflict)
		}
	}
	delete(s.units, id)
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %d: %w", id, core.ErrNotFound)
	}
	for _, w := range s.hours {
		if w.TaskID == id {
			return fmt.Errorf("task %d has worked hours: %w", id, core.ErrConflict)
		}
	}
	delete(s.tasks, id)
	return nil
}

// Forget removes an entity without reference checks. Tests use it to build
// records whose references no longer resolve.
func (s *Store) Forget(kind string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case "user":
		delete(s.users, id)
	case "unit":
		delete(s.units, id)
	case "task":
		delete(s.tasks, id)
	case "project":
		delete(s.projects, id)
	}
}

func lookup[T any](m map[int64]T, id int64) *T {
	v, ok := m[id]
	if !ok {
		return nil
	}
	return &v
}

func sortedValues[T any](m map[int64]T, key func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })
	return out
}
