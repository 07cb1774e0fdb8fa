// Package storetest holds the behaviour every store.Store implementation
// must show. Implementations run it from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtrack/internal/core"
	"pmtrack/internal/store"
)

// Fixture is a small catalog created in a fresh store.
type Fixture struct {
	Admin, Alice, Bob core.User
	DLH, SWR          core.Project
	G1, G2, Shared    core.Unit
	Drawings, Models  core.Task
}

// Seed fills s with a Fixture.
func Seed(t *testing.T, s store.Store) Fixture {
	t.Helper()
	ctx := context.Background()
	var f Fixture
	var err error

	f.Admin, err = s.CreateUser(ctx, core.User{Username: "admin", Email: "admin@example.com", Role: core.RoleAdmin})
	require.NoError(t, err)
	f.Alice, err = s.CreateUser(ctx, core.User{Username: "alice", Email: "alice@example.com", Role: core.RoleUser})
	require.NoError(t, err)
	f.Bob, err = s.CreateUser(ctx, core.User{Username: "bob", Email: "bob@example.com", Role: core.RoleUser})
	require.NoError(t, err)

	created := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	f.DLH, err = s.CreateProject(ctx, core.Project{Designation: "DLH01", CustomerName: "Deutsche Lufthansa", Budget: 200000, Rate: ptr(120.0), CreatedAt: created})
	require.NoError(t, err)
	f.SWR, err = s.CreateProject(ctx, core.Project{Designation: "SWR01", CustomerName: "Swiss", Budget: 150000, HourBudget: ptr(500.0), CreatedAt: created})
	require.NoError(t, err)

	f.G1, err = s.CreateUnit(ctx, core.Unit{ProjectID: f.DLH.ID, PartNumber: "1101000-120", Name: "G1"})
	require.NoError(t, err)
	f.G2, err = s.CreateUnit(ctx, core.Unit{ProjectID: f.DLH.ID, PartNumber: "1102000-120", Name: "G2"})
	require.NoError(t, err)
	f.Shared, err = s.CreateUnit(ctx, core.Unit{ProjectID: f.SWR.ID, PartNumber: "1101000-120", Name: "G1 (SWR)"})
	require.NoError(t, err)

	f.Drawings, err = s.CreateTask(ctx, core.Task{Name: "2D drawings"})
	require.NoError(t, err)
	f.Models, err = s.CreateTask(ctx, core.Task{Name: "3D models", Description: "CAD"})
	require.NoError(t, err)
	return f
}

func ptr[T any](v T) *T { return &v }

// Run exercises the store contract against stores built by newStore.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("InsertConflictPerUnitAndDay", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		first, err := s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 5, DateOfWork: core.NewDate(2024, 5, 1)})
		require.NoError(t, err)
		assert.NotZero(t, first.ID)

		_, err = s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Bob.ID, UnitID: f.G1.ID, TaskID: f.Models.ID, Amount: 2, DateOfWork: core.NewDate(2024, 5, 1)})
		assert.ErrorIs(t, err, core.ErrConflict)

		_, err = s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 3, DateOfWork: core.NewDate(2024, 5, 2)})
		assert.NoError(t, err)

		_, err = s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G2.ID, TaskID: f.Drawings.ID, Amount: 3, DateOfWork: core.NewDate(2024, 5, 1)})
		assert.NoError(t, err)
	})

	t.Run("ConcurrentInsertsKeepOnePerDay", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G2.ID, TaskID: f.Drawings.ID, Amount: 1, DateOfWork: core.NewDate(2024, 6, 3)})
			}(i)
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, core.ErrConflict)
			}
		}
		assert.Equal(t, 1, ok)
		got, err := s.FindWorkedHours(ctx, store.WorkedHoursFilter{UnitID: f.G2.ID})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("InsertRejectsInvalidAndDangling", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		_, err := s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 13, DateOfWork: core.NewDate(2024, 5, 1)})
		assert.ErrorIs(t, err, core.ErrInvalidArgument)

		_, err = s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: 9999, TaskID: f.Drawings.ID, Amount: 1, DateOfWork: core.NewDate(2024, 5, 1)})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("FindWorkedHoursFilters", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		insert := func(user core.User, unit core.Unit, task core.Task, amount float64, d core.Date) core.WorkedHours {
			t.Helper()
			w, err := s.InsertWorkedHours(ctx, core.WorkedHours{UserID: user.ID, UnitID: unit.ID, TaskID: task.ID, Amount: amount, DateOfWork: d})
			require.NoError(t, err)
			return w
		}
		a := insert(f.Alice, f.G1, f.Drawings, 5, core.NewDate(2024, 5, 1))
		b := insert(f.Bob, f.G2, f.Models, 3.5, core.NewDate(2024, 5, 1))
		c := insert(f.Bob, f.Shared, f.Drawings, 2, core.NewDate(2024, 5, 3))

		ids := func(ws []core.WorkedHours) []int64 {
			out := make([]int64, 0, len(ws))
			for _, w := range ws {
				out = append(out, w.ID)
			}
			return out
		}
		cases := []struct {
			name string
			f    store.WorkedHoursFilter
			want []int64
		}{
			{"all", store.WorkedHoursFilter{}, []int64{a.ID, b.ID, c.ID}},
			{"date", store.WorkedHoursFilter{Date: core.NewDate(2024, 5, 1)}, []int64{a.ID, b.ID}},
			{"date and user", store.WorkedHoursFilter{Date: core.NewDate(2024, 5, 1), UserID: f.Bob.ID}, []int64{b.ID}},
			{"range", store.WorkedHoursFilter{From: core.NewDate(2024, 5, 2), To: core.NewDate(2024, 5, 31)}, []int64{c.ID}},
			{"unit", store.WorkedHoursFilter{UnitID: f.G1.ID}, []int64{a.ID}},
			{"task", store.WorkedHoursFilter{TaskID: f.Drawings.ID}, []int64{a.ID, c.ID}},
			{"project", store.WorkedHoursFilter{ProjectID: f.DLH.ID}, []int64{a.ID, b.ID}},
			{"none", store.WorkedHoursFilter{Date: core.NewDate(2023, 1, 1)}, []int64{}},
		}
		for _, tc := range cases {
			got, err := s.FindWorkedHours(ctx, tc.f)
			require.NoError(t, err, tc.name)
			assert.Equal(t, tc.want, ids(got), tc.name)
		}

		got, err := s.GetWorkedHours(ctx, b.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, 3.5, got.Amount)
		assert.True(t, got.DateOfWork.Equal(b.DateOfWork.Time))
	})

	t.Run("LookupsReportAbsenceWithNil", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		p, err := s.FindProject(ctx, 9999)
		assert.NoError(t, err)
		assert.Nil(t, p)
		p, err = s.FindProjectByDesignation(ctx, "SWR01")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, f.SWR.ID, p.ID)
		assert.Equal(t, core.DefaultRate, p.HourlyRate())
		require.NotNil(t, p.HourBudget)
		assert.Equal(t, 500.0, *p.HourBudget)

		w, err := s.GetWorkedHours(ctx, 9999)
		assert.NoError(t, err)
		assert.Nil(t, w)
		u, err := s.FindUser(ctx, 9999)
		assert.NoError(t, err)
		assert.Nil(t, u)
		task, err := s.FindTask(ctx, f.Models.ID)
		require.NoError(t, err)
		require.NotNil(t, task)
		assert.Equal(t, "CAD", task.Description)

		units, err := s.FindUnitsByPartNumber(ctx, "1101000-120")
		require.NoError(t, err)
		assert.Len(t, units, 2)
		units, err = s.FindUnitsByPartNumber(ctx, "nope")
		require.NoError(t, err)
		assert.Empty(t, units)

		units, err = s.ListUnits(ctx, f.DLH.ID)
		require.NoError(t, err)
		assert.Len(t, units, 2)
		units, err = s.ListUnits(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, units, 3)

		projects, err := s.ListProjects(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 2)
		assert.Equal(t, "DLH01", projects[0].Designation)
	})

	t.Run("UpdateAndDelete", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		w, err := s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 5, DateOfWork: core.NewDate(2024, 5, 1)})
		require.NoError(t, err)

		require.NoError(t, s.UpdateWorkedHoursAmount(ctx, w.ID, 7.5))
		got, err := s.GetWorkedHours(ctx, w.ID)
		require.NoError(t, err)
		assert.Equal(t, 7.5, got.Amount)

		assert.ErrorIs(t, s.UpdateWorkedHoursAmount(ctx, w.ID, 0), core.ErrInvalidArgument)
		assert.ErrorIs(t, s.UpdateWorkedHoursAmount(ctx, 9999, 1), core.ErrNotFound)

		require.NoError(t, s.DeleteWorkedHours(ctx, w.ID))
		assert.ErrorIs(t, s.DeleteWorkedHours(ctx, w.ID), core.ErrNotFound)

		_, err = s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 5, DateOfWork: core.NewDate(2024, 5, 1)})
		assert.NoError(t, err, "a deleted record frees its unit and day")
	})

	t.Run("CatalogGuards", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		_, err := s.CreateProject(ctx, core.Project{Designation: "DLH01", Budget: 1})
		assert.ErrorIs(t, err, core.ErrConflict)
		_, err = s.CreateUnit(ctx, core.Unit{ProjectID: 9999, PartNumber: "x"})
		assert.ErrorIs(t, err, core.ErrNotFound)

		_, err = s.InsertWorkedHours(ctx, core.WorkedHours{UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 5, DateOfWork: core.NewDate(2024, 5, 1)})
		require.NoError(t, err)

		assert.ErrorIs(t, s.DeleteUnit(ctx, f.G1.ID), core.ErrConflict)
		assert.ErrorIs(t, s.DeleteTask(ctx, f.Drawings.ID), core.ErrConflict)
		assert.NoError(t, s.DeleteUnit(ctx, f.G2.ID))
		assert.NoError(t, s.DeleteTask(ctx, f.Models.ID))
		assert.ErrorIs(t, s.DeleteUnit(ctx, f.G2.ID), core.ErrNotFound)

		require.NoError(t, s.MoveUnit(ctx, f.Shared.ID, f.DLH.ID))
		u, err := s.FindUnit(ctx, f.Shared.ID)
		require.NoError(t, err)
		assert.Equal(t, f.DLH.ID, u.ProjectID)
		assert.ErrorIs(t, s.MoveUnit(ctx, f.Shared.ID, 9999), core.ErrNotFound)
	})

	t.Run("ProjectLifecycle", func(t *testing.T) {
		s := newStore(t)
		f := Seed(t, s)
		ctx := context.Background()

		assert.ErrorIs(t, s.DeactivateProject(ctx, f.DLH.ID, f.DLH.CreatedAt.Add(-time.Hour)), core.ErrInvalidArgument)

		at := f.DLH.CreatedAt.Add(24 * time.Hour)
		require.NoError(t, s.DeactivateProject(ctx, f.DLH.ID, at))
		p, err := s.FindProject(ctx, f.DLH.ID)
		require.NoError(t, err)
		require.NotNil(t, p.DeactivatedAt)
		assert.True(t, p.DeactivatedAt.Equal(at))
		assert.ErrorIs(t, s.DeactivateProject(ctx, f.DLH.ID, at), core.ErrInvalidState)

		require.NoError(t, s.ReactivateProject(ctx, f.DLH.ID))
		p, err = s.FindProject(ctx, f.DLH.ID)
		require.NoError(t, err)
		assert.True(t, p.Active())
		assert.ErrorIs(t, s.ReactivateProject(ctx, f.DLH.ID), core.ErrInvalidState)
		assert.ErrorIs(t, s.ReactivateProject(ctx, 9999), core.ErrNotFound)
	})
}
