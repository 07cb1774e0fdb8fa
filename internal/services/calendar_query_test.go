package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtrack/internal/core"
	"pmtrack/internal/store/memory"
	"pmtrack/internal/store/storetest"
)

func logHours(t *testing.T, s *memory.Store, userID, unitID, taskID int64, amount float64, d core.Date) core.WorkedHours {
	t.Helper()
	w, err := s.InsertWorkedHours(context.Background(), core.WorkedHours{
		UserID: userID, UnitID: unitID, TaskID: taskID, Amount: amount, DateOfWork: d,
	})
	require.NoError(t, err)
	return w
}

func TestEntriesForDateScopesByRole(t *testing.T) {
	s := memory.New()
	f := storetest.Seed(t, s)
	ctx := context.Background()
	day := core.NewDate(2024, 3, 4)

	logHours(t, s, f.Alice.ID, f.G1.ID, f.Drawings.ID, 5, day)
	logHours(t, s, f.Bob.ID, f.G2.ID, f.Models.ID, 2.5, day)
	logHours(t, s, f.Alice.ID, f.G2.ID, f.Drawings.ID, 1, core.NewDate(2024, 3, 5))

	supervisor, err := s.CreateUser(ctx, core.User{Username: "sue", Role: core.RoleSupervisor})
	require.NoError(t, err)

	svc := NewCalendarQueryService(s)

	tests := []struct {
		name  string
		user  core.User
		users []string
	}{
		{"admin sees all", f.Admin, []string{"alice", "bob"}},
		{"supervisor sees all", supervisor, []string{"alice", "bob"}},
		{"user sees own", f.Alice, []string{"alice"}},
		{"other user sees own", f.Bob, []string{"bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.EntriesForDate(ctx, day, tt.user)
			require.NoError(t, err)
			var users []string
			for _, e := range got {
				users = append(users, e.User)
			}
			assert.Equal(t, tt.users, users)
		})
	}
}

func TestEntriesForDateResolvesLabels(t *testing.T) {
	s := memory.New()
	f := storetest.Seed(t, s)
	day := core.NewDate(2024, 3, 4)
	w := logHours(t, s, f.Alice.ID, f.G1.ID, f.Drawings.ID, 7.5, day)

	got, err := NewCalendarQueryService(s).EntriesForDate(context.Background(), day, f.Alice)
	require.NoError(t, err)
	require.Len(t, got, 1)

	e := got[0]
	assert.Equal(t, w.ID, e.EntryID)
	assert.Equal(t, "alice", e.User)
	assert.Equal(t, "1101000-120", e.PartNumber)
	assert.Equal(t, "G1", e.UnitName)
	assert.Equal(t, "DLH01", e.Designation)
	assert.Equal(t, "2D drawings", e.Task)
	assert.Equal(t, "7.5 [h]", e.Hours)
}

func TestEntriesForDateUnknownReferences(t *testing.T) {
	s := memory.New()
	f := storetest.Seed(t, s)
	day := core.NewDate(2024, 3, 4)
	logHours(t, s, f.Alice.ID, f.G1.ID, f.Drawings.ID, 4, day)
	logHours(t, s, f.Alice.ID, f.Shared.ID, f.Models.ID, 4, day)

	s.Forget("task", f.Drawings.ID)
	s.Forget("project", f.SWR.ID)

	got, err := NewCalendarQueryService(s).EntriesForDate(context.Background(), day, f.Admin)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, core.UnknownLabel, got[0].Task)
	assert.Equal(t, "DLH01", got[0].Designation)
	assert.Equal(t, "3D models", got[1].Task)
	assert.Equal(t, core.UnknownLabel, got[1].Designation)
	assert.Equal(t, "G1 (SWR)", got[1].UnitName)

	s.Forget("user", f.Alice.ID)
	s.Forget("unit", f.G1.ID)
	got, err = NewCalendarQueryService(s).EntriesForDate(context.Background(), day, f.Admin)
	require.NoError(t, err)
	assert.Equal(t, core.UnknownLabel, got[0].User)
	assert.Equal(t, core.UnknownLabel, got[0].PartNumber)
	assert.Equal(t, core.UnknownLabel, got[0].Designation)
}

func TestEntriesForDateEmptyAndOrdered(t *testing.T) {
	s := memory.New()
	f := storetest.Seed(t, s)
	svc := NewCalendarQueryService(s)
	ctx := context.Background()

	got, err := svc.EntriesForDate(ctx, core.NewDate(2024, 1, 1), f.Admin)
	require.NoError(t, err)
	assert.Empty(t, got)

	day := core.NewDate(2024, 6, 10)
	a := logHours(t, s, f.Bob.ID, f.G2.ID, f.Drawings.ID, 1, day)
	b := logHours(t, s, f.Alice.ID, f.G1.ID, f.Drawings.ID, 2, day)
	c := logHours(t, s, f.Alice.ID, f.Shared.ID, f.Drawings.ID, 3, day)

	got, err = svc.EntriesForDate(ctx, day, f.Admin)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{got[0].EntryID, got[1].EntryID, got[2].EntryID})

	_, err = svc.EntriesForDate(ctx, core.Date{}, f.Admin)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestYearCalendar(t *testing.T) {
	s := memory.New()
	f := storetest.Seed(t, s)
	ctx := context.Background()

	// 2024-12-30 sits in the grid of 2024 and in ISO week 1 of 2025.
	logHours(t, s, f.Alice.ID, f.G1.ID, f.Drawings.ID, 2, core.NewDate(2024, 12, 30))
	logHours(t, s, f.Alice.ID, f.G2.ID, f.Drawings.ID, 1.5, core.NewDate(2024, 12, 30))
	logHours(t, s, f.Bob.ID, f.G1.ID, f.Drawings.ID, 4, core.NewDate(2024, 7, 1))
	logHours(t, s, f.Bob.ID, f.G1.ID, f.Drawings.ID, 4, core.NewDate(2023, 6, 1))

	cal, err := NewCalendarQueryService(s).YearCalendar(ctx, 2024, f.Alice)
	require.NoError(t, err)
	assert.Equal(t, 3.5, cal.HoursOn("30/12/2024"))
	assert.Zero(t, cal.HoursOn("01/07/2024"))
	assert.Len(t, cal.Entries, 1)

	cal, err = NewCalendarQueryService(s).YearCalendar(ctx, 2024, f.Admin)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cal.HoursOn("01/07/2024"))
	assert.Len(t, cal.Entries, 2)

	_, err = NewCalendarQueryService(s).YearCalendar(ctx, 0, f.Admin)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
