package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtrack/internal/core"
)

func TestBuildYearGridShape(t *testing.T) {
	for _, year := range []int{1, 1900, 2000, 2020, 2021, 2023, 2024, 2025, 2026, 2100, 9998} {
		g, err := BuildYearGrid(year)
		require.NoError(t, err, "year %d", year)

		assert.Equal(t, time.Monday, g.Days[0].Weekday, "year %d start", year)
		assert.Equal(t, time.Sunday, g.Days[g.Len()-1].Weekday, "year %d end", year)
		assert.Zero(t, g.Len()%7, "year %d size", year)

		seen := make(map[string]int)
		for _, d := range g.Days {
			seen[d.Key]++
		}
		for d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
			require.Equal(t, 1, seen[FormatDate(d)], "year %d missing or duplicate %s", year, FormatDate(d))
		}
	}
}

func TestBuildYearGridBoundaries(t *testing.T) {
	cases := []struct {
		year      int
		start     string
		end       string
		startWeek int
		startWY   int
		size      int
	}{
		{2024, "01/01/2024", "05/01/2025", 1, 2024, 371},
		{2025, "30/12/2024", "04/01/2026", 1, 2025, 371},
		{2021, "28/12/2020", "02/01/2022", 53, 2020, 371},
		{2023, "26/12/2022", "31/12/2023", 52, 2022, 371},
	}
	for _, tc := range cases {
		g, err := BuildYearGrid(tc.year)
		require.NoError(t, err)
		first := g.Days[0]
		assert.Equal(t, tc.start, first.Key)
		assert.Equal(t, tc.end, g.Days[g.Len()-1].Key)
		assert.Equal(t, tc.startWeek, first.WeekNumber)
		assert.Equal(t, tc.startWY, first.WeekYear)
		assert.Equal(t, tc.size, g.Len())
		assert.Equal(t, first.Date, g.Start())
	}
}

func TestBuildYearGridInvalidYear(t *testing.T) {
	for _, year := range []int{0, -1, 9999, 10000} {
		_, err := BuildYearGrid(year)
		assert.ErrorIs(t, err, core.ErrInvalidArgument, "year %d", year)
	}
}

func TestYearGridLookupAndWeeks(t *testing.T) {
	g, err := BuildYearGrid(2024)
	require.NoError(t, err)

	d, ok := g.Lookup("29/02/2024")
	require.True(t, ok)
	assert.Equal(t, "Thursday", d.WeekdayName())
	assert.Equal(t, 9, d.WeekNumber)
	assert.True(t, d.InYear(2024))

	pad, ok := g.Lookup("05/01/2025")
	require.True(t, ok)
	assert.False(t, pad.InYear(2024))

	_, ok = g.Lookup("06/01/2025")
	assert.False(t, ok)

	weeks := g.Weeks()
	require.Len(t, weeks, 53)
	for _, w := range weeks {
		require.Len(t, w, 7)
		assert.Equal(t, time.Monday, w[0].Weekday)
		assert.Equal(t, w[0].WeekNumber, w[6].WeekNumber)
	}
}

func TestBuildCurrentYearGrid(t *testing.T) {
	g, err := BuildCurrentYearGrid(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2026, g.Year)
	assert.Equal(t, "29/12/2025", g.Days[0].Key)
}

func TestWeekNumber(t *testing.T) {
	assert.Equal(t, 1, WeekNumber(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 53, WeekNumber(time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 18, WeekNumber(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
}
