package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtrack/internal/core"
)

func TestParseDateToken(t *testing.T) {
	tok, err := ParseDateToken("01/05/2024")
	require.NoError(t, err)
	assert.Equal(t, "01", tok.Day)
	assert.Equal(t, "05", tok.Month)
	assert.Equal(t, "2024", tok.Year)
	assert.Equal(t, 18, tok.WeekNumber)
	assert.Equal(t, time.Wednesday, tok.Weekday)
	assert.Equal(t, "01/05/2024", tok.Canonical)
	assert.Equal(t, core.NewDate(2024, 5, 1), tok.Date)
}

func TestParseDateTokenPadsShortForm(t *testing.T) {
	tok, err := ParseDateToken(" 1/2/2024 ")
	require.NoError(t, err)
	assert.Equal(t, "01", tok.Day)
	assert.Equal(t, "02", tok.Month)
	assert.Equal(t, "01/02/2024", tok.Canonical)
}

func TestParseDateTokenMalformed(t *testing.T) {
	bads := []string{
		"31/02/2024",
		"29/02/2023",
		"32/01/2024",
		"00/01/2024",
		"01/13/2024",
		"01/00/2024",
		"01/01/24",
		"01/01/0000",
		"2024-01-01",
		"01-01-2024",
		"a1/01/2024",
		"001/01/2024",
		"01/01/2024/1",
		"",
	}
	for _, in := range bads {
		_, err := ParseDateToken(in)
		assert.ErrorIs(t, err, core.ErrMalformedDate, "token %q", in)
	}
}

func TestParseDateTokenRoundTrip(t *testing.T) {
	start := time.Date(2023, 12, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		d := start.AddDate(0, 0, i)
		tok, err := ParseDateToken(FormatDate(d))
		require.NoError(t, err)
		assert.True(t, tok.Date.Equal(d), "round trip %s", FormatDate(d))
		assert.Equal(t, WeekNumber(d), tok.WeekNumber)
	}
}

func TestParseDateTokenMatchesGrid(t *testing.T) {
	g, err := BuildYearGrid(2025)
	require.NoError(t, err)
	for _, d := range g.Days {
		tok, err := ParseDateToken(d.Key)
		require.NoError(t, err)
		assert.Equal(t, d.WeekNumber, tok.WeekNumber, d.Key)
		assert.Equal(t, d.Weekday, tok.Weekday, d.Key)
	}
}

func TestWriteReport(t *testing.T) {
	g, err := BuildYearGrid(2024)
	require.NoError(t, err)
	tok, err := ParseDateToken("29/02/2024")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, g, tok))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header, 53 weeks, blank line, token line
	assert.Len(t, lines, 1+53+2)
	assert.Contains(t, lines[0], "Monday")
	assert.Contains(t, lines[1], "2024-W01")
	assert.Contains(t, out, "day=29 month=02 year=2024 week=9 weekday=Thursday date=29/02/2024")
}
