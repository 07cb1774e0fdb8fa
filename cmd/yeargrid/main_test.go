package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtrack/internal/core"
)

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestYearGridReport(t *testing.T) {
	out, err := run("2025", "3/1/2025")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-W01")
	assert.Contains(t, out, "30/12/2024")
	assert.Contains(t, out, "04/01/2026")
	assert.Contains(t, out, "day=03 month=01 year=2025 week=1 weekday=Friday date=03/01/2025")
}

func TestYearGridErrors(t *testing.T) {
	_, err := run("2025")
	assert.Error(t, err)

	_, err = run("twenty", "01/01/2025")
	assert.Error(t, err)

	_, err = run("0", "01/01/2025")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = run("2025", "31/02/2025")
	assert.ErrorIs(t, err, core.ErrMalformedDate)
}
