package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtrack/internal/core"
	"pmtrack/internal/store"
	"pmtrack/internal/store/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestProjectsDoNotShareState(t *testing.T) {
	ctx := context.Background()
	s := New()
	rate, hours := 90.0, 100.0
	in := core.Project{Designation: "HOV-1", Budget: 1000, Rate: &rate, HourBudget: &hours}

	created, err := s.CreateProject(ctx, in)
	require.NoError(t, err)
	rate, hours = 1, 1
	*created.Rate = 2

	found, err := s.FindProject(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 90.0, *found.Rate)
	assert.Equal(t, 100.0, *found.HourBudget)

	*found.Rate = 3
	require.NoError(t, s.DeactivateProject(ctx, created.ID, time.Now().Add(time.Hour)))
	byName, err := s.FindProjectByDesignation(ctx, "HOV-1")
	require.NoError(t, err)
	require.NotNil(t, byName)
	*byName.DeactivatedAt = time.Time{}

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 90.0, *list[0].Rate)
	require.NotNil(t, list[0].DeactivatedAt)
	assert.False(t, list[0].DeactivatedAt.IsZero())
}
