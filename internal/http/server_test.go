package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtrack/internal/aggregation"
	"pmtrack/internal/backend"
	"pmtrack/internal/core"
	"pmtrack/internal/services"
	"pmtrack/internal/store/memory"
	"pmtrack/internal/store/storetest"
)

type testEnv struct {
	srv   *Server
	store *memory.Store
	f     storetest.Fixture
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := memory.New()
	f := storetest.Seed(t, s)
	b := &backend.Backend{
		Store:       s,
		Entries:     services.NewTimeEntryService(s, nil),
		Calendar:    services.NewCalendarQueryService(s),
		Aggregation: aggregation.NewEngine(s),
	}
	srv := NewServer(Options{
		Addr:             ":0",
		Backend:          b,
		Registry:         prometheus.NewRegistry(),
		OverviewCacheTTL: time.Minute,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: s, f: f}
}

func (e *testEnv) do(t *testing.T, method, path string, user *core.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if user != nil {
		req.Header.Set(HeaderUserID, strconv.FormatInt(user.ID, 10))
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"), path)
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"), path)
	}

	rr := env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `pmtrack_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestUnknownRouteIsJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rr).Kind)

	rr = env.do(t, http.MethodPut, "/api/entries", &env.f.Admin, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCalendarRoutes(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/calendar/2025", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	grid := decode[gridView](t, rr)
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, "2024-12-30", grid.Start)
	assert.Equal(t, "2026-01-04", grid.End)
	require.NotEmpty(t, grid.Weeks)
	first := grid.Weeks[0][0]
	assert.Equal(t, "30/12/2024", first.Key)
	assert.Equal(t, 1, first.WeekNumber)
	assert.Equal(t, 2025, first.WeekYear)
	assert.False(t, first.InYear)
	assert.Equal(t, "Monday", first.Weekday)

	rr = env.do(t, http.MethodGet, "/api/calendar", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, time.Now().Year(), decode[gridView](t, rr).Year)

	for _, year := range []string{"0", "9999", "abc"} {
		rr = env.do(t, http.MethodGet, "/api/calendar/"+year, nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, year)
		assert.Equal(t, "invalid_argument", decode[errorBody](t, rr).Kind, year)
	}
}

func TestParseDateRoute(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/dates/parse?token=3/1/2024", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	tok := decode[tokenView](t, rr)
	assert.Equal(t, "03", tok.Day)
	assert.Equal(t, "01", tok.Month)
	assert.Equal(t, "2024", tok.Year)
	assert.Equal(t, 1, tok.WeekNumber)
	assert.Equal(t, "03/01/2024", tok.Canonical)
	assert.Equal(t, "Wednesday", tok.Weekday)

	for _, token := range []string{"31/02/2024", "2024-01-03", ""} {
		rr = env.do(t, http.MethodGet, "/api/dates/parse?token="+token, nil, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, token)
		assert.Equal(t, "malformed_date", decode[errorBody](t, rr).Kind, token)
	}
}

func TestIdentityRequired(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/entries", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	ghost := core.User{ID: 999}
	rr = env.do(t, http.MethodGet, "/api/entries", &ghost, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "unauthenticated", decode[errorBody](t, rr).Kind)
}

func TestEntryLifecycle(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	body := "unit_id=" + strconv.FormatInt(f.G1.ID, 10) +
		"&task_id=" + strconv.FormatInt(f.Drawings.ID, 10) +
		"&hours=7,5&date=04/03/2024"

	rr := env.do(t, http.MethodPost, "/api/entries", &f.Alice, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[entryView](t, rr)
	assert.Equal(t, "alice", created.User)
	assert.Equal(t, "DLH01", created.Designation)
	assert.Equal(t, "G1", created.Unit)
	assert.Equal(t, "2D drawings", created.Task)
	assert.Equal(t, "7.5 [h]", created.Hours)
	assert.Equal(t, "2024-03-04", created.Date)
	entryPath := "/api/entries/" + strconv.FormatInt(created.ID, 10)
	assert.Equal(t, entryPath, rr.Header().Get("Location"))

	rr = env.do(t, http.MethodPost, "/api/entries", &f.Bob, body)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "conflict", decode[errorBody](t, rr).Kind)

	type dayList struct {
		Entries []entryView `json:"entries"`
		Week    int         `json:"week"`
	}
	rr = env.do(t, http.MethodGet, "/api/entries?date=04/03/2024", &f.Bob, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[dayList](t, rr).Entries)

	rr = env.do(t, http.MethodGet, "/api/entries?date=2024-03-04", &f.Admin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[dayList](t, rr)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, 10, list.Week)

	rr = env.do(t, http.MethodGet, entryPath, &f.Bob, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPatch, entryPath, &f.Bob, `{"hours": 6}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPatch, entryPath, &f.Alice, `{"hours": 13}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPatch, entryPath, &f.Alice, `{"hours": 6}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 6.0, decode[entryView](t, rr).Amount)

	rr = env.do(t, http.MethodDelete, entryPath, &f.Alice, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(t, http.MethodGet, entryPath, &f.Admin, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateEntryRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	f := env.f

	rr := env.do(t, http.MethodPost, "/api/entries", &f.Alice, `{"unit_id": 999, "task_id": 1, "hours": 1, "date": "2024-03-04"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPost, "/api/entries", &f.Alice, `{"unit_id": 1, "task_id": 1, "hours": 1, "date": "30/02/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "malformed_date", decode[errorBody](t, rr).Kind)

	rr = env.do(t, http.MethodPost, "/api/entries", &f.Alice, `{"unit_id": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCostRoutes(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()

	for _, w := range []core.WorkedHours{
		{UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 5, DateOfWork: core.NewDate(2024, 3, 4)},
		{UserID: f.Bob.ID, UnitID: f.Shared.ID, TaskID: f.Models.ID, Amount: 2.5, DateOfWork: core.NewDate(2024, 3, 4)},
	} {
		_, err := env.store.InsertWorkedHours(ctx, w)
		require.NoError(t, err)
	}

	rr := env.do(t, http.MethodGet, "/api/projects/"+strconv.FormatInt(f.DLH.ID, 10)+"/cost", &f.Admin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	cost := decode[costView](t, rr)
	assert.Equal(t, 5.0, cost.Hours)
	assert.Equal(t, 600.0, cost.Cost)
	assert.Equal(t, 0.3, cost.Ratio)

	rr = env.do(t, http.MethodGet, "/api/projects/999/cost", &f.Admin, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/units/1101000-120/hours", &f.Admin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	hours := decode[map[string]any](t, rr)
	assert.Equal(t, 7.5, hours["hours"])
	assert.Equal(t, "7.5 [h]", hours["formatted"])

	rr = env.do(t, http.MethodGet, "/api/units/unknown/hours", &f.Admin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0.0, decode[map[string]any](t, rr)["hours"])
}

func TestOverviewIsCachedUntilWrite(t *testing.T) {
	env := newTestEnv(t)
	f := env.f

	rr := env.do(t, http.MethodGet, "/api/overview", &f.Admin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	ov := decode[overviewView](t, rr)
	assert.Equal(t, 350000.0, ov.Totals.Budget)
	assert.Equal(t, "350,000", ov.Display.Budget)
	assert.Len(t, ov.Projects, 2)
	assert.Zero(t, ov.Totals.Cost)

	rr = env.do(t, http.MethodGet, "/api/overview", &f.Admin, "")
	require.Equal(t, http.StatusOK, rr.Code)

	body := "unit_id=" + strconv.FormatInt(f.G1.ID, 10) +
		"&task_id=" + strconv.FormatInt(f.Drawings.ID, 10) + "&hours=10&date=2024-03-04"
	rr = env.do(t, http.MethodPost, "/api/entries", &f.Alice, body)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/overview", &f.Admin, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1200.0, decode[overviewView](t, rr).Totals.Cost)

	metrics := env.do(t, http.MethodGet, "/metrics", nil, "").Body.String()
	assert.Contains(t, metrics, `pmtrack_cache_lookups_total{cache="overview",result="hit"} 1`)
	assert.Contains(t, metrics, `pmtrack_cache_lookups_total{cache="overview",result="miss"} 2`)
}

func TestYearEntriesRoute(t *testing.T) {
	env := newTestEnv(t)
	f := env.f

	_, err := env.store.InsertWorkedHours(context.Background(), core.WorkedHours{
		UserID: f.Alice.ID, UnitID: f.G1.ID, TaskID: f.Drawings.ID, Amount: 3.5, DateOfWork: core.NewDate(2024, 12, 30),
	})
	require.NoError(t, err)

	rr := env.do(t, http.MethodGet, "/api/calendar/2025/entries", &f.Alice, "")
	require.Equal(t, http.StatusOK, rr.Code)
	cal := decode[yearCalendarView](t, rr)
	first := cal.Weeks[0][0]
	assert.Equal(t, "30/12/2024", first.Key)
	assert.Equal(t, 3.5, first.Hours)
	require.Len(t, first.Entries, 1)

	rr = env.do(t, http.MethodGet, "/api/calendar/2025/entries", &f.Bob, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, decode[yearCalendarView](t, rr).Weeks[0][0].Hours)
}
