package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pmtrack/internal/core"
)

func (s *Server) handleProjectCost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		FromError(err).Write(w)
		return
	}
	pc, err := s.backend.Aggregation.CostForProject(r.Context(), id)
	if err != nil {
		s.fail(w, r, "Project cost failed", err)
		return
	}
	NewResponse().JSON(newCostView(pc)).Write(w)
}

// handleUnitHours sums the hours of every unit sharing a part number.
func (s *Server) handleUnitHours(w http.ResponseWriter, r *http.Request) {
	pn := strings.TrimSpace(chi.URLParam(r, "partNumber"))
	if pn == "" {
		FromError(core.ErrEmptyPartNumber).Write(w)
		return
	}
	hours, err := s.backend.Aggregation.TotalHoursForPartNumber(r.Context(), pn)
	if err != nil {
		s.fail(w, r, "Part number hours failed", err)
		return
	}
	NewResponse().JSON(map[string]any{
		"part_number": pn,
		"hours":       hours,
		"formatted":   core.FormatHours(hours),
	}).Write(w)
}

// handleOverview returns organisation totals and per-project rollups. The
// result is cached until the next write or the cache TTL.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	var (
		view overviewView
		err  error
	)
	if s.overview == nil {
		view, err = s.loadOverview(r.Context())
	} else {
		var hit bool
		view, hit, err = s.overview.GetOrLoad(r.Context(), overviewKey, s.loadOverview)
		if err == nil {
			s.metrics.CacheLookup(overviewKey, hit)
		}
	}
	if err != nil {
		s.fail(w, r, "Overview failed", err)
		return
	}
	NewResponse().JSON(view).Write(w)
}

func (s *Server) loadOverview(ctx context.Context) (overviewView, error) {
	totals, err := s.backend.Aggregation.OrganizationTotals(ctx)
	if err != nil {
		return overviewView{}, err
	}
	rollups, err := s.backend.Aggregation.ProjectRollups(ctx)
	if err != nil {
		return overviewView{}, err
	}
	return newOverviewView(totals, rollups), nil
}
