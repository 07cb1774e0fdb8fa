package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"pmtrack/internal/calendar"
	"pmtrack/internal/core"
	"pmtrack/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
		"security":     map[string]any{"suspicious_requests": s.detector.Suspicious()},
		"amqp":         s.backend.AMQPEnabled,
	}
	if err := s.backend.Store.Ping(ctx); err != nil {
		log.FromContext(ctx).Error("Readiness check failed", "error", err)
		checks["store"] = "failed"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}
	if s.overview != nil {
		checks["overview_cache_entries"] = s.overview.Size()
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleCurrentCalendar(w http.ResponseWriter, r *http.Request) {
	grid, err := calendar.BuildCurrentYearGrid(time.Now())
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewResponse().JSON(newGridView(grid)).Write(w)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(chi.URLParam(r, "year"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	grid, err := calendar.BuildYearGrid(year)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewResponse().JSON(newGridView(grid)).Write(w)
}

func (s *Server) handleParseDate(w http.ResponseWriter, r *http.Request) {
	tok, err := calendar.ParseDateToken(r.URL.Query().Get("token"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewResponse().JSON(newTokenView(tok)).Write(w)
}

func (s *Server) handleYearEntries(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(chi.URLParam(r, "year"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	cal, err := s.backend.Calendar.YearCalendar(r.Context(), year, currentUser(r.Context()))
	if err != nil {
		s.fail(w, r, "Year calendar failed", err)
		return
	}
	NewResponse().JSON(newYearCalendarView(cal)).Write(w)
}

// handleEntriesForDate lists the visible entries of one day, today by default.
func (s *Server) handleEntriesForDate(w http.ResponseWriter, r *http.Request) {
	date := core.DateOf(time.Now())
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		d, err := ParseDay(v)
		if err != nil {
			FromError(err).Write(w)
			return
		}
		date = d
	}
	entries, err := s.backend.Calendar.EntriesForDate(r.Context(), date, currentUser(r.Context()))
	if err != nil {
		s.fail(w, r, "Entries for date failed", err)
		return
	}
	NewResponse().JSON(map[string]any{
		"date":    date.ISO(),
		"key":     calendar.FormatDate(date.Time),
		"week":    calendar.WeekNumber(date.Time),
		"entries": newEntryViews(entries),
	}).Write(w)
}

// fail logs unexpected errors and writes the mapped response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if StatusFor(err) == http.StatusInternalServerError {
		log.FromContext(r.Context()).Error(msg, log.FieldError, err.Error())
	}
	FromError(err).Write(w)
}
