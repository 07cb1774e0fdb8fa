package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"pmtrack/internal/core"
	"pmtrack/internal/log"
)

// handleCreateEntry logs hours from a JSON or form body.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	in, err := ParseEntryInput(p)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	user := currentUser(r.Context())
	saved, err := s.backend.Entries.Create(r.Context(), user, in)
	if err != nil {
		s.fail(w, r, "Create worked hours failed", err)
		return
	}
	s.invalidateOverview()

	log.FromContext(r.Context()).Info("Worked hours created",
		log.FieldEntryID, saved.ID,
		"unit_id", saved.UnitID,
		"date_of_work", saved.DateOfWork.ISO(),
		"amount", saved.Amount)

	summary, err := s.backend.Entries.Get(r.Context(), user, saved.ID)
	if err != nil {
		s.fail(w, r, "Read created worked hours failed", err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/"+strconv.FormatInt(saved.ID, 10)).
		JSON(newEntryView(summary)).
		Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		FromError(err).Write(w)
		return
	}
	summary, err := s.backend.Entries.Get(r.Context(), currentUser(r.Context()), id)
	if err != nil {
		s.fail(w, r, "Get worked hours failed", err)
		return
	}
	NewResponse().JSON(newEntryView(summary)).Write(w)
}

// handleUpdateEntry changes the amount of an entry; the body carries "hours".
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		FromError(err).Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("malformed request body").Write(w)
		return
	}
	amount, err := core.ParseHours(p.Get("hours"))
	if err != nil {
		FromError(err).Write(w)
		return
	}

	user := currentUser(r.Context())
	if err := s.backend.Entries.UpdateAmount(r.Context(), user, id, amount); err != nil {
		s.fail(w, r, "Update worked hours failed", err)
		return
	}
	s.invalidateOverview()

	summary, err := s.backend.Entries.Get(r.Context(), user, id)
	if err != nil {
		s.fail(w, r, "Read updated worked hours failed", err)
		return
	}
	NewResponse().JSON(newEntryView(summary)).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "id")
	if err != nil {
		FromError(err).Write(w)
		return
	}
	if err := s.backend.Entries.Delete(r.Context(), currentUser(r.Context()), id); err != nil {
		s.fail(w, r, "Delete worked hours failed", err)
		return
	}
	s.invalidateOverview()

	log.FromContext(r.Context()).Info("Worked hours deleted", log.FieldEntryID, id)
	NewResponse().Status(http.StatusNoContent).Write(w)
}
