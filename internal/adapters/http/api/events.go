package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/pizarra/internal/domain/model"
)

// handleListProfiles handles GET /profiles.
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Profiles(r.Context()))
}

// handleUpsertProfile handles PUT /profiles/{playerID}.
func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var p model.Player
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	p.ID = chi.URLParam(r, "playerID")
	out, err := s.deps.UpsertProfile(r.Context(), p)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListEvents handles GET /events.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.deps.Events(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleGetEvent handles GET /events/{eventID}.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.deps.Event(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleCreateEvent handles POST /events.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var ev model.Event
	if err := decodeJSON(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	out, err := s.deps.CreateEvent(r.Context(), ev)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

type attendanceRequest struct {
	PlayerID  string `json:"player_id"`
	Attending *bool  `json:"attending"`
}

// handleAttendance handles POST /events/{eventID}/attendance.
func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" || req.Attending == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: player_id and attending are required", ErrBadRequest))
		return
	}
	ev, err := s.deps.SetAttendance(r.Context(), chi.URLParam(r, "eventID"), req.PlayerID, *req.Attending)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleListComments handles GET /events/{eventID}/comments.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	cs, err := s.deps.Comments(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if cs == nil {
		cs = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, cs)
}

// handleAddComment handles POST /events/{eventID}/comments.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var c model.Comment
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	c.EventID = chi.URLParam(r, "eventID")
	out, err := s.deps.AddComment(r.Context(), c)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// handleListRatings handles GET /events/{eventID}/ratings.
func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	sums, err := s.deps.Ratings(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sums)
}

// handleRate handles POST /events/{eventID}/ratings.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var rt model.Rating
	if err := decodeJSON(r, &rt); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rt.EventID = chi.URLParam(r, "eventID")
	out, err := s.deps.Rate(r.Context(), rt)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
