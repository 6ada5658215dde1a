package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	service "github.com/okian/pizarra/internal/app"
	"github.com/okian/pizarra/internal/domain/drag"
	"github.com/okian/pizarra/internal/domain/model"
)

// session resolves {sessionID} or writes the failure.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := s.deps.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeFailure(w, r, err)
		return nil, false
	}
	return sess, true
}

type openSessionResponse struct {
	SessionID string           `json:"session_id"`
	Board     service.Snapshot `json:"board"`
}

// handleOpenSession handles POST /sessions.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	sess := s.deps.OpenSession(r.Context())
	writeJSON(w, http.StatusCreated, openSessionResponse{SessionID: sess.ID(), Board: sess.Snapshot()})
}

// handleCloseSession handles DELETE /sessions/{sessionID}.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.CloseSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type activateRequest struct {
	EventID string `json:"event_id"`
}

// handleActivate handles POST /sessions/{sessionID}/activate. It returns once
// the event's board is loaded.
func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req activateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.EventID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing event_id", ErrBadRequest))
		return
	}
	snap, err := sess.Activate(r.Context(), req.EventID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleBoard handles GET /sessions/{sessionID}/board.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

type surfaceResponse struct {
	Outcome string           `json:"outcome"`
	Board   service.Snapshot `json:"board"`
}

// handleSurface handles PUT /sessions/{sessionID}/surface.
func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var size model.Surface
	if err := decodeJSON(r, &size); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := checkSurface(size); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	outcome, snap := sess.Resize(size)
	writeJSON(w, http.StatusOK, surfaceResponse{Outcome: outcome.String(), Board: snap})
}

func checkSurface(size model.Surface) error {
	if size.Width < 0 || size.Height < 0 {
		return fmt.Errorf("%w: negative surface", ErrBadRequest)
	}
	return nil
}

type toggleRequest struct {
	PlayerID string `json:"player_id"`
}

type toggleResponse struct {
	Selected bool             `json:"selected"`
	Board    service.Snapshot `json:"board"`
}

// handleToggle handles POST /sessions/{sessionID}/selection/toggle.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	selected, snap, err := sess.Toggle(r.Context(), req.PlayerID)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Selected: selected, Board: snap})
}

// handleSeed handles POST /sessions/{sessionID}/selection/seed.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snap, err := sess.SeedFromAttendees(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type formationRequest struct {
	Label string `json:"label"`
}

// handleFormation handles PUT /sessions/{sessionID}/formation.
func (s *Server) handleFormation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req formationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	snap, err := sess.SetFormation(req.Label)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDrag handles POST /sessions/{sessionID}/drag/{phase}.
func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var ev drag.InputEvent
	if err := decodeJSON(r, &ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	ev.Phase = drag.Phase(chi.URLParam(r, "phase"))
	res, err := sess.Drag(withDefaultInput(ev))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// withDefaultInput treats events without an input kind as pointer events.
func withDefaultInput(ev drag.InputEvent) drag.InputEvent {
	if ev.Kind == "" {
		ev.Kind = drag.KindPointer
	}
	return ev
}

// handleSave handles POST /sessions/{sessionID}/save.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	out, err := sess.Save(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
