// Package api exposes the board service over HTTP and websockets.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/pizarra/internal/adapters/http/swagger"
	"github.com/okian/pizarra/internal/adapters/persistence"
	"github.com/okian/pizarra/internal/adapters/storage"
	service "github.com/okian/pizarra/internal/app"
	"github.com/okian/pizarra/internal/domain/board"
	"github.com/okian/pizarra/internal/domain/drag"
	"github.com/okian/pizarra/internal/domain/model"
	"github.com/okian/pizarra/internal/domain/rating"
	"github.com/okian/pizarra/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Profiles(ctx context.Context) []model.Player
	UpsertProfile(ctx context.Context, p model.Player) (model.Player, error)

	Events(ctx context.Context) ([]model.Event, error)
	Event(ctx context.Context, id string) (model.Event, error)
	CreateEvent(ctx context.Context, ev model.Event) (model.Event, error)
	SetAttendance(ctx context.Context, eventID, playerID string, attending bool) (model.Event, error)
	Comments(ctx context.Context, eventID string) ([]model.Comment, error)
	AddComment(ctx context.Context, c model.Comment) (model.Comment, error)
	Ratings(ctx context.Context, eventID string) ([]service.RatingSummary, error)
	Rate(ctx context.Context, r model.Rating) (model.Rating, error)

	OpenSession(ctx context.Context) *service.Session
	Session(id string) (*service.Session, error)
	CloseSession(ctx context.Context, id string) error

	GetStats() map[string]any
}

// Server wires HTTP routes for the board API.
type Server struct {
	deps         Dependencies
	log          logger.Logger
	writeTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		log:          logger.Nop(),
		writeTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the router with every endpoint registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", handleMetrics)
	r.Get("/stats", s.handleStats)
	swagger.Register(context.Background(), r)

	r.Route("/profiles", func(r chi.Router) {
		r.Get("/", s.handleListProfiles)
		r.Put("/{playerID}", s.handleUpsertProfile)
	})

	r.Route("/events", func(r chi.Router) {
		r.Get("/", s.handleListEvents)
		r.Post("/", s.handleCreateEvent)
		r.Get("/{eventID}", s.handleGetEvent)
		r.Post("/{eventID}/attendance", s.handleAttendance)
		r.Get("/{eventID}/comments", s.handleListComments)
		r.Post("/{eventID}/comments", s.handleAddComment)
		r.Get("/{eventID}/ratings", s.handleListRatings)
		r.Post("/{eventID}/ratings", s.handleRate)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleOpenSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Delete("/", s.handleCloseSession)
			r.Post("/activate", s.handleActivate)
			r.Get("/board", s.handleBoard)
			r.Put("/surface", s.handleSurface)
			r.Post("/selection/toggle", s.handleToggle)
			r.Post("/selection/seed", s.handleSeed)
			r.Put("/formation", s.handleFormation)
			r.Post("/drag/{phase}", s.handleDrag)
			r.Post("/save", s.handleSave)
			r.Get("/ws", s.handleWebsocket)
		})
	})
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a service error onto a status code.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, persistence.ErrTransientStore):
		return http.StatusBadGateway, "store_unavailable"
	case errors.Is(err, board.ErrCapacity):
		return http.StatusConflict, "capacity"
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionClosed):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrNotReady),
		errors.Is(err, service.ErrStaleEvent),
		errors.Is(err, drag.ErrAlreadyDragging),
		errors.Is(err, drag.ErrNotDragging),
		errors.Is(err, drag.ErrSurfaceUnmeasured),
		errors.Is(err, storage.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNoActiveEvent),
		errors.Is(err, drag.ErrUnknownInput),
		errors.Is(err, drag.ErrMissingTouchPoints),
		errors.Is(err, rating.ErrInvalidStars),
		errors.Is(err, rating.ErrSelfRating),
		errors.Is(err, rating.ErrMissingField):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v as is.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
