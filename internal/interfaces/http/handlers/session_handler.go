package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

// SessionHandler exposes viewer sessions: one current scene per session,
// replaced by each successful load.
type SessionHandler struct {
	registry *viewer.SessionRegistry
	svc      viewer.Service
	maxBody  int64
	logger   logging.Logger
}

// NewSessionHandler creates a SessionHandler. svc is used for exports.
func NewSessionHandler(registry *viewer.SessionRegistry, svc viewer.Service, maxBody int64, logger logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SessionHandler{registry: registry, svc: svc, maxBody: maxBody, logger: logger.Named("session_handler")}
}

// SessionResponse describes an open session.
type SessionResponse struct {
	ID       string    `json:"id"`
	LastUsed time.Time `json:"last_used"`
	Loaded   bool      `json:"loaded"`
}

// RegisterRoutes mounts the session endpoints on r.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)
			r.Put("/molecule", h.LoadMolecule)
			r.Get("/scene", h.GetScene)
			r.Post("/export", h.ExportScene)
		})
	})
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Create()
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+s.ID())
	writeJSON(w, http.StatusCreated, SessionResponse{ID: s.ID(), LastUsed: s.LastUsed()})
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	_, loaded := s.Current()
	writeJSON(w, http.StatusOK, SessionResponse{ID: s.ID(), LastUsed: s.LastUsed(), Loaded: loaded})
}

// CloseSession handles DELETE /api/v1/sessions/{id}
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Close(chi.URLParam(r, "id")); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadMolecule handles PUT /api/v1/sessions/{id}/molecule. A rejected record
// leaves the session's current scene in place.
func (h *SessionHandler) LoadMolecule(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	in, aerr := decodeBuildInput(w, r, h.maxBody)
	if aerr != nil {
		writeAppError(w, h.logger, aerr)
		return
	}
	sc, err := s.Load(r.Context(), in)
	if err != nil {
		writeAppError(w, h.logger.WithContext(r.Context()), err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// GetScene handles GET /api/v1/sessions/{id}/scene
func (h *SessionHandler) GetScene(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	sc, loaded := s.Current()
	if !loaded {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeSceneNotFound, "no molecule loaded").WithDetail("session="+s.ID()))
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// ExportScene handles POST /api/v1/sessions/{id}/export
func (h *SessionHandler) ExportScene(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	sc, record, loaded := s.Snapshot()
	if !loaded {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeSceneNotFound, "no molecule loaded").WithDetail("session="+s.ID()))
		return
	}
	res, err := h.svc.ExportScene(r.Context(), sc, record)
	if err != nil {
		writeAppError(w, h.logger.WithContext(r.Context()), err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*viewer.ViewerSession, bool) {
	s, err := h.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return nil, false
	}
	return s, true
}

//Personal.AI order the ending
