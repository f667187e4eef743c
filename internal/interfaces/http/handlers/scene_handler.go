package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

// SceneHandler serves stateless scene builds and cached-scene exports.
type SceneHandler struct {
	svc     viewer.Service
	maxBody int64
	logger  logging.Logger
}

// NewSceneHandler creates a SceneHandler. maxBody 0 takes DefaultMaxBodySize.
func NewSceneHandler(svc viewer.Service, maxBody int64, logger logging.Logger) *SceneHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SceneHandler{svc: svc, maxBody: maxBody, logger: logger.Named("scene_handler")}
}

// RegisterRoutes mounts the scene endpoints on r.
func (h *SceneHandler) RegisterRoutes(r chi.Router) {
	r.Post("/scenes", h.BuildScene)
	r.Post("/scenes/{digest}/export", h.ExportScene)
}

// BuildScene handles POST /api/v1/scenes
func (h *SceneHandler) BuildScene(w http.ResponseWriter, r *http.Request) {
	in, aerr := decodeBuildInput(w, r, h.maxBody)
	if aerr != nil {
		writeAppError(w, h.logger, aerr)
		return
	}
	sc, err := h.svc.BuildScene(r.Context(), in)
	if err != nil {
		writeAppError(w, h.logger.WithContext(r.Context()), err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// ExportScene handles POST /api/v1/scenes/{digest}/export
func (h *SceneHandler) ExportScene(w http.ResponseWriter, r *http.Request) {
	digest := chi.URLParam(r, "digest")
	if !isDigest(digest) {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeBadRequest, "digest must be 64 hex characters").WithDetail(digest))
		return
	}
	res, err := h.svc.ExportDigest(r.Context(), digest)
	if err != nil {
		writeAppError(w, h.logger.WithContext(r.Context()), err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func isDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

//Personal.AI order the ending
