package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/turtacn/molscope/pkg/errors"
)

// Session describes an open viewer session.
type Session struct {
	ID       string    `json:"id"`
	LastUsed time.Time `json:"last_used"`
	Loaded   bool      `json:"loaded"`
}

// SessionsClient covers the /sessions endpoints.
type SessionsClient struct {
	client *Client
}

func sessionPath(id string) string {
	return apiPrefix + "/sessions/" + url.PathEscape(id)
}

func requireID(id string) error {
	if id == "" {
		return errors.New(errors.ErrCodeValidation, "session id is required")
	}
	return nil
}

// Create opens a new session.
func (s *SessionsClient) Create(ctx context.Context) (*Session, error) {
	var out Session
	if err := s.client.do(ctx, http.MethodPost, apiPrefix+"/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get describes session id.
func (s *SessionsClient) Get(ctx context.Context, id string) (*Session, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out Session
	if err := s.client.do(ctx, http.MethodGet, sessionPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Load replaces the session's scene. A rejected record leaves the previous
// scene current on the server.
func (s *SessionsClient) Load(ctx context.Context, id string, req *BuildRequest) (*Scene, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	var sc Scene
	if err := s.client.do(ctx, http.MethodPut, sessionPath(id)+"/molecule", req, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Scene returns the session's current scene.
func (s *SessionsClient) Scene(ctx context.Context, id string) (*Scene, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var sc Scene
	if err := s.client.do(ctx, http.MethodGet, sessionPath(id)+"/scene", nil, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Export archives the session's current scene.
func (s *SessionsClient) Export(ctx context.Context, id string) (*Archive, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var a Archive
	if err := s.client.do(ctx, http.MethodPost, sessionPath(id)+"/export", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Close ends the session.
func (s *SessionsClient) Close(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodDelete, sessionPath(id), nil, nil)
}

//Personal.AI order the ending
