package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/domain/scene"
	"github.com/turtacn/molscope/internal/infrastructure/storage/minio"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

// mockService is a testify double for viewer.Service.
type mockService struct {
	mock.Mock
}

func (m *mockService) BuildScene(ctx context.Context, input *viewer.BuildInput) (*viewer.Scene, error) {
	args := m.Called(ctx, input)
	sc, _ := args.Get(0).(*viewer.Scene)
	return sc, args.Error(1)
}

func (m *mockService) Convert(ctx context.Context, smiles string) (string, error) {
	args := m.Called(ctx, smiles)
	return args.String(0), args.Error(1)
}

func (m *mockService) ExportDigest(ctx context.Context, digest string) (*minio.ArchiveResult, error) {
	args := m.Called(ctx, digest)
	res, _ := args.Get(0).(*minio.ArchiveResult)
	return res, args.Error(1)
}

func (m *mockService) ExportScene(ctx context.Context, sc *viewer.Scene, record string) (*minio.ArchiveResult, error) {
	args := m.Called(ctx, sc, record)
	res, _ := args.Get(0).(*minio.ArchiveResult)
	return res, args.Error(1)
}

func (m *mockService) UpdateRender(ctx context.Context, opts viewer.Options) error {
	return m.Called(ctx, opts).Error(0)
}

func (m *mockService) Frame(bounds geometry.Box, fov float64) scene.CameraPose {
	args := m.Called(bounds, fov)
	pose, _ := args.Get(0).(scene.CameraPose)
	return pose
}

func (m *mockService) Ready(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var _ viewer.Service = (*mockService)(nil)

type registrar interface {
	RegisterRoutes(r chi.Router)
}

// mount serves h under /api/v1 the way the router does.
func mount(h registrar) chi.Router {
	r := chi.NewRouter()
	r.Route("/api/v1", h.RegisterRoutes)
	return r
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func decodeScene(t *testing.T, rec *httptest.ResponseRecorder) *viewer.Scene {
	t.Helper()
	var sc viewer.Scene
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sc), rec.Body.String())
	return &sc
}

//Personal.AI order the ending
