package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/application/viewer"
	apihttp "github.com/turtacn/molscope/internal/interfaces/http"
	"github.com/turtacn/molscope/internal/interfaces/http/handlers"
	"github.com/turtacn/molscope/internal/testutil"
	"github.com/turtacn/molscope/pkg/errors"
)

// newLiveClient serves the real router in-process.
func newLiveClient(t *testing.T) *Client {
	t.Helper()
	svc := viewer.NewService(viewer.DefaultOptions(), viewer.Deps{})
	reg := viewer.NewSessionRegistry(viewer.RegistryConfig{}, svc, nil, nil, nil)
	t.Cleanup(reg.Stop)
	server := httptest.NewServer(apihttp.NewRouter(apihttp.RouterConfig{
		SceneHandler:   handlers.NewSceneHandler(svc, 0, nil),
		SessionHandler: handlers.NewSessionHandler(reg, svc, 0, nil),
		HealthHandler:  handlers.NewHealthHandler("test"),
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithRetryMax(0), WithTimeout(5*time.Second))
	require.NoError(t, err)
	return c
}

func TestSessions_RoundTrip(t *testing.T) {
	c := newLiveClient(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	s, err := c.Sessions().Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	assert.False(t, s.Loaded)

	_, err = c.Sessions().Scene(ctx, s.ID)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrCodeSceneNotFound.String(), apiErr.Code)

	sc, err := c.Sessions().Load(ctx, s.ID, &BuildRequest{MolBlock: testutil.WaterRecord(), FOV: 50})
	require.NoError(t, err)
	assert.Equal(t, "H2O", sc.Composition.Formula)
	assert.Len(t, sc.Spheres(), 3)
	assert.Len(t, sc.Cylinders(), 2)
	assert.Equal(t, 50.0, sc.Camera.FOV)

	_, err = c.Sessions().Load(ctx, s.ID, &BuildRequest{MolBlock: "broken\n\n\n  2  1\n"})
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsMalformedRecord())

	current, err := c.Sessions().Scene(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, sc.Digest, current.Digest)

	info, err := c.Sessions().Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, info.Loaded)

	require.NoError(t, c.Sessions().Close(ctx, s.ID))
	_, err = c.Sessions().Get(ctx, s.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}

func TestSessions_ExportWithoutArchive(t *testing.T) {
	c := newLiveClient(t)
	ctx := context.Background()
	s, err := c.Sessions().Create(ctx)
	require.NoError(t, err)
	_, err = c.Sessions().Load(ctx, s.ID, &BuildRequest{MolBlock: testutil.EtheneRecord()})
	require.NoError(t, err)

	_, err = c.Sessions().Export(ctx, s.ID)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrCodeFeatureDisabled.String(), apiErr.Code)
}

func TestSessions_RequireID(t *testing.T) {
	c, _ := NewClient("http://unused")
	ctx := context.Background()

	_, err := c.Sessions().Get(ctx, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	_, err = c.Sessions().Scene(ctx, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	_, err = c.Sessions().Load(ctx, "", &BuildRequest{MolBlock: "x"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	_, err = c.Sessions().Export(ctx, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.True(t, errors.IsCode(c.Sessions().Close(ctx, ""), errors.ErrCodeValidation))
}

//Personal.AI order the ending
