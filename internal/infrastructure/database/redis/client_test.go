package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

func newMiniClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(&ClientConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestClientConfig_Defaults(t *testing.T) {
	cfg := ClientConfig{Addr: "cache:6379", PoolSize: 4}.withDefaults()

	assert.Equal(t, "standalone", cfg.Mode)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.PingTimeout)
	assert.Equal(t, 512*time.Millisecond, cfg.MaxRetryBackoff)

	opts := ClientConfig{Addr: "a:1", ClusterAddrs: []string{"b:1", "c:1"}, TLSEnabled: true}.universal()
	assert.Equal(t, []string{"a:1", "b:1", "c:1"}, opts.Addrs)
	require.NotNil(t, opts.TLSConfig)
	assert.Equal(t, "a:1", opts.Simple().Addr)
}

func TestNewClient_ConnectsAndCaches(t *testing.T) {
	mr, client := newMiniClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "molscope:scene:abc", `{"digest":"abc"}`, time.Minute).Err())
	assert.True(t, mr.Exists("molscope:scene:abc"))

	val, err := client.Get(ctx, "molscope:scene:abc").Result()
	require.NoError(t, err)
	assert.JSONEq(t, `{"digest":"abc"}`, val)

	ttl, err := client.TTL(ctx, "molscope:scene:abc").Result()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	keys, _, err := client.Scan(ctx, 0, "molscope:scene:*", 10).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"molscope:scene:abc"}, keys)

	deleted, err := client.Del(ctx, "molscope:scene:abc").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	n, err := client.Exists(ctx, "molscope:scene:abc").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewClient_Unreachable(t *testing.T) {
	client, err := NewClient(&ClientConfig{Addr: "127.0.0.1:1", MaxRetries: -1, PingTimeout: time.Second}, nil)

	require.Error(t, err)
	assert.Nil(t, client)
	assert.True(t, errors.IsCode(err, errors.ErrCodeServiceUnavailable))
}

func TestNewClient_UnknownModeFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(&ClientConfig{Mode: "sentinel", Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()))
}

func TestClient_ClosedRejectsCommands(t *testing.T) {
	_, client := newMiniClient(t)
	ctx := context.Background()

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	assert.Equal(t, ErrClientClosed, client.Ping(ctx))
	assert.Equal(t, ErrClientClosed, client.Get(ctx, "k").Err())
	assert.Equal(t, ErrClientClosed, client.Set(ctx, "k", "v", 0).Err())
	assert.Equal(t, ErrClientClosed, client.Del(ctx, "k").Err())
	assert.Equal(t, ErrClientClosed, client.Exists(ctx, "k").Err())
	assert.Equal(t, ErrClientClosed, client.TTL(ctx, "k").Err())
	assert.Equal(t, ErrClientClosed, client.Scan(ctx, 0, "*", 10).Err())
}

//Personal.AI order the ending
