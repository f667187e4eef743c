package viewer

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molscope/internal/infrastructure/database/redis"
	"github.com/turtacn/molscope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molscope/internal/infrastructure/storage/minio"
)

type recordingPublisher struct {
	mu       sync.Mutex
	built    []kafka.SceneBuiltPayload
	rejected []kafka.RecordRejectedPayload
	err      error
}

func (p *recordingPublisher) SceneBuilt(_ context.Context, e kafka.SceneBuiltPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.built = append(p.built, e)
	return p.err
}

func (p *recordingPublisher) RecordRejected(_ context.Context, e kafka.RecordRejectedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected = append(p.rejected, e)
	return p.err
}

func (p *recordingPublisher) Built() []kafka.SceneBuiltPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.SceneBuiltPayload(nil), p.built...)
}

func (p *recordingPublisher) Rejected() []kafka.RecordRejectedPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafka.RecordRejectedPayload(nil), p.rejected...)
}

type fakeConverter struct {
	record string
	err    error
	calls  int
}

func (f *fakeConverter) Convert(_ context.Context, smiles string) (string, error) {
	f.calls++
	return f.record, f.err
}

type mockArchive struct {
	mock.Mock
}

func (m *mockArchive) Archive(ctx context.Context, req *minio.ArchiveRequest) (*minio.ArchiveResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*minio.ArchiveResult)
	return res, args.Error(1)
}

func (m *mockArchive) Exists(ctx context.Context, digest string) (bool, error) {
	args := m.Called(ctx, digest)
	return args.Bool(0), args.Error(1)
}

func (m *mockArchive) Delete(ctx context.Context, digest string) error {
	return m.Called(ctx, digest).Error(0)
}

func newMiniCache(t *testing.T) (*miniredis.Miniredis, redis.Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redis.NewClient(&redis.ClientConfig{Addr: mr.Addr(), MaxRetries: -1}, logging.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, redis.NewRedisCache(client, nil, redis.WithPrefix("molscope:scene:"), redis.WithTTLJitter(0))
}

func newTestMetrics(t *testing.T) (*prometheus.AppMetrics, func() string) {
	t.Helper()
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "molscope"}, nil)
	require.NoError(t, err)
	scrape := func() string {
		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		body, _ := io.ReadAll(rec.Body)
		return string(body)
	}
	return prometheus.NewAppMetrics(c), scrape
}

//Personal.AI order the ending
