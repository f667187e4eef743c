package viewer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molscope/pkg/errors"
)

// Eviction reasons, as reported in metrics.
const (
	EvictIdle     = "idle"
	EvictClosed   = "closed"
	EvictShutdown = "shutdown"
)

// RegistryConfig bounds the registry.
type RegistryConfig struct {
	MaxSessions   int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// SessionRegistry keeps viewer sessions by id and evicts idle ones.
type SessionRegistry struct {
	cfg      RegistryConfig
	svc      Service
	releaser Releaser
	metrics  *prometheus.AppMetrics
	logger   logging.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*ViewerSession

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewSessionRegistry creates an empty registry. Call Start to run the idle
// sweeper.
func NewSessionRegistry(cfg RegistryConfig, svc Service, releaser Releaser, metrics *prometheus.AppMetrics, logger logging.Logger) *SessionRegistry {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1024
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SessionRegistry{
		cfg:      cfg,
		svc:      svc,
		releaser: releaser,
		metrics:  metrics,
		logger:   logger.Named("sessions"),
		now:      time.Now,
		sessions: make(map[string]*ViewerSession),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Create opens a new empty session.
func (r *SessionRegistry) Create() (*ViewerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) >= r.cfg.MaxSessions {
		return nil, errors.New(errors.ErrCodeSessionLimitReached, "viewer session limit reached")
	}
	s := NewViewerSession(uuid.New().String(), r.svc, r.releaser, r.logger)
	s.now = r.now
	s.lastUsed = r.now()
	r.sessions[s.id] = s
	r.metrics.SetSessions(len(r.sessions))
	r.logger.Debug("Session opened", logging.String("session_id", s.id))
	return s, nil
}

// Get returns the session with id.
func (r *SessionRegistry) Get(id string) (*ViewerSession, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.SessionNotFound(id)
	}
	return s, nil
}

// Close removes and closes the session with id.
func (r *SessionRegistry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return errors.SessionNotFound(id)
	}
	s.Close()
	r.metrics.SetSessions(n)
	r.metrics.RecordEviction(EvictClosed, 1)
	return nil
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the idle timeout and returns how
// many it closed.
func (r *SessionRegistry) Sweep() int {
	cutoff := r.now().Add(-r.cfg.IdleTimeout)
	var idle []*ViewerSession

	r.mu.Lock()
	for id, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		r.metrics.SetSessions(n)
		r.metrics.RecordEviction(EvictIdle, len(idle))
		r.logger.Info("Evicted idle sessions", logging.Int("count", len(idle)), logging.Int("open", n))
	}
	return len(idle)
}

// Start runs Sweep every sweep interval until ctx ends or Stop is called.
func (r *SessionRegistry) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Sweep()
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop halts the sweeper, if running, and closes every session.
func (r *SessionRegistry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})

	r.mu.Lock()
	all := make([]*ViewerSession, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	r.metrics.SetSessions(0)
	r.metrics.RecordEviction(EvictShutdown, len(all))
}

// Wait blocks until the sweeper has exited. It returns at once if Start was
// never called.
func (r *SessionRegistry) Wait() {
	if !r.started.Load() {
		return
	}
	<-r.done
}

//Personal.AI order the ending
