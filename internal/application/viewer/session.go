package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

// Releaser frees whatever a scene holds once no session shows it any more.
type Releaser interface {
	Release(sc *Scene)
}

// ReleaserFunc adapts a function to Releaser.
type ReleaserFunc func(sc *Scene)

func (f ReleaserFunc) Release(sc *Scene) { f(sc) }

// DefaultReleaser drops the scene's geometry.
var DefaultReleaser Releaser = ReleaserFunc(func(sc *Scene) { sc.Release() })

// ViewerSession owns at most one current scene. Loads are transactional: the
// new scene is built completely before it replaces the current one, and a
// failed load leaves the current scene in place.
type ViewerSession struct {
	id       string
	svc      Service
	releaser Releaser
	logger   logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	current  *Scene
	record   string
	lastUsed time.Time
	closed   bool
}

// NewViewerSession creates an empty session. A nil releaser means
// DefaultReleaser.
func NewViewerSession(id string, svc Service, releaser Releaser, logger logging.Logger) *ViewerSession {
	if releaser == nil {
		releaser = DefaultReleaser
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ViewerSession{
		id:       id,
		svc:      svc,
		releaser: releaser,
		logger:   logger.With(logging.String("session_id", id)),
		now:      time.Now,
		lastUsed: time.Now(),
	}
}

// ID returns the session identifier.
func (v *ViewerSession) ID() string { return v.id }

// Load builds a scene from input and makes it current. The previous scene is
// handed to the releaser. When two loads overlap, the one that finishes last
// wins and the other's scene is released.
func (v *ViewerSession) Load(ctx context.Context, input *BuildInput) (*Scene, error) {
	if v.isClosed() {
		return nil, errors.SessionNotFound(v.id)
	}
	in := BuildInput{}
	if input != nil {
		in = *input
	}
	in.SessionID = v.id
	if in.Record == "" && in.SMILES != "" {
		record, err := v.svc.Convert(ctx, in.SMILES)
		if err != nil {
			v.touch()
			return nil, err
		}
		in.Record = record
	}

	sc, err := v.svc.BuildScene(ctx, &in)
	if err != nil {
		v.touch()
		v.logger.Debug("Load failed, keeping current scene", logging.Err(err))
		return nil, err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		v.releaser.Release(sc)
		return nil, errors.SessionNotFound(v.id)
	}
	prev := v.current
	v.current = sc
	v.record = in.Record
	v.lastUsed = v.now()
	out := sc.shallowCopy()
	v.mu.Unlock()

	if prev != nil {
		v.releaser.Release(prev)
	}
	return out, nil
}

// Current returns a copy of the current scene, or false when nothing is
// loaded.
func (v *ViewerSession) Current() (*Scene, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastUsed = v.now()
	if v.current == nil {
		return nil, false
	}
	return v.current.shallowCopy(), true
}

// Snapshot returns the current scene and its source text as one consistent
// pair.
func (v *ViewerSession) Snapshot() (*Scene, string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastUsed = v.now()
	if v.current == nil {
		return nil, "", false
	}
	return v.current.shallowCopy(), v.record, true
}

// Record returns the source text of the current scene.
func (v *ViewerSession) Record() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record
}

// LastUsed reports when the session was last touched.
func (v *ViewerSession) LastUsed() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastUsed
}

// Close releases the current scene. Further loads fail. Close is idempotent.
func (v *ViewerSession) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	prev := v.current
	v.current = nil
	v.record = ""
	v.mu.Unlock()

	if prev != nil {
		v.releaser.Release(prev)
	}
}

func (v *ViewerSession) touch() {
	v.mu.Lock()
	v.lastUsed = v.now()
	v.mu.Unlock()
}

func (v *ViewerSession) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

//Personal.AI order the ending
