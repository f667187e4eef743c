// Package viewer is the application layer of the scene pipeline: it resolves
// input to a record, builds and caches scenes, reports events and metrics,
// exports scenes to the archive and keeps per-client viewer sessions.
package viewer

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/turtacn/molscope/internal/domain/molecule"
	"github.com/turtacn/molscope/internal/domain/scene"
	"github.com/turtacn/molscope/internal/infrastructure/converter"
	"github.com/turtacn/molscope/internal/infrastructure/database/redis"
	"github.com/turtacn/molscope/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molscope/internal/infrastructure/storage/minio"
	"github.com/turtacn/molscope/pkg/errors"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

const cacheName = "scene"

// Service defines the scene operations exposed to the interfaces layer.
type Service interface {
	// BuildScene turns a record (or a SMILES string, via the converter) into
	// a scene. A malformed record yields an error for which
	// errors.IsMalformedRecord holds.
	BuildScene(ctx context.Context, input *BuildInput) (*Scene, error)
	// Convert resolves a SMILES string to record text.
	Convert(ctx context.Context, smiles string) (string, error)
	// ExportDigest archives a previously built, still cached scene.
	ExportDigest(ctx context.Context, digest string) (*minio.ArchiveResult, error)
	// ExportScene archives sc together with its source record.
	ExportScene(ctx context.Context, sc *Scene, record string) (*minio.ArchiveResult, error)
	// UpdateRender swaps the render options and drops cached scenes.
	UpdateRender(ctx context.Context, opts Options) error
	// Frame fits a camera to bounds with the current framer.
	Frame(bounds geometry.Box, fov float64) scene.CameraPose
	// Ready reports whether the backing services answer.
	Ready(ctx context.Context) error
}

// BuildInput carries one build request. Exactly one of Record or SMILES is
// used; Record wins when both are set. FOV 0 means the configured default.
type BuildInput struct {
	Record    string
	SMILES    string
	FOV       float64
	SessionID string
}

// Deps are the optional collaborators. Nil members disable the feature they
// back: no cache, no archive, no events, no SMILES input.
type Deps struct {
	Cache     redis.Cache
	Archive   minio.SceneArchive
	Events    kafka.Publisher
	Converter converter.Converter
	Metrics   *prometheus.AppMetrics
	Logger    logging.Logger
}

type serviceImpl struct {
	pipe     atomic.Pointer[pipeline]
	cacheTTL time.Duration

	cache     redis.Cache
	archive   minio.SceneArchive
	events    kafka.Publisher
	converter converter.Converter
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	now       func() time.Time
}

// NewService creates the viewer service.
func NewService(opts Options, deps Deps) Service {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewNoopAppMetrics()
	}
	if deps.Events == nil {
		deps.Events = kafka.NopPublisher{}
	}
	s := &serviceImpl{
		cacheTTL:  opts.CacheTTL,
		cache:     deps.Cache,
		archive:   deps.Archive,
		events:    deps.Events,
		converter: deps.Converter,
		metrics:   deps.Metrics,
		logger:    deps.Logger.Named("viewer"),
		now:       time.Now,
	}
	s.pipe.Store(newPipeline(opts))
	return s
}

func (s *serviceImpl) BuildScene(ctx context.Context, input *BuildInput) (*Scene, error) {
	if input == nil {
		return nil, errors.New(errors.ErrCodeValidation, "build input is required")
	}
	start := s.now()

	record, err := s.resolveRecord(ctx, input)
	if err != nil {
		return nil, err
	}
	digest := Digest(record)
	log := s.logger.With(
		logging.String(logging.FieldDigest, digest),
		logging.String("request_id", logging.RequestIDFromContext(ctx)),
	)

	pipe := s.pipe.Load()
	sc, cached, err := s.load(ctx, pipe, digest, record)
	if err != nil {
		s.metrics.RecordError("viewer", string(errors.GetCode(err)))
		if errors.IsMalformedRecord(err) {
			log.Info("Record rejected", logging.Err(err))
			s.reportRejected(ctx, digest, input.SessionID, err)
		} else {
			log.Error("Scene build failed", logging.Err(err))
		}
		return nil, err
	}

	if input.FOV != 0 && input.FOV != sc.Camera.FOV {
		sc = sc.Reframed(pipe.framer, input.FOV)
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordStage(prometheus.StageTotal, elapsed)
	counts := sc.Counts()
	s.reportBuilt(ctx, sc, input.SessionID, cached, elapsed)
	log.Debug("Scene ready",
		logging.Bool("cached", cached),
		logging.Int("spheres", counts[scene.KindSphere]),
		logging.Int("cylinders", counts[scene.KindCylinder]),
		logging.Duration("duration", elapsed))
	return sc, nil
}

func (s *serviceImpl) resolveRecord(ctx context.Context, input *BuildInput) (string, error) {
	if strings.TrimSpace(input.Record) != "" {
		return input.Record, nil
	}
	if strings.TrimSpace(input.SMILES) == "" {
		return "", errors.New(errors.ErrCodeValidation, "a structure record or SMILES string is required")
	}
	return s.Convert(ctx, input.SMILES)
}

// load returns the scene for digest from the cache, building it on a miss.
// Cache failures fall back to a direct build.
func (s *serviceImpl) load(ctx context.Context, pipe *pipeline, digest, record string) (*Scene, bool, error) {
	if s.cache == nil {
		sc, err := s.build(pipe, digest, record)
		return sc, false, err
	}

	built := false
	var entry cacheEntry
	err := s.cache.GetOrSet(ctx, digest, &entry, s.cacheTTL, func(context.Context) (interface{}, error) {
		built = true
		sc, err := s.build(pipe, digest, record)
		if err != nil {
			return nil, err
		}
		return &cacheEntry{Scene: sc, Record: molecule.StripCR(record)}, nil
	})
	switch {
	case err == nil && entry.Scene != nil:
		s.metrics.RecordCacheAccess(cacheName, !built)
		return entry.Scene, !built, nil
	case isBuildError(err):
		s.metrics.RecordCacheAccess(cacheName, false)
		return nil, false, err
	}

	s.logger.Warn("Scene cache unavailable, building directly",
		logging.String(logging.FieldDigest, digest), logging.Err(err))
	s.metrics.RecordError("cache", string(errors.GetCode(err)))
	sc, err := s.build(pipe, digest, record)
	return sc, false, err
}

func isBuildError(err error) bool {
	return errors.IsMalformedRecord(err) || errors.IsCode(err, errors.ErrCodeSceneBuildFailed)
}

// build runs parse → plan → frame.
func (s *serviceImpl) build(pipe *pipeline, digest, record string) (*Scene, error) {
	t := s.now()
	snap, err := molecule.ParseRecord(record)
	s.metrics.RecordStage(prometheus.StageParse, s.now().Sub(t))
	s.metrics.RecordParse(err == nil)
	if err != nil {
		return nil, err
	}

	t = s.now()
	geo := pipe.planner.Plan(snap)
	s.metrics.RecordStage(prometheus.StagePlan, s.now().Sub(t))
	if geo == nil {
		return nil, errors.New(errors.ErrCodeSceneBuildFailed, "planner produced no geometry")
	}
	counts := geo.Counts()
	s.metrics.RecordShapes(counts[scene.KindSphere], counts[scene.KindCylinder])

	t = s.now()
	cam := pipe.framer.Frame(geo.Bounds, pipe.framer.Options().DefaultFOV)
	s.metrics.RecordStage(prometheus.StageFrame, s.now().Sub(t))

	return &Scene{
		Digest:      digest,
		Name:        strings.TrimSpace(snap.Name),
		Composition: molecule.Composition(snap),
		Molecule:    snap,
		Geometry:    *geo,
		Camera:      cam,
		BuiltAt:     s.now().UTC(),
	}, nil
}

func (s *serviceImpl) Convert(ctx context.Context, smiles string) (string, error) {
	if s.converter == nil {
		return "", errors.New(errors.ErrCodeFeatureDisabled, "SMILES conversion is not configured")
	}
	start := s.now()
	record, err := s.converter.Convert(ctx, smiles)
	s.metrics.RecordConversion(err == nil, s.now().Sub(start))
	if err != nil {
		s.metrics.RecordError("converter", string(errors.GetCode(err)))
		s.logger.Warn("SMILES conversion failed", logging.String("smiles", smiles), logging.Err(err))
		return "", err
	}
	return record, nil
}

func (s *serviceImpl) ExportDigest(ctx context.Context, digest string) (*minio.ArchiveResult, error) {
	if s.archive == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "scene archive is not configured")
	}
	if s.cache == nil {
		return nil, errors.New(errors.ErrCodeSceneNotFound, "scene not found").WithDetail("cache disabled")
	}
	var entry cacheEntry
	if err := s.cache.Get(ctx, digest, &entry); err != nil {
		if stderrors.Is(err, redis.ErrCacheMiss) {
			return nil, errors.New(errors.ErrCodeSceneNotFound, "scene not found").WithDetail(digest)
		}
		return nil, err
	}
	if entry.Scene == nil {
		return nil, errors.New(errors.ErrCodeSceneNotFound, "scene not found").WithDetail(digest)
	}
	return s.ExportScene(ctx, entry.Scene, entry.Record)
}

func (s *serviceImpl) ExportScene(ctx context.Context, sc *Scene, record string) (*minio.ArchiveResult, error) {
	if s.archive == nil {
		return nil, errors.New(errors.ErrCodeFeatureDisabled, "scene archive is not configured")
	}
	if sc == nil {
		return nil, errors.New(errors.ErrCodeSceneNotFound, "no scene to export")
	}
	data, err := json.Marshal(sc)
	if err != nil {
		s.metrics.RecordExport(false)
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode scene")
	}
	res, err := s.archive.Archive(ctx, &minio.ArchiveRequest{
		Digest:    sc.Digest,
		Name:      sc.Name,
		SceneJSON: data,
		Record:    record,
	})
	s.metrics.RecordExport(err == nil)
	if err != nil {
		s.metrics.RecordError("archive", string(errors.GetCode(err)))
		return nil, err
	}
	s.logger.Info("Scene exported",
		logging.String(logging.FieldDigest, sc.Digest),
		logging.String("key", res.SceneKey))
	return res, nil
}

func (s *serviceImpl) UpdateRender(ctx context.Context, opts Options) error {
	s.pipe.Store(newPipeline(opts))
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.DeleteByPrefix(ctx, "")
	if err != nil {
		s.logger.Warn("Failed to purge scene cache after render update", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to purge scene cache")
	}
	s.logger.Info("Render options updated", logging.Int64("purged", n))
	return nil
}

func (s *serviceImpl) Frame(bounds geometry.Box, fov float64) scene.CameraPose {
	return s.pipe.Load().framer.Frame(bounds, fov)
}

func (s *serviceImpl) Ready(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "scene cache unavailable")
	}
	return nil
}

func (s *serviceImpl) reportBuilt(ctx context.Context, sc *Scene, sessionID string, cached bool, d time.Duration) {
	counts := sc.Counts()
	err := s.events.SceneBuilt(ctx, kafka.SceneBuiltPayload{
		Digest:        sc.Digest,
		Name:          sc.Name,
		Formula:       sc.Composition.Formula,
		AtomCount:     sc.Composition.AtomCount,
		BondCount:     sc.Composition.BondCount,
		SphereCount:   counts[scene.KindSphere],
		CylinderCount: counts[scene.KindCylinder],
		DurationMs:    float64(d.Microseconds()) / 1000,
		Cached:        cached,
		SessionID:     sessionID,
	})
	s.recordEvent(kafka.EventTypeSceneBuilt, err)
}

func (s *serviceImpl) reportRejected(ctx context.Context, digest, sessionID string, cause error) {
	p := kafka.RecordRejectedPayload{
		Digest:    digest,
		Code:      string(errors.GetCode(cause)),
		Reason:    cause.Error(),
		SessionID: sessionID,
	}
	var ae *errors.AppError
	if stderrors.As(cause, &ae) {
		p.Reason = ae.Message
		p.Detail = ae.Detail
	}
	s.recordEvent(kafka.EventTypeRecordRejected, s.events.RecordRejected(ctx, p))
}

func (s *serviceImpl) recordEvent(eventType string, err error) {
	s.metrics.RecordEvent(eventType, err == nil)
	if err != nil {
		s.logger.Warn("Failed to publish event", logging.String("event_type", eventType), logging.Err(err))
	}
}

//Personal.AI order the ending
