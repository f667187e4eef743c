package minio

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

const (
	sceneKeyPrefix     = "scenes/"
	sceneObjectName    = "scene.json"
	recordObjectName   = "record.mol"
	contentTypeJSON    = "application/json"
	contentTypeMolfile = "chemical/x-mdl-molfile"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeSceneNotFound, "archived scene not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid archive request")
)

// ArchiveRequest is one scene export.
type ArchiveRequest struct {
	Digest    string
	Name      string
	SceneJSON []byte
	Record    string
}

// ArchiveResult locates the stored objects.
type ArchiveResult struct {
	Bucket    string    `json:"bucket"`
	SceneKey  string    `json:"scene_key"`
	RecordKey string    `json:"record_key"`
	ETag      string    `json:"etag"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SceneArchive stores exported scenes keyed by record digest.
type SceneArchive interface {
	Archive(ctx context.Context, req *ArchiveRequest) (*ArchiveResult, error)
	Exists(ctx context.Context, digest string) (bool, error)
	Delete(ctx context.Context, digest string) error
}

type sceneArchive struct {
	client *MinIOClient
	logger logging.Logger
	now    func() time.Time
}

func NewSceneArchive(client *MinIOClient, log logging.Logger) SceneArchive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &sceneArchive{client: client, logger: log, now: time.Now}
}

// SceneKey is the object key of a digest's scene document.
func SceneKey(digest string) string {
	return sceneKeyPrefix + digest + "/" + sceneObjectName
}

// RecordKey is the object key of a digest's source record.
func RecordKey(digest string) string {
	return sceneKeyPrefix + digest + "/" + recordObjectName
}

func (a *sceneArchive) Archive(ctx context.Context, req *ArchiveRequest) (*ArchiveResult, error) {
	if req == nil || req.Digest == "" || len(req.SceneJSON) == 0 {
		return nil, ErrInvalidRequest
	}
	if strings.ContainsAny(req.Digest, "/\\") {
		return nil, ErrInvalidRequest.WithDetail("digest must not contain path separators")
	}
	if a.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}

	api := a.client.GetClient()
	bucket := a.client.Bucket()
	meta := map[string]string{"digest": req.Digest}
	if req.Name != "" {
		meta["name"] = req.Name
	}

	if req.Record != "" {
		if _, err := api.PutObject(ctx, bucket, RecordKey(req.Digest),
			strings.NewReader(req.Record), int64(len(req.Record)),
			minio.PutObjectOptions{ContentType: contentTypeMolfile, UserMetadata: meta}); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSceneExportFailed, "record upload failed")
		}
	}

	info, err := api.PutObject(ctx, bucket, SceneKey(req.Digest),
		bytes.NewReader(req.SceneJSON), int64(len(req.SceneJSON)),
		minio.PutObjectOptions{ContentType: contentTypeJSON, UserMetadata: meta})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSceneExportFailed, "scene upload failed")
	}

	expiry := a.client.config.PresignExpiry
	u, err := a.client.GeneratePresignedGetURL(ctx, SceneKey(req.Digest), expiry)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSceneExportFailed, "presign failed")
	}

	a.logger.Info("Scene archived",
		logging.String(logging.FieldDigest, req.Digest),
		logging.String("bucket", bucket),
		logging.Int64("size", info.Size),
	)

	res := &ArchiveResult{
		Bucket:    bucket,
		SceneKey:  SceneKey(req.Digest),
		ETag:      info.ETag,
		Size:      info.Size,
		URL:       u.String(),
		ExpiresAt: a.now().Add(expiry),
	}
	if req.Record != "" {
		res.RecordKey = RecordKey(req.Digest)
	}
	return res, nil
}

func (a *sceneArchive) Exists(ctx context.Context, digest string) (bool, error) {
	_, err := a.client.GetClient().StatObject(ctx, a.client.Bucket(), SceneKey(digest), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "stat failed")
	}
	return true, nil
}

func (a *sceneArchive) Delete(ctx context.Context, digest string) error {
	ok, err := a.Exists(ctx, digest)
	if err != nil {
		return err
	}
	if !ok {
		return ErrObjectNotFound.WithDetail(digest)
	}
	api := a.client.GetClient()
	for _, key := range []string{SceneKey(digest), RecordKey(digest)} {
		if err := api.RemoveObject(ctx, a.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorageError, "remove failed").WithDetail(key)
		}
	}
	return nil
}

//Personal.AI order the ending
