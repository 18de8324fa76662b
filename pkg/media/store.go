package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// baseFolder namespaces every object this system owns inside the bucket.
const baseFolder = "kritik_saran_desa"

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL is the prefix served URLs are built from. Defaults to
	// the endpoint + bucket when empty.
	PublicBaseURL string
}

// Object describes one stored asset.
type Object struct {
	URL          string
	Key          string
	OriginalName string
	Kind         Kind
}

// Store wraps the remote media host. Object keys are namespaced per kind so
// deletions can be scoped the way the remote's API requires.
type Store struct {
	client *minio.Client
	bucket string
	public string
}

func NewStore(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}

	public := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if public == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &Store{client: client, bucket: cfg.Bucket, public: public}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	return nil
}

func kindPrefix(kind Kind) string {
	return fmt.Sprintf("%s/%s/", baseFolder, kind)
}

// Upload streams one file into its kind's folder and returns the stored
// object reference. Files with an unsupported extension are refused.
func (s *Store) Upload(ctx context.Context, r io.Reader, size int64, contentType, originalName string) (Object, error) {
	kind, ok := KindForFilename(originalName)
	if !ok {
		return Object{}, fmt.Errorf("unsupported file type: %s", originalName)
	}

	key := kindPrefix(kind) + uuid.New().String() + strings.ToLower(filepath.Ext(originalName))

	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, opts); err != nil {
		return Object{}, fmt.Errorf("failed to upload %s: %w", originalName, err)
	}

	return Object{
		URL:          s.public + "/" + key,
		Key:          key,
		OriginalName: originalName,
		Kind:         kind,
	}, nil
}

// BatchDelete removes the given keys under one kind. Keys outside the kind's
// folder are skipped, matching the remote contract where a wrong-kind delete
// is a no-op rather than an error. Unknown keys are likewise not errors.
func (s *Store) BatchDelete(ctx context.Context, kind Kind, keys []string) error {
	prefix := kindPrefix(kind)

	objects := make(chan minio.ObjectInfo, len(keys))
	queued := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			log.Printf("[WARN] Skipping delete of %q: not a %s object", key, kind)
			continue
		}
		objects <- minio.ObjectInfo{Key: key}
		queued++
	}
	close(objects)
	if queued == 0 {
		return nil
	}

	var firstErr error
	for res := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if res.Err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to delete %s: %w", res.ObjectName, res.Err)
		}
	}
	return firstErr
}
