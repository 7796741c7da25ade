// Package storage keeps uploaded menu images either on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
	"github.com/tableside/api/internal/config"
)

// Store saves an object and returns the URL clients load it from.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageExtension returns the file extension for an accepted image type.
func ImageExtension(contentType string) (string, bool) {
	ext, ok := imageExtensions[contentType]
	return ext, ok
}

// ObjectName builds a collision-free object name under prefix.
func ObjectName(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+ext)
}

// New returns the store selected by STORAGE_MODE.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageMode {
	case config.StorageModeObject:
		client, err := minio.New(cfg.ObjectEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.ObjectAccessKey, cfg.ObjectSecretKey, ""),
			Secure: cfg.ObjectUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("object storage client: %w", err)
		}
		if err := ensureBucket(ctx, client, cfg.ObjectBucket); err != nil {
			return nil, err
		}
		publicURL := cfg.ObjectPublicURL
		if publicURL == "" {
			scheme := "http"
			if cfg.ObjectUseSSL {
				scheme = "https"
			}
			publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.ObjectEndpoint, cfg.ObjectBucket)
		}
		return NewObjectStore(client, cfg.ObjectBucket, publicURL), nil
	default:
		return NewLocalStore(cfg.UploadDir, cfg.PublicUploadURL)
	}
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	log.WithField("bucket", bucket).Info("created object storage bucket")
	return nil
}

// LocalStore writes files under a directory served by the API itself.
type LocalStore struct {
	dir       string
	publicURL string
}

func NewLocalStore(dir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	clean := filepath.Clean("/" + name)
	target := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return s.publicURL + filepath.ToSlash(clean), nil
}

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectStore uploads to an S3-compatible bucket.
type ObjectStore struct {
	client    objectPutter
	bucket    string
	publicURL string
}

func NewObjectStore(client objectPutter, bucket, publicURL string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func (s *ObjectStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	name = strings.TrimLeft(name, "/")
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", name, err)
	}
	return s.publicURL + "/" + name, nil
}
