package filecache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectScheme prefixes paths served by an ObjectFetcher: s3://bucket/key.
const ObjectScheme = "s3://"

// ObjectStoreConfig holds connection settings for an S3-compatible store.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// ObjectFetcher reads and writes s3:// paths through a MinIO client.
type ObjectFetcher struct {
	client *minio.Client
}

// NewObjectFetcher wraps an existing client.
func NewObjectFetcher(client *minio.Client) *ObjectFetcher {
	return &ObjectFetcher{client: client}
}

// DialObjectStore creates a MinIO client from cfg.
func DialObjectStore(cfg ObjectStoreConfig) (*ObjectFetcher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("object store %s: %w", cfg.Endpoint, err)
	}
	return NewObjectFetcher(client), nil
}

// SplitObjectPath splits s3://bucket/key into its parts.
func SplitObjectPath(p string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(p, ObjectScheme)
	if !ok {
		return "", "", fmt.Errorf("object path %q lacks %s prefix", p, ObjectScheme)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("object path %q needs both bucket and key", p)
	}
	return bucket, key, nil
}

func isObjectNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound", "NoSuchBucket":
		return true
	}
	return false
}

func (o *ObjectFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	bucket, key, err := SplitObjectPath(path)
	if err != nil {
		return nil, err
	}
	obj, err := o.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isObjectNotFound(err) {
			return nil, fmt.Errorf("fetch %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isObjectNotFound(err) {
			return nil, fmt.Errorf("fetch %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	return data, nil
}

func (o *ObjectFetcher) Store(ctx context.Context, path string, data []byte) error {
	bucket, key, err := SplitObjectPath(path)
	if err != nil {
		return err
	}
	_, err = o.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("store %s: %w", path, err)
	}
	return nil
}
