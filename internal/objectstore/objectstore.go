// Package objectstore resolves the on-disk contents a remote TestCase
// references. "Remote" in the source system means "readable by the
// worker", which in practice is either a local path or an object living
// in MinIO behind an s3:// reference — this package dispatches on that
// prefix, adapting the ancestor's MinIOClient download path.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Resolver reads remote test-case bodies.
type Resolver struct {
	client *minio.Client
	bucket string
}

// Config mirrors the subset of MinIO settings this worker needs.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New constructs a Resolver. A zero-value Endpoint disables MinIO
// entirely; ReadFile then only ever reads local paths.
func New(cfg Config) (*Resolver, error) {
	if cfg.Endpoint == "" {
		return &Resolver{bucket: cfg.Bucket}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &Resolver{client: client, bucket: cfg.Bucket}, nil
}

// ReadFile returns the UTF-8 contents of path. An "s3://" prefix is
// resolved against the configured bucket; anything else is read
// directly off local disk, per the worker's "on-disk files readable by
// the worker" contract for remote test cases.
func (r *Resolver) ReadFile(ctx context.Context, path string) (string, error) {
	if strings.HasPrefix(path, "s3://") {
		return r.readObject(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read local test-case file %s: %w", path, err)
	}
	return string(data), nil
}

func (r *Resolver) readObject(ctx context.Context, ref string) (string, error) {
	if r.client == nil {
		return "", fmt.Errorf("object store not configured, cannot resolve %s", ref)
	}

	objectName, err := r.parseRef(ref)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	obj, err := r.client.GetObject(ctx, r.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get object %s: %w", objectName, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return "", fmt.Errorf("failed to read object %s: %w", objectName, err)
	}

	return buf.String(), nil
}

func (r *Resolver) parseRef(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid object reference %s: %w", ref, err)
	}
	if parsed.Host != "" && parsed.Host != r.bucket {
		return "", fmt.Errorf("bucket mismatch for %s: expected %s, got %s", ref, r.bucket, parsed.Host)
	}
	return strings.TrimPrefix(parsed.Path, "/"), nil
}
