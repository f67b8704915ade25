package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tubeline/backend/internal/config"
	"github.com/tubeline/backend/internal/media"
)

// MinioStorage implements media.Store on top of a MinIO server.
type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

var _ media.Store = (*MinioStorage)(nil)

// NewMinioStorage connects to MinIO and makes sure the bucket exists.
func NewMinioStorage(ctx context.Context, cfg config.ObjectStoreConfig) (*MinioStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("minio storage: bucket is required")
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("minio storage: endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connect minio: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	baseURL := strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = strings.TrimSuffix(client.EndpointURL().String(), "/") + "/" + cfg.Bucket
	}

	return &MinioStorage{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

// Save streams r into the bucket. The object size is unknown so minio-go buffers multipart chunks.
func (s *MinioStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key, err := objectKey(name)
	if err != nil {
		return "", fmt.Errorf("minio storage: %w", err)
	}

	if _, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{}); err != nil {
		return "", fmt.Errorf("minio storage upload %s: %w", key, err)
	}
	return publicLocation(s.baseURL, key), nil
}

// Delete removes the object stored under name.
func (s *MinioStorage) Delete(ctx context.Context, name string) error {
	key, err := objectKey(name)
	if err != nil {
		return fmt.Errorf("minio storage: %w", err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio storage delete %s: %w", key, err)
	}
	return nil
}
