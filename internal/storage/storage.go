package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tubeline/backend/internal/config"
	"github.com/tubeline/backend/internal/media"
)

var errEmptyKey = errors.New("empty key")

// Open returns the media store selected by driver ("s3" or "minio").
func Open(ctx context.Context, driver string, cfg config.ObjectStoreConfig) (media.Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "s3", "":
		return NewS3Storage(ctx, cfg)
	case "minio":
		return NewMinioStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}

func objectKey(name string) (string, error) {
	key := strings.TrimLeft(strings.TrimSpace(name), "/")
	if key == "" {
		return "", errEmptyKey
	}
	return key, nil
}

func publicLocation(baseURL, key string) string {
	if baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", baseURL, key)
}
