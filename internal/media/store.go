package media

import (
	"context"
	"io"
)

// Store persists uploaded objects and removes them when they are replaced.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// Kind groups stored objects under a common key prefix.
type Kind string

const (
	KindAvatar    Kind = "avatars"
	KindCover     Kind = "covers"
	KindVideo     Kind = "videos"
	KindThumbnail Kind = "thumbnails"
)

// Object describes a stored upload.
type Object struct {
	Key      string
	Location string
}
