package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
)

// DurationProber reports the playback length of a local media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Uploader stores multipart uploads under generated keys.
type Uploader struct {
	store  Store
	prober DurationProber
	newID  func() string
}

// NewUploader builds an Uploader. The prober is only needed for video uploads.
func NewUploader(store Store, prober DurationProber) *Uploader {
	return &Uploader{store: store, prober: prober, newID: uuid.NewString}
}

// Upload saves r as a new object of the given kind and returns its key and location.
func (u *Uploader) Upload(ctx context.Context, kind Kind, filename string, r io.Reader) (Object, error) {
	if u == nil || u.store == nil {
		return Object{}, ErrStorageUnavailable
	}

	key := u.key(kind, filename)
	location, err := u.store.Save(ctx, key, r)
	if err != nil {
		return Object{}, fmt.Errorf("upload %s: %w", key, err)
	}
	return Object{Key: key, Location: location}, nil
}

// UploadVideo spools r to a temporary file, probes its duration and stores it.
func (u *Uploader) UploadVideo(ctx context.Context, filename string, r io.Reader) (Object, float64, error) {
	if u == nil || u.store == nil {
		return Object{}, 0, ErrStorageUnavailable
	}
	if u.prober == nil {
		return Object{}, 0, fmt.Errorf("%w: prober not configured", ErrProbeFailed)
	}

	tmp, err := os.CreateTemp("", "tubeline-upload-*"+extension(filename))
	if err != nil {
		return Object{}, 0, fmt.Errorf("spool video: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return Object{}, 0, fmt.Errorf("spool video: %w", err)
	}
	if size == 0 {
		return Object{}, 0, ErrEmptyUpload
	}

	duration, err := u.prober.Duration(ctx, tmp.Name())
	if err != nil {
		return Object{}, 0, err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return Object{}, 0, fmt.Errorf("rewind video: %w", err)
	}

	obj, err := u.Upload(ctx, KindVideo, filename, tmp)
	if err != nil {
		return Object{}, 0, err
	}
	return obj, duration, nil
}

func (u *Uploader) key(kind Kind, filename string) string {
	return path.Join(string(kind), u.newID()+extension(filename))
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\ ") {
		return ""
	}
	return ext
}
