package media

import "errors"

var (
	// ErrStorageUnavailable indicates no object store has been configured.
	ErrStorageUnavailable = errors.New("media storage unavailable")
	// ErrProbeFailed indicates ffprobe could not read the uploaded video.
	ErrProbeFailed = errors.New("media probe failed")
	// ErrEmptyUpload is returned for zero-byte uploads.
	ErrEmptyUpload = errors.New("media upload is empty")

	errJanitorClosed = errors.New("media janitor closed")
)
