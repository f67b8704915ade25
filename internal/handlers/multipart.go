package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/media"
)

const multipartMemory = 32 << 20

var errMissingFile = errors.New("missing file")

// parseUpload bounds the request body and parses a multipart form.
func parseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	return r.ParseMultipartForm(multipartMemory)
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func hasFormFile(r *http.Request, field string) bool {
	if r.MultipartForm == nil {
		return false
	}
	files := r.MultipartForm.File[field]
	return len(files) > 0 && files[0].Size > 0
}

// storeFormFile uploads the first file of field as an object of kind.
func storeFormFile(ctx context.Context, uploader MediaUploader, r *http.Request, field string, kind media.Kind) (media.Object, error) {
	file, header, err := openFormFile(r, field)
	if err != nil {
		return media.Object{}, err
	}
	defer file.Close()
	return uploader.Upload(ctx, kind, header.Filename, file)
}

func openFormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if !hasFormFile(r, field) {
		return nil, nil, errMissingFile
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, errMissingFile
		}
		return nil, nil, err
	}
	return file, header, nil
}

// discardObjects schedules the removal of objects that will not be referenced.
func discardObjects(ctx context.Context, janitor MediaJanitor, keys ...string) {
	if janitor == nil {
		return
	}
	if err := janitor.Schedule(context.WithoutCancel(ctx), keys...); err != nil {
		logging.FromContext(ctx).Error("schedule media cleanup", "keys", keys, "error", err)
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
