package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"desa-feedback-system/pkg/media"
	"desa-feedback-system/services/api-service/models"
)

// ErrUnsupportedType marks a file whose extension maps to no media kind.
var ErrUnsupportedType = errors.New("unsupported file type")

// Uploader stores multipart files on the remote media host and returns the
// resulting attachment references in arrival order.
type Uploader interface {
	UploadAll(ctx context.Context, files []*multipart.FileHeader) ([]models.Attachment, error)
}

// MediaUploader classifies each file by extension and streams it to the
// media store. Classification happens for all files before the first upload
// so an unsupported file rejects the batch with nothing stored.
type MediaUploader struct {
	Store *media.Store
}

func (u *MediaUploader) UploadAll(ctx context.Context, files []*multipart.FileHeader) ([]models.Attachment, error) {
	for _, fh := range files {
		if _, ok := media.KindForFilename(fh.Filename); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, fh.Filename)
		}
	}

	attachments := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}

		obj, err := u.Store.Upload(ctx, f, fh.Size, fh.Header.Get("Content-Type"), fh.Filename)
		f.Close()
		if err != nil {
			return nil, err
		}

		attachments = append(attachments, models.Attachment{
			URL:          obj.URL,
			StorageKey:   obj.Key,
			OriginalName: obj.OriginalName,
			Kind:         obj.Kind,
		})
	}
	return attachments, nil
}
