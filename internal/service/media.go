package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const MaxImageSize = 10 << 20

// imageExt maps accepted upload types to the extension used in object keys.
var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

type MediaService struct {
	Store ObjectStore
	Now   func() time.Time
}

func (s *MediaService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// UploadImage stores an image under uploads/<yyyy>/<mm>/ and returns its public URL.
func (s *MediaService) UploadImage(ctx context.Context, filename, contentType string, size int64, body io.Reader) (*transport.UploadResponse, error) {
	if s == nil || s.Store == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", ErrUnavailable)
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: only images can be uploaded", ErrValidation)
	}
	ext, ok := imageExt[mediaType]
	if !ok {
		return nil, fmt.Errorf("%w: image must be jpeg, png, webp, gif or avif", ErrValidation)
	}
	if size <= 0 || size > MaxImageSize {
		return nil, fmt.Errorf("%w: image must be between 1 byte and 10 MiB", ErrValidation)
	}

	now := s.now()
	key := fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)

	logging.FromContext(ctx).Debugw("image_upload", "filename", filename, "key", key)
	url, err := s.Store.Put(ctx, key, io.LimitReader(body, MaxImageSize), size, mediaType)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	return &transport.UploadResponse{URL: url, Key: key}, nil
}

func (s *MediaService) Delete(ctx context.Context, key string) error {
	if s == nil || s.Store == nil || key == "" {
		return nil
	}
	return s.Store.Delete(ctx, key)
}
