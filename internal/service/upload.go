package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"inkpost/internal/apperr"
	"inkpost/internal/models"
)

// DefaultMaxUploadBytes bounds a featured image when no limit is configured.
const DefaultMaxUploadBytes = 5 << 20

// imageExtensions maps the accepted image types to the object key suffix.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore saves public objects and reports where they are served from.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	FileURL(key string) string
}

// UploadResult describes a stored image. URL is the value a client puts in
// a post's featuredImage.
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// UploadService stores featured images in object storage.
type UploadService struct {
	objects  ObjectStore
	maxBytes int64
}

// NewUploadService creates an UploadService. A non-positive maxBytes uses
// DefaultMaxUploadBytes.
func NewUploadService(objects ObjectStore, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{objects: objects, maxBytes: maxBytes}
}

// MaxBytes returns the largest accepted image size.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// UploadImage stores body as posts/<uuid><ext>. The type is sniffed from
// the content rather than trusted from the client, and the image header
// must decode.
func (s *UploadService) UploadImage(ctx context.Context, identity *models.Identity, body io.Reader) (*UploadResult, error) {
	if err := requireIdentity(identity); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(body, s.maxBytes+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, err, "could not read upload")
	}
	if len(data) == 0 {
		return nil, apperr.BadRequestf("please upload a file")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperr.BadRequestf("please upload an image less than %d bytes", s.maxBytes)
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperr.BadRequestf("please upload an image file")
	}
	dims, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, err, "please upload a valid image")
	}

	key := fmt.Sprintf("posts/%s%s", uuid.New(), ext)
	size := int64(len(data))
	if err := s.objects.Upload(ctx, key, contentType, bytes.NewReader(data), size); err != nil {
		return nil, apperr.InternalError(err)
	}

	return &UploadResult{
		Key:         key,
		URL:         s.objects.FileURL(key),
		ContentType: contentType,
		Size:        size,
		Width:       dims.Width,
		Height:      dims.Height,
	}, nil
}
