package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"inkpost/internal/apperr"
	"inkpost/internal/models"
	"inkpost/internal/storage"
)

var _ ObjectStore = (*storage.Client)(nil)

// memObjects keeps uploaded objects in a map.
type memObjects struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if m.err != nil {
		return m.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memObjects) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

// encodePNG returns a w x h PNG.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadImage(t *testing.T) {
	objects := newMemObjects()
	svc := NewUploadService(objects, 1024)
	caller := &models.Identity{UserID: uuid.New(), Role: models.RoleUser}

	img := encodePNG(t, 3, 2)

	res, err := svc.UploadImage(context.Background(), caller, bytes.NewReader(img))
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if !strings.HasPrefix(res.Key, "posts/") || !strings.HasSuffix(res.Key, ".png") {
		t.Errorf("key: got %q, want posts/<uuid>.png", res.Key)
	}
	if res.URL != "https://cdn.example.com/"+res.Key {
		t.Errorf("url: got %q", res.URL)
	}
	if res.ContentType != "image/png" || objects.types[res.Key] != "image/png" {
		t.Errorf("content type: got %q", res.ContentType)
	}
	if res.Size != int64(len(img)) || !bytes.Equal(objects.objects[res.Key], img) {
		t.Error("stored object does not match upload")
	}
	if res.Width != 3 || res.Height != 2 {
		t.Errorf("dimensions: got %dx%d, want 3x2", res.Width, res.Height)
	}
}

func TestUploadImageRejects(t *testing.T) {
	caller := &models.Identity{UserID: uuid.New(), Role: models.RoleUser}
	img := encodePNG(t, 1, 1)
	truncated := append([]byte{}, img[:16]...)

	tests := []struct {
		name     string
		identity *models.Identity
		body     []byte
		want     apperr.Kind
	}{
		{"anonymous", nil, img, apperr.Unauthenticated},
		{"empty", caller, nil, apperr.BadRequest},
		{"not an image", caller, []byte("plain text, not a picture"), apperr.BadRequest},
		{"corrupt image", caller, truncated, apperr.BadRequest},
		{"too large", caller, append(append([]byte{}, img...), make([]byte, 1024)...), apperr.BadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := newMemObjects()
			svc := NewUploadService(objects, 512)
			_, err := svc.UploadImage(context.Background(), tt.identity, bytes.NewReader(tt.body))
			assertKind(t, err, tt.want)
			if len(objects.objects) != 0 {
				t.Error("nothing should have been stored")
			}
		})
	}
}

func TestUploadImageStorageFailure(t *testing.T) {
	objects := newMemObjects()
	objects.err = errors.New("bucket unavailable")
	svc := NewUploadService(objects, 0)
	caller := &models.Identity{UserID: uuid.New(), Role: models.RoleUser}

	if svc.MaxBytes() != DefaultMaxUploadBytes {
		t.Errorf("MaxBytes: got %d, want default", svc.MaxBytes())
	}
	_, err := svc.UploadImage(context.Background(), caller, bytes.NewReader(encodePNG(t, 1, 1)))
	assertKind(t, err, apperr.Internal)
}
