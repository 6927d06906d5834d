// Package media validates image uploads for the portfolio and hands them to the CDN.
package media

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/telemetry"
	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DefaultMaxUploadBytes caps a single image upload.
const DefaultMaxUploadBytes = 10 << 20

var (
	// ErrInvalidUpload is returned for empty, oversized or non-image uploads.
	ErrInvalidUpload = errors.New("invalid upload")
)

// Service uploads, lists and deletes media assets.
type Service struct {
	media    store.MediaStore
	maxBytes int64
}

// NewService creates a media service. maxBytes <= 0 uses DefaultMaxUploadBytes.
func NewService(media store.MediaStore, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Service{media: media, maxBytes: maxBytes}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Checksum returns the base58 encoded CRC64-NVME of data.
func Checksum(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], h.Sum64())

	return base58.Encode(sum[:])
}

// Upload validates the file and stores it in folder.
// The content type is sniffed from the bytes; the client supplied type is ignored.
func (s *Service) Upload(ctx context.Context, name, folder string, data []byte) (*models.MediaAsset, error) {
	name = path.Base(strings.TrimSpace(name))
	switch {
	case name == "." || name == "/":
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	case len(data) == 0:
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidUpload)
	case int64(len(data)) > s.maxBytes:
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, s.maxBytes)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s is not an image", ErrInvalidUpload, contentType)
	}

	checksum := Checksum(data)

	asset, err := s.media.Upload(ctx, store.UploadInput{
		Data:        data,
		Name:        name,
		Folder:      folder,
		ContentType: contentType,
		Checksum:    checksum,
	})
	if err != nil {
		return nil, err
	}

	m := telemetry.GetMetrics()
	attrs := metric.WithAttributes(attribute.String("content_type", contentType))
	m.MediaUploadsTotal.Add(ctx, 1, attrs)
	m.MediaUploadBytes.Add(ctx, int64(len(data)), attrs)

	log.Info().
		Str("media_id", asset.ID).
		Str("name", name).
		Str("checksum", checksum).
		Int("bytes", len(data)).
		Msg("media uploaded")

	return asset, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return store.ErrMediaNotFound
	}
	return s.media.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, opts store.ListMediaOptions) ([]*models.MediaAsset, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidUpload)
	}
	return s.media.List(ctx, opts)
}
