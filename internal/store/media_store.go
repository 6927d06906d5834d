package store

import (
	"context"
	"errors"

	"github.com/jwstudio/portal/internal/models"
)

// ErrMediaNotFound is returned when a CDN file ID is unknown.
var ErrMediaNotFound = errors.New("media asset not found")

// MediaStore is the blob/CDN collaborator holding uploaded images.
type MediaStore interface {
	// Upload stores the bytes under folder/name and returns the hosted asset.
	Upload(ctx context.Context, in UploadInput) (*models.MediaAsset, error)

	// Delete removes the asset with the CDN file ID.
	Delete(ctx context.Context, id string) error

	// List returns assets below path, newest first.
	List(ctx context.Context, opts ListMediaOptions) ([]*models.MediaAsset, error)
}

// UploadInput describes a file to upload.
type UploadInput struct {
	Data        []byte
	Name        string
	Folder      string
	ContentType string
	Checksum    string // stored alongside the asset when the backend supports it
}

// ListMediaOptions pages through a media folder.
type ListMediaOptions struct {
	Path   string
	Limit  int // 0 = backend default
	Offset int
}
