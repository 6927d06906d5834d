package memory

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.MediaStore = (*MediaStore)(nil)

const defaultMediaLimit = 100

// MediaStore implements store.MediaStore in memory, serving URLs below baseURL.
// Used in development when no CDN credentials are configured.
type MediaStore struct {
	mu sync.RWMutex

	baseURL string
	assets  map[string]*models.MediaAsset
}

// NewMediaStore creates a new in-memory media store.
func NewMediaStore(baseURL string) *MediaStore {
	return &MediaStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		assets:  make(map[string]*models.MediaAsset),
	}
}

func (s *MediaStore) Upload(ctx context.Context, in store.UploadInput) (*models.MediaAsset, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate media ID: %w", err)
	}

	folder := "/" + strings.Trim(in.Folder, "/")
	asset := &models.MediaAsset{
		ID:        id.String(),
		Name:      in.Name,
		Folder:    folder,
		URL:       s.baseURL + path.Join(folder, in.Name),
		Size:      int64(len(in.Data)),
		Checksum:  in.Checksum,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.assets[asset.ID] = asset

	clone := *asset
	return &clone, nil
}

func (s *MediaStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assets[id]; !exists {
		return store.ErrMediaNotFound
	}

	delete(s.assets, id)

	return nil
}

func (s *MediaStore) List(ctx context.Context, opts store.ListMediaOptions) ([]*models.MediaAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := "/" + strings.Trim(opts.Path, "/")

	var result []*models.MediaAsset
	for _, a := range s.assets {
		if !strings.HasPrefix(a.Folder, prefix) {
			continue
		}
		clone := *a
		result = append(result, &clone)
	}

	slices.SortFunc(result, func(a, b *models.MediaAsset) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultMediaLimit
	}
	if opts.Offset >= len(result) {
		return []*models.MediaAsset{}, nil
	}
	result = result[opts.Offset:]
	if len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
