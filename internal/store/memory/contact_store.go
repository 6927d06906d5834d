package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.ContactStore = (*ContactStore)(nil)

// ContactStore implements store.ContactStore using in-memory storage.
type ContactStore struct {
	mu sync.RWMutex

	contacts map[uuid.UUID]*models.ContactRequest
}

// NewContactStore creates a new in-memory contact store.
func NewContactStore() *ContactStore {
	return &ContactStore{
		contacts: make(map[uuid.UUID]*models.ContactRequest),
	}
}

func (s *ContactStore) Get(ctx context.Context, id uuid.UUID) (*models.ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.contacts[id]
	if !exists {
		return nil, store.ErrContactNotFound
	}

	clone := *c
	return &clone, nil
}

func (s *ContactStore) Create(ctx context.Context, contact *models.ContactRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *contact
	s.contacts[contact.ID] = &clone

	return nil
}

func (s *ContactStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.contacts[id]
	if !exists {
		return store.ErrContactNotFound
	}

	c.Status = status

	return nil
}

func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contacts[id]; !exists {
		return store.ErrContactNotFound
	}

	delete(s.contacts, id)

	return nil
}

func (s *ContactStore) List(ctx context.Context) ([]*models.ContactRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.ContactRequest, 0, len(s.contacts))
	for _, c := range s.contacts {
		clone := *c
		result = append(result, &clone)
	}

	slices.SortFunc(result, func(a, b *models.ContactRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return result, nil
}
