package redis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.ContactStore = (*ContactStore)(nil)

// ContactStore implements store.ContactStore on Redis.
type ContactStore struct {
	records *collection[models.ContactRequest]
}

func (s *ContactStore) Get(ctx context.Context, id uuid.UUID) (*models.ContactRequest, error) {
	c, err := s.records.get(ctx, id.String())
	if errors.Is(err, errMissing) {
		return nil, store.ErrContactNotFound
	}
	return c, err
}

func (s *ContactStore) Create(ctx context.Context, c *models.ContactRequest) error {
	err := s.records.create(ctx, c.ID.String(), c.CreatedAt, c)
	if errors.Is(err, errExists) {
		return errors.New("contact request already exists")
	}
	return err
}

func (s *ContactStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) error {
	err := s.records.modify(ctx, id.String(), func(c *models.ContactRequest) {
		c.Status = status
	})
	if errors.Is(err, errMissing) {
		return store.ErrContactNotFound
	}
	return err
}

func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.records.delete(ctx, id.String())
	if errors.Is(err, errMissing) {
		return store.ErrContactNotFound
	}
	return err
}

func (s *ContactStore) List(ctx context.Context) ([]*models.ContactRequest, error) {
	return s.records.list(ctx)
}
