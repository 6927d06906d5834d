package redis

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.TestimonialStore = (*TestimonialStore)(nil)

// TestimonialStore implements store.TestimonialStore on Redis.
type TestimonialStore struct {
	records *collection[models.Testimonial]
}

func (s *TestimonialStore) Get(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	t, err := s.records.get(ctx, id.String())
	if errors.Is(err, errMissing) {
		return nil, store.ErrTestimonialNotFound
	}
	return t, err
}

func (s *TestimonialStore) Create(ctx context.Context, t *models.Testimonial) error {
	err := s.records.create(ctx, t.ID.String(), t.CreatedAt, t)
	if errors.Is(err, errExists) {
		return errors.New("testimonial already exists")
	}
	return err
}

func (s *TestimonialStore) Update(ctx context.Context, t *models.Testimonial) error {
	err := s.records.replace(ctx, t.ID.String(), t)
	if errors.Is(err, errMissing) {
		return store.ErrTestimonialNotFound
	}
	return err
}

func (s *TestimonialStore) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.records.delete(ctx, id.String())
	if errors.Is(err, errMissing) {
		return store.ErrTestimonialNotFound
	}
	return err
}

func (s *TestimonialStore) List(ctx context.Context, opts store.ListTestimonialsOptions) ([]*models.Testimonial, error) {
	all, err := s.records.list(ctx)
	if err != nil || !opts.PublishedOnly {
		return all, err
	}

	published := all[:0]
	for _, t := range all {
		if t.Published {
			published = append(published, t)
		}
	}
	return published, nil
}
