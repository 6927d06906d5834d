package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.TestimonialStore = (*TestimonialStore)(nil)

// TestimonialStore implements store.TestimonialStore using in-memory storage.
type TestimonialStore struct {
	mu sync.RWMutex

	testimonials map[uuid.UUID]*models.Testimonial
}

// NewTestimonialStore creates a new in-memory testimonial store.
func NewTestimonialStore() *TestimonialStore {
	return &TestimonialStore{
		testimonials: make(map[uuid.UUID]*models.Testimonial),
	}
}

func (s *TestimonialStore) Get(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.testimonials[id]
	if !exists {
		return nil, store.ErrTestimonialNotFound
	}

	clone := *t
	return &clone, nil
}

func (s *TestimonialStore) Create(ctx context.Context, testimonial *models.Testimonial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *testimonial
	s.testimonials[testimonial.ID] = &clone

	return nil
}

func (s *TestimonialStore) Update(ctx context.Context, testimonial *models.Testimonial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.testimonials[testimonial.ID]; !exists {
		return store.ErrTestimonialNotFound
	}

	clone := *testimonial
	s.testimonials[testimonial.ID] = &clone

	return nil
}

func (s *TestimonialStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.testimonials[id]; !exists {
		return store.ErrTestimonialNotFound
	}

	delete(s.testimonials, id)

	return nil
}

func (s *TestimonialStore) List(ctx context.Context, opts store.ListTestimonialsOptions) ([]*models.Testimonial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Testimonial
	for _, t := range s.testimonials {
		if opts.PublishedOnly && !t.Published {
			continue
		}
		clone := *t
		result = append(result, &clone)
	}

	slices.SortFunc(result, func(a, b *models.Testimonial) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return result, nil
}
