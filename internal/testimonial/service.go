// Package testimonial manages client testimonials shown on the marketing site.
package testimonial

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/rs/zerolog/log"
)

// ErrInvalidTestimonial is returned when testimonial fields fail validation.
var ErrInvalidTestimonial = errors.New("invalid testimonial")

// Service validates and stores testimonials.
type Service struct {
	testimonials store.TestimonialStore
	now          func() time.Time
}

// NewService creates a testimonial service.
func NewService(testimonials store.TestimonialStore) *Service {
	return &Service{testimonials: testimonials, now: time.Now}
}

// Input holds the editable fields of a testimonial.
type Input struct {
	Author    string `json:"author" yaml:"author"`
	Company   string `json:"company,omitempty" yaml:"company"`
	Quote     string `json:"quote" yaml:"quote"`
	Rating    int    `json:"rating" yaml:"rating"`
	Published bool   `json:"published" yaml:"published"`
}

func (in Input) validate() error {
	switch {
	case strings.TrimSpace(in.Author) == "":
		return fmt.Errorf("%w: author is required", ErrInvalidTestimonial)
	case strings.TrimSpace(in.Quote) == "":
		return fmt.Errorf("%w: quote is required", ErrInvalidTestimonial)
	case in.Rating < 1 || in.Rating > 5:
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidTestimonial)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Testimonial, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate testimonial id: %w", err)
	}

	now := s.now()
	t := &models.Testimonial{
		ID:        id,
		Author:    strings.TrimSpace(in.Author),
		Company:   strings.TrimSpace(in.Company),
		Quote:     strings.TrimSpace(in.Quote),
		Rating:    in.Rating,
		Published: in.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.testimonials.Create(ctx, t); err != nil {
		return nil, err
	}

	log.Info().Str("testimonial_id", id.String()).Bool("published", t.Published).Msg("testimonial created")

	return t, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*models.Testimonial, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	t, err := s.testimonials.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	t.Author = strings.TrimSpace(in.Author)
	t.Company = strings.TrimSpace(in.Company)
	t.Quote = strings.TrimSpace(in.Quote)
	t.Rating = in.Rating
	t.Published = in.Published
	t.UpdatedAt = s.now()

	if err := s.testimonials.Update(ctx, t); err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	return s.testimonials.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.testimonials.Delete(ctx, id)
}

// List returns all testimonials for the admin dashboard.
func (s *Service) List(ctx context.Context) ([]*models.Testimonial, error) {
	return s.testimonials.List(ctx, store.ListTestimonialsOptions{})
}

// Published returns the testimonials shown on the public site.
func (s *Service) Published(ctx context.Context) ([]*models.Testimonial, error) {
	return s.testimonials.List(ctx, store.ListTestimonialsOptions{PublishedOnly: true})
}
