// Package store defines the persistence interfaces of the portal.
//
// Implementations live in the memory, postgres, aws and redis subpackages and are
// selected at startup with --store-type.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
)

// Sentinel errors for common error conditions
var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectAlreadyExists = errors.New("project already exists")
	ErrTestimonialNotFound  = errors.New("testimonial not found")
	ErrContactNotFound      = errors.New("contact request not found")
	ErrThrottled            = errors.New("request throttled")
)

// ProjectStore persists projects keyed by their token.
type ProjectStore interface {
	// Get retrieves a project by token.
	// Returns ErrProjectNotFound if no project has that token.
	Get(ctx context.Context, token string) (*models.Project, error)

	// Exists reports whether a project with the token is stored.
	Exists(ctx context.Context, token string) (bool, error)

	// Create stores a new project only if its token is not taken.
	// The check and the write are a single atomic operation in every backend.
	// Returns ErrProjectAlreadyExists if the token is in use.
	Create(ctx context.Context, project *models.Project) error

	// Update replaces an existing project.
	// Returns ErrProjectNotFound if the project doesn't exist.
	Update(ctx context.Context, project *models.Project) error

	// Delete removes a project by token.
	// Returns ErrProjectNotFound if the project doesn't exist.
	Delete(ctx context.Context, token string) error

	// List returns all projects, newest first.
	List(ctx context.Context) ([]*models.Project, error)
}

// TestimonialStore persists testimonials.
type TestimonialStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Testimonial, error)
	Create(ctx context.Context, testimonial *models.Testimonial) error
	// Update returns ErrTestimonialNotFound if the testimonial doesn't exist.
	Update(ctx context.Context, testimonial *models.Testimonial) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns testimonials newest first.
	List(ctx context.Context, opts ListTestimonialsOptions) ([]*models.Testimonial, error)
}

// ListTestimonialsOptions filters testimonial listings.
type ListTestimonialsOptions struct {
	PublishedOnly bool // marketing site only shows published quotes
}

// ContactStore persists contact requests.
type ContactStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.ContactRequest, error)
	Create(ctx context.Context, contact *models.ContactRequest) error
	// UpdateStatus returns ErrContactNotFound if the request doesn't exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns contact requests newest first.
	List(ctx context.Context) ([]*models.ContactRequest, error)
}

// Stores groups the stores a backend provides.
type Stores struct {
	Projects     ProjectStore
	Testimonials TestimonialStore
	Contacts     ContactStore
}
