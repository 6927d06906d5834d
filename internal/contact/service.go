// Package contact accepts enquiries from the public contact form.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/notify"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/telemetry"
	"github.com/rs/zerolog/log"
)

const maxMessageLength = 5000

// ErrInvalidContact is returned when a submission fails validation.
var ErrInvalidContact = errors.New("invalid contact request")

// Service stores contact requests and notifies the studio.
type Service struct {
	contacts store.ContactStore
	notifier notify.Notifier
	now      func() time.Time
}

// NewService creates a contact service. A nil notifier logs instead.
func NewService(contacts store.ContactStore, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &Service{contacts: contacts, notifier: notifier, now: time.Now}
}

// Submission is what a visitor enters in the contact form.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Service string `json:"service,omitempty"`
	Message string `json:"message"`
}

func (s Submission) validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidContact)
	case strings.TrimSpace(s.Message) == "":
		return fmt.Errorf("%w: message is required", ErrInvalidContact)
	case len(s.Message) > maxMessageLength:
		return fmt.Errorf("%w: message must be at most %d characters", ErrInvalidContact, maxMessageLength)
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(s.Email)); err != nil {
		return fmt.Errorf("%w: email address is not valid", ErrInvalidContact)
	}

	return nil
}

// Submit validates and stores a submission from ipAddress.
// Notification failures are logged and do not fail the submission.
func (s *Service) Submit(ctx context.Context, sub Submission, ipAddress string) (*models.ContactRequest, error) {
	if err := sub.validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate contact id: %w", err)
	}

	c := &models.ContactRequest{
		ID:        id,
		Name:      strings.TrimSpace(sub.Name),
		Email:     strings.TrimSpace(sub.Email),
		Phone:     strings.TrimSpace(sub.Phone),
		Service:   strings.TrimSpace(sub.Service),
		Message:   strings.TrimSpace(sub.Message),
		Status:    models.ContactStatusNew,
		IPAddress: ipAddress,
		CreatedAt: s.now(),
	}

	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to store contact request: %w", err)
	}

	m := telemetry.GetMetrics()
	m.ContactRequestsTotal.Add(ctx, 1)

	if err := s.notifier.ContactReceived(ctx, c); err != nil {
		m.NotifyFailuresTotal.Add(ctx, 1)
		log.Error().Err(err).Str("contact_id", id.String()).Msg("failed to send contact notification")
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.ContactRequest, error) {
	return s.contacts.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*models.ContactRequest, error) {
	return s.contacts.List(ctx)
}

// SetStatus moves a contact request between new, read and archived.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidContact, status)
	}
	return s.contacts.UpdateStatus(ctx, id, status)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.contacts.Delete(ctx, id)
}
