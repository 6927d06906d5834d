package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/store/memory"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	received []*models.ContactRequest
	err      error
}

func (n *recordingNotifier) ContactReceived(ctx context.Context, c *models.ContactRequest) error {
	n.received = append(n.received, c)
	return n.err
}

func validSubmission() Submission {
	return Submission{
		Name:    "Jo Bloggs",
		Email:   "jo@example.com",
		Service: "branding",
		Message: "We need a new logo.",
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and notifies", func(t *testing.T) {
		contacts := memory.NewContactStore()
		notifier := &recordingNotifier{}
		svc := NewService(contacts, notifier)

		c, err := svc.Submit(ctx, validSubmission(), "203.0.113.9")
		require.NoError(t, err)
		require.Equal(t, models.ContactStatusNew, c.Status)
		require.Equal(t, "203.0.113.9", c.IPAddress)

		stored, err := contacts.Get(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, "We need a new logo.", stored.Message)

		require.Len(t, notifier.received, 1)
		require.Equal(t, c.ID, notifier.received[0].ID)
	})

	t.Run("notification failure does not fail submission", func(t *testing.T) {
		contacts := memory.NewContactStore()
		svc := NewService(contacts, &recordingNotifier{err: errors.New("queue down")})

		c, err := svc.Submit(ctx, validSubmission(), "")
		require.NoError(t, err)

		_, err = contacts.Get(ctx, c.ID)
		require.NoError(t, err)
	})

	t.Run("nil notifier logs", func(t *testing.T) {
		svc := NewService(memory.NewContactStore(), nil)

		_, err := svc.Submit(ctx, validSubmission(), "")
		require.NoError(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Submission)
		}{
			{name: "missing name", mutate: func(s *Submission) { s.Name = "" }},
			{name: "bad email", mutate: func(s *Submission) { s.Email = "not-an-email" }},
			{name: "missing message", mutate: func(s *Submission) { s.Message = "\n" }},
			{name: "message too long", mutate: func(s *Submission) { s.Message = strings.Repeat("a", maxMessageLength+1) }},
		}

		notifier := &recordingNotifier{}
		svc := NewService(memory.NewContactStore(), notifier)

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				sub := validSubmission()
				tt.mutate(&sub)

				_, err := svc.Submit(ctx, sub, "")
				require.ErrorIs(t, err, ErrInvalidContact)
			})
		}

		require.Empty(t, notifier.received)
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewContactStore(), &recordingNotifier{})

	c, err := svc.Submit(ctx, validSubmission(), "")
	require.NoError(t, err)

	require.NoError(t, svc.SetStatus(ctx, c.ID, models.ContactStatusArchived))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, models.ContactStatusArchived, got.Status)

	require.ErrorIs(t, svc.SetStatus(ctx, c.ID, "spam"), ErrInvalidContact)
	require.ErrorIs(t, svc.SetStatus(ctx, uuid.New(), models.ContactStatusRead), store.ErrContactNotFound)

	require.NoError(t, svc.Delete(ctx, c.ID))
	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
