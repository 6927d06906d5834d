package testimonial

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/store"
	"github.com/jwstudio/portal/internal/store/memory"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewTestimonialStore())

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			in   Input
		}{
			{name: "missing author", in: Input{Quote: "Great", Rating: 5}},
			{name: "missing quote", in: Input{Author: "Ann", Quote: "  ", Rating: 5}},
			{name: "rating zero", in: Input{Author: "Ann", Quote: "Great", Rating: 0}},
			{name: "rating six", in: Input{Author: "Ann", Quote: "Great", Rating: 6}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tt.in)
				require.ErrorIs(t, err, ErrInvalidTestimonial)
			})
		}
	})

	published, err := svc.Create(ctx, Input{Author: " Ann ", Company: "Acme", Quote: "Great work", Rating: 5, Published: true})
	require.NoError(t, err)
	require.Equal(t, "Ann", published.Author)
	require.Equal(t, uuid.Version(7), published.ID.Version())

	draft, err := svc.Create(ctx, Input{Author: "Bo", Quote: "Fine", Rating: 3})
	require.NoError(t, err)

	t.Run("published only on public list", func(t *testing.T) {
		list, err := svc.Published(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.Equal(t, published.ID, list[0].ID)

		all, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("update publishes", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return now }

		updated, err := svc.Update(ctx, draft.ID, Input{Author: "Bo", Quote: "Actually excellent", Rating: 5, Published: true})
		require.NoError(t, err)
		require.Equal(t, "Actually excellent", updated.Quote)
		require.Equal(t, now, updated.UpdatedAt)

		stored, err := svc.Get(ctx, draft.ID)
		require.NoError(t, err)
		require.Equal(t, now, stored.UpdatedAt)

		list, err := svc.Published(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), Input{Author: "X", Quote: "Y", Rating: 1})
		require.ErrorIs(t, err, store.ErrTestimonialNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, draft.ID))
		_, err := svc.Get(ctx, draft.ID)
		require.ErrorIs(t, err, store.ErrTestimonialNotFound)
	})
}
