package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/project"
	"github.com/jwstudio/portal/internal/store/memory"
	"github.com/jwstudio/portal/internal/testimonial"
	"github.com/jwstudio/portal/internal/token"
	"github.com/stretchr/testify/require"
)

const testSeed = `
projects:
  - token: " jw-ab12-cd34-ef56 "
    name: Bakery website
    client_name: Crumbs Ltd
    status: in_progress
    progress: 30
    milestones:
      - title: Wireframes
        done: true
      - title: Launch
        due_date: 2026-12-01T00:00:00Z
    payment_links:
      - label: Deposit
        url: https://pay.example/deposit
  - name: Florist shop
    client_name: Petals
testimonials:
  - author: Ann
    company: Crumbs Ltd
    quote: Brilliant work
    rating: 5
    published: true
`

func TestSeed(t *testing.T) {
	ctx := context.Background()

	seed, err := loadSeed(strings.NewReader(testSeed))
	require.NoError(t, err)
	require.Len(t, seed.Projects, 2)

	projects := project.NewService(memory.NewProjectStore())
	testimonials := testimonial.NewService(memory.NewTestimonialStore())

	res, err := seed.apply(ctx, projects, testimonials)
	require.NoError(t, err)
	require.Equal(t, &seedResult{Projects: 2, Testimonials: 1}, res)

	bakery, err := projects.Lookup(ctx, "JW-AB12-CD34-EF56")
	require.NoError(t, err)
	require.Equal(t, models.ProjectStatusInProgress, bakery.Status)
	require.Len(t, bakery.Milestones, 2)
	require.NotNil(t, bakery.Milestones[1].DueDate)
	require.Equal(t, "https://pay.example/deposit", bakery.PaymentLinks[0].URL)

	list, err := projects.List(ctx)
	require.NoError(t, err)
	for _, p := range list {
		require.True(t, token.Validate(p.Token))
	}

	t.Run("applying twice skips taken tokens", func(t *testing.T) {
		res, err := seed.apply(ctx, projects, testimonials)
		require.NoError(t, err)
		require.Equal(t, 1, res.Skipped)
		require.Equal(t, 1, res.Projects)
	})
}

func TestSeed_Invalid(t *testing.T) {
	_, err := loadSeed(strings.NewReader("projects:\n  - colour: red\n"))
	require.Error(t, err)

	seed, err := loadSeed(strings.NewReader("projects:\n  - token: JW-12\n    name: x\n    client_name: y\n"))
	require.NoError(t, err)

	_, err = seed.apply(context.Background(), project.NewService(memory.NewProjectStore()), testimonial.NewService(memory.NewTestimonialStore()))
	require.ErrorIs(t, err, token.ErrInvalidFormat)
}
