package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/stretchr/testify/require"
)

var testTables = Tables{
	Projects:     "portal-projects",
	Testimonials: "portal-testimonials",
	Contacts:     "portal-contacts",
}

func newTestStores() (store.Stores, *fakeDynamoDB) {
	fake := newFakeDynamoDB(map[string]string{
		testTables.Projects:     "token",
		testTables.Testimonials: "id",
		testTables.Contacts:     "id",
	})
	return NewStores(fake, testTables), fake
}

func TestProjectStore(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	project := &models.Project{
		Token:        "JW-A1B2-C3D4-E5F6",
		Name:         "Brand refresh",
		ClientName:   "Acme",
		Status:       models.ProjectStatusPlanning,
		Milestones:   []models.Milestone{{Title: "Kickoff", Done: true}},
		PaymentLinks: []models.PaymentLink{{Label: "Deposit", URL: "https://pay.example.com/d"}},
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	t.Run("create then duplicate", func(t *testing.T) {
		require.NoError(t, stores.Projects.Create(ctx, project))
		require.ErrorIs(t, stores.Projects.Create(ctx, project), store.ErrProjectAlreadyExists)
	})

	t.Run("exists and get", func(t *testing.T) {
		exists, err := stores.Projects.Exists(ctx, project.Token)
		require.NoError(t, err)
		require.True(t, exists)

		exists, err = stores.Projects.Exists(ctx, "JW-0000-0000-0000")
		require.NoError(t, err)
		require.False(t, exists)

		got, err := stores.Projects.Get(ctx, project.Token)
		require.NoError(t, err)
		require.Equal(t, "Brand refresh", got.Name)
		require.True(t, got.CreatedAt.Equal(created))
		require.Equal(t, project.Milestones, got.Milestones)
		require.Equal(t, project.PaymentLinks, got.PaymentLinks)

		_, err = stores.Projects.Get(ctx, "JW-0000-0000-0000")
		require.ErrorIs(t, err, store.ErrProjectNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		newer := project.Clone()
		newer.Token = "JW-ZZZZ-ZZZZ-ZZZZ"
		newer.CreatedAt = created.Add(time.Hour)
		require.NoError(t, stores.Projects.Create(ctx, newer))

		projects, err := stores.Projects.List(ctx)
		require.NoError(t, err)
		require.Len(t, projects, 2)
		require.Equal(t, "JW-ZZZZ-ZZZZ-ZZZZ", projects[0].Token)
	})

	t.Run("update and delete", func(t *testing.T) {
		project.Progress = 50
		require.NoError(t, stores.Projects.Update(ctx, project))

		got, err := stores.Projects.Get(ctx, project.Token)
		require.NoError(t, err)
		require.Equal(t, 50, got.Progress)

		require.NoError(t, stores.Projects.Delete(ctx, project.Token))
		require.ErrorIs(t, stores.Projects.Delete(ctx, project.Token), store.ErrProjectNotFound)
		require.ErrorIs(t, stores.Projects.Update(ctx, project), store.ErrProjectNotFound)
	})
}

func TestTestimonialStore(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()

	published := &models.Testimonial{ID: uuid.Must(uuid.NewV7()), Author: "Sam", Quote: "Superb", Rating: 5, Published: true, CreatedAt: time.Now()}
	draft := &models.Testimonial{ID: uuid.Must(uuid.NewV7()), Author: "Lee", Quote: "Solid", Rating: 4, CreatedAt: time.Now().Add(time.Minute)}

	require.NoError(t, stores.Testimonials.Create(ctx, published))
	require.NoError(t, stores.Testimonials.Create(ctx, draft))

	got, err := stores.Testimonials.Get(ctx, published.ID)
	require.NoError(t, err)
	require.Equal(t, published.ID, got.ID)
	require.Equal(t, "Superb", got.Quote)

	list, err := stores.Testimonials.List(ctx, store.ListTestimonialsOptions{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Sam", list[0].Author)

	list, err = stores.Testimonials.List(ctx, store.ListTestimonialsOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Lee", list[0].Author)

	require.NoError(t, stores.Testimonials.Delete(ctx, draft.ID))
	require.ErrorIs(t, stores.Testimonials.Delete(ctx, draft.ID), store.ErrTestimonialNotFound)
	require.ErrorIs(t, stores.Testimonials.Update(ctx, draft), store.ErrTestimonialNotFound)
}

func TestContactStore(t *testing.T) {
	ctx := context.Background()
	stores, _ := newTestStores()

	contact := &models.ContactRequest{
		ID: uuid.Must(uuid.NewV7()), Name: "Jo", Email: "jo@example.com",
		Message: "Need a site", Status: models.ContactStatusNew, CreatedAt: time.Now(),
	}
	require.NoError(t, stores.Contacts.Create(ctx, contact))

	require.NoError(t, stores.Contacts.UpdateStatus(ctx, contact.ID, models.ContactStatusArchived))

	got, err := stores.Contacts.Get(ctx, contact.ID)
	require.NoError(t, err)
	require.Equal(t, models.ContactStatusArchived, got.Status)

	require.ErrorIs(t, stores.Contacts.UpdateStatus(ctx, uuid.New(), models.ContactStatusRead), store.ErrContactNotFound)

	list, err := stores.Contacts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestWrapAWSError(t *testing.T) {
	require.NoError(t, wrapAWSError(nil, "noop"))

	throttled := wrapAWSError(&types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}, "failed to get project")
	require.ErrorIs(t, throttled, store.ErrThrottled)
	require.Contains(t, throttled.Error(), "failed to get project")

	generic := errors.New("ThrottlingException: rate exceeded")
	require.ErrorIs(t, wrapAWSError(generic, "scan"), store.ErrThrottled)

	other := errors.New("access denied")
	wrapped := wrapAWSError(other, "scan")
	require.ErrorIs(t, wrapped, other)
	require.NotErrorIs(t, wrapped, store.ErrThrottled)
}

func TestListPropagatesScanErrors(t *testing.T) {
	stores, fake := newTestStores()
	fake.scanErr = &types.RequestLimitExceeded{Message: aws.String("limit")}

	_, err := stores.Projects.List(context.Background())
	require.ErrorIs(t, err, store.ErrThrottled)
}

func TestTablesValidate(t *testing.T) {
	require.NoError(t, testTables.Validate())
	require.Error(t, Tables{Projects: "p"}.Validate())
}
