package aws

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.TestimonialStore = (*TestimonialStore)(nil)

// testimonialItem stores the UUID as a string key attribute.
type testimonialItem struct {
	ID        string    `dynamodbav:"id"`
	Author    string    `dynamodbav:"author"`
	Company   string    `dynamodbav:"company,omitempty"`
	Quote     string    `dynamodbav:"quote"`
	Rating    int       `dynamodbav:"rating"`
	Published bool      `dynamodbav:"published"`
	CreatedAt time.Time `dynamodbav:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

func newTestimonialItem(t *models.Testimonial) testimonialItem {
	return testimonialItem{
		ID:        t.ID.String(),
		Author:    t.Author,
		Company:   t.Company,
		Quote:     t.Quote,
		Rating:    t.Rating,
		Published: t.Published,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (i testimonialItem) model() (*models.Testimonial, error) {
	id, err := uuid.Parse(i.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid testimonial id %q: %w", i.ID, err)
	}
	return &models.Testimonial{
		ID:        id,
		Author:    i.Author,
		Company:   i.Company,
		Quote:     i.Quote,
		Rating:    i.Rating,
		Published: i.Published,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}, nil
}

// TestimonialStore is a DynamoDB implementation of store.TestimonialStore.
type TestimonialStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewTestimonialStore creates a new DynamoDB testimonial store.
func NewTestimonialStore(client DynamoDBAPI, tableName string) *TestimonialStore {
	return &TestimonialStore{client: client, tableName: tableName}
}

func idKey(id uuid.UUID) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id.String()},
	}
}

func (s *TestimonialStore) Get(ctx context.Context, id uuid.UUID) (*models.Testimonial, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, wrapAWSError(err, "failed to get testimonial")
	}

	if result.Item == nil {
		return nil, store.ErrTestimonialNotFound
	}

	var item testimonialItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal testimonial: %w", err)
	}

	return item.model()
}

func (s *TestimonialStore) Create(ctx context.Context, t *models.Testimonial) error {
	err := s.put(ctx, t, expression.AttributeNotExists(expression.Name("id")), "failed to create testimonial")
	if isConditionFailed(err) {
		return fmt.Errorf("testimonial %s already exists: %w", t.ID, err)
	}
	return err
}

func (s *TestimonialStore) Update(ctx context.Context, t *models.Testimonial) error {
	err := s.put(ctx, t, expression.AttributeExists(expression.Name("id")), "failed to update testimonial")
	if isConditionFailed(err) {
		return store.ErrTestimonialNotFound
	}
	return err
}

func (s *TestimonialStore) put(ctx context.Context, t *models.Testimonial, cond expression.ConditionBuilder, msg string) error {
	item, err := attributevalue.MarshalMap(newTestimonialItem(t))
	if err != nil {
		return fmt.Errorf("failed to marshal testimonial: %w", err)
	}

	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return err
		}
		return wrapAWSError(err, msg)
	}

	return nil
}

func (s *TestimonialStore) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, s.client, s.tableName, id, store.ErrTestimonialNotFound)
}

func (s *TestimonialStore) List(ctx context.Context, opts store.ListTestimonialsOptions) ([]*models.Testimonial, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(s.tableName)}

	if opts.PublishedOnly {
		expr, err := expression.NewBuilder().
			WithFilter(expression.Name("published").Equal(expression.Value(true))).
			Build()
		if err != nil {
			return nil, fmt.Errorf("failed to build filter expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	items, err := scanAll[testimonialItem](ctx, s.client, input)
	if err != nil {
		return nil, err
	}

	testimonials := make([]*models.Testimonial, 0, len(items))
	for _, item := range items {
		t, err := item.model()
		if err != nil {
			return nil, err
		}
		testimonials = append(testimonials, t)
	}

	slices.SortFunc(testimonials, func(a, b *models.Testimonial) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return testimonials, nil
}

// deleteByID removes an item keyed by id, returning notFound when absent.
func deleteByID(ctx context.Context, client DynamoDBAPI, tableName string, id uuid.UUID, notFound error) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(tableName),
		Key:                       idKey(id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return notFound
		}
		return wrapAWSError(err, fmt.Sprintf("failed to delete from %s", tableName))
	}

	return nil
}
