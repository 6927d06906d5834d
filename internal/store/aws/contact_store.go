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
	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
)

var _ store.ContactStore = (*ContactStore)(nil)

type contactItem struct {
	ID        string               `dynamodbav:"id"`
	Name      string               `dynamodbav:"name"`
	Email     string               `dynamodbav:"email"`
	Phone     string               `dynamodbav:"phone,omitempty"`
	Service   string               `dynamodbav:"service,omitempty"`
	Message   string               `dynamodbav:"message"`
	Status    models.ContactStatus `dynamodbav:"status"`
	IPAddress string               `dynamodbav:"ip_address,omitempty"`
	CreatedAt time.Time            `dynamodbav:"created_at"`
}

func newContactItem(c *models.ContactRequest) contactItem {
	return contactItem{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Service:   c.Service,
		Message:   c.Message,
		Status:    c.Status,
		IPAddress: c.IPAddress,
		CreatedAt: c.CreatedAt,
	}
}

func (i contactItem) model() (*models.ContactRequest, error) {
	id, err := uuid.Parse(i.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid contact request id %q: %w", i.ID, err)
	}
	return &models.ContactRequest{
		ID:        id,
		Name:      i.Name,
		Email:     i.Email,
		Phone:     i.Phone,
		Service:   i.Service,
		Message:   i.Message,
		Status:    i.Status,
		IPAddress: i.IPAddress,
		CreatedAt: i.CreatedAt,
	}, nil
}

// ContactStore is a DynamoDB implementation of store.ContactStore.
type ContactStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewContactStore creates a new DynamoDB contact store.
func NewContactStore(client DynamoDBAPI, tableName string) *ContactStore {
	return &ContactStore{client: client, tableName: tableName}
}

func (s *ContactStore) Get(ctx context.Context, id uuid.UUID) (*models.ContactRequest, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, wrapAWSError(err, "failed to get contact request")
	}

	if result.Item == nil {
		return nil, store.ErrContactNotFound
	}

	var item contactItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact request: %w", err)
	}

	return item.model()
}

func (s *ContactStore) Create(ctx context.Context, c *models.ContactRequest) error {
	item, err := attributevalue.MarshalMap(newContactItem(c))
	if err != nil {
		return fmt.Errorf("failed to marshal contact request: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return wrapAWSError(err, "failed to create contact request")
	}

	return nil
}

func (s *ContactStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ContactStatus) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("status"), expression.Value(status))).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       idKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return store.ErrContactNotFound
		}
		return wrapAWSError(err, "failed to update contact request")
	}

	return nil
}

func (s *ContactStore) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, s.client, s.tableName, id, store.ErrContactNotFound)
}

func (s *ContactStore) List(ctx context.Context) ([]*models.ContactRequest, error) {
	items, err := scanAll[contactItem](ctx, s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return nil, err
	}

	contacts := make([]*models.ContactRequest, 0, len(items))
	for _, item := range items {
		c, err := item.model()
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	slices.SortFunc(contacts, func(a, b *models.ContactRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return contacts, nil
}
