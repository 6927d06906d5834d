// Package aws implements the portal stores on DynamoDB.
package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jwstudio/portal/internal/store"
)

// DynamoDBAPI is the subset of the DynamoDB client used by the stores.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Tables names the DynamoDB tables used by the stores.
type Tables struct {
	Projects     string
	Testimonials string
	Contacts     string
}

// Validate checks all table names are set.
func (t Tables) Validate() error {
	if t.Projects == "" || t.Testimonials == "" || t.Contacts == "" {
		return fmt.Errorf("projects, testimonials and contacts table names are required")
	}
	return nil
}

// NewStores creates the DynamoDB backed stores.
func NewStores(client DynamoDBAPI, tables Tables) store.Stores {
	return store.Stores{
		Projects:     NewProjectStore(client, tables.Projects),
		Testimonials: NewTestimonialStore(client, tables.Testimonials),
		Contacts:     NewContactStore(client, tables.Contacts),
	}
}

// wrapAWSError wraps AWS errors, marking throttling as store.ErrThrottled.
func wrapAWSError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var provisionedErr *types.ProvisionedThroughputExceededException
	if errors.As(err, &provisionedErr) {
		return fmt.Errorf("%s: %w: %v", msg, store.ErrThrottled, err)
	}

	var limitErr *types.RequestLimitExceeded
	if errors.As(err, &limitErr) {
		return fmt.Errorf("%s: %w: %v", msg, store.ErrThrottled, err)
	}

	// not every throttling response is modelled as a typed error
	if strings.Contains(err.Error(), "ThrottlingException") {
		return fmt.Errorf("%s: %w: %v", msg, store.ErrThrottled, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func isConditionFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// scanAll reads every item in a table and unmarshals each into T.
func scanAll[T any](ctx context.Context, client DynamoDBAPI, input *dynamodb.ScanInput) ([]T, error) {
	var items []T

	paginator := dynamodb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, wrapAWSError(err, fmt.Sprintf("failed to scan %s", aws.ToString(input.TableName)))
		}

		var batch []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, batch...)
	}

	return items, nil
}
