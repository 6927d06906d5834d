package bootstrap

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// DynamoDBAdminAPI is the subset of the DynamoDB client needed to manage tables.
type DynamoDBAdminAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// SQSAdminAPI is the subset of the SQS client needed to manage queues.
type SQSAdminAPI interface {
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error)
}

// Config holds configuration for bootstrapping LocalStack infrastructure
type Config struct {
	// AWS SDK clients
	SQSClient    SQSAdminAPI
	DynamoClient DynamoDBAdminAPI

	// Resource naming
	Environment string // e.g., "dev", "test" - used as prefix for resource names

	// CleanResources controls whether to delete existing resources before creating
	// Set to false to preserve data across restarts (useful for development with live reload)
	CleanResources bool
}

// Resources holds identifiers for created infrastructure resources
type Resources struct {
	// ContactQueueURL receives contact.received notifications
	ContactQueueURL string

	// DynamoDB table names
	TableNames struct {
		Projects     string
		Testimonials string
		Contacts     string
	}
}
