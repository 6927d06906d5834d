package bootstrap

import (
	"context"
	"fmt"
)

// Bootstrap creates all required infrastructure (SQS queue + DynamoDB tables)
// If CleanResources is true, deletes existing resources first to ensure clean state
// If CleanResources is false, creates resources only if they don't exist (preserves data)
func Bootstrap(ctx context.Context, cfg Config) (*Resources, error) {
	// Validate config
	if cfg.SQSClient == nil {
		return nil, fmt.Errorf("SQSClient is required")
	}
	if cfg.DynamoClient == nil {
		return nil, fmt.Errorf("DynamoClient is required")
	}
	if cfg.Environment == "" {
		cfg.Environment = "dev" // Default environment
	}

	resources := &Resources{}

	queueURL, err := CreateContactQueue(ctx, cfg.SQSClient, cfg.Environment, cfg.CleanResources)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQS queue: %w", err)
	}
	resources.ContactQueueURL = queueURL

	tables, err := CreateTables(ctx, cfg.DynamoClient, cfg.Environment, cfg.CleanResources)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB tables: %w", err)
	}
	resources.TableNames.Projects = tables[0]
	resources.TableNames.Testimonials = tables[1]
	resources.TableNames.Contacts = tables[2]

	return resources, nil
}

// Cleanup deletes all resources created by Bootstrap
func Cleanup(ctx context.Context, cfg Config, res *Resources) error {
	if err := DeleteQueue(ctx, cfg.SQSClient, res.ContactQueueURL); err != nil {
		return fmt.Errorf("failed to delete queue: %w", err)
	}

	if err := DeleteTables(ctx, cfg.DynamoClient,
		res.TableNames.Projects, res.TableNames.Testimonials, res.TableNames.Contacts); err != nil {
		return fmt.Errorf("failed to delete tables: %w", err)
	}

	return nil
}
