package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tableWaitTimeout bounds how long create and delete wait for the table state to settle.
var tableWaitTimeout = 30 * time.Second

// CreateTables creates the projects, testimonials and contacts tables and
// returns their names in that order.
// If cleanResources is true, deletes existing tables first to ensure clean state
// If cleanResources is false, reuses existing tables (preserves data)
func CreateTables(ctx context.Context, client DynamoDBAdminAPI, env string, cleanResources bool) ([]string, error) {
	tables := []struct {
		name string
		key  string
	}{
		{name: fmt.Sprintf("%s_projects", env), key: "token"},
		{name: fmt.Sprintf("%s_testimonials", env), key: "id"},
		{name: fmt.Sprintf("%s_contacts", env), key: "id"},
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := createTable(ctx, client, t.name, t.key, cleanResources); err != nil {
			return nil, fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
		names = append(names, t.name)
	}

	return names, nil
}

// createTable creates a table keyed by a single string hash key
func createTable(ctx context.Context, client DynamoDBAdminAPI, tableName, hashKey string, cleanResources bool) error {
	// Delete existing table if cleanResources is true
	if cleanResources {
		if err := deleteTableIfExists(ctx, client, tableName); err != nil {
			return err
		}
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(hashKey),
				KeyType:       types.KeyTypeHash,
			},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(hashKey),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	}

	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// If table already exists and we're not cleaning, that's OK
		var resourceInUse *types.ResourceInUseException
		if !cleanResources && errors.As(err, &resourceInUse) {
			return nil // Table exists, reuse it
		}
		return err
	}

	// Wait for table to be active
	waiter := dynamodb.NewTableExistsWaiter(client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, tableWaitTimeout)
}

// deleteTableIfExists attempts to delete a table if it exists
func deleteTableIfExists(ctx context.Context, client DynamoDBAdminAPI, tableName string) error {
	_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})

	// If table doesn't exist, we're done
	if err != nil {
		var resourceNotFound *types.ResourceNotFoundException
		if errors.As(err, &resourceNotFound) {
			return nil
		}
		return err
	}

	// Wait for table deletion to complete
	waiter := dynamodb.NewTableNotExistsWaiter(client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, tableWaitTimeout)
}

// DeleteTables removes the named tables
func DeleteTables(ctx context.Context, client DynamoDBAdminAPI, tableNames ...string) error {
	for _, name := range tableNames {
		if err := deleteTableIfExists(ctx, client, name); err != nil {
			return fmt.Errorf("failed to delete %s table: %w", name, err)
		}
	}
	return nil
}
