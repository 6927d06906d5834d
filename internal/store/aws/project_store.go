package aws

import (
	"context"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jwstudio/portal/internal/models"
	"github.com/jwstudio/portal/internal/store"
	"github.com/rs/zerolog/log"
)

var _ store.ProjectStore = (*ProjectStore)(nil)

// ProjectStore is a DynamoDB implementation of store.ProjectStore.
// Items are keyed by token; Create is a conditional put.
type ProjectStore struct {
	client    DynamoDBAPI
	tableName string
}

// NewProjectStore creates a new DynamoDB project store.
func NewProjectStore(client DynamoDBAPI, tableName string) *ProjectStore {
	return &ProjectStore{
		client:    client,
		tableName: tableName,
	}
}

func projectKey(token string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"token": &types.AttributeValueMemberS{Value: token},
	}
}

// Get retrieves a project by token.
func (s *ProjectStore) Get(ctx context.Context, token string) (*models.Project, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            projectKey(token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, wrapAWSError(err, "failed to get project")
	}

	if result.Item == nil {
		return nil, store.ErrProjectNotFound
	}

	var project models.Project
	if err := attributevalue.UnmarshalMap(result.Item, &project); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}

	return &project, nil
}

// Exists reports whether the token is taken.
func (s *ProjectStore) Exists(ctx context.Context, token string) (bool, error) {
	// token is a DynamoDB reserved word so the projection goes through the builder
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("token"))).
		Build()
	if err != nil {
		return false, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.tableName),
		Key:                      projectKey(token),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return false, wrapAWSError(err, "failed to check project")
	}

	return result.Item != nil, nil
}

// Create puts the project on condition that no item has its token.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	item, err := attributevalue.MarshalMap(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("token"))).
		Build()
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
			return store.ErrProjectAlreadyExists
		}
		return wrapAWSError(err, "failed to create project")
	}

	log.Debug().Str("token", project.Token).Msg("project created")

	return nil
}

// Update replaces an existing project.
func (s *ProjectStore) Update(ctx context.Context, project *models.Project) error {
	item, err := attributevalue.MarshalMap(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("token"))).
		Build()
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
			return store.ErrProjectNotFound
		}
		return wrapAWSError(err, "failed to update project")
	}

	return nil
}

// Delete removes a project by token.
func (s *ProjectStore) Delete(ctx context.Context, token string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("token"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       projectKey(token),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return store.ErrProjectNotFound
		}
		return wrapAWSError(err, "failed to delete project")
	}

	log.Info().Str("token", token).Msg("project deleted")

	return nil
}

// List scans all projects and returns them newest first.
// The project table is small (one item per client engagement) so a scan is acceptable.
func (s *ProjectStore) List(ctx context.Context) ([]*models.Project, error) {
	projects, err := scanAll[*models.Project](ctx, s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(projects, func(a, b *models.Project) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return projects, nil
}
