package aws

import (
	"context"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamoDB keeps items per table keyed by the string value of their hash key.
// It understands only the condition and filter shapes the stores emit.
type fakeDynamoDB struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	keys   map[string]string // table -> hash key attribute

	scanErr error
}

func newFakeDynamoDB(keys map[string]string) *fakeDynamoDB {
	return &fakeDynamoDB{
		tables: make(map[string]map[string]map[string]types.AttributeValue),
		keys:   keys,
	}
}

func (f *fakeDynamoDB) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = make(map[string]map[string]types.AttributeValue)
		f.tables[name] = t
	}
	return t
}

func keyValue(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func conditionFails(cond *string, exists bool) bool {
	c := aws.ToString(cond)
	switch {
	case strings.Contains(c, "attribute_not_exists"):
		return exists
	case strings.Contains(c, "attribute_exists"):
		return !exists
	}
	return false
}

func conditionalCheckFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := keyValue(in.Key[f.keys[aws.ToString(in.TableName)]])
	return &dynamodb.GetItemOutput{Item: f.table(aws.ToString(in.TableName))[key]}, nil
}

func (f *fakeDynamoDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.TableName)
	key := keyValue(in.Item[f.keys[name]])
	_, exists := f.table(name)[key]
	if conditionFails(in.ConditionExpression, exists) {
		return nil, conditionalCheckFailed()
	}

	f.table(name)[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoDB) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.TableName)
	key := keyValue(in.Key[f.keys[name]])
	item, exists := f.table(name)[key]
	if conditionFails(in.ConditionExpression, exists) {
		return nil, conditionalCheckFailed()
	}

	// SET of a single attribute: the only non-key name gets the only value
	for _, attr := range in.ExpressionAttributeNames {
		if attr == f.keys[name] {
			continue
		}
		for _, v := range in.ExpressionAttributeValues {
			item[attr] = v
		}
	}

	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeDynamoDB) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.TableName)
	key := keyValue(in.Key[f.keys[name]])
	_, exists := f.table(name)[key]
	if conditionFails(in.ConditionExpression, exists) {
		return nil, conditionalCheckFailed()
	}

	delete(f.table(name), key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamoDB) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.scanErr != nil {
		return nil, f.scanErr
	}

	var items []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(in.TableName)) {
		if in.FilterExpression != nil {
			published, ok := item["published"].(*types.AttributeValueMemberBOOL)
			if !ok || !published.Value {
				continue
			}
		}
		items = append(items, item)
	}

	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items))}, nil
}
