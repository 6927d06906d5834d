package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// queueDeleteSettle is how long to wait after deleting a queue. SQS deletes are eventually consistent.
var queueDeleteSettle = 2 * time.Second

// CreateContactQueue creates the queue that receives contact notifications
// If cleanResources is true, deletes existing queue first to ensure clean state
// If cleanResources is false, reuses existing queue (preserves messages)
func CreateContactQueue(ctx context.Context, client SQSAdminAPI, env string, cleanResources bool) (string, error) {
	queueName := fmt.Sprintf("%s-contacts", env)

	if cleanResources {
		if err := deleteQueueIfExists(ctx, client, queueName); err != nil {
			return "", fmt.Errorf("failed to delete existing queue %s: %w", queueName, err)
		}
	}

	createResp, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName: aws.String(queueName),
		Attributes: map[string]string{
			string(types.QueueAttributeNameMessageRetentionPeriod): "1209600", // 14 days
		},
	})
	if err != nil {
		// If queue already exists and we're not cleaning, get its URL instead
		if !cleanResources && (strings.Contains(err.Error(), "QueueAlreadyExists") || strings.Contains(err.Error(), "already exists")) {
			getURLResp, getErr := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
				QueueName: aws.String(queueName),
			})
			if getErr != nil {
				return "", fmt.Errorf("failed to get existing queue %s: %w", queueName, getErr)
			}
			return aws.ToString(getURLResp.QueueUrl), nil
		}
		return "", fmt.Errorf("failed to create queue %s: %w", queueName, err)
	}

	return aws.ToString(createResp.QueueUrl), nil
}

// deleteQueueIfExists attempts to delete a queue if it exists
func deleteQueueIfExists(ctx context.Context, client SQSAdminAPI, queueName string) error {
	getURLResp, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queueName),
	})

	// If queue doesn't exist, we're done
	if err != nil {
		if strings.Contains(err.Error(), "NonExistentQueue") || strings.Contains(err.Error(), "does not exist") {
			return nil
		}
		return err
	}

	_, err = client.DeleteQueue(ctx, &sqs.DeleteQueueInput{
		QueueUrl: getURLResp.QueueUrl,
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(queueDeleteSettle):
	}

	return nil
}

// DeleteQueue removes the queue at queueURL
func DeleteQueue(ctx context.Context, client SQSAdminAPI, queueURL string) error {
	if queueURL == "" {
		return nil
	}
	_, err := client.DeleteQueue(ctx, &sqs.DeleteQueueInput{
		QueueUrl: aws.String(queueURL),
	})
	return err
}
