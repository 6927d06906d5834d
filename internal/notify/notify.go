// Package notify tells the studio about new contact requests.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/jwstudio/portal/internal/models"
	"github.com/rs/zerolog/log"
)

// Notifier delivers contact request notifications.
type Notifier interface {
	ContactReceived(ctx context.Context, contact *models.ContactRequest) error
}

// LogNotifier writes notifications to the log. It is the default when no queue is configured.
type LogNotifier struct{}

func (LogNotifier) ContactReceived(ctx context.Context, contact *models.ContactRequest) error {
	log.Info().
		Str("contact_id", contact.ID.String()).
		Str("email", contact.Email).
		Str("service", contact.Service).
		Msg("contact request received")
	return nil
}

// SQSAPI is the subset of the SQS client used by SQSNotifier.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier publishes contact requests to an SQS queue for downstream email delivery.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
}

// NewSQSNotifier creates a notifier that sends to queueURL.
func NewSQSNotifier(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL}
}

// ContactMessage is the queue message body.
type ContactMessage struct {
	Type    string                 `json:"type"`
	Contact *models.ContactRequest `json:"contact"`
}

// MessageTypeContactReceived identifies contact notifications on the queue.
const MessageTypeContactReceived = "contact.received"

func (n *SQSNotifier) ContactReceived(ctx context.Context, contact *models.ContactRequest) error {
	body, err := json.Marshal(ContactMessage{Type: MessageTypeContactReceived, Contact: contact})
	if err != nil {
		return fmt.Errorf("failed to marshal contact message: %w", err)
	}

	out, err := n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(MessageTypeContactReceived)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send contact message to SQS: %w", err)
	}

	log.Debug().
		Str("contact_id", contact.ID.String()).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("contact notification queued")

	return nil
}
