package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"
	"github.com/jwstudio/portal/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-1")}, nil
}

func testContact() *models.ContactRequest {
	return &models.ContactRequest{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      "Jo Bloggs",
		Email:     "jo@example.com",
		Service:   "web-design",
		Message:   "Can you rebuild our site?",
		Status:    models.ContactStatusNew,
		CreatedAt: time.Now().UTC(),
	}
}

func TestSQSNotifier(t *testing.T) {
	fake := &fakeSQS{}
	n := NewSQSNotifier(fake, "http://localhost:4566/000000000000/portal-contacts")

	contact := testContact()
	require.NoError(t, n.ContactReceived(context.Background(), contact))

	require.Len(t, fake.inputs, 1)
	in := fake.inputs[0]
	require.Equal(t, "http://localhost:4566/000000000000/portal-contacts", aws.ToString(in.QueueUrl))
	require.Equal(t, MessageTypeContactReceived, aws.ToString(in.MessageAttributes["type"].StringValue))

	var msg ContactMessage
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &msg))
	require.Equal(t, MessageTypeContactReceived, msg.Type)
	require.Equal(t, contact.ID, msg.Contact.ID)
	require.Equal(t, "jo@example.com", msg.Contact.Email)
}

func TestSQSNotifierError(t *testing.T) {
	sendErr := errors.New("queue does not exist")
	n := NewSQSNotifier(&fakeSQS{err: sendErr}, "queue")

	err := n.ContactReceived(context.Background(), testContact())
	require.ErrorIs(t, err, sendErr)
}

func TestLogNotifier(t *testing.T) {
	require.NoError(t, LogNotifier{}.ContactReceived(context.Background(), testContact()))
}
