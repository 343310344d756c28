package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

type mockSES struct {
	mock.Mock
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*ses.SendEmailOutput)
	return out, args.Error(1)
}

// ==========================
// SNS
// ==========================

func TestSNSPublisher_Publish(t *testing.T) {
	client := &mockSNS{}
	p := &SNSPublisher{client: client, topicARN: "arn:aws:sns:eu-central-1:1:paperless"}

	var captured *sns.PublishInput
	client.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{MessageId: awssdk.String("m-1")}, nil)

	event := NewEvent(EventAIResponseReceived, 42, map[string]interface{}{"validJson": true})
	require.NoError(t, p.Publish(context.Background(), event))

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:eu-central-1:1:paperless", *captured.TopicArn)
	assert.Equal(t, EventAIResponseReceived, *captured.MessageAttributes["eventType"].StringValue)

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(*captured.Message), &decoded))
	assert.Equal(t, int64(42), decoded.DocumentID)
	assert.NotEmpty(t, decoded.ID)
}

func TestSNSPublisher_Error(t *testing.T) {
	client := &mockSNS{}
	client.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	p := &SNSPublisher{client: client, topicARN: "arn"}
	err := p.Publish(context.Background(), NewEvent(EventInvoiceCreated, 1, nil))
	assert.ErrorContains(t, err, "throttled")
}

// ==========================
// SES
// ==========================

func TestSESNotifier_NotifyReview(t *testing.T) {
	client := &mockSES{}
	n := &SESNotifier{client: client, from: "erp@example.com", recipients: []string{"ap@example.com"}}

	client.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return *in.Source == "erp@example.com" &&
			in.Destination.ToAddresses[0] == "ap@example.com" &&
			*in.Message.Subject.Data == "Invoice review needed: Telekom 10/2025"
	})).Return(&ses.SendEmailOutput{}, nil)

	err := n.NotifyReview(context.Background(), ReviewRequest{
		DocumentID: 1, PaperlessDocumentID: 77, Title: "Telekom 10/2025",
		MissingFields: []string{"InvoiceNumber", "LineItems"},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestSESNotifier_NoRecipients(t *testing.T) {
	client := &mockSES{}
	n := &SESNotifier{client: client, from: "erp@example.com"}

	require.NoError(t, n.NotifyReview(context.Background(), ReviewRequest{DocumentID: 1}))
	client.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestNoops(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), Event{}))
	assert.NoError(t, NoopNotifier{}.NotifyReview(context.Background(), ReviewRequest{}))
}
