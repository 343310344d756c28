// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// ReviewRequest describes a document that needs a human to fill in
// missing invoice fields.
type ReviewRequest struct {
	DocumentID          int64
	PaperlessDocumentID int64
	Title               string
	MissingFields       []string
}

type ReviewNotifier interface {
	NotifyReview(ctx context.Context, req ReviewRequest) error
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESNotifier struct {
	client     sesAPI
	from       string
	recipients []string
}

func NewSESNotifier(ctx context.Context, region, from string, recipients []string) (*SESNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESNotifier{client: ses.NewFromConfig(cfg), from: from, recipients: recipients}, nil
}

func (n *SESNotifier) NotifyReview(ctx context.Context, req ReviewRequest) error {
	if len(n.recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Invoice review needed: %s", req.Title)
	body := fmt.Sprintf(
		"Paperless document %d (%s) could not be booked as a purchase invoice.\n\nMissing fields: %s\n",
		req.PaperlessDocumentID, req.Title, strings.Join(req.MissingFields, ", "),
	)

	_, err := n.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(n.from),
		Destination: &sestypes.Destination{ToAddresses: n.recipients},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject), Charset: awssdk.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body), Charset: awssdk.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send review for document %d: %w", req.DocumentID, err)
	}
	return nil
}

// NoopNotifier is used when SES is disabled.
type NoopNotifier struct{}

func (NoopNotifier) NotifyReview(context.Context, ReviewRequest) error { return nil }
