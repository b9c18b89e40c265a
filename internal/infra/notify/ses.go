package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"geargrab/internal/app/policies"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers booking email through Amazon SES.
type SESSender struct {
	Client   sesAPI
	From     string
	FromName string
	Logger   *slog.Logger
}

func NewSESSender(ctx context.Context, region, from, fromName string, logger *slog.Logger) (*SESSender, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return &SESSender{Client: ses.NewFromConfig(cfg), From: from, FromName: fromName, Logger: logger}, nil
}

func (s *SESSender) Send(ctx context.Context, email policies.Email) policies.SendResult {
	source := s.From
	if s.FromName != "" {
		source = fmt.Sprintf("%s <%s>", s.FromName, s.From)
	}
	body := &types.Body{Html: &types.Content{Data: aws.String(email.HTML), Charset: aws.String("UTF-8")}}
	if email.Text != "" {
		body.Text = &types.Content{Data: aws.String(email.Text), Charset: aws.String("UTF-8")}
	}
	input := &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{email.To}},
		Source:      aws.String(source),
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(email.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}
	for k, v := range email.Tags {
		input.Tags = append(input.Tags, types.MessageTag{Name: aws.String(k), Value: aws.String(v)})
	}

	out, err := s.Client.SendEmail(ctx, input)
	if err != nil {
		if s.Logger != nil {
			s.Logger.ErrorContext(ctx, "ses delivery failed", "to", email.To, "subject", email.Subject, "error", err)
		}
		return policies.SendResult{Error: err.Error()}
	}
	return policies.SendResult{Success: true, MessageID: aws.ToString(out.MessageId)}
}
