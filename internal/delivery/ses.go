package delivery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/pkg/logger"
)

// EmailAPI is the SES call SESSender makes.
type EmailAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends e-mail through AWS SES.
type SESSender struct {
	client EmailAPI
	from   string
}

// NewSESSender loads AWS credentials for region. An empty profile uses the
// default credential chain.
func NewSESSender(ctx context.Context, region, profile, from string) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewSESSenderWithClient(sesv2.NewFromConfig(cfg), from), nil
}

// NewSESSenderWithClient wraps an existing client.
func NewSESSenderWithClient(client EmailAPI, from string) *SESSender {
	return &SESSender{client: client, from: from}
}

func (s *SESSender) Channel() string { return domain.ChannelEmail }

func (s *SESSender) Send(ctx context.Context, m Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{m.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(m.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(m.Body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	logger.Debug("[delivery] email sent", "email", m.To, "message_id", aws.ToString(out.MessageId))
	return nil
}
