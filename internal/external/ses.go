package external

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"

	"outagealert/internal/types"
)

// SESAPI is the subset of the SES client used by SESClient.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESClientConfig holds the configuration for creating an SESClient.
type SESClientConfig struct {
	// Optional SES configuration set for delivery tracking.
	ConfigSetName string
	Logger        *slog.Logger
}

// SESClient implements EmailProvider using AWS SES. The SDK retries
// throttling itself, so no BaseClient is involved.
type SESClient struct {
	api           SESAPI
	configSetName string
	logger        *slog.Logger
}

// NewSESClient creates an SESClient from an AWS config.
func NewSESClient(awsCfg aws.Config, cfg SESClientConfig) *SESClient {
	return NewSESClientWithAPI(ses.NewFromConfig(awsCfg), cfg)
}

// NewSESClientWithAPI creates an SESClient over api.
func NewSESClientWithAPI(api SESAPI, cfg SESClientConfig) *SESClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SESClient{
		api:           api,
		configSetName: cfg.ConfigSetName,
		logger:        logger,
	}
}

// Send transmits input with SES SendEmail.
//
// Error mapping:
//   - MessageRejected, MailFromDomainNotVerified → ErrCodeRecipientRejected
//   - AccountSendingPaused → ErrCodeUpstreamUnavailable
//   - Other → ErrCodeUpstreamEmailProvider
func (s *SESClient) Send(ctx context.Context, input EmailInput) (string, error) {
	source := input.FromAddress
	if input.FromName != "" {
		source = fmt.Sprintf("%s <%s>", input.FromName, input.FromAddress)
	}

	body := &sestypes.Body{}
	if input.BodyHTML != "" {
		body.Html = &sestypes.Content{Data: aws.String(input.BodyHTML), Charset: aws.String("UTF-8")}
	}
	if input.BodyText != "" {
		body.Text = &sestypes.Content{Data: aws.String(input.BodyText), Charset: aws.String("UTF-8")}
	}

	req := &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &sestypes.Destination{ToAddresses: []string{input.To}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(input.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	}
	if s.configSetName != "" {
		req.ConfigurationSetName = aws.String(s.configSetName)
	}
	if input.ReferenceID != "" {
		req.Tags = []sestypes.MessageTag{{Name: aws.String("NotificationID"), Value: aws.String(input.ReferenceID)}}
	}

	out, err := s.api.SendEmail(ctx, req)
	if err != nil {
		return "", mapSESError(err)
	}
	return aws.ToString(out.MessageId), nil
}

func mapSESError(err error) error {
	var rejected *sestypes.MessageRejected
	if errors.As(err, &rejected) {
		return types.NewAppError(types.ErrCodeRecipientRejected, "SES rejected message", err)
	}
	var unverified *sestypes.MailFromDomainNotVerifiedException
	if errors.As(err, &unverified) {
		return types.NewAppError(types.ErrCodeRecipientRejected, "SES sender domain not verified", err)
	}
	var paused *sestypes.AccountSendingPausedException
	if errors.As(err, &paused) {
		return types.NewAppError(types.ErrCodeUpstreamUnavailable, "SES account sending paused", err)
	}
	return types.NewAppError(types.ErrCodeUpstreamEmailProvider, "SES send failed", err)
}

var _ EmailProvider = (*SESClient)(nil)
