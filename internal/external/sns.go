package external

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"outagealert/internal/types"
)

// SNSAPI is the subset of the SNS client used by SNSClient.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClientConfig configures an SNSClient.
type SNSClientConfig struct {
	// Alphanumeric sender id shown on SMS where the carrier supports it.
	SenderID string
	Logger   *slog.Logger
}

// SNSClient sends SMS and mobile push through AWS SNS. Device tokens are
// SNS platform endpoint ARNs.
type SNSClient struct {
	api      SNSAPI
	senderID string
	logger   *slog.Logger
}

// NewSNSClient creates an SNSClient from an AWS config.
func NewSNSClient(awsCfg aws.Config, cfg SNSClientConfig) *SNSClient {
	return NewSNSClientWithAPI(sns.NewFromConfig(awsCfg), cfg)
}

// NewSNSClientWithAPI creates an SNSClient over api.
func NewSNSClientWithAPI(api SNSAPI, cfg SNSClientConfig) *SNSClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SNSClient{api: api, senderID: cfg.SenderID, logger: logger}
}

// SendSMS publishes a transactional SMS.
func (c *SNSClient) SendSMS(ctx context.Context, phone, text string) (string, error) {
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if c.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(c.senderID)}
	}

	out, err := c.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(text),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", mapSNSError(err, types.ErrCodeUpstreamSMSProvider)
	}
	return aws.ToString(out.MessageId), nil
}

type pushPayload struct {
	Default string `json:"default"`
	GCM     string `json:"GCM"`
	APNS    string `json:"APNS"`
}

// Push publishes a notification to a platform endpoint. The message uses
// the SNS JSON structure so both FCM and APNs receive a title.
func (c *SNSClient) Push(ctx context.Context, endpoint, title, body string) (string, error) {
	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
	})
	apns, _ := json.Marshal(map[string]any{
		"aps": map[string]any{"alert": map[string]string{"title": title, "body": body}},
	})
	msg, err := json.Marshal(pushPayload{Default: body, GCM: string(gcm), APNS: string(apns)})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "encode push payload", err)
	}

	out, err := c.api.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(endpoint),
		Message:          aws.String(string(msg)),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return "", mapSNSError(err, types.ErrCodeUpstreamPushProvider)
	}
	return aws.ToString(out.MessageId), nil
}

func mapSNSError(err error, fallback types.ErrorCode) error {
	var disabled *snstypes.EndpointDisabledException
	if errors.As(err, &disabled) {
		return types.NewAppError(types.ErrCodeRecipientRejected, "SNS endpoint disabled", errors.Join(ErrEndpointDisabled, err))
	}
	var throttled *snstypes.ThrottledException
	if errors.As(err, &throttled) {
		return types.NewAppError(types.ErrCodeUpstreamRateLimited, "SNS throttled", err)
	}
	var invalid *snstypes.InvalidParameterException
	if errors.As(err, &invalid) {
		return types.NewAppError(types.ErrCodeRecipientRejected, "SNS rejected parameters", err)
	}
	return types.NewAppError(fallback, "SNS publish failed", err)
}

var (
	_ SMSProvider  = (*SNSClient)(nil)
	_ PushProvider = (*SNSClient)(nil)
)
