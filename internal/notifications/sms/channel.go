// Package sms is the SMS channel, a plain-text sender over an
// external.SMSProvider (AWS SNS).
package sms

import (
	"context"
	"sync"

	"outagealert/internal/external"
	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// MaxLength caps the message body. Longer text is cut and suffixed with an
// ellipsis so a single notification never fans out into many segments.
const MaxLength = 480

// Channel implements core.Channel for SMS. A nil provider means the
// transport is not configured and every send fails.
type Channel struct {
	provider external.SMSProvider
	logger   types.Logger
	warnOnce sync.Once
}

// NewChannel creates an SMS Channel.
func NewChannel(provider external.SMSProvider, logger types.Logger) *Channel {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Channel{provider: provider, logger: logger}
}

// Type returns types.ChannelSMS.
func (c *Channel) Type() types.ChannelType { return types.ChannelSMS }

// Deliver sends msg.Text to the recipient's phone.
func (c *Channel) Deliver(ctx context.Context, to core.Recipient, msg core.Message) (string, error) {
	if c.provider == nil {
		c.warnOnce.Do(func() {
			c.logger.Warn("sms transport not configured, sends will fail")
		})
		return "", types.NewAppError(types.ErrCodeTransportUnconfigured, "transport not configured", nil)
	}
	if to.Phone == "" {
		return "", types.NewAppError(types.ErrCodeRecipientRejected, "user has no phone number", nil)
	}

	id, err := c.provider.SendSMS(ctx, to.Phone, Truncate(msg.Text, MaxLength))
	if err != nil {
		c.logger.Warn("sms send failed",
			"phone", external.RedactPhone(to.Phone),
			"notification_id", msg.NotificationID,
			"error", err.Error(),
		)
		return "", err
	}
	return id, nil
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

var _ core.Channel = (*Channel)(nil)
