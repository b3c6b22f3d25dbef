// Package whatsapp is the WHATSAPP channel over the WhatsApp Cloud API.
package whatsapp

import (
	"context"
	"strings"
	"sync"

	"outagealert/internal/external"
	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// Channel implements core.Channel for WhatsApp. A nil provider means the
// transport is not configured and every send fails.
type Channel struct {
	provider external.WhatsAppProvider
	logger   types.Logger
	warnOnce sync.Once
}

// NewChannel creates a WhatsApp Channel.
func NewChannel(provider external.WhatsAppProvider, logger types.Logger) *Channel {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Channel{provider: provider, logger: logger}
}

// Type returns types.ChannelWhatsApp.
func (c *Channel) Type() types.ChannelType { return types.ChannelWhatsApp }

// Deliver sends the subject and text as one message.
func (c *Channel) Deliver(ctx context.Context, to core.Recipient, msg core.Message) (string, error) {
	if c.provider == nil {
		c.warnOnce.Do(func() {
			c.logger.Warn("whatsapp transport not configured, sends will fail")
		})
		return "", types.NewAppError(types.ErrCodeTransportUnconfigured, "transport not configured", nil)
	}
	if to.Phone == "" {
		return "", types.NewAppError(types.ErrCodeRecipientRejected, "user has no phone number", nil)
	}

	id, err := c.provider.SendText(ctx, to.Phone, body(msg))
	if err != nil {
		c.logger.Warn("whatsapp send failed",
			"phone", external.RedactPhone(to.Phone),
			"notification_id", msg.NotificationID,
			"error", err.Error(),
		)
		return "", err
	}
	return id, nil
}

// body renders "*Subject*\n\nText" using WhatsApp bold markup.
func body(msg core.Message) string {
	if msg.Subject == "" {
		return msg.Text
	}
	var b strings.Builder
	b.WriteString("*")
	b.WriteString(msg.Subject)
	b.WriteString("*\n\n")
	b.WriteString(msg.Text)
	return b.String()
}

var _ core.Channel = (*Channel)(nil)
