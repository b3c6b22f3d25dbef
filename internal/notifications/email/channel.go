package email

import (
	"context"
	"errors"

	"outagealert/internal/external"
	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// Channel implements core.Channel for email.
type Channel struct {
	provider  external.EmailProvider
	templates *Templates
	fromName  string
	fromAddr  string
	clock     types.Clock
	logger    types.Logger
}

// ChannelConfig holds the dependencies needed to create a Channel.
type ChannelConfig struct {
	Provider    external.EmailProvider
	Templates   *Templates
	FromName    string
	FromAddress string
	Clock       types.Clock
	Logger      types.Logger
}

// NewChannel creates an email Channel.
func NewChannel(cfg ChannelConfig) *Channel {
	if cfg.Clock == nil {
		cfg.Clock = types.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return &Channel{
		provider:  cfg.Provider,
		templates: cfg.Templates,
		fromName:  cfg.FromName,
		fromAddr:  cfg.FromAddress,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
	}
}

// Type returns types.ChannelEmail.
func (c *Channel) Type() types.ChannelType {
	return types.ChannelEmail
}

// Deliver renders msg and sends it to the recipient's address.
func (c *Channel) Deliver(ctx context.Context, to core.Recipient, msg core.Message) (string, error) {
	c.logger.Info("attempting email delivery",
		"dest", RedactEmail(to.Email),
		"notification_id", msg.NotificationID,
	)

	if to.Email == "" {
		return "", types.NewAppError(types.ErrCodeRecipientRejected, "user has no email address", nil)
	}
	if c.provider == nil {
		return "", types.NewAppError(types.ErrCodeTransportUnconfigured, "transport not configured", nil)
	}

	rendered, err := c.templates.Render(msg, c.clock.Now())
	if err != nil {
		if errors.Is(err, ErrMalformedMessage) {
			c.logger.Error("malformed email notification", "notification_id", msg.NotificationID)
		}
		return "", err
	}

	id, err := c.provider.Send(ctx, external.EmailInput{
		To:          to.Email,
		FromName:    c.fromName,
		FromAddress: c.fromAddr,
		Subject:     rendered.Subject,
		BodyHTML:    rendered.BodyHTML,
		BodyText:    rendered.BodyText,
		ReferenceID: msg.NotificationID,
	})
	if err != nil {
		if IsBlocklistError(err) {
			c.logger.Warn("recipient blocked by provider",
				"dest", RedactEmail(to.Email),
				"notification_id", msg.NotificationID,
			)
		}
		return "", err
	}
	return id, nil
}

var _ core.Channel = (*Channel)(nil)
