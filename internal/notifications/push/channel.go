// Package push is the PUSH channel. It fans a message out to every active
// device token of the recipient.
package push

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"outagealert/internal/external"
	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// TokenRegistry resolves and maintains device tokens.
type TokenRegistry interface {
	GetActiveTokensForUser(ctx context.Context, userID string) ([]types.DeviceToken, error)
	Deactivate(ctx context.Context, tokenID string) error
}

// Channel implements core.Channel for mobile push.
type Channel struct {
	provider external.PushProvider
	tokens   TokenRegistry
	logger   types.Logger
	warnOnce sync.Once
}

// NewChannel creates a push Channel. A nil provider means the transport is
// not configured.
func NewChannel(provider external.PushProvider, tokens TokenRegistry, logger types.Logger) *Channel {
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Channel{provider: provider, tokens: tokens, logger: logger}
}

// Type returns types.ChannelPush.
func (c *Channel) Type() types.ChannelType { return types.ChannelPush }

// Deliver pushes msg to each active token. It succeeds when at least one
// token accepted the message; the first accepted message id is returned.
// Tokens the provider reports as disabled are deactivated.
func (c *Channel) Deliver(ctx context.Context, to core.Recipient, msg core.Message) (string, error) {
	if c.provider == nil {
		c.warnOnce.Do(func() {
			c.logger.Warn("push transport not configured, sends will fail")
		})
		return "", types.NewAppError(types.ErrCodeTransportUnconfigured, "transport not configured", nil)
	}

	tokens, err := c.tokens.GetActiveTokensForUser(ctx, to.UserID)
	if err != nil {
		return "", fmt.Errorf("push: load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return "", types.NewAppError(types.ErrCodeRecipientRejected, "no active device tokens", nil)
	}

	var (
		firstID string
		lastErr error
	)
	for _, tok := range tokens {
		id, err := c.provider.Push(ctx, tok.Token, msg.Subject, msg.Text)
		if err == nil {
			if firstID == "" {
				firstID = id
			}
			continue
		}
		lastErr = err
		if errors.Is(err, external.ErrEndpointDisabled) {
			c.logger.Info("deactivating disabled device token", "token_id", tok.ID, "user_id", to.UserID)
			if derr := c.tokens.Deactivate(ctx, tok.ID); derr != nil {
				c.logger.Error("failed to deactivate device token", "token_id", tok.ID, "error", derr.Error())
			}
		}
	}

	if firstID != "" {
		return firstID, nil
	}
	return "", types.NewAppError(types.ErrCodeUpstreamPushProvider,
		fmt.Sprintf("all %d device tokens failed", len(tokens)), lastErr)
}

var _ core.Channel = (*Channel)(nil)
