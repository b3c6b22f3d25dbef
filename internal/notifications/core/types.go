// Package core is the outage notification dispatch engine: it resolves the
// users affected by an outage, applies their channel preferences, creates
// notification records and hands them to channel implementations through
// the Dispatcher.
package core

import (
	"context"
	"time"

	"outagealert/internal/types"
)

// Recipient is the addressing information a channel needs for one user.
type Recipient struct {
	UserID   string
	Email    string
	Phone    string
	Language string
}

// RecipientFor builds a Recipient from a hydrated user.
func RecipientFor(u *types.User) Recipient {
	return Recipient{
		UserID:   u.ID,
		Email:    u.Email,
		Phone:    u.Phone,
		Language: u.PreferredLanguage,
	}
}

// Message is the rendered content handed to a channel. Outage is required for
// everything except test messages; channels that render rich templates treat
// a missing outage as a malformed message.
type Message struct {
	NotificationID string
	Kind           types.EventKind
	Language       string
	Subject        string
	Text           string
	Outage         *types.Outage
	Test           bool
}

// Channel delivers a message to a recipient over one transport. Deliver
// returns the provider's message id on success.
type Channel interface {
	Type() types.ChannelType
	Deliver(ctx context.Context, to Recipient, msg Message) (providerID string, err error)
}

// Outcome is the result of one dispatch. Failures are always expressed here
// and never as an error or panic to the caller.
type Outcome struct {
	Channel           types.ChannelType
	Success           bool
	ProviderMessageID string
	Reason            string
	Duration          time.Duration
}

// Plan is one (channel, reason) decision produced by the Planner.
type Plan struct {
	Channel      types.ChannelType
	Reason       string
	PreferenceID string
}

// NotificationRepository is the persistence surface the record store needs.
type NotificationRepository interface {
	Create(ctx context.Context, n *types.Notification) error
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string, at time.Time) error
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	RecordRetryFailure(ctx context.Context, id string, reason string, at time.Time) error
	ExistsSent(ctx context.Context, outageID, userID string, channel types.ChannelType, purpose types.EventKind) (bool, error)
	ListRetryable(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]*types.Notification, error)
	FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int, error)
	GetByID(ctx context.Context, id string) (*types.Notification, error)
}

// UserSource finds candidate recipients.
type UserSource interface {
	ListActiveByDistrict(ctx context.Context, district string) ([]*types.User, error)
}
