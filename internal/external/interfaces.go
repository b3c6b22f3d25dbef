package external

import (
	"context"
	"errors"
)

// EmailInput is a fully rendered email.
type EmailInput struct {
	To          string
	FromName    string
	FromAddress string
	Subject     string
	BodyHTML    string
	BodyText    string
	// ReferenceID is attached as a provider tag for correlation.
	ReferenceID string
}

// EmailProvider transmits pre-rendered email and returns the provider's
// message id.
type EmailProvider interface {
	Send(ctx context.Context, input EmailInput) (providerMsgID string, err error)
}

// SMSProvider transmits a plain-text SMS to an E.164 phone number.
type SMSProvider interface {
	SendSMS(ctx context.Context, phone, text string) (providerMsgID string, err error)
}

// PushProvider sends a mobile push notification to one device endpoint.
type PushProvider interface {
	Push(ctx context.Context, endpoint, title, body string) (providerMsgID string, err error)
}

// WhatsAppProvider sends a plain-text WhatsApp message.
type WhatsAppProvider interface {
	SendText(ctx context.Context, phone, text string) (providerMsgID string, err error)
}

// ErrEndpointDisabled is wrapped by PushProvider errors when the provider
// reports the device endpoint as permanently disabled.
var ErrEndpointDisabled = errors.New("push endpoint disabled")
