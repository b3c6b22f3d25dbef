package external

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Stub providers let the service boot locally without provider credentials.
// They log each call and return predictable message ids.

// StubEmailProvider implements EmailProvider.
type StubEmailProvider struct {
	logger *slog.Logger
}

// NewStubEmailProvider creates a new StubEmailProvider.
func NewStubEmailProvider(logger *slog.Logger) *StubEmailProvider {
	return &StubEmailProvider{logger: logger}
}

// Send logs the email and returns msg_stub_<reference id>.
func (s *StubEmailProvider) Send(ctx context.Context, input EmailInput) (string, error) {
	s.logger.InfoContext(ctx, "stub: send email",
		"subject", input.Subject,
		"reference_id", input.ReferenceID,
		"from", input.FromAddress,
	)
	return fmt.Sprintf("msg_stub_%s", input.ReferenceID), nil
}

// StubSMSProvider implements SMSProvider and WhatsAppProvider.
type StubSMSProvider struct {
	logger *slog.Logger
	seq    atomic.Int64
}

// NewStubSMSProvider creates a new StubSMSProvider.
func NewStubSMSProvider(logger *slog.Logger) *StubSMSProvider {
	return &StubSMSProvider{logger: logger}
}

// SendSMS logs the redacted phone and returns a sequential id.
func (s *StubSMSProvider) SendSMS(ctx context.Context, phone, text string) (string, error) {
	s.logger.InfoContext(ctx, "stub: send sms", "phone", RedactPhone(phone), "length", len(text))
	return fmt.Sprintf("sms_stub_%d", s.seq.Add(1)), nil
}

// SendText logs the WhatsApp message and returns a sequential id.
func (s *StubSMSProvider) SendText(ctx context.Context, phone, text string) (string, error) {
	s.logger.InfoContext(ctx, "stub: send whatsapp", "phone", RedactPhone(phone), "length", len(text))
	return fmt.Sprintf("wa_stub_%d", s.seq.Add(1)), nil
}

// StubPushProvider implements PushProvider.
type StubPushProvider struct {
	logger *slog.Logger
}

// NewStubPushProvider creates a new StubPushProvider.
func NewStubPushProvider(logger *slog.Logger) *StubPushProvider {
	return &StubPushProvider{logger: logger}
}

// Push logs the push and returns push_stub_<endpoint>.
func (s *StubPushProvider) Push(ctx context.Context, endpoint, title, _ string) (string, error) {
	s.logger.InfoContext(ctx, "stub: push", "endpoint", endpoint, "title", title)
	return "push_stub_" + endpoint, nil
}

var (
	_ EmailProvider    = (*StubEmailProvider)(nil)
	_ SMSProvider      = (*StubSMSProvider)(nil)
	_ WhatsAppProvider = (*StubSMSProvider)(nil)
	_ PushProvider     = (*StubPushProvider)(nil)
)
