package sms

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

type mockSMS struct {
	phones []string
	texts  []string
	err    error
}

func (m *mockSMS) SendSMS(_ context.Context, phone, text string) (string, error) {
	m.phones = append(m.phones, phone)
	m.texts = append(m.texts, text)
	if m.err != nil {
		return "", m.err
	}
	return "sns-1", nil
}

type countingLogger struct {
	types.NopLogger
	warns int
}

func (l *countingLogger) Warn(string, ...any) { l.warns++ }

func TestChannel_Deliver(t *testing.T) {
	p := &mockSMS{}
	ch := NewChannel(p, nil)

	id, err := ch.Deliver(context.Background(), core.Recipient{Phone: "+94771234567"}, core.Message{Text: "power cut"})
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, []string{"+94771234567"}, p.phones)
	assert.Equal(t, []string{"power cut"}, p.texts)
	assert.Equal(t, types.ChannelSMS, ch.Type())
}

func TestChannel_UnconfiguredFailsAndWarnsOnce(t *testing.T) {
	logger := &countingLogger{}
	ch := NewChannel(nil, logger)

	for i := 0; i < 3; i++ {
		_, err := ch.Deliver(context.Background(), core.Recipient{Phone: "+1"}, core.Message{Text: "x"})
		assert.True(t, types.HasCode(err, types.ErrCodeTransportUnconfigured))
	}
	assert.Equal(t, 1, logger.warns)
}

func TestChannel_MissingPhoneAndProviderError(t *testing.T) {
	ch := NewChannel(&mockSMS{}, nil)
	_, err := ch.Deliver(context.Background(), core.Recipient{}, core.Message{Text: "x"})
	assert.True(t, types.HasCode(err, types.ErrCodeRecipientRejected))

	ch = NewChannel(&mockSMS{err: errors.New("throttled")}, nil)
	_, err = ch.Deliver(context.Background(), core.Recipient{Phone: "+1"}, core.Message{Text: "x"})
	assert.EqualError(t, err, "throttled")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))

	long := strings.Repeat("විදුලි ", 100)
	got := Truncate(long, MaxLength)
	assert.Equal(t, MaxLength, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
