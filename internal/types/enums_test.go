package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_AllowedEdges(t *testing.T) {
	statuses := []NotificationStatus{NotificationPending, NotificationSent, NotificationDelivered, NotificationFailed}
	allowed := map[[2]NotificationStatus]bool{
		{NotificationPending, NotificationSent}:   true,
		{NotificationPending, NotificationFailed}: true,
		{NotificationFailed, NotificationSent}:    true,
		{NotificationSent, NotificationDelivered}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]NotificationStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_DeliveredIsTerminal(t *testing.T) {
	for _, to := range []NotificationStatus{NotificationPending, NotificationSent, NotificationFailed, NotificationDelivered} {
		assert.False(t, CanTransition(NotificationDelivered, to))
	}
}

func TestSourcesFor(t *testing.T) {
	assert.ElementsMatch(t, []NotificationStatus{NotificationPending, NotificationFailed}, SourcesFor(NotificationSent))
	assert.Equal(t, []NotificationStatus{NotificationPending}, SourcesFor(NotificationFailed))
	assert.Equal(t, []NotificationStatus{NotificationSent}, SourcesFor(NotificationDelivered))
	assert.Empty(t, SourcesFor(NotificationPending))
}

func TestParseEventKind(t *testing.T) {
	tests := []struct {
		in   string
		want EventKind
		ok   bool
	}{
		{"created", EventNew, true},
		{" Updated ", EventUpdate, true},
		{"canceled", EventCancel, true},
		{"cancelled", EventCancel, true},
		{"completed", EventRestore, true},
		{"restored", EventRestore, true},
		{"advance", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseEventKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChannelType(t *testing.T) {
	c, ok := ParseChannelType("whatsapp")
	assert.True(t, ok)
	assert.Equal(t, ChannelWhatsApp, c)

	_, ok = ParseChannelType("pigeon")
	assert.False(t, ok)
}

func TestOutageStatusTerminal(t *testing.T) {
	assert.False(t, OutageScheduled.Terminal())
	assert.False(t, OutageOngoing.Terminal())
	assert.True(t, OutageCompleted.Terminal())
	assert.True(t, OutageCancelled.Terminal())
}
