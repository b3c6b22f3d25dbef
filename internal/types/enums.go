package types

import "strings"

// OutageType identifies the utility affected by an outage.
type OutageType string

const (
	OutageElectricity OutageType = "ELECTRICITY"
	OutageWater       OutageType = "WATER"
	OutageGas         OutageType = "GAS"
	OutageInternet    OutageType = "INTERNET"
)

// Valid reports whether t is one of the known outage types.
func (t OutageType) Valid() bool {
	switch t {
	case OutageElectricity, OutageWater, OutageGas, OutageInternet:
		return true
	}
	return false
}

// OutageStatus represents the lifecycle state of an outage.
// SCHEDULED -> ONGOING -> COMPLETED, or SCHEDULED/ONGOING -> CANCELLED.
type OutageStatus string

const (
	OutageScheduled OutageStatus = "SCHEDULED"
	OutageOngoing   OutageStatus = "ONGOING"
	OutageCompleted OutageStatus = "COMPLETED"
	OutageCancelled OutageStatus = "CANCELLED"
)

// Terminal reports whether the outage no longer accepts lifecycle changes.
func (s OutageStatus) Terminal() bool {
	return s == OutageCompleted || s == OutageCancelled
}

// ChannelType identifies a notification delivery channel.
type ChannelType string

const (
	ChannelEmail    ChannelType = "EMAIL"
	ChannelSMS      ChannelType = "SMS"
	ChannelPush     ChannelType = "PUSH"
	ChannelWhatsApp ChannelType = "WHATSAPP"
)

// AllChannels lists every channel the dispatcher knows about.
var AllChannels = []ChannelType{ChannelEmail, ChannelSMS, ChannelPush, ChannelWhatsApp}

// ParseChannelType normalizes a channel name. Returns false for unknown names.
func ParseChannelType(s string) (ChannelType, bool) {
	c := ChannelType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllChannels {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// EventKind is the reason a notification is being sent.
type EventKind string

const (
	EventNew     EventKind = "NEW"
	EventUpdate  EventKind = "UPDATE"
	EventCancel  EventKind = "CANCEL"
	EventRestore EventKind = "RESTORE"
	EventAdvance EventKind = "ADVANCE"
)

// ParseEventKind maps lifecycle verbs used by producers ("created", "updated",
// "cancelled", "restored", "completed") and the canonical kind names onto an
// EventKind. ADVANCE is scheduler-only and is not accepted from producers.
func ParseEventKind(s string) (EventKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "created", "new":
		return EventNew, true
	case "updated", "update":
		return EventUpdate, true
	case "cancelled", "canceled", "cancel":
		return EventCancel, true
	case "restored", "completed", "restore":
		return EventRestore, true
	}
	return "", false
}

// NotificationStatus enumerates the states of a notification record.
// These values MUST match the CHECK constraint on notifications.status.
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationDelivered NotificationStatus = "DELIVERED"
	NotificationFailed    NotificationStatus = "FAILED"
)

// allowedTransitions is the complete notification state machine.
// DELIVERED has no outgoing edges. FAILED -> FAILED is not a transition;
// a failed retry only bumps retry_count.
var allowedTransitions = map[NotificationStatus][]NotificationStatus{
	NotificationPending: {NotificationSent, NotificationFailed},
	NotificationFailed:  {NotificationSent},
	NotificationSent:    {NotificationDelivered},
}

// CanTransition reports whether a record may move from one status to another.
func CanTransition(from, to NotificationStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SourcesFor returns the statuses from which target is reachable in one step.
// Repositories use it to build guarded UPDATE statements.
func SourcesFor(target NotificationStatus) []NotificationStatus {
	var out []NotificationStatus
	for _, from := range []NotificationStatus{NotificationPending, NotificationFailed, NotificationSent, NotificationDelivered} {
		if CanTransition(from, target) {
			out = append(out, from)
		}
	}
	return out
}
