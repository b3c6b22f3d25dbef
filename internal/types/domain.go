package types

import (
	"strings"
	"time"
)

// Area is the geographic region an outage is recorded against. Only the
// district string takes part in recipient matching.
type Area struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	District string `json:"district"`
}

// Outage is a recorded utility service interruption.
// Immutable once COMPLETED or CANCELLED.
type Outage struct {
	ID                string       `json:"id"`
	Type              OutageType   `json:"type"`
	Status            OutageStatus `json:"status"`
	StartTime         time.Time    `json:"start_time"`
	EstimatedEndTime  time.Time    `json:"estimated_end_time"`
	ActualEndTime     *time.Time   `json:"actual_end_time,omitempty"`
	AffectedArea      *Area        `json:"affected_area,omitempty"`
	Reason            string       `json:"reason"`
	UtilityProviderID string       `json:"utility_provider_id"`
	ProviderName      string       `json:"provider_name,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// District returns the normalized district of the affected area, or "" when
// the outage carries no usable area reference.
func (o *Outage) District() string {
	if o == nil || o.AffectedArea == nil {
		return ""
	}
	return NormalizeDistrict(o.AffectedArea.District)
}

// MinutesUntilStart is the lead time remaining at now, truncated to whole
// minutes. Negative once the outage has started.
func (o *Outage) MinutesUntilStart(now time.Time) int {
	return int(o.StartTime.Sub(now) / time.Minute)
}

// NormalizeDistrict trims and case-folds a district name for comparison.
func NormalizeDistrict(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Address is one of a user's registered locations. Position preserves the
// user's ordering.
type Address struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Line1    string `json:"line1"`
	City     string `json:"city"`
	District string `json:"district"`
	Position int    `json:"position"`
}

// NotificationPreference configures whether, when, and over which channel a
// user hears about outages of one type. Several preferences may share the same
// channel and outage type; no uniqueness is enforced.
type NotificationPreference struct {
	ID                   string      `json:"id"`
	UserID               string      `json:"user_id"`
	OutageType           OutageType  `json:"outage_type"`
	ChannelType          ChannelType `json:"channel_type"`
	Enabled              bool        `json:"enabled"`
	AdvanceNoticeMinutes int         `json:"advance_notice_minutes"`
	ReceiveUpdates       bool        `json:"receive_updates"`
	ReceiveRestoration   bool        `json:"receive_restoration"`
}

// User is a notification recipient with addresses and preferences hydrated.
type User struct {
	ID                string                   `json:"id"`
	Email             string                   `json:"email"`
	Phone             string                   `json:"phone,omitempty"`
	PreferredLanguage string                   `json:"preferred_language"`
	Active            bool                     `json:"active"`
	Addresses         []Address                `json:"addresses,omitempty"`
	Preferences       []NotificationPreference `json:"preferences,omitempty"`
}

// LivesIn reports whether any of the user's addresses is in district.
func (u *User) LivesIn(district string) bool {
	want := NormalizeDistrict(district)
	if want == "" {
		return false
	}
	for _, a := range u.Addresses {
		if NormalizeDistrict(a.District) == want {
			return true
		}
	}
	return false
}

// Notification is one dispatch context for (outage, user, channel, purpose).
// Retries mutate the same row; the row is never deleted by the dispatch core.
type Notification struct {
	ID            string             `json:"id"`
	OutageID      string             `json:"outage_id"`
	UserID        string             `json:"user_id"`
	ChannelType   ChannelType        `json:"channel"`
	Status        NotificationStatus `json:"status"`
	Purpose       EventKind          `json:"purpose"`
	Content       string             `json:"content"`
	Language      string             `json:"language"`
	RetryCount    int                `json:"retry_count"`
	FailureReason string             `json:"failure_reason,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	LastAttemptAt *time.Time         `json:"last_attempt_at,omitempty"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
	DeliveredAt   *time.Time         `json:"delivered_at,omitempty"`
}

// DeviceToken is a push registration for a user's device.
type DeviceToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
