package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"outagealert/internal/types"
)

var plannerNow = time.Date(2026, 4, 10, 8, 0, 0, 0, time.UTC)

func outageStartingIn(d time.Duration) *types.Outage {
	return &types.Outage{
		ID:               "out_1",
		Type:             types.OutageElectricity,
		Status:           types.OutageScheduled,
		StartTime:        plannerNow.Add(d),
		EstimatedEndTime: plannerNow.Add(d + 4*time.Hour),
		AffectedArea:     &types.Area{ID: "area_1", Name: "Colombo 07", District: "Colombo"},
	}
}

func pref(channel types.ChannelType, mutate ...func(*types.NotificationPreference)) types.NotificationPreference {
	p := types.NotificationPreference{
		ID:                   "pref_" + string(channel),
		OutageType:           types.OutageElectricity,
		ChannelType:          channel,
		Enabled:              true,
		AdvanceNoticeMinutes: 60,
	}
	for _, m := range mutate {
		m(&p)
	}
	return p
}

func channelsOf(plans []Plan) []types.ChannelType {
	out := make([]types.ChannelType, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Channel)
	}
	return out
}

func TestPlanner_DefaultsWithoutPreferences(t *testing.T) {
	p := NewPlanner(types.FixedClock{T: plannerNow}, PlannerConfig{})
	user := &types.User{ID: "u1"}
	outage := outageStartingIn(3 * time.Hour)

	tests := []struct {
		kind types.EventKind
		want []types.ChannelType
	}{
		{types.EventNew, []types.ChannelType{types.ChannelEmail}},
		{types.EventCancel, []types.ChannelType{types.ChannelEmail}},
		{types.EventRestore, []types.ChannelType{types.ChannelEmail}},
		{types.EventUpdate, []types.ChannelType{}},
		{types.EventAdvance, []types.ChannelType{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, channelsOf(p.Plan(user, outage, tt.kind)))
		})
	}
}

func TestPlanner_DefaultAdvanceWindow(t *testing.T) {
	p := NewPlanner(types.FixedClock{T: plannerNow}, PlannerConfig{})
	user := &types.User{ID: "u1"}

	tests := []struct {
		name  string
		until time.Duration
		fires bool
	}{
		{"exactly 24h", 24 * time.Hour, true},
		{"23h lower edge", 23 * time.Hour, true},
		{"25h upper edge", 25 * time.Hour, true},
		{"just under 23h", 23*time.Hour - time.Minute, false},
		{"just over 25h", 25*time.Hour + time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := p.PlanAt(user, outageStartingIn(tt.until), types.EventAdvance, plannerNow)
			assert.Equal(t, tt.fires, len(plans) == 1)
		})
	}
}

func TestPlanner_PreferenceFilters(t *testing.T) {
	p := NewPlanner(types.FixedClock{T: plannerNow}, PlannerConfig{})
	outage := outageStartingIn(3 * time.Hour)

	user := &types.User{ID: "u1", Preferences: []types.NotificationPreference{
		pref(types.ChannelEmail),
		pref(types.ChannelSMS, func(p *types.NotificationPreference) { p.Enabled = false }),
		pref(types.ChannelPush, func(p *types.NotificationPreference) { p.OutageType = types.OutageWater }),
		pref(types.ChannelWhatsApp, func(p *types.NotificationPreference) {
			p.ReceiveUpdates = true
			p.ReceiveRestoration = true
		}),
	}}

	assert.Equal(t, []types.ChannelType{types.ChannelEmail, types.ChannelWhatsApp}, channelsOf(p.Plan(user, outage, types.EventNew)))
	assert.Equal(t, []types.ChannelType{types.ChannelEmail, types.ChannelWhatsApp}, channelsOf(p.Plan(user, outage, types.EventCancel)))
	assert.Equal(t, []types.ChannelType{types.ChannelWhatsApp}, channelsOf(p.Plan(user, outage, types.EventUpdate)))
	assert.Equal(t, []types.ChannelType{types.ChannelWhatsApp}, channelsOf(p.Plan(user, outage, types.EventRestore)))
}

func TestPlanner_PreferencesReplaceDefault(t *testing.T) {
	p := NewPlanner(types.FixedClock{T: plannerNow}, PlannerConfig{})
	user := &types.User{ID: "u1", Preferences: []types.NotificationPreference{
		pref(types.ChannelSMS, func(p *types.NotificationPreference) { p.OutageType = types.OutageGas }),
	}}

	assert.Empty(t, p.Plan(user, outageStartingIn(time.Hour), types.EventNew))
}

func TestPlanner_AdvanceTolerance(t *testing.T) {
	p := NewPlanner(types.FixedClock{T: plannerNow}, PlannerConfig{})
	user := &types.User{ID: "u1", Preferences: []types.NotificationPreference{
		pref(types.ChannelSMS, func(p *types.NotificationPreference) { p.AdvanceNoticeMinutes = 150 }),
	}}

	for _, tt := range []struct {
		minutes int
		fires   bool
	}{{144, false}, {145, true}, {150, true}, {155, true}, {156, false}} {
		plans := p.PlanAt(user, outageStartingIn(time.Duration(tt.minutes)*time.Minute), types.EventAdvance, plannerNow)
		assert.Equal(t, tt.fires, len(plans) == 1, "minutes=%d", tt.minutes)
	}
}

func TestPlanner_DuplicatePreferencesEachPlan(t *testing.T) {
	p := NewPlanner(types.FixedClock{T: plannerNow}, PlannerConfig{})
	user := &types.User{ID: "u1", Preferences: []types.NotificationPreference{
		pref(types.ChannelEmail, func(p *types.NotificationPreference) { p.ID = "pref_a" }),
		pref(types.ChannelEmail, func(p *types.NotificationPreference) { p.ID = "pref_b" }),
	}}

	plans := p.Plan(user, outageStartingIn(time.Hour), types.EventNew)
	assert.Len(t, plans, 2)
	assert.Equal(t, "pref_a", plans[0].PreferenceID)
	assert.Equal(t, "pref_b", plans[1].PreferenceID)
}
