package core

import (
	"time"

	"outagealert/internal/types"
)

// PlannerConfig holds lead-time windows for ADVANCE reminders.
type PlannerConfig struct {
	// Used for users without preferences.
	DefaultLead      time.Duration
	DefaultTolerance time.Duration
	// Half-width of the window around a preference's advance_notice_minutes.
	AdvanceTolerance time.Duration
}

// DefaultPlannerConfig is 24h ± 1h for the default channel and ± 5 min
// around configured lead times.
var DefaultPlannerConfig = PlannerConfig{
	DefaultLead:      24 * time.Hour,
	DefaultTolerance: time.Hour,
	AdvanceTolerance: 5 * time.Minute,
}

// Planner decides which channels a user hears about an event on.
type Planner struct {
	clock types.Clock
	cfg   PlannerConfig
}

// NewPlanner creates a Planner. Zero durations in cfg use the defaults.
func NewPlanner(clock types.Clock, cfg PlannerConfig) *Planner {
	if cfg.DefaultLead <= 0 {
		cfg.DefaultLead = DefaultPlannerConfig.DefaultLead
	}
	if cfg.DefaultTolerance <= 0 {
		cfg.DefaultTolerance = DefaultPlannerConfig.DefaultTolerance
	}
	if cfg.AdvanceTolerance <= 0 {
		cfg.AdvanceTolerance = DefaultPlannerConfig.AdvanceTolerance
	}
	return &Planner{clock: clock, cfg: cfg}
}

// Plan evaluates at the planner's clock.
func (p *Planner) Plan(user *types.User, outage *types.Outage, kind types.EventKind) []Plan {
	return p.PlanAt(user, outage, kind, p.clock.Now())
}

// PlanAt returns the sends for user. Users with no preferences get EMAIL for
// NEW, CANCEL and RESTORE, and for ADVANCE inside the default lead window.
// Otherwise every enabled preference matching the outage type contributes
// one plan when its flags allow the kind. Duplicate preferences each
// contribute.
func (p *Planner) PlanAt(user *types.User, outage *types.Outage, kind types.EventKind, now time.Time) []Plan {
	minutes := outage.MinutesUntilStart(now)

	if len(user.Preferences) == 0 {
		if p.defaultFires(kind, minutes) {
			return []Plan{{Channel: types.ChannelEmail, Reason: "default channel"}}
		}
		return nil
	}

	var plans []Plan
	for _, pref := range user.Preferences {
		if !pref.Enabled || pref.OutageType != outage.Type {
			continue
		}
		reason, ok := p.preferenceFires(pref, kind, minutes)
		if !ok {
			continue
		}
		plans = append(plans, Plan{Channel: pref.ChannelType, Reason: reason, PreferenceID: pref.ID})
	}
	return plans
}

func (p *Planner) defaultFires(kind types.EventKind, minutes int) bool {
	switch kind {
	case types.EventNew, types.EventCancel, types.EventRestore:
		return true
	case types.EventAdvance:
		lead := int(p.cfg.DefaultLead / time.Minute)
		tol := int(p.cfg.DefaultTolerance / time.Minute)
		return within(minutes, lead, tol)
	}
	return false
}

func (p *Planner) preferenceFires(pref types.NotificationPreference, kind types.EventKind, minutes int) (string, bool) {
	switch kind {
	case types.EventNew:
		return "new outage", true
	case types.EventCancel:
		return "outage cancelled", true
	case types.EventUpdate:
		return "outage updated", pref.ReceiveUpdates
	case types.EventRestore:
		return "service restored", pref.ReceiveRestoration
	case types.EventAdvance:
		tol := int(p.cfg.AdvanceTolerance / time.Minute)
		return "advance notice", within(minutes, pref.AdvanceNoticeMinutes, tol)
	}
	return "", false
}

func within(value, target, tolerance int) bool {
	return value >= target-tolerance && value <= target+tolerance
}
