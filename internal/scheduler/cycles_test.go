package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagealert/internal/i18n"
	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// memNotifications is an in-memory core.NotificationRepository with the same
// transition and selection rules as the Postgres repository.
type memNotifications struct {
	mu      sync.Mutex
	seq     int
	records map[string]*types.Notification
}

func newMemNotifications() *memNotifications {
	return &memNotifications{records: make(map[string]*types.Notification)}
}

func (r *memNotifications) Create(_ context.Context, n *types.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = fmt.Sprintf("notif_%03d", r.seq)
	n.Status = types.NotificationPending
	cp := *n
	r.records[n.ID] = &cp
	return nil
}

func (r *memNotifications) move(id string, to types.NotificationStatus, apply func(*types.Notification)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.records[id]
	if !ok {
		return types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
	}
	if !types.CanTransition(n.Status, to) {
		return types.NewAppError(types.ErrCodeConflictTransition, "illegal transition", nil)
	}
	n.Status = to
	apply(n)
	return nil
}

func (r *memNotifications) MarkSent(_ context.Context, id string, at time.Time) error {
	return r.move(id, types.NotificationSent, func(n *types.Notification) {
		n.SentAt = &at
		n.LastAttemptAt = &at
		n.FailureReason = ""
	})
}

func (r *memNotifications) MarkFailed(_ context.Context, id, reason string, at time.Time) error {
	return r.move(id, types.NotificationFailed, func(n *types.Notification) {
		n.FailureReason = reason
		n.LastAttemptAt = &at
	})
}

func (r *memNotifications) MarkDelivered(_ context.Context, id string, at time.Time) error {
	return r.move(id, types.NotificationDelivered, func(n *types.Notification) {
		n.DeliveredAt = &at
	})
}

func (r *memNotifications) RecordRetryFailure(_ context.Context, id, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.records[id]
	if !ok || n.Status != types.NotificationFailed {
		return types.NewAppError(types.ErrCodeConflictTransition, "not failed", nil)
	}
	n.RetryCount++
	n.FailureReason = reason
	n.LastAttemptAt = &at
	return nil
}

func (r *memNotifications) ExistsSent(_ context.Context, outageID, userID string, channel types.ChannelType, purpose types.EventKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.records {
		if n.OutageID == outageID && n.UserID == userID && n.ChannelType == channel && n.Purpose == purpose &&
			(n.Status == types.NotificationSent || n.Status == types.NotificationDelivered) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memNotifications) ListRetryable(_ context.Context, cutoff time.Time, maxAttempts, limit int) ([]*types.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Notification
	for _, n := range r.records {
		last := n.CreatedAt
		if n.LastAttemptAt != nil {
			last = *n.LastAttemptAt
		}
		if n.Status == types.NotificationFailed && n.RetryCount < maxAttempts && !last.After(cutoff) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memNotifications) FailStalePending(_ context.Context, cutoff time.Time, reason string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	moved := 0
	for _, n := range r.records {
		if n.Status == types.NotificationPending && !n.CreatedAt.After(cutoff) {
			n.Status = types.NotificationFailed
			n.FailureReason = reason
			moved++
		}
	}
	return moved, nil
}

func (r *memNotifications) GetByID(_ context.Context, id string) (*types.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.records[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
	}
	cp := *n
	return &cp, nil
}

func (r *memNotifications) all() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Notification, 0, len(r.records))
	for _, n := range r.records {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// stepClock is a settable clock shared between the store and the test.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type cycleHarness struct {
	repo  *memNotifications
	clock *stepClock
	store *core.RecordStore
	email *scriptedChannel
	svc   *RetryService
}

func newCycleHarness(cfg RetryConfig, failWith error) *cycleHarness {
	h := &cycleHarness{
		repo:  newMemNotifications(),
		clock: &stepClock{t: runNow},
	}
	h.store = core.NewRecordStore(h.repo, h.clock, types.NopLogger{})
	h.email = &scriptedChannel{kind: types.ChannelEmail, failAll: failWith}

	h.svc = NewRetryService(RetryServiceDeps{
		Store: h.store,
		Outages: outageMap{"out_1": {
			ID:               "out_1",
			Type:             types.OutageElectricity,
			Status:           types.OutageScheduled,
			StartTime:        runNow.Add(6 * time.Hour),
			EstimatedEndTime: runNow.Add(9 * time.Hour),
			AffectedArea:     &types.Area{Name: "Colombo 03", District: "Colombo"},
		}},
		Users:    userMap{"usr_1": {ID: "usr_1", Email: "a@example.lk"}},
		Renderer: core.NewRenderer(i18n.NewCatalogue(), nil),
		Sender:   core.NewDispatcher(core.DispatcherConfig{Registry: core.NewRegistry(h.email), SendTimeout: time.Second}),
	}, cfg, testLogger())
	return h
}

func (h *cycleHarness) createPending(t *testing.T, at time.Time) *types.Notification {
	t.Helper()
	h.clock.Set(at)
	n, err := h.store.CreatePending(context.Background(), "out_1", "usr_1", types.ChannelEmail, types.EventNew,
		core.Message{Text: "Power outage", Language: "en"})
	require.NoError(t, err)
	return n
}

func TestRetryService_BudgetExhaustedAfterMaxAttempts(t *testing.T) {
	h := newCycleHarness(RetryConfig{Delay: 5 * time.Minute, MaxAttempts: 3}, errors.New("mailbox full"))
	ctx := context.Background()

	n := h.createPending(t, runNow)
	require.NoError(t, h.store.MarkFailed(ctx, n.ID, "mailbox full"))

	for cycle := 1; cycle <= 4; cycle++ {
		now := runNow.Add(time.Duration(cycle) * 10 * time.Minute)
		h.clock.Set(now)
		sent, err := h.svc.Run(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, sent, "cycle %d", cycle)
	}

	assert.Len(t, h.email.msgs, 3, "fourth cycle must not select the record")
	got, err := h.store.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NotificationFailed, got.Status)
	assert.Equal(t, 3, got.RetryCount)

	left, err := h.store.Retryable(ctx, runNow.Add(time.Hour), 5*time.Minute, 3, 100)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRetryService_RespectsRetryDelay(t *testing.T) {
	h := newCycleHarness(RetryConfig{Delay: 5 * time.Minute}, errors.New("mailbox full"))
	ctx := context.Background()

	n := h.createPending(t, runNow)
	require.NoError(t, h.store.MarkFailed(ctx, n.ID, "mailbox full"))

	now := runNow.Add(4 * time.Minute)
	h.clock.Set(now)
	_, err := h.svc.Run(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, h.email.msgs, "record younger than the retry delay was selected")
}

func TestRetryService_RecoversStalePending(t *testing.T) {
	h := newCycleHarness(RetryConfig{Delay: 5 * time.Minute, PendingTimeout: 10 * time.Minute}, nil)
	ctx := context.Background()

	stuck := h.createPending(t, runNow.Add(-24*time.Hour))
	fresh := h.createPending(t, runNow.Add(-2*time.Minute))

	h.clock.Set(runNow)
	sent, err := h.svc.Run(ctx, runNow)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	got, err := h.store.Get(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NotificationSent, got.Status)

	got, err = h.store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NotificationPending, got.Status, "in-flight record must not be touched")
	require.Len(t, h.email.msgs, 1)
	assert.Equal(t, stuck.ID, h.email.msgs[0].NotificationID)
}

// --- advance notices through the real engine ---

type districtUsers []*types.User

func (d districtUsers) ListActiveByDistrict(_ context.Context, district string) ([]*types.User, error) {
	var out []*types.User
	for _, u := range d {
		if u.LivesIn(district) {
			out = append(out, u)
		}
	}
	return out, nil
}

func TestAdvanceNoticeService_OneReminderAcrossRuns(t *testing.T) {
	repo := newMemNotifications()
	clock := &stepClock{t: runNow}
	sms := &scriptedChannel{kind: types.ChannelSMS}
	user := &types.User{
		ID:        "usr_1",
		Email:     "a@example.lk",
		Phone:     "+94770000001",
		Active:    true,
		Addresses: []types.Address{{District: "Colombo"}},
		Preferences: []types.NotificationPreference{{
			ID:                   "pref_sms",
			OutageType:           types.OutageElectricity,
			ChannelType:          types.ChannelSMS,
			Enabled:              true,
			AdvanceNoticeMinutes: 150,
		}},
	}
	outage := &types.Outage{
		ID:               "out_1",
		Type:             types.OutageElectricity,
		Status:           types.OutageScheduled,
		StartTime:        runNow.Add(150 * time.Minute),
		EstimatedEndTime: runNow.Add(5 * time.Hour),
		AffectedArea:     &types.Area{Name: "Colombo 03", District: "Colombo"},
	}

	orch := core.NewOrchestrator(core.OrchestratorConfig{
		Resolver:   core.NewResolver(districtUsers{user}, types.NopLogger{}),
		Planner:    core.NewPlanner(clock, core.PlannerConfig{}),
		Renderer:   core.NewRenderer(i18n.NewCatalogue(), nil),
		Store:      core.NewRecordStore(repo, clock, types.NopLogger{}),
		Dispatcher: core.NewDispatcher(core.DispatcherConfig{Registry: core.NewRegistry(sms), SendTimeout: time.Second}),
		Clock:      clock,
	})
	svc := NewAdvanceNoticeService(&fakeOutages{outages: []*types.Outage{outage}}, orch, 0, testLogger())

	created, err := svc.Run(context.Background(), runNow)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	second := runNow.Add(3 * time.Minute)
	clock.Set(second)
	created, err = svc.Run(context.Background(), second)
	require.NoError(t, err)
	assert.Zero(t, created)

	records := repo.all()
	require.Len(t, records, 1)
	assert.Equal(t, types.EventAdvance, records[0].Purpose)
	assert.Equal(t, types.ChannelSMS, records[0].ChannelType)
	assert.Equal(t, types.NotificationSent, records[0].Status)
	assert.Len(t, sms.msgs, 1)
}
