package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"outagealert/internal/types"
)

// memRepo is an in-memory NotificationRepository that enforces the same
// transition rules as the Postgres repository.
type memRepo struct {
	mu        sync.Mutex
	seq       int
	records   map[string]*types.Notification
	createErr error
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[string]*types.Notification)}
}

func (r *memRepo) Create(_ context.Context, n *types.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	n.ID = fmt.Sprintf("notif_%03d", r.seq)
	n.Status = types.NotificationPending
	cp := *n
	r.records[n.ID] = &cp
	return nil
}

func (r *memRepo) transition(id string, to types.NotificationStatus, apply func(*types.Notification)) error {
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

func (r *memRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	return r.transition(id, types.NotificationSent, func(n *types.Notification) {
		n.SentAt = &at
		n.LastAttemptAt = &at
		n.FailureReason = ""
	})
}

func (r *memRepo) MarkFailed(_ context.Context, id, reason string, at time.Time) error {
	return r.transition(id, types.NotificationFailed, func(n *types.Notification) {
		n.FailureReason = reason
		n.LastAttemptAt = &at
	})
}

func (r *memRepo) MarkDelivered(_ context.Context, id string, at time.Time) error {
	return r.transition(id, types.NotificationDelivered, func(n *types.Notification) {
		n.DeliveredAt = &at
	})
}

func (r *memRepo) RecordRetryFailure(_ context.Context, id, reason string, at time.Time) error {
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

func (r *memRepo) ExistsSent(_ context.Context, outageID, userID string, channel types.ChannelType, purpose types.EventKind) (bool, error) {
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

func (r *memRepo) ListRetryable(_ context.Context, cutoff time.Time, maxAttempts, limit int) ([]*types.Notification, error) {
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

func (r *memRepo) FailStalePending(_ context.Context, cutoff time.Time, reason string) (int, error) {
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

func (r *memRepo) GetByID(_ context.Context, id string) (*types.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.records[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
	}
	cp := *n
	return &cp, nil
}

func (r *memRepo) all() []types.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Notification, 0, len(r.records))
	for _, n := range r.records {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeUsers struct {
	users []*types.User
	err   error
	calls []string
}

func (f *fakeUsers) ListActiveByDistrict(_ context.Context, district string) ([]*types.User, error) {
	f.calls = append(f.calls, district)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*types.User, 0, len(f.users))
	for _, u := range f.users {
		if u.LivesIn(district) {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeChannel records deliveries and answers with deliver, or success.
type fakeChannel struct {
	kind    types.ChannelType
	deliver func(ctx context.Context, to Recipient, msg Message) (string, error)

	mu   sync.Mutex
	sent []Message
	to   []Recipient
}

func (c *fakeChannel) Type() types.ChannelType { return c.kind }

func (c *fakeChannel) Deliver(ctx context.Context, to Recipient, msg Message) (string, error) {
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.to = append(c.to, to)
	c.mu.Unlock()
	if c.deliver != nil {
		return c.deliver(ctx, to, msg)
	}
	return "msg-" + msg.NotificationID, nil
}

func (c *fakeChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

type recordedMetric struct {
	channel types.ChannelType
	result  MetricResult
}

type fakeMetrics struct {
	mu         sync.Mutex
	deliveries []recordedMetric
	latencies  int
}

func (m *fakeMetrics) RecordDelivery(_ context.Context, ch types.ChannelType, r MetricResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, recordedMetric{ch, r})
}

func (m *fakeMetrics) RecordLatency(context.Context, types.ChannelType, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

type logEntry struct {
	level string
	msg   string
}

type captureLogger struct {
	mu      sync.Mutex
	entries *[]logEntry
}

func newCaptureLogger() *captureLogger {
	return &captureLogger{entries: &[]logEntry{}}
}

func (l *captureLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.entries = append(*l.entries, logEntry{level, msg})
}

func (l *captureLogger) Info(msg string, _ ...any)  { l.log("info", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log("error", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.log("warn", msg) }
func (l *captureLogger) With(_ ...any) types.Logger { return l }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range *l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}
