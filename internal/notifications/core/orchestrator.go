package core

import (
	"context"
	"sync"
	"time"

	"outagealert/internal/types"
)

// Orchestrator turns outage lifecycle events into notifications. Records are
// created synchronously; sends run in the background and never block or fail
// the caller.
type Orchestrator struct {
	resolver   *Resolver
	planner    *Planner
	renderer   *Renderer
	store      *RecordStore
	dispatcher *Dispatcher
	clock      types.Clock
	logger     types.Logger

	inflight sync.WaitGroup
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Resolver   *Resolver
	Planner    *Planner
	Renderer   *Renderer
	Store      *RecordStore
	Dispatcher *Dispatcher
	Clock      types.Clock
	Logger     types.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Clock == nil {
		cfg.Clock = types.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	return &Orchestrator{
		resolver:   cfg.Resolver,
		planner:    cfg.Planner,
		renderer:   cfg.Renderer,
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
}

// Batch tracks the sends started for one event.
type Batch struct {
	OutageID string
	Kind     types.EventKind
	Users    int
	Planned  int
	Created  int
	Skipped  int
	// Records that could not be created; nothing was sent for them.
	CreateFailed int

	wg     sync.WaitGroup
	mu     sync.Mutex
	sent   int
	failed int
}

func (b *Batch) record(out Outcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if out.Success {
		b.sent++
	} else {
		b.failed++
	}
}

// Wait blocks until every send of the batch has completed and its record
// has been updated, or ctx ends.
func (b *Batch) Wait(ctx context.Context) error {
	return waitGroup(ctx, &b.wg)
}

// Counts returns the number of completed sends so far.
func (b *Batch) Counts() (sent, failed int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent, b.failed
}

// SendOutageNotifications notifies affected users of a new outage.
func (o *Orchestrator) SendOutageNotifications(ctx context.Context, outage *types.Outage) *Batch {
	return o.event(ctx, outage, types.EventNew)
}

// SendOutageUpdateNotifications notifies users who opted into updates.
func (o *Orchestrator) SendOutageUpdateNotifications(ctx context.Context, outage *types.Outage) *Batch {
	return o.event(ctx, outage, types.EventUpdate)
}

// SendOutageCancellationNotifications notifies affected users that an
// outage was cancelled.
func (o *Orchestrator) SendOutageCancellationNotifications(ctx context.Context, outage *types.Outage) *Batch {
	return o.event(ctx, outage, types.EventCancel)
}

// SendOutageRestorationNotifications notifies users who opted into
// restoration notices.
func (o *Orchestrator) SendOutageRestorationNotifications(ctx context.Context, outage *types.Outage) *Batch {
	return o.event(ctx, outage, types.EventRestore)
}

// SendEvent routes kind to the matching Send method.
func (o *Orchestrator) SendEvent(ctx context.Context, outage *types.Outage, kind types.EventKind) *Batch {
	switch kind {
	case types.EventNew:
		return o.SendOutageNotifications(ctx, outage)
	case types.EventUpdate:
		return o.SendOutageUpdateNotifications(ctx, outage)
	case types.EventCancel:
		return o.SendOutageCancellationNotifications(ctx, outage)
	case types.EventRestore:
		return o.SendOutageRestorationNotifications(ctx, outage)
	}
	return o.event(ctx, outage, kind)
}

func (o *Orchestrator) event(ctx context.Context, outage *types.Outage, kind types.EventKind) *Batch {
	b, err := o.notify(ctx, outage, kind, o.clock.Now(), false)
	if err != nil {
		types.LoggerFromContext(ctx, o.logger).Error("outage notification fan-out failed",
			"outage_id", b.OutageID,
			"kind", string(kind),
			"error", err.Error(),
		)
	}
	return b
}

// SendAdvanceNotices creates and dispatches ADVANCE reminders for outage as
// of now, skipping (outage, user, channel) tuples that already have a sent
// reminder. The returned error reports resolution failures only.
func (o *Orchestrator) SendAdvanceNotices(ctx context.Context, outage *types.Outage, now time.Time) (*Batch, error) {
	return o.notify(ctx, outage, types.EventAdvance, now, true)
}

type send struct {
	record *types.Notification
	to     Recipient
	msg    Message
}

func (o *Orchestrator) notify(ctx context.Context, outage *types.Outage, kind types.EventKind, now time.Time, idempotent bool) (*Batch, error) {
	log := types.LoggerFromContext(ctx, o.logger)
	b := &Batch{Kind: kind}
	if outage == nil {
		log.Warn("notification requested without an outage", "kind", string(kind))
		return b, nil
	}
	b.OutageID = outage.ID

	users, err := o.resolver.Resolve(ctx, outage)
	if err != nil {
		return b, err
	}
	b.Users = len(users)

	rendered := make(map[string]Message)
	var sends []send
	for _, user := range users {
		for _, plan := range o.planner.PlanAt(user, outage, kind, now) {
			b.Planned++
			if idempotent {
				done, err := o.store.AlreadySent(ctx, outage.ID, user.ID, plan.Channel, kind)
				if err != nil {
					log.Error("idempotency check failed", "outage_id", outage.ID, "user_id", user.ID, "error", err.Error())
					b.CreateFailed++
					continue
				}
				if done {
					b.Skipped++
					continue
				}
			}

			msg, ok := rendered[user.PreferredLanguage]
			if !ok {
				msg = o.renderer.Render(outage, kind, user.PreferredLanguage, now)
				rendered[user.PreferredLanguage] = msg
			}

			rec, err := o.store.CreatePending(ctx, outage.ID, user.ID, plan.Channel, kind, msg)
			if err != nil {
				log.Error("failed to create notification record",
					"outage_id", outage.ID,
					"user_id", user.ID,
					"channel", string(plan.Channel),
					"error", err.Error(),
				)
				b.CreateFailed++
				continue
			}
			b.Created++
			msg.NotificationID = rec.ID
			sends = append(sends, send{record: rec, to: RecipientFor(user), msg: msg})
		}
	}

	// All records exist before the first send starts. Sends outlive the
	// caller's context.
	detached := context.WithoutCancel(ctx)
	for _, s := range sends {
		o.start(detached, b, s)
	}

	log.Info("notifications dispatched",
		"outage_id", outage.ID,
		"kind", string(kind),
		"users", b.Users,
		"created", b.Created,
		"skipped", b.Skipped,
		"create_failed", b.CreateFailed,
	)
	return b, nil
}

func (o *Orchestrator) start(ctx context.Context, b *Batch, s send) {
	b.wg.Add(1)
	o.inflight.Add(1)
	o.dispatcher.Dispatch(ctx, s.record.ChannelType, s.to, s.msg).Then(func(out Outcome) {
		defer o.inflight.Done()
		defer b.wg.Done()
		if out.Success {
			_ = o.store.MarkSent(ctx, s.record.ID)
		} else {
			_ = o.store.MarkFailed(ctx, s.record.ID, out.Reason)
		}
		b.record(out)
	})
}

// Drain waits for every in-flight send to finish, or for ctx to end.
func (o *Orchestrator) Drain(ctx context.Context) error {
	return waitGroup(ctx, &o.inflight)
}

// SendTestNotification sends message to user over EMAIL and every channel
// the user has an enabled preference for, waiting for the results. Nothing
// is persisted. It reports whether any channel succeeded.
func (o *Orchestrator) SendTestNotification(ctx context.Context, user *types.User, message string) bool {
	catalogue := o.renderer.Catalogue()
	locale := catalogue.Locale(user.PreferredLanguage)
	if message == "" {
		message = catalogue.GetMessage("test.fallback", locale)
	}
	msg := Message{
		Kind:     types.EventNew,
		Language: locale,
		Subject:  catalogue.GetMessage("test.subject", locale),
		Text:     message,
		Test:     true,
	}

	to := RecipientFor(user)
	var pending []*Pending
	for _, ch := range testChannels(user) {
		pending = append(pending, o.dispatcher.Dispatch(ctx, ch, to, msg))
	}

	ok := false
	for _, p := range pending {
		out, err := p.Wait(ctx)
		if err != nil {
			break
		}
		if out.Success {
			ok = true
		}
	}
	o.logger.Info("test notification sent", "user_id", user.ID, "channels", len(pending), "success", ok)
	return ok
}

func testChannels(user *types.User) []types.ChannelType {
	seen := map[types.ChannelType]bool{types.ChannelEmail: true}
	out := []types.ChannelType{types.ChannelEmail}
	for _, p := range user.Preferences {
		if p.Enabled && !seen[p.ChannelType] {
			seen[p.ChannelType] = true
			out = append(out, p.ChannelType)
		}
	}
	return out
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
