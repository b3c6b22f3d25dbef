package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// Defaults for the retry job.
const (
	DefaultRetryDelay       = 300 * time.Second
	DefaultMaxRetryAttempts = 3
	DefaultRetryBatchSize   = 100

	// defaultPendingGrace is added to Delay when PendingTimeout is unset.
	defaultPendingGrace = time.Minute
)

// RetryStore is the record store surface the retry job needs. Satisfied by
// *core.RecordStore.
type RetryStore interface {
	FailStalePending(ctx context.Context, now time.Time, age time.Duration) (int, error)
	Retryable(ctx context.Context, now time.Time, delay time.Duration, maxAttempts, limit int) ([]*types.Notification, error)
	MarkSent(ctx context.Context, id string) error
	RecordRetryFailure(ctx context.Context, id, reason string) error
}

// OutageGetter loads an outage by id.
type OutageGetter interface {
	GetByID(ctx context.Context, id string) (*types.Outage, error)
}

// UserGetter loads a hydrated user by id.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*types.User, error)
}

// MessageRenderer renders the content of one notification.
type MessageRenderer interface {
	Render(outage *types.Outage, kind types.EventKind, language string, now time.Time) core.Message
}

// Sender starts one channel send. Satisfied by *core.Dispatcher.
type Sender interface {
	Dispatch(ctx context.Context, channel types.ChannelType, to core.Recipient, msg core.Message) *core.Pending
}

// RetryConfig tunes RetryService. Zero values fall back to the defaults.
type RetryConfig struct {
	Delay       time.Duration
	MaxAttempts int
	BatchSize   int
	// PendingTimeout is how long a record may stay PENDING before it is
	// treated as a failed first attempt. Defaults to Delay plus one minute.
	PendingTimeout time.Duration
}

// RetryService re-sends FAILED notifications whose retry budget is not used up.
type RetryService struct {
	store    RetryStore
	outages  OutageGetter
	users    UserGetter
	renderer MessageRenderer
	sender   Sender
	cfg      RetryConfig
	logger   *slog.Logger
}

// RetryServiceDeps groups the collaborators of a RetryService.
type RetryServiceDeps struct {
	Store    RetryStore
	Outages  OutageGetter
	Users    UserGetter
	Renderer MessageRenderer
	Sender   Sender
}

// NewRetryService creates a RetryService.
func NewRetryService(deps RetryServiceDeps, cfg RetryConfig, logger *slog.Logger) *RetryService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultRetryDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxRetryAttempts
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultRetryBatchSize
	}
	if cfg.PendingTimeout <= 0 {
		cfg.PendingTimeout = cfg.Delay + defaultPendingGrace
	}
	return &RetryService{
		store:    deps.Store,
		outages:  deps.Outages,
		users:    deps.Users,
		renderer: deps.Renderer,
		sender:   deps.Sender,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run retries one batch of eligible notifications as of now and returns how
// many were sent. Records left PENDING past PendingTimeout are first moved to
// FAILED. Errors on individual records are logged and recorded as a retry
// failure; only a failure to list the batch aborts the run.
func (s *RetryService) Run(ctx context.Context, now time.Time) (int, error) {
	if _, err := s.store.FailStalePending(ctx, now, s.cfg.PendingTimeout); err != nil {
		s.logger.ErrorContext(ctx, "failed to recover stale pending notifications", "error", err)
	}

	records, err := s.store.Retryable(ctx, now, s.cfg.Delay, s.cfg.MaxAttempts, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	sent, failed := 0, 0
	for _, n := range records {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		reason, ok := s.retry(ctx, n, now)
		if ok {
			if err := s.store.MarkSent(ctx, n.ID); err != nil {
				s.logger.ErrorContext(ctx, "failed to mark retried notification sent",
					"notification_id", n.ID,
					"error", err,
				)
				continue
			}
			sent++
			continue
		}

		failed++
		if err := s.store.RecordRetryFailure(ctx, n.ID, reason); err != nil {
			s.logger.ErrorContext(ctx, "failed to record retry failure",
				"notification_id", n.ID,
				"error", err,
			)
		}
	}

	s.logger.InfoContext(ctx, "retry run complete",
		"selected", len(records),
		"sent", sent,
		"failed", failed,
	)
	return sent, nil
}

// retry rebuilds the message for n, sends it and waits for the outcome.
func (s *RetryService) retry(ctx context.Context, n *types.Notification, now time.Time) (string, bool) {
	outage, err := s.outages.GetByID(ctx, n.OutageID)
	if err != nil {
		s.logger.WarnContext(ctx, "retry skipped, outage unavailable",
			"notification_id", n.ID,
			"outage_id", n.OutageID,
			"error", err,
		)
		return fmt.Sprintf("load outage: %v", err), false
	}
	if reason, stale := obsolete(outage, n.Purpose, now); stale {
		s.logger.InfoContext(ctx, "retry skipped, notification no longer relevant",
			"notification_id", n.ID,
			"outage_id", outage.ID,
			"reason", reason,
		)
		return reason, false
	}
	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "retry skipped, user unavailable",
			"notification_id", n.ID,
			"user_id", n.UserID,
			"error", err,
		)
		return fmt.Sprintf("load user: %v", err), false
	}

	language := n.Language
	if language == "" {
		language = user.PreferredLanguage
	}
	msg := s.renderer.Render(outage, n.Purpose, language, now)
	msg.NotificationID = n.ID

	out, err := s.sender.Dispatch(ctx, n.ChannelType, core.RecipientFor(user), msg).Wait(ctx)
	if err != nil {
		return "retry interrupted", false
	}
	if !out.Success {
		s.logger.InfoContext(ctx, "retry attempt failed",
			"notification_id", n.ID,
			"channel", string(n.ChannelType),
			"attempt", n.RetryCount+1,
			"reason", out.Reason,
		)
		return out.Reason, false
	}
	return "", true
}

// obsolete reports whether a notification of kind for outage is no longer
// worth sending at now. CANCEL and RESTORE stay relevant once the outage is
// closed.
func obsolete(outage *types.Outage, kind types.EventKind, now time.Time) (string, bool) {
	switch kind {
	case types.EventNew, types.EventUpdate:
		if outage.Status.Terminal() {
			return "outage " + strings.ToLower(string(outage.Status)), true
		}
	case types.EventAdvance:
		if outage.Status != types.OutageScheduled {
			return "outage " + strings.ToLower(string(outage.Status)), true
		}
		if !outage.StartTime.After(now) {
			return "outage already started", true
		}
	}
	return "", false
}
