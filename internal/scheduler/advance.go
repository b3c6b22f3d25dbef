package scheduler

import (
	"context"
	"log/slog"
	"time"

	"outagealert/internal/notifications/core"
	"outagealert/internal/types"
)

// DefaultAdvanceWindow is how far ahead the advance-notice job looks.
const DefaultAdvanceWindow = 48 * time.Hour

// UpcomingOutageLister lists scheduled outages starting in a time range.
type UpcomingOutageLister interface {
	ListScheduledStartingBetween(ctx context.Context, from, to time.Time) ([]*types.Outage, error)
}

// AdvanceNotifier sends the advance notices for one outage. Satisfied by
// *core.Orchestrator.
type AdvanceNotifier interface {
	SendAdvanceNotices(ctx context.Context, outage *types.Outage, now time.Time) (*core.Batch, error)
}

// AdvanceNoticeService sends reminders for outages that start within the
// window. Reminders already sent for an (outage, user, channel) are skipped by
// the notifier, so overlapping runs produce at most one SENT reminder per
// preference.
type AdvanceNoticeService struct {
	outages  UpcomingOutageLister
	notifier AdvanceNotifier
	window   time.Duration
	logger   *slog.Logger
}

// NewAdvanceNoticeService creates an AdvanceNoticeService. A zero window uses
// DefaultAdvanceWindow.
func NewAdvanceNoticeService(outages UpcomingOutageLister, notifier AdvanceNotifier, window time.Duration, logger *slog.Logger) *AdvanceNoticeService {
	if logger == nil {
		logger = slog.Default()
	}
	if window <= 0 {
		window = DefaultAdvanceWindow
	}
	return &AdvanceNoticeService{
		outages:  outages,
		notifier: notifier,
		window:   window,
		logger:   logger,
	}
}

// Run sends the due reminders as of now and waits for their sends to finish.
// It returns the number of notifications created. A failure on one outage is
// logged and the run continues with the next.
func (s *AdvanceNoticeService) Run(ctx context.Context, now time.Time) (int, error) {
	outages, err := s.outages.ListScheduledStartingBetween(ctx, now, now.Add(s.window))
	if err != nil {
		return 0, err
	}

	var created, sent, failed, skipped int
	for _, outage := range outages {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}

		batch, err := s.notifier.SendAdvanceNotices(ctx, outage, now)
		if err != nil {
			s.logger.ErrorContext(ctx, "advance notices failed for outage",
				"outage_id", outage.ID,
				"error", err,
			)
			continue
		}
		if err := batch.Wait(ctx); err != nil {
			return created + batch.Created, err
		}

		ok, bad := batch.Counts()
		created += batch.Created
		sent += ok
		failed += bad
		skipped += batch.Skipped
	}

	s.logger.InfoContext(ctx, "advance notice run complete",
		"outages", len(outages),
		"created", created,
		"sent", sent,
		"failed", failed,
		"already_sent", skipped,
	)
	return created, nil
}
