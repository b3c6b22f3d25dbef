package core

import (
	"context"
	"fmt"
	"time"

	"outagealert/internal/types"
)

// RecordStore drives notification record state transitions and logs each
// one. The repository enforces the allowed source states.
type RecordStore struct {
	repo   NotificationRepository
	clock  types.Clock
	logger types.Logger
}

// NewRecordStore creates a RecordStore.
func NewRecordStore(repo NotificationRepository, clock types.Clock, logger types.Logger) *RecordStore {
	return &RecordStore{repo: repo, clock: clock, logger: logger}
}

// CreatePending inserts a PENDING record for one planned send.
func (s *RecordStore) CreatePending(ctx context.Context, outageID, userID string, channel types.ChannelType, purpose types.EventKind, msg Message) (*types.Notification, error) {
	n := &types.Notification{
		OutageID:    outageID,
		UserID:      userID,
		ChannelType: channel,
		Purpose:     purpose,
		Content:     msg.Text,
		Language:    msg.Language,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	s.logger.Info("notification created",
		"notification_id", n.ID,
		"outage_id", outageID,
		"user_id", userID,
		"channel", string(channel),
		"purpose", string(purpose),
	)
	return n, nil
}

// MarkSent records a successful send (PENDING or FAILED -> SENT).
func (s *RecordStore) MarkSent(ctx context.Context, id string) error {
	if err := s.repo.MarkSent(ctx, id, s.clock.Now()); err != nil {
		s.logger.Error("failed to mark notification sent", "notification_id", id, "error", err.Error())
		return fmt.Errorf("mark sent: %w", err)
	}
	s.logger.Info("notification sent", "notification_id", id)
	return nil
}

// MarkFailed records a failed first attempt (PENDING -> FAILED).
func (s *RecordStore) MarkFailed(ctx context.Context, id, reason string) error {
	if err := s.repo.MarkFailed(ctx, id, reason, s.clock.Now()); err != nil {
		s.logger.Error("failed to mark notification failed", "notification_id", id, "error", err.Error())
		return fmt.Errorf("mark failed: %w", err)
	}
	s.logger.Warn("notification failed", "notification_id", id, "reason", reason)
	return nil
}

// RecordRetryFailure bumps the retry counter of a FAILED record.
func (s *RecordStore) RecordRetryFailure(ctx context.Context, id, reason string) error {
	if err := s.repo.RecordRetryFailure(ctx, id, reason, s.clock.Now()); err != nil {
		s.logger.Error("failed to record retry failure", "notification_id", id, "error", err.Error())
		return fmt.Errorf("record retry failure: %w", err)
	}
	s.logger.Warn("notification retry failed", "notification_id", id, "reason", reason)
	return nil
}

// MarkDelivered records that the user has read the notification
// (SENT -> DELIVERED).
func (s *RecordStore) MarkDelivered(ctx context.Context, id string) error {
	if err := s.repo.MarkDelivered(ctx, id, s.clock.Now()); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	s.logger.Info("notification delivered", "notification_id", id)
	return nil
}

// AlreadySent reports whether the tuple already has a sent record.
func (s *RecordStore) AlreadySent(ctx context.Context, outageID, userID string, channel types.ChannelType, purpose types.EventKind) (bool, error) {
	return s.repo.ExistsSent(ctx, outageID, userID, channel, purpose)
}

// StalePendingReason is the failure reason given to records that never left
// PENDING.
const StalePendingReason = "send outcome not recorded"

// FailStalePending moves records stuck in PENDING for longer than age to
// FAILED so the retry job can pick them up. A record stays PENDING when the
// process stops mid-send or the outcome could not be written.
func (s *RecordStore) FailStalePending(ctx context.Context, now time.Time, age time.Duration) (int, error) {
	n, err := s.repo.FailStalePending(ctx, now.Add(-age), StalePendingReason)
	if err != nil {
		s.logger.Error("failed to fail stale pending notifications", "error", err.Error())
		return 0, fmt.Errorf("fail stale pending: %w", err)
	}
	if n > 0 {
		s.logger.Warn("stale pending notifications marked failed", "count", n)
	}
	return n, nil
}

// Retryable lists FAILED records eligible for another attempt at now.
func (s *RecordStore) Retryable(ctx context.Context, now time.Time, delay time.Duration, maxAttempts, limit int) ([]*types.Notification, error) {
	return s.repo.ListRetryable(ctx, now.Add(-delay), maxAttempts, limit)
}

// Get returns a record by id.
func (s *RecordStore) Get(ctx context.Context, id string) (*types.Notification, error) {
	return s.repo.GetByID(ctx, id)
}
