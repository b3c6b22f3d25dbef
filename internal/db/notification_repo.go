package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"outagealert/internal/types"
)

const notificationColumns = `id, outage_id, user_id, channel, status, purpose, content, language,
	retry_count, failure_reason, created_at, last_attempt_at, sent_at, delivered_at`

// NotificationRepository provides data access for the notifications table.
//
// Status changes are single-row conditional UPDATEs guarded by the source
// states the state machine allows. When the guard rejects an update the
// repository distinguishes a missing row (not_found_notification) from an
// illegal transition (conflict_invalid_transition).
type NotificationRepository struct {
	db DBTX
}

// NewNotificationRepository creates a new NotificationRepository backed by the
// given database connection (pool or transaction).
func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// NewNotificationID returns a prefixed random identifier.
func NewNotificationID() string {
	return "notif_" + uuid.NewString()
}

// Create inserts n as PENDING. An empty ID is generated. The outage and user
// must exist; a foreign key violation maps to the matching not_found code.
func (r *NotificationRepository) Create(ctx context.Context, n *types.Notification) error {
	if n.ID == "" {
		n.ID = NewNotificationID()
	}
	n.Status = types.NotificationPending

	err := r.db.QueryRow(ctx,
		`INSERT INTO notifications
		 (id, outage_id, user_id, channel, status, purpose, content, language, retry_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, COALESCE($9, NOW()))
		 RETURNING created_at`,
		n.ID,
		n.OutageID,
		n.UserID,
		string(n.ChannelType),
		string(n.Status),
		string(n.Purpose),
		n.Content,
		n.Language,
		nilIfZeroTime(n.CreatedAt),
	).Scan(&n.CreatedAt)
	if err != nil {
		if constraint, ok := foreignKeyViolation(err); ok {
			if constraint == "notifications_user_id_fkey" {
				return types.NewAppError(types.ErrCodeNotFoundUser, "user does not exist", err)
			}
			return types.NewAppError(types.ErrCodeNotFoundOutage, "outage does not exist", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create notification", err)
	}
	n.RetryCount = 0
	return nil
}

// MarkSent moves a PENDING or FAILED record to SENT and stamps sent_at.
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, types.NotificationSent,
		`UPDATE notifications
		 SET status = $2, sent_at = $3, last_attempt_at = $3, failure_reason = NULL
		 WHERE id = $1 AND status = ANY($4)`,
		at,
	)
}

// MarkFailed moves a PENDING record to FAILED. retry_count is untouched.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string, reason string, at time.Time) error {
	return r.transition(ctx, id, types.NotificationFailed,
		`UPDATE notifications
		 SET status = $2, last_attempt_at = $3, failure_reason = $5
		 WHERE id = $1 AND status = ANY($4)`,
		at, nilIfEmpty(reason),
	)
}

// MarkDelivered moves a SENT record to DELIVERED and stamps delivered_at.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, types.NotificationDelivered,
		`UPDATE notifications
		 SET status = $2, delivered_at = $3
		 WHERE id = $1 AND status = ANY($4)`,
		at,
	)
}

// RecordRetryFailure increments retry_count on a FAILED record after another
// unsuccessful attempt. The record stays FAILED.
func (r *NotificationRepository) RecordRetryFailure(ctx context.Context, id string, reason string, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications
		 SET retry_count = retry_count + 1, last_attempt_at = $2, failure_reason = $3
		 WHERE id = $1 AND status = 'FAILED'`,
		id,
		at,
		nilIfEmpty(reason),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to record retry failure", err)
	}
	if tag.RowsAffected() == 0 {
		return r.rejection(ctx, id, types.NotificationFailed)
	}
	return nil
}

// transition runs a guarded status UPDATE. Placeholders: $1 id, $2 target
// status, $3 attempt time, $4 allowed source statuses, $5.. extra.
func (r *NotificationRepository) transition(ctx context.Context, id string, to types.NotificationStatus, sql string, at time.Time, extra ...any) error {
	var sources []string
	for _, s := range types.SourcesFor(to) {
		sources = append(sources, string(s))
	}

	args := append([]any{id, string(to), at, sources}, extra...)
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update notification status", err)
	}
	if tag.RowsAffected() == 0 {
		return r.rejection(ctx, id, to)
	}
	return nil
}

// rejection explains why a guarded update affected no rows.
func (r *NotificationRepository) rejection(ctx context.Context, id string, to types.NotificationStatus) error {
	var current string
	err := r.db.QueryRow(ctx, `SELECT status FROM notifications WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
	}
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to read notification status", err)
	}
	return types.NewAppErrorWithDetails(types.ErrCodeConflictTransition,
		"notification cannot move to "+string(to)+" from "+current, nil,
		map[string]any{"from": current, "to": string(to)})
}

// GetByID returns a single record.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*types.Notification, error) {
	n, err := scanNotification(r.db.QueryRow(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NewAppError(types.ErrCodeNotFoundNotification, "notification not found", nil)
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get notification", err)
	}
	return n, nil
}

// ExistsSent reports whether the (outage, user, channel, purpose) tuple
// already has a successfully sent record. DELIVERED counts as sent.
func (r *NotificationRepository) ExistsSent(ctx context.Context, outageID, userID string, channel types.ChannelType, purpose types.EventKind) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM notifications
		   WHERE outage_id = $1 AND user_id = $2 AND channel = $3 AND purpose = $4
		     AND status IN ('SENT', 'DELIVERED'))`,
		outageID, userID, string(channel), string(purpose),
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check sent notification", err)
	}
	return exists, nil
}

// FailStalePending moves PENDING records created at or before cutoff to
// FAILED and returns how many moved. last_attempt_at is left unset so the
// records are immediately eligible for retry.
func (r *NotificationRepository) FailStalePending(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications
		 SET status = 'FAILED', failure_reason = $2
		 WHERE status = 'PENDING' AND created_at <= $1`,
		cutoff,
		nilIfEmpty(reason),
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to fail stale pending notifications", err)
	}
	return int(tag.RowsAffected()), nil
}

// ListRetryable returns FAILED records with retry_count < maxAttempts whose
// last attempt (or creation, when never attempted) is at or before cutoff.
// Oldest first.
func (r *NotificationRepository) ListRetryable(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]*types.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+notificationColumns+`
		 FROM notifications
		 WHERE status = 'FAILED'
		   AND retry_count < $1
		   AND COALESCE(last_attempt_at, created_at) <= $2
		 ORDER BY COALESCE(last_attempt_at, created_at), id
		 LIMIT $3`,
		maxAttempts, cutoff, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list retryable notifications", err)
	}
	return collectNotifications(rows)
}

// ListByUser returns a user's notification history, newest first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*types.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+notificationColumns+`
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list user notifications", err)
	}
	return collectNotifications(rows)
}

func collectNotifications(rows pgx.Rows) ([]*types.Notification, error) {
	defer rows.Close()

	var out []*types.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan notification row", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating notification rows", err)
	}
	return out, nil
}

func scanNotification(row pgx.Row) (*types.Notification, error) {
	var (
		n             types.Notification
		channel       string
		status        string
		purpose       string
		failureReason *string
	)
	err := row.Scan(
		&n.ID,
		&n.OutageID,
		&n.UserID,
		&channel,
		&status,
		&purpose,
		&n.Content,
		&n.Language,
		&n.RetryCount,
		&failureReason,
		&n.CreatedAt,
		&n.LastAttemptAt,
		&n.SentAt,
		&n.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	n.ChannelType = types.ChannelType(channel)
	n.Status = types.NotificationStatus(status)
	n.Purpose = types.EventKind(purpose)
	n.FailureReason = derefString(failureReason)
	return &n, nil
}
