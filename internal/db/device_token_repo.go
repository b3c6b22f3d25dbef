package db

import (
	"context"

	"outagealert/internal/types"
)

// DeviceTokenRepository is the push token registry.
type DeviceTokenRepository struct {
	db DBTX
}

// NewDeviceTokenRepository creates a new DeviceTokenRepository.
func NewDeviceTokenRepository(db DBTX) *DeviceTokenRepository {
	return &DeviceTokenRepository{db: db}
}

// GetActiveTokensForUser returns the user's active registrations, newest first.
func (r *DeviceTokenRepository) GetActiveTokensForUser(ctx context.Context, userID string) ([]types.DeviceToken, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, token, platform, active, created_at
		 FROM device_tokens
		 WHERE user_id = $1 AND active
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list device tokens", err)
	}
	defer rows.Close()

	var out []types.DeviceToken
	for rows.Next() {
		var t types.DeviceToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Token, &t.Platform, &t.Active, &t.CreatedAt); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan device token row", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating device token rows", err)
	}
	return out, nil
}

// Deactivate marks a token inactive. Deactivating an unknown or already
// inactive token is not an error.
func (r *DeviceTokenRepository) Deactivate(ctx context.Context, tokenID string) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE device_tokens SET active = FALSE WHERE id = $1 AND active`, tokenID); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to deactivate device token", err)
	}
	return nil
}
