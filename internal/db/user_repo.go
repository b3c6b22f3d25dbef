package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"outagealert/internal/types"
)

// UserRepository reads recipients with their addresses and preferences.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// ListActiveByDistrict returns active users with at least one address in the
// district. Matching is trimmed and case-insensitive. Each user appears once.
func (r *UserRepository) ListActiveByDistrict(ctx context.Context, district string) ([]*types.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.email, COALESCE(u.phone, ''), u.preferred_language, u.active
		 FROM users u
		 WHERE u.active
		   AND EXISTS (
		     SELECT 1 FROM addresses a
		     WHERE a.user_id = u.id AND lower(btrim(a.district)) = $1)
		 ORDER BY u.id`,
		types.NormalizeDistrict(district),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list users by district", err)
	}

	users, err := collectUsers(rows)
	if err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByID returns a user (active or not) with addresses and preferences.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, COALESCE(phone, ''), preferred_language, active
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Phone, &u.PreferredLanguage, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get user", err)
	}
	if err := r.hydrate(ctx, []*types.User{&u}); err != nil {
		return nil, err
	}
	return &u, nil
}

// hydrate loads addresses and preferences for all users in two queries.
func (r *UserRepository) hydrate(ctx context.Context, users []*types.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[string]*types.User, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	addrRows, err := r.db.Query(ctx,
		`SELECT id, user_id, line1, city, district, position
		 FROM addresses WHERE user_id = ANY($1)
		 ORDER BY user_id, position, id`, ids)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to load addresses", err)
	}
	defer addrRows.Close()
	for addrRows.Next() {
		var a types.Address
		if err := addrRows.Scan(&a.ID, &a.UserID, &a.Line1, &a.City, &a.District, &a.Position); err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to scan address row", err)
		}
		if u := byID[a.UserID]; u != nil {
			u.Addresses = append(u.Addresses, a)
		}
	}
	if err := addrRows.Err(); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "error iterating address rows", err)
	}

	prefRows, err := r.db.Query(ctx,
		`SELECT id, user_id, outage_type, channel_type, enabled, advance_notice_minutes,
		        receive_updates, receive_restoration
		 FROM notification_preferences WHERE user_id = ANY($1)
		 ORDER BY user_id, id`, ids)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to load preferences", err)
	}
	defer prefRows.Close()
	for prefRows.Next() {
		var (
			p                    types.NotificationPreference
			outageType, chanType string
		)
		if err := prefRows.Scan(&p.ID, &p.UserID, &outageType, &chanType, &p.Enabled,
			&p.AdvanceNoticeMinutes, &p.ReceiveUpdates, &p.ReceiveRestoration); err != nil {
			return types.NewAppError(types.ErrCodeInternalDB, "failed to scan preference row", err)
		}
		p.OutageType = types.OutageType(outageType)
		p.ChannelType = types.ChannelType(chanType)
		if u := byID[p.UserID]; u != nil {
			u.Preferences = append(u.Preferences, p)
		}
	}
	if err := prefRows.Err(); err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "error iterating preference rows", err)
	}
	return nil
}

func collectUsers(rows pgx.Rows) ([]*types.User, error) {
	defer rows.Close()

	var out []*types.User
	for rows.Next() {
		var u types.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Phone, &u.PreferredLanguage, &u.Active); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan user row", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating user rows", err)
	}
	return out, nil
}
