package core

import (
	"context"
	"fmt"

	"outagealert/internal/types"
)

// Resolver finds the active users affected by an outage: anyone with an
// address in the outage's district.
type Resolver struct {
	users  UserSource
	logger types.Logger
}

// NewResolver creates a Resolver.
func NewResolver(users UserSource, logger types.Logger) *Resolver {
	return &Resolver{users: users, logger: logger}
}

// Resolve returns the affected users. An outage without an area or with a
// blank district yields no users and a warning; that is not an error.
func (r *Resolver) Resolve(ctx context.Context, outage *types.Outage) ([]*types.User, error) {
	district := outage.District()
	if district == "" {
		r.logger.Warn("outage has no affected district, nobody to notify", "outage_id", outage.ID)
		return nil, nil
	}

	users, err := r.users.ListActiveByDistrict(ctx, district)
	if err != nil {
		return nil, fmt.Errorf("resolve users for outage %s: %w", outage.ID, err)
	}

	out := users[:0]
	for _, u := range users {
		if u.Active && u.LivesIn(district) {
			out = append(out, u)
		}
	}
	return out, nil
}
