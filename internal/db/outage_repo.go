package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"outagealert/internal/types"
)

// Areas and providers are LEFT JOINed: an outage may reference an area that
// no longer exists.
const outageSelect = `SELECT o.id, o.type, o.status, o.start_time, o.estimated_end_time,
	o.actual_end_time, o.reason, o.utility_provider_id, COALESCE(p.name, ''),
	o.created_at, o.updated_at, a.id, a.name, a.district
	FROM outages o
	LEFT JOIN areas a ON a.id = o.area_id
	LEFT JOIN utility_providers p ON p.id = o.utility_provider_id`

// OutageRepository reads outages. Outage writes belong to the outage service.
type OutageRepository struct {
	db DBTX
}

// NewOutageRepository creates a new OutageRepository.
func NewOutageRepository(db DBTX) *OutageRepository {
	return &OutageRepository{db: db}
}

// GetByID returns one outage with its area and provider name.
func (r *OutageRepository) GetByID(ctx context.Context, id string) (*types.Outage, error) {
	o, err := scanOutage(r.db.QueryRow(ctx, outageSelect+` WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.NewAppError(types.ErrCodeNotFoundOutage, "outage not found", nil)
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to get outage", err)
	}
	return o, nil
}

// ListScheduledStartingBetween returns SCHEDULED outages with start_time in
// [from, to], soonest first.
func (r *OutageRepository) ListScheduledStartingBetween(ctx context.Context, from, to time.Time) ([]*types.Outage, error) {
	rows, err := r.db.Query(ctx,
		outageSelect+`
		 WHERE o.status = 'SCHEDULED' AND o.start_time >= $1 AND o.start_time <= $2
		 ORDER BY o.start_time, o.id`,
		from, to,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list scheduled outages", err)
	}
	defer rows.Close()

	var out []*types.Outage
	for rows.Next() {
		o, err := scanOutage(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan outage row", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating outage rows", err)
	}
	return out, nil
}

func scanOutage(row pgx.Row) (*types.Outage, error) {
	var (
		o                        types.Outage
		outageType, status       string
		areaID, areaName, areaDs *string
	)
	err := row.Scan(
		&o.ID,
		&outageType,
		&status,
		&o.StartTime,
		&o.EstimatedEndTime,
		&o.ActualEndTime,
		&o.Reason,
		&o.UtilityProviderID,
		&o.ProviderName,
		&o.CreatedAt,
		&o.UpdatedAt,
		&areaID,
		&areaName,
		&areaDs,
	)
	if err != nil {
		return nil, err
	}
	o.Type = types.OutageType(outageType)
	o.Status = types.OutageStatus(status)
	if areaID != nil {
		o.AffectedArea = &types.Area{ID: *areaID, Name: derefString(areaName), District: derefString(areaDs)}
	}
	return &o, nil
}
