package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker provides a mutual-exclusion lease for a scheduled run. Acquire
// returns false while another holder's lease is live.
type Locker interface {
	Acquire(ctx context.Context, lockID, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, lockID, holder string) error
}

// JobHistorian records job runs.
type JobHistorian interface {
	Start(ctx context.Context, jobType string) (int64, error)
	Finish(ctx context.Context, id int64, status string, items int, err error) error
}

const lockKeyPrefix = "outagealert:joblock:"

// releaseScript deletes the key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX. The lease expires on its own
// if the holder dies.
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker creates a RedisLocker.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, lockID, holder string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+lockID, holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s: %w", lockID, err)
	}
	return ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, lockID, holder string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + lockID}, holder).Err(); err != nil {
		return fmt.Errorf("redis unlock %s: %w", lockID, err)
	}
	return nil
}

// NoopHistorian discards job history.
type NoopHistorian struct{}

func (NoopHistorian) Start(context.Context, string) (int64, error) { return 0, nil }

func (NoopHistorian) Finish(context.Context, int64, string, int, error) error { return nil }
