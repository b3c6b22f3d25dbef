package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultLockTTL bounds how long a crashed run can hold its job lock.
const DefaultLockTTL = 10 * time.Minute

// Job is one scheduled unit of work. Run returns the number of items
// processed.
type Job interface {
	Run(ctx context.Context, now time.Time) (int, error)
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context, now time.Time) (int, error)

func (f JobFunc) Run(ctx context.Context, now time.Time) (int, error) { return f(ctx, now) }

// JobRunner executes jobs by TaskType under the job lock and records each run
// in job history.
type JobRunner struct {
	Jobs     map[TaskType]Job
	Lock     Locker
	History  JobHistorian
	WorkerID string
	LockTTL  time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// Handle runs payload.Task as of payload.ReferenceTime (or now). A run skipped
// because another worker holds the lock is not an error.
//
//  1. Acquire the job lock "task".
//  2. Record job start in job_history.
//  3. Run the job.
//  4. Record completion with status and item count, then release the lock.
func (r *JobRunner) Handle(ctx context.Context, payload JobPayload) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := r.now()
	if payload.ReferenceTime != nil {
		now = payload.ReferenceTime.UTC()
	}

	if payload.Task == "" {
		return "", errors.New("empty task type in job payload")
	}
	job, ok := r.Jobs[payload.Task]
	if !ok {
		return "", fmt.Errorf("unknown task type: %s", payload.Task)
	}

	taskStr := string(payload.Task)
	lockID := taskStr
	if r.Lock != nil {
		acquired, err := r.Lock.Acquire(ctx, lockID, r.WorkerID, r.lockTTL())
		if err != nil {
			logger.ErrorContext(ctx, "failed to acquire job lock",
				"lock_id", lockID,
				"error", err,
			)
			return "", fmt.Errorf("acquiring job lock %s: %w", lockID, err)
		}
		if !acquired {
			logger.InfoContext(ctx, "job lock not acquired, another worker is processing",
				"lock_id", lockID,
			)
			return fmt.Sprintf("skipped: lock %s held by another worker", lockID), nil
		}
		defer func() {
			// The run's context may be done; release on a detached one.
			if err := r.Lock.Release(context.WithoutCancel(ctx), lockID, r.WorkerID); err != nil {
				logger.WarnContext(ctx, "failed to release job lock",
					"lock_id", lockID,
					"error", err,
				)
			}
		}()
	}

	history := r.History
	if history == nil {
		history = NoopHistorian{}
	}
	jobID, err := history.Start(ctx, taskStr)
	if err != nil {
		// Non-fatal. jobID=0 skips Finish.
		logger.ErrorContext(ctx, "failed to start job history",
			"task", taskStr,
			"error", err,
		)
		jobID = 0
	}

	items, execErr := job.Run(ctx, now)

	status := "success"
	if execErr != nil {
		status = "failed"
	}
	if jobID != 0 {
		if finishErr := history.Finish(context.WithoutCancel(ctx), jobID, status, items, execErr); finishErr != nil {
			logger.ErrorContext(ctx, "failed to finish job history",
				"job_id", jobID,
				"task", taskStr,
				"error", finishErr,
			)
		}
	}

	if execErr != nil {
		logger.ErrorContext(ctx, "task execution failed",
			"task", taskStr,
			"error", execErr,
			"items_before_error", items,
		)
		return "", fmt.Errorf("task %s failed: %w", taskStr, execErr)
	}

	result := fmt.Sprintf("task %s complete: %d items processed", taskStr, items)
	logger.InfoContext(ctx, result,
		"task", taskStr,
		"items", items,
	)
	return result, nil
}

// Loop calls Handle for task every interval until ctx is done. Run errors are
// logged by Handle and do not stop the loop.
func (r *JobRunner) Loop(ctx context.Context, task TaskType, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = r.Handle(ctx, JobPayload{Task: task})
		}
	}
}

func (r *JobRunner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *JobRunner) lockTTL() time.Duration {
	if r.LockTTL > 0 {
		return r.LockTTL
	}
	return DefaultLockTTL
}
