// Package scheduler runs the periodic notification jobs: advance notices for
// upcoming outages and retries of failed deliveries.
//
// Jobs are invoked either by the in-process ticker in cmd/notifier or by
// EventBridge through the cmd/jobs Lambda. Both paths go through JobRunner,
// which takes the job lock and records job history around each run.
package scheduler

import "time"

// TaskType identifies which job a JobPayload runs.
type TaskType string

const (
	TaskAdvanceNotice TaskType = "advance_notice"
	TaskRetryFailed   TaskType = "retry_failed"
)

// JobPayload is the JSON payload sent by EventBridge to the jobs Lambda.
//
//	{
//	  "task": "advance_notice",
//	  "reference_time": "2026-04-10T04:00:00Z"  // optional
//	}
type JobPayload struct {
	Task TaskType `json:"task"`
	// ReferenceTime overrides "now" for manual invocation. If nil,
	// time.Now().UTC() is used.
	ReferenceTime *time.Time `json:"reference_time,omitempty"`
}
