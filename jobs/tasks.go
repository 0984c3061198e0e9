package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStaleQueryScan nudges requests left in QUERIED too long.
	TaskStaleQueryScan = "request:stale_query_scan"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// StaleQueryScanPayload bounds the scan.
type StaleQueryScanPayload struct {
	OlderThan time.Duration `json:"older_than"`
}

// NewStaleQueryScanTask constructs the scan task.
func NewStaleQueryScanTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(StaleQueryScanPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaleQueryScan, data), nil
}

// IdempotencyCleanupPayload sets the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
