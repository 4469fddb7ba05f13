package models

import "time"

// Sync task lifecycle states.
const (
	SyncStatusPending = "pending"
	SyncStatusRetry   = "retry"
	SyncStatusDone    = "done"
	SyncStatusFailed  = "failed"
)

// SyncTask represents a queued spreadsheet mirror job. EntityKind is either
// "booking" or "expense"; TaskType is the mirror operation to apply.
type SyncTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	EntityKind  string     `json:"entity_kind"`
	EntityID    int64      `json:"entity_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	NextRetryAt *time.Time `json:"next_retry_at"`
}
