// ABOUTME: Sync result types: per-platform status, cloud sync outcome, and the overall report.
// ABOUTME: Callers always receive structured results, never bare errors for ordinary failures.
package models

import "time"

// SyncState is the sync state of a platform or pending item.
type SyncState string

const (
	SyncStateSynced   SyncState = "synced"
	SyncStateFailed   SyncState = "failed"
	SyncStateConflict SyncState = "conflict"
	SyncStatePending  SyncState = "pending"
)

// PlatformStatus describes one provider's part in a sync.
type PlatformStatus struct {
	Platform     string     `json:"platform"`
	Available    bool       `json:"available"`
	Connected    bool       `json:"connected"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	State        SyncState  `json:"state"`
	ErrorMessage string     `json:"error_message,omitempty"`
	MetricCount  int        `json:"metric_count"`
}

// CloudSyncStatus is the outcome category of the cloud transport leg.
type CloudSyncStatus string

const (
	CloudSyncSuccess  CloudSyncStatus = "success"
	CloudSyncError    CloudSyncStatus = "error"
	CloudSyncConflict CloudSyncStatus = "conflict"
	CloudSyncPartial  CloudSyncStatus = "partial"
)

// CloudSyncResult carries the cloud transport's outcome into the sync report.
// The local merge is never rolled back on a cloud failure.
type CloudSyncResult struct {
	Status       CloudSyncStatus `json:"status"`
	Message      string          `json:"message,omitempty"`
	ConflictIDs  []string        `json:"conflict_ids,omitempty"`
	SuccessCount int             `json:"success_count,omitempty"`
	FailureCount int             `json:"failure_count,omitempty"`
	Errors       []string        `json:"errors,omitempty"`
}

// SyncOutcome is the overall result category of a sync run.
type SyncOutcome string

const (
	SyncSuccess SyncOutcome = "success"
	SyncPartial SyncOutcome = "partial"
	SyncError   SyncOutcome = "error"
)

// SyncResult is the structured report of one bidirectional sync.
type SyncResult struct {
	Outcome            SyncOutcome      `json:"outcome"`
	SyncedMetricsCount int              `json:"synced_metrics_count"`
	PlatformStatuses   []PlatformStatus `json:"platform_statuses"`
	CloudSync          CloudSyncResult  `json:"cloud_sync"`
	Timestamp          time.Time        `json:"timestamp"`
	Summary            string           `json:"summary"`
	Errors             []string         `json:"errors,omitempty"`
}

// SyncStatus is a point-in-time view of the pending sync queue.
type SyncStatus struct {
	PendingUploads int `json:"pending_uploads"`

	// PendingDownloads stays 0 on the charm kv transport: Sync pulls the
	// whole keyspace at once, so there is no per-item download queue.
	PendingDownloads int        `json:"pending_downloads"`
	Conflicts        int        `json:"conflicts"`
	Failed           int        `json:"failed"`
	LastSyncTime     *time.Time `json:"last_sync_time,omitempty"`
}

// PendingItem is one queued entry in the cloud transport's pending queue.
type PendingItem struct {
	ID           string     `json:"id"`
	EntityType   string     `json:"entity_type"`
	State        SyncState  `json:"state"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
}

// EntityHealthMetric is the entity type under which metrics are queued
// with the cloud transport.
const EntityHealthMetric = "health_metric"
