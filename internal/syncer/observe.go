// ABOUTME: Targeted re-sync for selected metric types and the sync status feed.
// ABOUTME: Status observation polls the cloud transport's pending queue.
package syncer

import (
	"context"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

// ForceSyncForMetricTypes re-runs the pipeline and reports, per requested
// type, how many records the run added for the user.
func (o *Orchestrator) ForceSyncForMetricTypes(ctx context.Context, userID string, types []models.MetricType, start, end time.Time) (*models.SyncResult, map[models.MetricType]int) {
	before, err := o.store.CountMetricsOfTypes(ctx, userID, types)
	if err != nil {
		o.logger.Warn("pre-sync count failed", "error", err)
		before = map[models.MetricType]int{}
	}

	result := o.PerformBidirectionalSync(ctx, userID, start, end)

	after, err := o.store.CountMetricsOfTypes(ctx, userID, types)
	if err != nil {
		o.logger.Warn("post-sync count failed", "error", err)
		after = before
	}

	delta := make(map[models.MetricType]int, len(types))
	for _, mt := range types {
		delta[mt] = after[mt] - before[mt]
	}
	return result, delta
}

// ObserveSyncStatus emits a queue snapshot every interval until the
// context is cancelled. The feed covers health-metric entities only.
func (o *Orchestrator) ObserveSyncStatus(ctx context.Context, interval time.Duration) <-chan models.SyncStatus {
	ch := make(chan models.SyncStatus, 1)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				status := o.syncStatusSnapshot()
				select {
				case ch <- status:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch
}

func (o *Orchestrator) syncStatusSnapshot() models.SyncStatus {
	var status models.SyncStatus
	if o.cloud == nil {
		return status
	}

	items, err := o.cloud.PendingItems()
	if err != nil {
		o.logger.Warn("pending queue unreadable", "error", err)
		return status
	}

	for _, item := range items {
		if item.EntityType != models.EntityHealthMetric {
			continue
		}
		switch item.State {
		case models.SyncStatePending:
			status.PendingUploads++
		case models.SyncStateFailed:
			status.Failed++
		case models.SyncStateConflict:
			status.Conflicts++
		}
		if item.LastSyncTime != nil &&
			(status.LastSyncTime == nil || item.LastSyncTime.After(*status.LastSyncTime)) {
			status.LastSyncTime = item.LastSyncTime
		}
	}
	return status
}
