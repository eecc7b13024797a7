// ABOUTME: Bidirectional sync pipeline: fan-out fetch, validate, merge, resolve, persist.
// ABOUTME: Per-provider failures become status values; the merge never rolls back.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

// fetchResult is one provider's contribution after the fan-out barrier.
type fetchResult struct {
	status  models.PlatformStatus
	metrics []*models.HealthMetric
}

// PerformBidirectionalSync runs the full pipeline for one user and time
// range. It always returns a structured result; ordinary provider,
// storage, and network failures are folded into it.
func (o *Orchestrator) PerformBidirectionalSync(ctx context.Context, userID string, start, end time.Time) *models.SyncResult {
	result := &models.SyncResult{Timestamp: time.Now()}
	o.logger.Info("sync started", "user", userID, "providers", len(o.providers))

	// Fan out to all providers; failures isolate per provider.
	fetched, statuses := o.fetchAll(ctx, userID, start, end)
	result.PlatformStatuses = statuses

	// Validate and sanitize; invalid records are dropped here.
	clean := o.validateAll(fetched)
	o.logger.Info("validation complete", "fetched", len(fetched), "valid", len(clean))

	// Merge with what is already stored for the range.
	stored, err := o.store.MetricsForUserRange(ctx, userID, start, end)
	if err != nil {
		o.logger.Error("stored metrics unreadable", "error", err)
		result.Outcome = models.SyncError
		result.Errors = append(result.Errors, fmt.Sprintf("load stored metrics: %v", err))
		result.Summary = "sync aborted: local store unreadable"
		return result
	}

	merged := o.prio.MergeWithExisting(stored, clean)
	o.logger.Info("merge complete", "stored", len(stored), "merged", len(merged))

	resolved, conflicts := o.resolver.ResolveConflicts(ctx, userID, merged)
	o.logger.Info("conflict resolution complete", "resolved", len(resolved), "queued_conflicts", len(conflicts))

	// Best-effort offline cache; never affects the outcome.
	if o.cache != nil {
		if err := o.cache.CacheMetrics(userID, resolved); err != nil {
			o.logger.Warn("offline cache update failed", "error", err)
		}
	}

	result.CloudSync = o.pushToCloud(resolved, conflicts)

	if err := o.persist(ctx, resolved); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("persist metrics: %v", err))
	} else {
		result.SyncedMetricsCount = len(resolved)
	}

	o.finishResult(result)
	o.logger.Info("sync finished", "outcome", result.Outcome, "metrics", result.SyncedMetricsCount)
	return result
}

// fetchAll dispatches one goroutine per provider and joins at a barrier.
// Each task recovers panics and bounds its fetch with the configured
// timeout; any failure becomes a FAILED status with an empty list.
func (o *Orchestrator) fetchAll(ctx context.Context, userID string, start, end time.Time) ([]*models.HealthMetric, []models.PlatformStatus) {
	results := make([]fetchResult, len(o.providers))

	var wg sync.WaitGroup
	for i, p := range o.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i] = o.fetchOne(ctx, p, userID, start, end)
		}(i, p)
	}
	wg.Wait()

	var metrics []*models.HealthMetric
	statuses := make([]models.PlatformStatus, 0, len(results))
	for _, r := range results {
		metrics = append(metrics, r.metrics...)
		statuses = append(statuses, r.status)
	}
	return metrics, statuses
}

// fetchOne runs a single provider's fetch with panic recovery and timeout.
func (o *Orchestrator) fetchOne(ctx context.Context, p Provider, userID string, start, end time.Time) (result fetchResult) {
	now := time.Now()
	result.status = models.PlatformStatus{
		Platform: p.Name(),
		State:    models.SyncStateFailed,
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("provider panicked", "provider", p.Name(), "panic", r)
			result.metrics = nil
			result.status.State = models.SyncStateFailed
			result.status.ErrorMessage = fmt.Sprintf("provider panicked: %v", r)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
	defer cancel()

	if !p.Available(fetchCtx) {
		result.status.ErrorMessage = "platform not available"
		return result
	}
	result.status.Available = true

	if !p.Authenticated(fetchCtx) {
		result.status.ErrorMessage = "not authenticated"
		return result
	}
	result.status.Connected = true

	metrics, err := p.Fetch(fetchCtx, userID, start, end)
	if err != nil {
		o.logger.Warn("provider fetch failed", "provider", p.Name(), "error", err)
		result.status.ErrorMessage = fmt.Sprintf("fetch failed: %v", err)
		return result
	}

	result.metrics = metrics
	result.status.State = models.SyncStateSynced
	result.status.MetricCount = len(metrics)
	result.status.LastSyncTime = &now
	return result
}

// validateAll keeps the records that validate, sanitized, with the
// computed confidence attached.
func (o *Orchestrator) validateAll(metrics []*models.HealthMetric) []*models.HealthMetric {
	clean := make([]*models.HealthMetric, 0, len(metrics))
	for _, m := range metrics {
		r := o.validator.Validate(m)
		if !r.Valid {
			o.logger.Debug("dropping invalid metric", "id", m.ID, "type", m.Type, "errors", r.Errors)
			continue
		}
		s := o.validator.Sanitize(m)
		s.Confidence = r.Confidence
		clean = append(clean, s)
	}
	return clean
}

// pushToCloud marks resolved records for upload and drives a full sync.
// With no transport configured the cloud leg trivially succeeds.
func (o *Orchestrator) pushToCloud(resolved []*models.HealthMetric, conflicts []*models.Conflict) models.CloudSyncResult {
	conflictIDs := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		conflictIDs = append(conflictIDs, c.ID)
	}

	if o.cloud == nil {
		return models.CloudSyncResult{
			Status:      models.CloudSyncSuccess,
			Message:     "cloud transport not configured",
			ConflictIDs: conflictIDs,
		}
	}

	for _, m := range resolved {
		if err := o.cloud.MarkForUpload(models.EntityHealthMetric, m.ID); err != nil {
			o.logger.Warn("mark for upload failed", "id", m.ID, "error", err)
		}
	}

	cloudResult := o.cloud.FullSync()
	cloudResult.ConflictIDs = append(cloudResult.ConflictIDs, conflictIDs...)
	if len(cloudResult.ConflictIDs) > 0 && cloudResult.Status == models.CloudSyncSuccess {
		cloudResult.Status = models.CloudSyncConflict
	}
	return *cloudResult
}

// persist writes resolved metrics in fixed-size chunks.
func (o *Orchestrator) persist(ctx context.Context, metrics []*models.HealthMetric) error {
	for i := 0; i < len(metrics); i += o.batchSize {
		end := i + o.batchSize
		if end > len(metrics) {
			end = len(metrics)
		}
		if err := o.store.UpsertMetrics(ctx, metrics[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// finishResult derives the overall outcome and summary from the parts.
func (o *Orchestrator) finishResult(result *models.SyncResult) {
	synced, failed := 0, 0
	for _, s := range result.PlatformStatuses {
		if s.State == models.SyncStateSynced {
			synced++
		} else {
			failed++
		}
	}

	cloudOK := result.CloudSync.Status == models.CloudSyncSuccess ||
		result.CloudSync.Status == models.CloudSyncConflict

	switch {
	case len(o.providers) > 0 && synced == 0:
		result.Outcome = models.SyncPartial
	case !cloudOK:
		result.Outcome = models.SyncPartial
	case len(result.Errors) > 0:
		result.Outcome = models.SyncPartial
	default:
		result.Outcome = models.SyncSuccess
	}

	result.Summary = fmt.Sprintf("%d metrics synced, %d/%d platforms ok, cloud %s",
		result.SyncedMetricsCount, synced, len(result.PlatformStatuses), result.CloudSync.Status)
	if failed > 0 {
		result.Summary += fmt.Sprintf(" (%d platform failures)", failed)
	}
}
