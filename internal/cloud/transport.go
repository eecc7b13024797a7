// ABOUTME: Cloud sync transport: pending upload queue, offline cache, full sync.
// ABOUTME: Failures near the network boundary become result values, never errors upstream.
package cloud

import (
	"fmt"
	"sort"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

func pendingKey(entityType, id string) string {
	return PendingPrefix + entityType + ":" + id
}

func cacheKey(userID string) string {
	return CachePrefix + userID
}

// MarkForUpload queues an upload intent for an entity. The record itself
// travels via FullSync; the pending key records that it is owed to the cloud.
func (c *Client) MarkForUpload(entityType, id string) error {
	item := models.PendingItem{
		ID:         id,
		EntityType: entityType,
		State:      models.SyncStatePending,
	}
	data, err := marshalJSON(item)
	if err != nil {
		return fmt.Errorf("marshal pending item: %w", err)
	}
	return c.set(pendingKey(entityType, id), data)
}

// ClearPending removes an entity's upload intent.
func (c *Client) ClearPending(entityType, id string) error {
	return c.delete(pendingKey(entityType, id))
}

// PendingItems returns every queued upload intent, oldest key order.
func (c *Client) PendingItems() ([]models.PendingItem, error) {
	values, err := c.listByPrefix(PendingPrefix)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}

	items := make([]models.PendingItem, 0, len(values))
	for _, data := range values {
		item, err := unmarshalJSON[models.PendingItem](data)
		if err != nil {
			continue // Skip invalid entries
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// CacheMetrics stores a user's resolved metrics as an offline cache blob,
// replacing any previous blob for that user.
func (c *Client) CacheMetrics(userID string, metrics []*models.HealthMetric) error {
	data, err := marshalJSON(metrics)
	if err != nil {
		return fmt.Errorf("marshal metric cache: %w", err)
	}
	return c.set(cacheKey(userID), data)
}

// CachedMetrics returns a user's offline cache blob, or nil when absent.
func (c *Client) CachedMetrics(userID string) ([]*models.HealthMetric, error) {
	data, err := c.get(cacheKey(userID))
	if err != nil || len(data) == 0 {
		return nil, nil
	}

	metrics, err := unmarshalJSON[[]*models.HealthMetric](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal metric cache: %w", err)
	}
	return *metrics, nil
}

// FullSync pushes local state to Charm Cloud and flushes the pending
// queue. It never returns an error; every failure is folded into the
// result so the local merge is never rolled back.
func (c *Client) FullSync() *models.CloudSyncResult {
	if c.IsReadOnly() {
		return &models.CloudSyncResult{
			Status:  models.CloudSyncError,
			Message: "cloud store is locked by another process",
		}
	}

	if err := c.Sync(); err != nil {
		return &models.CloudSyncResult{
			Status:  models.CloudSyncError,
			Message: fmt.Sprintf("cloud sync failed: %v", err),
			Errors:  []string{err.Error()},
		}
	}

	keys, err := c.keysByPrefix(PendingPrefix)
	if err != nil {
		return &models.CloudSyncResult{
			Status:  models.CloudSyncPartial,
			Message: fmt.Sprintf("synced, but pending queue unreadable: %v", err),
			Errors:  []string{err.Error()},
		}
	}

	result := &models.CloudSyncResult{Status: models.CloudSyncSuccess}
	for _, key := range keys {
		if err := c.delete(key); err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("flush %s: %v", key, err))
			continue
		}
		result.SuccessCount++
	}

	switch {
	case result.FailureCount > 0 && result.SuccessCount > 0:
		result.Status = models.CloudSyncPartial
		result.Message = fmt.Sprintf("synced %d items, %d failed to flush", result.SuccessCount, result.FailureCount)
	case result.FailureCount > 0:
		result.Status = models.CloudSyncError
		result.Message = "pending queue could not be flushed"
	default:
		result.Message = fmt.Sprintf("synced %d pending items", result.SuccessCount)
	}
	return result
}

// SyncStatus summarizes the pending queue for status displays.
func (c *Client) SyncStatus() (*models.SyncStatus, error) {
	items, err := c.PendingItems()
	if err != nil {
		return nil, err
	}

	status := &models.SyncStatus{}
	var lastSync *time.Time
	for _, item := range items {
		switch item.State {
		case models.SyncStatePending:
			status.PendingUploads++
		case models.SyncStateFailed:
			status.Failed++
		case models.SyncStateConflict:
			status.Conflicts++
		}
		if item.LastSyncTime != nil && (lastSync == nil || item.LastSyncTime.After(*lastSync)) {
			lastSync = item.LastSyncTime
		}
	}
	status.LastSyncTime = lastSync
	return status, nil
}
