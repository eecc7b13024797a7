// ABOUTME: Integration tests for the full reconciliation pipeline.
// ABOUTME: Runs real file providers against a real SQLite store end to end.
package test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/healthsync/internal/conflict"
	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/provider"
	"github.com/harperreed/healthsync/internal/storage"
	"github.com/harperreed/healthsync/internal/syncer"
)

const testUser = "user-1"

func writeFixture(t *testing.T, name string, records string) string {
	t.Helper()
	fixture := fmt.Sprintf(`{
		"name": %q,
		"available": true,
		"authenticated": true,
		"records": [%s]
	}`, name, records)
	path := filepath.Join(t.TempDir(), name+".json")
	if err := os.WriteFile(path, []byte(fixture), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func record(id, metricType string, value float64, unit, ts, source string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"user_id": %q,
		"type": %q,
		"value": %v,
		"unit": %q,
		"timestamp": %q,
		"source": %q
	}`, id, testUser, metricType, value, unit, ts, source)
}

func openProvider(t *testing.T, path string) *provider.FileProvider {
	t.Helper()
	p, err := provider.NewFileProvider(path)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// memoryCloud is an in-memory stand-in for the charm transport: uploads
// are marked and drained by FullSync, nothing leaves the process.
type memoryCloud struct {
	marked []models.PendingItem
	cached map[string][]*models.HealthMetric
}

func (c *memoryCloud) MarkForUpload(entityType, id string) error {
	c.marked = append(c.marked, models.PendingItem{
		ID:         id,
		EntityType: entityType,
		State:      models.SyncStatePending,
	})
	return nil
}

func (c *memoryCloud) FullSync() *models.CloudSyncResult {
	n := len(c.marked)
	c.marked = nil
	return &models.CloudSyncResult{Status: models.CloudSyncSuccess, SuccessCount: n}
}

func (c *memoryCloud) PendingItems() ([]models.PendingItem, error) {
	return append([]models.PendingItem(nil), c.marked...), nil
}

func (c *memoryCloud) CacheMetrics(userID string, metrics []*models.HealthMetric) error {
	if c.cached == nil {
		c.cached = make(map[string][]*models.HealthMetric)
	}
	c.cached[userID] = metrics
	return nil
}

func newPipeline(t *testing.T, providers ...syncer.Provider) (*syncer.Orchestrator, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "healthsync.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	transport := &memoryCloud{}
	logger := log.New(io.Discard)
	orch := syncer.New(syncer.Config{
		Providers: providers,
		Store:     db,
		Resolver:  conflict.New(db, logger),
		Cloud:     transport,
		Cache:     transport,
		Logger:    logger,
	})
	return orch, db
}

func TestFullSyncWorkflow(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	ts := models.FormatTimestamp(now.Add(-2 * time.Hour))

	// Two platforms report the same steps window; the wearable also brings
	// HRV, and the aggregator disputes a manually entered weight.
	wearable := writeFixture(t, "wearable", record("11111111-0000-0000-0000-000000000001", "steps", 9500, "steps", ts, "wearable_primary")+","+
		record("11111111-0000-0000-0000-000000000002", "hrv", 48, "ms", ts, "wearable_primary"))
	aggregator := writeFixture(t, "aggregator", record("22222222-0000-0000-0000-000000000001", "steps", 9300, "steps", ts, "aggregator")+","+
		record("22222222-0000-0000-0000-000000000002", "weight", 95, "kg", ts, "aggregator"))

	orch, db := newPipeline(t, openProvider(t, wearable), openProvider(t, aggregator))

	manual := models.NewHealthMetric(testUser, models.MetricWeight, 70, models.SourceManualEntry)
	manual.Timestamp = ts
	if err := db.UpsertMetric(ctx, manual); err != nil {
		t.Fatal(err)
	}

	result := orch.PerformBidirectionalSync(ctx, testUser, now.Add(-24*time.Hour), now)

	if result.Outcome != models.SyncSuccess {
		t.Fatalf("Outcome = %s, want success (errors: %v)", result.Outcome, result.Errors)
	}
	if result.CloudSync.Status != models.CloudSyncSuccess {
		t.Errorf("cloud leg status = %s, want success", result.CloudSync.Status)
	}
	if len(result.PlatformStatuses) != 2 {
		t.Fatalf("expected 2 platform statuses, got %d", len(result.PlatformStatuses))
	}
	for _, ps := range result.PlatformStatuses {
		if ps.State != models.SyncStateSynced {
			t.Errorf("platform %s state = %s, want synced", ps.Platform, ps.State)
		}
	}

	stored, err := db.MetricsForUser(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}

	byType := make(map[models.MetricType][]*models.HealthMetric)
	for _, m := range stored {
		byType[m.Type] = append(byType[m.Type], m)
	}

	// Near-duplicate steps collapse to the more reliable wearable reading.
	if len(byType[models.MetricSteps]) != 1 {
		t.Fatalf("expected 1 steps record, got %d", len(byType[models.MetricSteps]))
	}
	if got := byType[models.MetricSteps][0]; got.Value != 9500 || got.Source != models.SourceWearablePrimary {
		t.Errorf("steps winner = %.0f from %s, want 9500 from wearable_primary", got.Value, got.Source)
	}

	// The manual weight beats the aggregator's disputed reading.
	if len(byType[models.MetricWeight]) != 1 {
		t.Fatalf("expected 1 weight record, got %d", len(byType[models.MetricWeight]))
	}
	if got := byType[models.MetricWeight][0]; got.Value != 70 {
		t.Errorf("weight winner = %.0f, want the manual 70", got.Value)
	}

	if len(byType[models.MetricHRV]) != 1 {
		t.Errorf("expected 1 hrv record, got %d", len(byType[models.MetricHRV]))
	}
}

func TestFailingPlatformDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	ts := models.FormatTimestamp(now.Add(-time.Hour))

	healthy := writeFixture(t, "wearable", record("11111111-0000-0000-0000-000000000001", "steps", 8000, "steps", ts, "wearable_primary"))

	// A fixture declaring itself unavailable stands in for a platform outage.
	down := `{"name": "lab", "available": false, "authenticated": true, "records": []}`
	downPath := filepath.Join(t.TempDir(), "lab.json")
	if err := os.WriteFile(downPath, []byte(down), 0600); err != nil {
		t.Fatal(err)
	}

	orch, db := newPipeline(t, openProvider(t, healthy), openProvider(t, downPath))

	result := orch.PerformBidirectionalSync(ctx, testUser, now.Add(-24*time.Hour), now)

	if result.Outcome != models.SyncSuccess {
		t.Errorf("Outcome = %s, want success while one platform still contributes", result.Outcome)
	}

	byName := map[string]models.PlatformStatus{}
	for _, ps := range result.PlatformStatuses {
		byName[ps.Platform] = ps
	}
	if byName["lab"].State != models.SyncStateFailed {
		t.Errorf("down platform state = %s, want failed", byName["lab"].State)
	}
	if byName["wearable"].State != models.SyncStateSynced {
		t.Errorf("healthy platform state = %s, want synced", byName["wearable"].State)
	}

	stored, err := db.MetricsForUser(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Errorf("healthy platform's metric should persist, got %d records", len(stored))
	}
}

func TestConflictQueuedAndResolvedAcrossSync(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	base := now.Add(-2 * time.Hour)
	tsA := models.FormatTimestamp(base)
	tsB := models.FormatTimestamp(base.Add(29 * time.Minute))
	tsC := models.FormatTimestamp(base.Add(31 * time.Minute))

	// Two duplicate windows whose winners land minutes apart: the first
	// window collapses to the wearable's 9, the second holds only the 2.5.
	// custom_habit has no preferred source, no temporal rule, and no
	// statistical rule, so the disagreement between the winners must queue.
	a := writeFixture(t, "trackerA", record("11111111-0000-0000-0000-000000000001", "custom_habit", 2, "count", tsA, "custom")+","+
		record("11111111-0000-0000-0000-000000000002", "custom_habit", 2.5, "count", tsC, "custom"))
	b := writeFixture(t, "trackerB", record("22222222-0000-0000-0000-000000000001", "custom_habit", 9, "count", tsB, "wearable_secondary"))

	orch, db := newPipeline(t, openProvider(t, a), openProvider(t, b))

	result := orch.PerformBidirectionalSync(ctx, testUser, now.Add(-24*time.Hour), now)
	if result.Outcome == models.SyncError {
		t.Fatalf("sync errored: %v", result.Errors)
	}

	queued, err := db.UnresolvedConflicts(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(queued) != 1 {
		t.Fatalf("expected 1 queued conflict, got %d", len(queued))
	}
	if queued[0].MetricType != models.MetricCustomHabit {
		t.Errorf("queued conflict type = %s", queued[0].MetricType)
	}

	// A provisional winner is still persisted; the sync never stalls.
	stored, err := db.MetricsForUser(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 provisional record, got %d", len(stored))
	}

	resolver := conflict.New(db, log.New(io.Discard))
	batch, err := resolver.ApplyStrategy(ctx, testUser, models.StrategyLatestWins)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Resolved != 1 {
		t.Fatalf("batch = %+v, want 1 resolved", batch)
	}

	remaining, err := db.CountUnresolvedConflicts(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Errorf("expected empty queue after resolve, got %d", remaining)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	ts := models.FormatTimestamp(now.Add(-time.Hour))

	wearable := writeFixture(t, "wearable", record("11111111-0000-0000-0000-000000000001", "steps", 9500, "steps", ts, "wearable_primary"))

	orch, db := newPipeline(t, openProvider(t, wearable))

	first := orch.PerformBidirectionalSync(ctx, testUser, now.Add(-24*time.Hour), now)
	second := orch.PerformBidirectionalSync(ctx, testUser, now.Add(-24*time.Hour), now)

	if first.Outcome != models.SyncSuccess || second.Outcome != models.SyncSuccess {
		t.Fatalf("outcomes = %s / %s, want success twice", first.Outcome, second.Outcome)
	}

	stored, err := db.MetricsForUser(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 {
		t.Errorf("re-syncing the same window must not duplicate records, got %d", len(stored))
	}
}
