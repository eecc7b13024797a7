// ABOUTME: Conflict queue CRUD for SQLite storage.
// ABOUTME: Conflicting metrics are stored as a JSON blob alongside queue state.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

// SaveConflict queues a conflict record.
func (d *DB) SaveConflict(ctx context.Context, c *models.Conflict) error {
	blob, err := json.Marshal(c.ConflictingMetrics)
	if err != nil {
		return fmt.Errorf("marshal conflicting metrics: %w", err)
	}

	query := `
		INSERT INTO conflicts (id, user_id, metric_type, conflicting, detected_at, strategy, is_resolved, resolved_metric_id, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			strategy = excluded.strategy,
			is_resolved = excluded.is_resolved,
			resolved_metric_id = excluded.resolved_metric_id,
			resolved_at = excluded.resolved_at
	`
	var resolvedAt interface{}
	if c.ResolvedAt != nil {
		resolvedAt = c.ResolvedAt.Format(time.RFC3339)
	}
	_, err = d.db.ExecContext(ctx, query,
		c.ID,
		c.UserID,
		string(c.MetricType),
		string(blob),
		c.DetectedAt.Format(time.RFC3339),
		string(c.Strategy),
		boolToInt(c.Resolved),
		nullIfEmpty(c.ResolvedMetricID),
		resolvedAt,
	)
	if err != nil {
		return fmt.Errorf("save conflict: %w", err)
	}
	return nil
}

// UnresolvedConflicts returns a user's queued conflicts, oldest first.
func (d *DB) UnresolvedConflicts(ctx context.Context, userID string) ([]*models.Conflict, error) {
	query := `
		SELECT id, user_id, metric_type, conflicting, detected_at, strategy, is_resolved, resolved_metric_id, resolved_at
		FROM conflicts
		WHERE user_id = ? AND is_resolved = 0
		ORDER BY detected_at ASC
	`
	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list unresolved conflicts: %w", err)
	}
	defer rows.Close()

	return scanConflicts(rows)
}

// ListConflicts returns all of a user's conflicts, resolved included.
func (d *DB) ListConflicts(ctx context.Context, userID string) ([]*models.Conflict, error) {
	query := `
		SELECT id, user_id, metric_type, conflicting, detected_at, strategy, is_resolved, resolved_metric_id, resolved_at
		FROM conflicts
		WHERE user_id = ?
		ORDER BY detected_at DESC
	`
	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}
	defer rows.Close()

	return scanConflicts(rows)
}

// MarkConflictResolved records the winning metric for a queued conflict.
func (d *DB) MarkConflictResolved(ctx context.Context, conflictID, resolvedMetricID string, resolvedAt time.Time) error {
	result, err := d.db.ExecContext(ctx, `
		UPDATE conflicts
		SET is_resolved = 1, resolved_metric_id = ?, resolved_at = ?
		WHERE id = ? AND is_resolved = 0
	`, resolvedMetricID, resolvedAt.Format(time.RFC3339), conflictID)
	if err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("conflict not found or already resolved: %s", conflictID)
	}
	return nil
}

// CountUnresolvedConflicts counts a user's queued conflicts.
func (d *DB) CountUnresolvedConflicts(ctx context.Context, userID string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conflicts WHERE user_id = ? AND is_resolved = 0`,
		userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unresolved conflicts: %w", err)
	}
	return n, nil
}

func scanConflicts(rows *sql.Rows) ([]*models.Conflict, error) {
	var conflicts []*models.Conflict

	for rows.Next() {
		var c models.Conflict
		var metricType, conflicting, detectedAt, strategy string
		var isResolved int
		var resolvedMetricID, resolvedAt sql.NullString

		err := rows.Scan(&c.ID, &c.UserID, &metricType, &conflicting,
			&detectedAt, &strategy, &isResolved, &resolvedMetricID, &resolvedAt)
		if err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}

		c.MetricType = models.MetricType(metricType)
		c.Strategy = models.ResolutionStrategy(strategy)
		c.Resolved = isResolved != 0
		c.DetectedAt, _ = time.Parse(time.RFC3339, detectedAt)
		if resolvedMetricID.Valid {
			c.ResolvedMetricID = resolvedMetricID.String
		}
		if resolvedAt.Valid {
			t, err := time.Parse(time.RFC3339, resolvedAt.String)
			if err == nil {
				c.ResolvedAt = &t
			}
		}
		if err := json.Unmarshal([]byte(conflicting), &c.ConflictingMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal conflicting metrics: %w", err)
		}

		conflicts = append(conflicts, &c)
	}

	return conflicts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
