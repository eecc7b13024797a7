// ABOUTME: Health metric CRUD operations for SQLite storage.
// ABOUTME: Upsert on id: a later sync supersedes the stored row in place.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

const metricColumns = "id, user_id, metric_type, value, unit, timestamp, source, metadata, confidence"

// UpsertMetric stores a metric, replacing any existing row with the same id.
func (d *DB) UpsertMetric(ctx context.Context, m *models.HealthMetric) error {
	query := `
		INSERT INTO health_metrics (id, user_id, metric_type, value, unit, timestamp, source, metadata, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value = excluded.value,
			unit = excluded.unit,
			timestamp = excluded.timestamp,
			source = excluded.source,
			metadata = excluded.metadata,
			confidence = excluded.confidence
	`
	_, err := d.db.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		string(m.Type),
		m.Value,
		m.Unit,
		m.Timestamp,
		string(m.Source),
		m.Metadata,
		m.Confidence,
	)
	if err != nil {
		return fmt.Errorf("upsert metric: %w", err)
	}
	return nil
}

// UpsertMetrics stores a batch of metrics in one transaction.
func (d *DB) UpsertMetrics(ctx context.Context, metrics []*models.HealthMetric) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO health_metrics (id, user_id, metric_type, value, unit, timestamp, source, metadata, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value = excluded.value,
			unit = excluded.unit,
			timestamp = excluded.timestamp,
			source = excluded.source,
			metadata = excluded.metadata,
			confidence = excluded.confidence
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		if _, err := stmt.ExecContext(ctx,
			m.ID, m.UserID, string(m.Type), m.Value, m.Unit,
			m.Timestamp, string(m.Source), m.Metadata, m.Confidence,
		); err != nil {
			return fmt.Errorf("upsert metric %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert batch: %w", err)
	}
	return nil
}

// MetricsForUser returns all of a user's metrics, newest first.
func (d *DB) MetricsForUser(ctx context.Context, userID string) ([]*models.HealthMetric, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM health_metrics
		WHERE user_id = ?
		ORDER BY timestamp DESC
	`, metricColumns)

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user metrics: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// MetricsForUserRange returns a user's metrics with timestamps inside
// [start, end], newest first. Timestamps sort lexicographically in the
// canonical format.
func (d *DB) MetricsForUserRange(ctx context.Context, userID string, start, end time.Time) ([]*models.HealthMetric, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM health_metrics
		WHERE user_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
	`, metricColumns)

	rows, err := d.db.QueryContext(ctx, query, userID,
		models.FormatTimestamp(start), models.FormatTimestamp(end))
	if err != nil {
		return nil, fmt.Errorf("list user metrics in range: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// ListMetrics retrieves metrics with optional filtering by type.
// Results are sorted by timestamp descending (most recent first).
func (d *DB) ListMetrics(metricType *models.MetricType, limit int) ([]*models.HealthMetric, error) {
	var query string
	var args []interface{}

	if metricType != nil {
		query = fmt.Sprintf(`
			SELECT %s FROM health_metrics
			WHERE metric_type = ?
			ORDER BY timestamp DESC
		`, metricColumns)
		args = append(args, string(*metricType))
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM health_metrics
			ORDER BY timestamp DESC
		`, metricColumns)
	}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}
	defer rows.Close()

	return scanMetrics(rows)
}

// GetMetric retrieves a metric by ID or ID prefix.
func (d *DB) GetMetric(idOrPrefix string) (*models.HealthMetric, error) {
	id, err := d.resolveMetricID(idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM health_metrics WHERE id = ?`, metricColumns)
	return scanMetric(d.db.QueryRow(query, id))
}

// DeleteMetric removes a metric by ID or prefix.
func (d *DB) DeleteMetric(idOrPrefix string) error {
	id, err := d.resolveMetricID(idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}

	result, err := d.db.Exec("DELETE FROM health_metrics WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete metric: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("not found: %s", idOrPrefix)
	}

	return nil
}

// GetLatestMetric returns the most recent metric of a specific type.
func (d *DB) GetLatestMetric(metricType models.MetricType) (*models.HealthMetric, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM health_metrics
		WHERE metric_type = ?
		ORDER BY timestamp DESC
		LIMIT 1
	`, metricColumns)

	m, err := scanMetric(d.db.QueryRow(query, string(metricType)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("no metrics of type %s found", metricType)
		}
		return nil, err
	}
	return m, nil
}

// CountMetricsOfTypes counts a user's stored metrics per requested type.
func (d *DB) CountMetricsOfTypes(ctx context.Context, userID string, types []models.MetricType) (map[models.MetricType]int, error) {
	counts := make(map[models.MetricType]int, len(types))
	for _, mt := range types {
		var n int
		err := d.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM health_metrics WHERE user_id = ? AND metric_type = ?`,
			userID, string(mt)).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("count %s metrics: %w", mt, err)
		}
		counts[mt] = n
	}
	return counts, nil
}

// resolveMetricID finds the full ID from a prefix.
func (d *DB) resolveMetricID(idOrPrefix string) (string, error) {
	// If it looks like a full UUID, use it directly
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}

	// Search by prefix
	query := `SELECT id FROM health_metrics WHERE id LIKE ? || '%'`
	rows, err := d.db.Query(query, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve metric ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan metric ID: %w", err)
		}
		matches = append(matches, id)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("not found: %s", idOrPrefix)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous prefix %s: matches multiple records", idOrPrefix)
	}

	return matches[0], nil
}

// scanMetric scans a single row into a HealthMetric struct.
func scanMetric(row *sql.Row) (*models.HealthMetric, error) {
	var m models.HealthMetric
	var metricType, source string
	var metadata sql.NullString

	err := row.Scan(&m.ID, &m.UserID, &metricType, &m.Value, &m.Unit,
		&m.Timestamp, &source, &metadata, &m.Confidence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("not found")
		}
		return nil, fmt.Errorf("scan metric: %w", err)
	}

	m.Type = models.MetricType(metricType)
	m.Source = models.Source(source)
	if metadata.Valid {
		m.Metadata = &metadata.String
	}

	return &m, nil
}

// scanMetrics scans multiple rows into a slice of HealthMetrics.
func scanMetrics(rows *sql.Rows) ([]*models.HealthMetric, error) {
	var metrics []*models.HealthMetric

	for rows.Next() {
		var m models.HealthMetric
		var metricType, source string
		var metadata sql.NullString

		err := rows.Scan(&m.ID, &m.UserID, &metricType, &m.Value, &m.Unit,
			&m.Timestamp, &source, &metadata, &m.Confidence)
		if err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}

		m.Type = models.MetricType(metricType)
		m.Source = models.Source(source)
		if metadata.Valid {
			m.Metadata = &metadata.String
		}

		metrics = append(metrics, &m)
	}

	return metrics, rows.Err()
}
