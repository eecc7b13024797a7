// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for health_metrics and the conflicts queue.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS health_metrics (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		value REAL NOT NULL,
		unit TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		source TEXT NOT NULL,
		metadata TEXT,
		confidence REAL NOT NULL DEFAULT 1.0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS conflicts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		conflicting TEXT NOT NULL,
		detected_at DATETIME NOT NULL,
		strategy TEXT NOT NULL,
		is_resolved INTEGER NOT NULL DEFAULT 0,
		resolved_metric_id TEXT,
		resolved_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_metrics_user ON health_metrics(user_id);
	CREATE INDEX IF NOT EXISTS idx_metrics_type ON health_metrics(metric_type);
	CREATE INDEX IF NOT EXISTS idx_metrics_user_type_time ON health_metrics(user_id, metric_type, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_conflicts_user_unresolved ON conflicts(user_id, is_resolved);
	`

	_, err := d.db.Exec(schema)
	return err
}
