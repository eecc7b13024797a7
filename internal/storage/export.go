// ABOUTME: Export and import functionality for health data.
// ABOUTME: Supports JSON and YAML export formats.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/healthsync/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for health data.
type ExportData struct {
	Version    string                 `json:"version" yaml:"version"`
	ExportedAt time.Time              `json:"exported_at" yaml:"exported_at"`
	Tool       string                 `json:"tool" yaml:"tool"`
	Metrics    []*models.HealthMetric `json:"metrics" yaml:"metrics"`
	Conflicts  []*models.Conflict     `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData() (*ExportData, error) {
	metrics, err := d.ListMetrics(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list metrics: %w", err)
	}

	// Export every user's conflict queue, resolved entries included.
	conflicts, err := d.allConflicts()
	if err != nil {
		return nil, fmt.Errorf("list conflicts: %w", err)
	}

	return &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "healthsync",
		Metrics:    metrics,
		Conflicts:  conflicts,
	}, nil
}

// ImportData imports data from an export file.
func (d *DB) ImportData(data *ExportData) error {
	ctx := context.Background()

	if err := d.UpsertMetrics(ctx, data.Metrics); err != nil {
		return fmt.Errorf("import metrics: %w", err)
	}

	for _, c := range data.Conflicts {
		if err := d.SaveConflict(ctx, c); err != nil {
			return fmt.Errorf("import conflict: %w", err)
		}
	}

	return nil
}

// ExportJSON exports all data as JSON.
func (d *DB) ExportJSON() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML, with metrics grouped by type.
func (d *DB) ExportYAML() ([]byte, error) {
	data, err := d.GetAllData()
	if err != nil {
		return nil, err
	}

	yamlData := struct {
		Version    string                  `yaml:"version"`
		ExportedAt string                  `yaml:"exported_at"`
		Tool       string                  `yaml:"tool"`
		Metrics    map[string][]yamlMetric `yaml:"metrics"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Metrics:    make(map[string][]yamlMetric),
	}

	for _, m := range data.Metrics {
		mt := string(m.Type)
		ym := yamlMetric{
			ID:         models.ShortID(m.ID),
			User:       m.UserID,
			Value:      m.Value,
			Unit:       m.Unit,
			Timestamp:  m.Timestamp,
			Source:     string(m.Source),
			Confidence: m.Confidence,
		}
		yamlData.Metrics[mt] = append(yamlData.Metrics[mt], ym)
	}

	return yaml.Marshal(yamlData)
}

type yamlMetric struct {
	ID         string  `yaml:"id"`
	User       string  `yaml:"user"`
	Value      float64 `yaml:"value"`
	Unit       string  `yaml:"unit"`
	Timestamp  string  `yaml:"timestamp"`
	Source     string  `yaml:"source"`
	Confidence float64 `yaml:"confidence"`
}

// ImportJSON imports data from JSON bytes.
func (d *DB) ImportJSON(data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return d.ImportData(&exportData)
}

// allConflicts returns every conflict row regardless of user.
func (d *DB) allConflicts() ([]*models.Conflict, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, metric_type, conflicting, detected_at, strategy, is_resolved, resolved_metric_id, resolved_at
		FROM conflicts
		ORDER BY detected_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanConflicts(rows)
}
