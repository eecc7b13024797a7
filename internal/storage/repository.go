// ABOUTME: Repository interface for health data storage.
// ABOUTME: Defines contract for metric and conflict-queue operations.
package storage

import (
	"context"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

// Repository defines the storage interface for health data.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	// Metric operations
	UpsertMetric(ctx context.Context, m *models.HealthMetric) error
	UpsertMetrics(ctx context.Context, metrics []*models.HealthMetric) error
	GetMetric(idOrPrefix string) (*models.HealthMetric, error)
	ListMetrics(metricType *models.MetricType, limit int) ([]*models.HealthMetric, error)
	DeleteMetric(idOrPrefix string) error
	GetLatestMetric(metricType models.MetricType) (*models.HealthMetric, error)
	MetricsForUser(ctx context.Context, userID string) ([]*models.HealthMetric, error)
	MetricsForUserRange(ctx context.Context, userID string, start, end time.Time) ([]*models.HealthMetric, error)
	CountMetricsOfTypes(ctx context.Context, userID string, types []models.MetricType) (map[models.MetricType]int, error)

	// Conflict queue operations
	SaveConflict(ctx context.Context, c *models.Conflict) error
	UnresolvedConflicts(ctx context.Context, userID string) ([]*models.Conflict, error)
	ListConflicts(ctx context.Context, userID string) ([]*models.Conflict, error)
	MarkConflictResolved(ctx context.Context, conflictID, resolvedMetricID string, resolvedAt time.Time) error
	CountUnresolvedConflicts(ctx context.Context, userID string) (int, error)

	// Export/Import
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Lifecycle
	Close() error
}
