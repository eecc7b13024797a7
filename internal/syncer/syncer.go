// ABOUTME: Sync orchestrator wiring: narrow interfaces and explicit construction.
// ABOUTME: Providers, store, cache, and cloud transport are all injected.
package syncer

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/healthsync/internal/conflict"
	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/prioritize"
	"github.com/harperreed/healthsync/internal/validate"
)

// DefaultFetchTimeout bounds each provider's fetch; expiry counts as that
// provider's failure, never the sync's.
const DefaultFetchTimeout = 30 * time.Second

// DefaultBatchSize is the chunk size for local persistence.
const DefaultBatchSize = 100

// Provider adapts one external health-data platform.
type Provider interface {
	Name() string
	Available(ctx context.Context) bool
	Authenticated(ctx context.Context) bool
	Fetch(ctx context.Context, userID string, start, end time.Time) ([]*models.HealthMetric, error)
}

// MetricStore is the slice of local storage the orchestrator needs.
type MetricStore interface {
	UpsertMetrics(ctx context.Context, metrics []*models.HealthMetric) error
	MetricsForUserRange(ctx context.Context, userID string, start, end time.Time) ([]*models.HealthMetric, error)
	CountMetricsOfTypes(ctx context.Context, userID string, types []models.MetricType) (map[models.MetricType]int, error)
}

// Cache holds resolved metrics for offline reads. Failures are best-effort.
type Cache interface {
	CacheMetrics(userID string, metrics []*models.HealthMetric) error
}

// CloudTransport is the slice of the cloud sync client the orchestrator needs.
type CloudTransport interface {
	MarkForUpload(entityType, id string) error
	FullSync() *models.CloudSyncResult
	PendingItems() ([]models.PendingItem, error)
}

// Config assembles an Orchestrator's collaborators.
type Config struct {
	Providers    []Provider
	Store        MetricStore
	Cache        Cache          // optional
	Cloud        CloudTransport // optional
	Resolver     *conflict.Resolver
	Logger       *log.Logger
	FetchTimeout time.Duration
	BatchSize    int
}

// Orchestrator runs the full reconciliation pipeline for a sync request.
type Orchestrator struct {
	providers    []Provider
	store        MetricStore
	cache        Cache
	cloud        CloudTransport
	resolver     *conflict.Resolver
	validator    *validate.Validator
	prio         *prioritize.Prioritizer
	logger       *log.Logger
	fetchTimeout time.Duration
	batchSize    int
}

// New creates an Orchestrator from explicit collaborators.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	return &Orchestrator{
		providers:    cfg.Providers,
		store:        cfg.Store,
		cache:        cfg.Cache,
		cloud:        cfg.Cloud,
		resolver:     cfg.Resolver,
		validator:    validate.New(),
		prio:         prioritize.New(),
		logger:       cfg.Logger,
		fetchTimeout: cfg.FetchTimeout,
		batchSize:    cfg.BatchSize,
	}
}
