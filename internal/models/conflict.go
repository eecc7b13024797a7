// ABOUTME: Conflict record and resolution strategy enum for ambiguous multi-source disagreements.
// ABOUTME: Unresolved conflicts are queued for manual adjudication without blocking a sync.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionStrategy selects how queued conflicts are resolved in batch.
type ResolutionStrategy string

const (
	StrategyLocalWins  ResolutionStrategy = "local_wins"  // prefer manual entry
	StrategyCloudWins  ResolutionStrategy = "cloud_wins"  // prefer any non-manual source
	StrategyLatestWins ResolutionStrategy = "latest_wins" // most recent timestamp
	StrategyManual     ResolutionStrategy = "manual"      // left for a human
)

// IsValidResolutionStrategy checks if a string is a valid strategy.
func IsValidResolutionStrategy(s string) bool {
	switch ResolutionStrategy(s) {
	case StrategyLocalWins, StrategyCloudWins, StrategyLatestWins, StrategyManual:
		return true
	}
	return false
}

// Conflict is a multi-source disagreement that no automatic rule could settle.
type Conflict struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"user_id"`
	MetricType         MetricType         `json:"metric_type"`
	ConflictingMetrics []*HealthMetric    `json:"conflicting_metrics"`
	DetectedAt         time.Time          `json:"detected_at"`
	Strategy           ResolutionStrategy `json:"strategy"`
	Resolved           bool               `json:"resolved"`
	ResolvedMetricID   string             `json:"resolved_metric_id,omitempty"`
	ResolvedAt         *time.Time         `json:"resolved_at,omitempty"`
}

// NewConflict records a disagreement between metrics of the given type,
// queued for manual resolution.
func NewConflict(userID string, metricType MetricType, metrics []*HealthMetric) *Conflict {
	return &Conflict{
		ID:                 uuid.New().String(),
		UserID:             userID,
		MetricType:         metricType,
		ConflictingMetrics: metrics,
		DetectedAt:         time.Now(),
		Strategy:           StrategyManual,
		Resolved:           false,
	}
}

// BatchResolutionResult reports the outcome of applying a strategy across
// all queued conflicts for a user.
type BatchResolutionResult struct {
	Total    int      `json:"total"`
	Resolved int      `json:"resolved"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}
