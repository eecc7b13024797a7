// ABOUTME: Conflict resolver arbitrates when multiple sources genuinely disagree.
// ABOUTME: Decision ladder: similarity, source priority, temporal, statistical, manual queue.
package conflict

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/healthsync/internal/models"
	"github.com/harperreed/healthsync/internal/prioritize"
)

// ConflictWindow is the grouping span for conflict detection, tighter than
// the deduplication window.
const ConflictWindow = 15 * time.Minute

// SimilarityThreshold is the fraction of the group mean within which values
// are treated as noise rather than genuine disagreement.
const SimilarityThreshold = 0.15

// Store queues unresolved conflicts for later adjudication.
type Store interface {
	SaveConflict(ctx context.Context, c *models.Conflict) error
	UnresolvedConflicts(ctx context.Context, userID string) ([]*models.Conflict, error)
	MarkConflictResolved(ctx context.Context, conflictID, resolvedMetricID string, resolvedAt time.Time) error
}

// preferredConflictSource hard-codes the single source a type trusts when
// sources disagree. Types without an entry skip the source-priority rule.
var preferredConflictSource = map[models.MetricType]models.Source{
	models.MetricHRV:              models.SourceWearablePrimary,
	models.MetricTrainingRecovery: models.SourceWearablePrimary,
	models.MetricStressScore:      models.SourceWearablePrimary,
	models.MetricBiologicalAge:    models.SourceWearablePrimary,
	models.MetricECG:              models.SourceWearableSecondary,
	models.MetricBodyFat:          models.SourceWearableSecondary,
	models.MetricMuscleMass:       models.SourceWearableSecondary,
	models.MetricWeight:           models.SourceManualEntry,
}

// latestWinsTypes resolve by most recent timestamp: point-in-time vitals
// and cumulative daily totals.
var latestWinsTypes = map[models.MetricType]bool{
	models.MetricWeight:         true,
	models.MetricBloodPressure:  true,
	models.MetricBloodGlucose:   true,
	models.MetricSteps:          true,
	models.MetricCaloriesBurned: true,
	models.MetricHydration:      true,
}

// nearestMedianTypes and nearestMeanTypes resolve statistically: noisy
// vitals take the member nearest the median, durations the one nearest
// the mean. Blood pressure is shadowed by latestWinsTypes, which the
// ladder checks first; the entry only matters if that rule changes.
var nearestMedianTypes = map[models.MetricType]bool{
	models.MetricHeartRate:     true,
	models.MetricBloodPressure: true,
}

var nearestMeanTypes = map[models.MetricType]bool{
	models.MetricSleepDuration:    true,
	models.MetricExerciseDuration: true,
}

// Resolver arbitrates disagreements between same-type records from
// different sources. Unresolved groups yield a provisional answer and a
// queued conflict; resolution never blocks the pipeline.
type Resolver struct {
	store  Store
	prio   *prioritize.Prioritizer
	logger *log.Logger
}

// New creates a Resolver. The store may be nil, in which case unresolved
// conflicts are reported but not queued.
func New(store Store, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{
		store:  store,
		prio:   prioritize.New(),
		logger: logger,
	}
}

// ResolveConflicts groups same-type records within a 15-minute window and
// arbitrates each group down to one record. The returned conflicts are the
// groups no automatic rule could settle; each has already produced a
// provisional record in the output.
func (r *Resolver) ResolveConflicts(ctx context.Context, userID string, metrics []*models.HealthMetric) ([]*models.HealthMetric, []*models.Conflict) {
	if len(metrics) == 0 {
		return nil, nil
	}

	groups := prioritize.GroupByTypeAndTime(metrics, ConflictWindow, true)

	out := make([]*models.HealthMetric, 0, len(groups))
	var conflicts []*models.Conflict

	for _, group := range groups {
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}

		winner, resolved := r.resolveGroup(group)
		out = append(out, winner)
		if resolved {
			continue
		}

		c := models.NewConflict(userID, group[0].Type, group)
		conflicts = append(conflicts, c)
		r.logger.Warn("unresolved conflict queued for manual review",
			"type", c.MetricType, "records", len(group), "conflict_id", c.ID)
		if r.store != nil {
			if err := r.store.SaveConflict(ctx, c); err != nil {
				r.logger.Error("failed to queue conflict", "conflict_id", c.ID, "error", err)
			}
		}
	}

	return out, conflicts
}

// resolveGroup walks the decision ladder. The second return reports
// whether a rule actually settled the group, as opposed to the
// provisional fallback.
func (r *Resolver) resolveGroup(group []*models.HealthMetric) (*models.HealthMetric, bool) {
	if m := r.bySimilarity(group); m != nil {
		return m, true
	}
	if m := r.bySourcePriority(group); m != nil {
		return m, true
	}
	if m := r.byLatest(group); m != nil {
		return m, true
	}
	if m := r.byStatistics(group); m != nil {
		return m, true
	}
	return r.mostReliable(group), false
}

// bySimilarity settles the group when every value lies within 15% of the
// mean; the disagreement is then measurement noise, and the most reliable
// member wins.
func (r *Resolver) bySimilarity(group []*models.HealthMetric) *models.HealthMetric {
	mean := groupMean(group)
	if mean == 0 {
		for _, m := range group {
			if m.Value != 0 {
				return nil
			}
		}
		return r.mostReliable(group)
	}

	limit := math.Abs(mean) * SimilarityThreshold
	for _, m := range group {
		if math.Abs(m.Value-mean) > limit {
			return nil
		}
	}
	return r.mostReliable(group)
}

// bySourcePriority applies the per-type trusted-source table, falling back
// to manual entry when the trusted source is absent. Types without a table
// entry pass to the next rule.
func (r *Resolver) bySourcePriority(group []*models.HealthMetric) *models.HealthMetric {
	want, ok := preferredConflictSource[group[0].Type]
	if !ok {
		if !models.IsBiomarker(group[0].Type) {
			return nil
		}
		want = models.SourceLabTest
	}

	for _, m := range group {
		if m.Source == want {
			return m
		}
	}
	for _, m := range group {
		if m.Source == models.SourceManualEntry {
			return m
		}
	}
	return nil
}

func (r *Resolver) byLatest(group []*models.HealthMetric) *models.HealthMetric {
	if !latestWinsTypes[group[0].Type] {
		return nil
	}
	return latestOf(group)
}

// byStatistics returns the actual group member nearest the median (or
// mean), never an interpolated value.
func (r *Resolver) byStatistics(group []*models.HealthMetric) *models.HealthMetric {
	var target float64
	switch {
	case nearestMedianTypes[group[0].Type]:
		target = groupMedian(group)
	case nearestMeanTypes[group[0].Type]:
		target = groupMean(group)
	default:
		return nil
	}

	best := group[0]
	bestDist := math.Abs(best.Value - target)
	for _, m := range group[1:] {
		if d := math.Abs(m.Value - target); d < bestDist {
			best, bestDist = m, d
		}
	}
	return best
}

// ApplyStrategy resolves all queued conflicts for a user with one strategy.
// StrategyManual skips every conflict, leaving it queued.
func (r *Resolver) ApplyStrategy(ctx context.Context, userID string, strategy models.ResolutionStrategy) (*models.BatchResolutionResult, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no conflict store configured")
	}

	queued, err := r.store.UnresolvedConflicts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load queued conflicts: %w", err)
	}

	result := &models.BatchResolutionResult{Total: len(queued)}
	for _, c := range queued {
		if strategy == models.StrategyManual {
			continue
		}

		winner, err := pickByStrategy(c.ConflictingMetrics, strategy)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("conflict %s: %v", c.ID, err))
			continue
		}

		if err := r.store.MarkConflictResolved(ctx, c.ID, winner.ID, time.Now()); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("conflict %s: %v", c.ID, err))
			continue
		}
		result.Resolved++
		r.logger.Info("conflict resolved", "conflict_id", c.ID, "strategy", strategy, "winner", winner.ID)
	}

	return result, nil
}

func pickByStrategy(metrics []*models.HealthMetric, strategy models.ResolutionStrategy) (*models.HealthMetric, error) {
	if len(metrics) == 0 {
		return nil, fmt.Errorf("conflict has no records")
	}

	switch strategy {
	case models.StrategyLocalWins:
		for _, m := range metrics {
			if m.IsManualEntry() {
				return m, nil
			}
		}
		return nil, fmt.Errorf("no manual entry record to prefer")

	case models.StrategyCloudWins:
		var best *models.HealthMetric
		for _, m := range metrics {
			if m.IsManualEntry() {
				continue
			}
			if best == nil || models.SourcePriority[m.Source] > models.SourcePriority[best.Source] {
				best = m
			}
		}
		if best == nil {
			return nil, fmt.Errorf("no non-manual record to prefer")
		}
		return best, nil

	case models.StrategyLatestWins:
		if m := latestOf(metrics); m != nil {
			return m, nil
		}
		return nil, fmt.Errorf("no record with a parseable timestamp")

	default:
		return nil, fmt.Errorf("unsupported strategy: %s", strategy)
	}
}

// mostReliable picks the group winner by the shared source ranking.
func (r *Resolver) mostReliable(group []*models.HealthMetric) *models.HealthMetric {
	best := group[0]
	for _, m := range group[1:] {
		if r.prio.IsMoreReliable(m, best) {
			best = m
		}
	}
	return best
}

// latestOf returns the member with the most recent parseable timestamp,
// or nil when none parses.
func latestOf(group []*models.HealthMetric) *models.HealthMetric {
	var best *models.HealthMetric
	var bestAt time.Time
	for _, m := range group {
		at, err := m.Time()
		if err != nil {
			continue
		}
		if best == nil || at.After(bestAt) {
			best, bestAt = m, at
		}
	}
	return best
}

func groupMean(group []*models.HealthMetric) float64 {
	sum := 0.0
	for _, m := range group {
		sum += m.Value
	}
	return sum / float64(len(group))
}

func groupMedian(group []*models.HealthMetric) float64 {
	values := make([]float64, len(group))
	for i, m := range group {
		values[i] = m.Value
	}
	sort.Float64s(values)

	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}
