// ABOUTME: Prioritizer collapses near-duplicate observations from multiple sources.
// ABOUTME: Groups same-type records within a 30-minute window and keeps the most trustworthy.
package prioritize

import (
	"sort"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

// DuplicateWindow is the time span within which same-type records are
// considered potential duplicates.
const DuplicateWindow = 30 * time.Minute

// sourcePreferences lists per-type preferred sources, best first. Types
// without an entry fall back to the global models.SourcePriority ranking.
var sourcePreferences = map[models.MetricType][]models.Source{
	models.MetricHRV:              {models.SourceWearablePrimary, models.SourceWearableSecondary},
	models.MetricTrainingRecovery: {models.SourceWearablePrimary},
	models.MetricStressScore:      {models.SourceWearablePrimary, models.SourceWearableSecondary},
	models.MetricBiologicalAge:    {models.SourceWearablePrimary},
	models.MetricECG:              {models.SourceWearableSecondary},
	models.MetricBodyFat:          {models.SourceWearableSecondary, models.SourceAggregator},
	models.MetricMuscleMass:       {models.SourceWearableSecondary, models.SourceAggregator},
	models.MetricBloodPressure:    {models.SourceManualEntry, models.SourceAggregator},
	models.MetricBloodGlucose:     {models.SourceManualEntry, models.SourceAggregator},
	models.MetricWeight:           {models.SourceManualEntry, models.SourceAggregator, models.SourceWearableSecondary},
	models.MetricSteps:            {models.SourceWearablePrimary, models.SourceWearableSecondary, models.SourceAggregator},
	models.MetricHeartRate:        {models.SourceWearablePrimary, models.SourceWearableSecondary, models.SourceAggregator},
	models.MetricSleepDuration:    {models.SourceWearablePrimary, models.SourceWearableSecondary, models.SourceAggregator},
}

// Prioritizer deduplicates overlapping metrics by source trustworthiness.
// It never synthesizes values; every output record is one of the inputs.
type Prioritizer struct{}

// New creates a Prioritizer.
func New() *Prioritizer {
	return &Prioritizer{}
}

// PrioritizeAndDeduplicate groups near-duplicate observations and collapses
// each group to its single most trustworthy member. The operation is
// idempotent: re-running it on its own output is a no-op.
func (p *Prioritizer) PrioritizeAndDeduplicate(metrics []*models.HealthMetric) []*models.HealthMetric {
	if len(metrics) == 0 {
		return nil
	}

	groups := GroupByTypeAndTime(metrics, DuplicateWindow, false)

	out := make([]*models.HealthMetric, 0, len(groups))
	for _, group := range groups {
		out = append(out, p.bestOfGroup(group))
	}
	return out
}

// MergeWithExisting combines stored and freshly fetched records and
// deduplicates the union. Re-ingesting the same provider data collapses
// back to the same resolved set.
func (p *Prioritizer) MergeWithExisting(existing, fresh []*models.HealthMetric) []*models.HealthMetric {
	merged := make([]*models.HealthMetric, 0, len(existing)+len(fresh))
	merged = append(merged, existing...)
	merged = append(merged, fresh...)
	return p.PrioritizeAndDeduplicate(merged)
}

// IsMoreReliable reports whether a should be trusted over b. Only records
// of the same type are comparable; different types always return false.
func (p *Prioritizer) IsMoreReliable(a, b *models.HealthMetric) bool {
	if a.Type != b.Type {
		return false
	}

	if preferred, ok := sourcePreferences[a.Type]; ok {
		ia := preferenceIndex(preferred, a.Source)
		ib := preferenceIndex(preferred, b.Source)
		switch {
		case ia >= 0 && ib >= 0:
			return ia < ib
		case ia >= 0:
			return true
		case ib >= 0:
			return false
		}
	}

	return models.SourcePriority[a.Source] > models.SourcePriority[b.Source]
}

// QualityScore derives a 0-100 display score from the source ranking.
// It informs UI quality badges, not pipeline decisions.
func (p *Prioritizer) QualityScore(m *models.HealthMetric) int {
	score := models.SourcePriority[m.Source]

	if preferred, ok := sourcePreferences[m.Type]; ok {
		if i := preferenceIndex(preferred, m.Source); i >= 0 {
			score += (len(preferred) - i) * 5
		}
	}

	if m.Source == models.SourceManualEntry {
		score += 20
	}
	if m.Source == models.SourceLabTest {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

// DataGaps returns the required metric types with no record in the list.
func (p *Prioritizer) DataGaps(metrics []*models.HealthMetric, required []models.MetricType) []models.MetricType {
	present := make(map[models.MetricType]bool, len(metrics))
	for _, m := range metrics {
		present[m.Type] = true
	}

	var gaps []models.MetricType
	for _, mt := range required {
		if !present[mt] {
			gaps = append(gaps, mt)
		}
	}
	return gaps
}

// bestOfGroup returns the most trustworthy member: first match against the
// type's preferred-source list, else the highest globally ranked source.
func (p *Prioritizer) bestOfGroup(group []*models.HealthMetric) *models.HealthMetric {
	if len(group) == 1 {
		return group[0]
	}

	if preferred, ok := sourcePreferences[group[0].Type]; ok {
		for _, src := range preferred {
			for _, m := range group {
				if m.Source == src {
					return m
				}
			}
		}
	}

	best := group[0]
	for _, m := range group[1:] {
		if models.SourcePriority[m.Source] > models.SourcePriority[best.Source] {
			best = m
		}
	}
	return best
}

// GroupByTypeAndTime buckets records into single-linkage duplicate sets: a
// record joins the first open group of the same type whose earliest member
// is within the window, otherwise it opens a new group. Records with
// unparseable timestamps always form their own group. When byType is set,
// records are ordered by type before time, keeping each type's groups
// contiguous.
func GroupByTypeAndTime(metrics []*models.HealthMetric, window time.Duration, byType bool) [][]*models.HealthMetric {
	type timed struct {
		metric *models.HealthMetric
		at     time.Time
		ok     bool
	}

	sorted := make([]timed, 0, len(metrics))
	for _, m := range metrics {
		at, err := m.Time()
		sorted = append(sorted, timed{metric: m, at: at, ok: err == nil})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if byType && sorted[i].metric.Type != sorted[j].metric.Type {
			return sorted[i].metric.Type < sorted[j].metric.Type
		}
		return sorted[i].at.Before(sorted[j].at)
	})

	var groups [][]*models.HealthMetric
	var anchors []timed // earliest member of each group

	for _, rec := range sorted {
		joined := false
		if rec.ok {
			for i, anchor := range anchors {
				if anchor.metric.Type != rec.metric.Type || !anchor.ok {
					continue
				}
				delta := rec.at.Sub(anchor.at)
				if delta < 0 {
					delta = -delta
				}
				if delta <= window {
					groups[i] = append(groups[i], rec.metric)
					joined = true
					break
				}
			}
		}
		if !joined {
			groups = append(groups, []*models.HealthMetric{rec.metric})
			anchors = append(anchors, rec)
		}
	}

	return groups
}

func preferenceIndex(preferred []models.Source, src models.Source) int {
	for i, s := range preferred {
		if s == src {
			return i
		}
	}
	return -1
}
