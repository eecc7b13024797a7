// ABOUTME: Health metric validator: structural checks, plausibility, and confidence scoring.
// ABOUTME: Sanitize normalizes timestamps, precision, units, and metadata deterministically.
package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harperreed/healthsync/internal/models"
)

// Result is the outcome of validating a single metric. Errors are hard
// failures; warnings keep the record but reduce its confidence.
type Result struct {
	Valid      bool
	Errors     []string
	Warnings   []string
	Confidence float64
}

// BatchResult summarizes validation over a list of metrics.
type BatchResult struct {
	Total        int
	ValidCount   int
	InvalidCount int
	Results      map[string]Result
	Warnings     []string
}

// Validator checks health metrics for structural and semantic correctness.
type Validator struct {
	now func() time.Time
}

// New creates a Validator using the system clock.
func New() *Validator {
	return &Validator{now: time.Now}
}

// NewWithClock creates a Validator with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Validator {
	return &Validator{now: now}
}

// Validate runs all checks against a metric and derives its confidence.
func (v *Validator) Validate(m *models.HealthMetric) Result {
	var errors, warnings []string

	errors = v.checkRequiredFields(m, errors)
	errors, warnings = v.checkTimestamp(m, errors, warnings)
	errors, warnings = v.checkValueRange(m, errors, warnings)
	warnings = v.checkUnit(m, warnings)
	warnings = v.checkSourceFit(m, warnings)
	warnings = v.checkMetadata(m, warnings)

	return Result{
		Valid:      len(errors) == 0,
		Errors:     errors,
		Warnings:   warnings,
		Confidence: confidence(m, len(errors), len(warnings)),
	}
}

// ValidateAll validates a batch of metrics keyed by record ID.
func (v *Validator) ValidateAll(metrics []*models.HealthMetric) BatchResult {
	results := make(map[string]Result, len(metrics))
	valid := 0
	seen := make(map[string]bool)
	var warnings []string

	for _, m := range metrics {
		r := v.Validate(m)
		results[m.ID] = r
		if r.Valid {
			valid++
		}
		for _, w := range r.Warnings {
			if !seen[w] {
				seen[w] = true
				warnings = append(warnings, w)
			}
		}
	}

	return BatchResult{
		Total:        len(metrics),
		ValidCount:   valid,
		InvalidCount: len(metrics) - valid,
		Results:      results,
		Warnings:     warnings,
	}
}

// Sanitize returns a normalized copy of a metric: canonical timestamp
// format, type-specific value precision, canonical unit spelling, and
// metadata re-serialized through a JSON round trip. It is deterministic
// and idempotent, and only meaningful on a record that validated.
func (v *Validator) Sanitize(m *models.HealthMetric) *models.HealthMetric {
	out := *m
	out.Timestamp = normalizeTimestamp(m.Timestamp)
	out.Value = roundToDecimals(m.Value, decimalsFor(m.Type))
	out.Unit = normalizeUnit(m.Unit, m.Type)
	out.Metadata = sanitizeMetadata(m.Metadata)
	return &out
}

func (v *Validator) checkRequiredFields(m *models.HealthMetric, errors []string) []string {
	if strings.TrimSpace(m.ID) == "" {
		errors = append(errors, "metric ID cannot be blank")
	}
	if strings.TrimSpace(m.UserID) == "" {
		errors = append(errors, "user ID cannot be blank")
	}
	if strings.TrimSpace(m.Unit) == "" {
		errors = append(errors, "unit cannot be blank")
	}
	if strings.TrimSpace(m.Timestamp) == "" {
		errors = append(errors, "timestamp cannot be blank")
	}
	return errors
}

func (v *Validator) checkTimestamp(m *models.HealthMetric, errors, warnings []string) ([]string, []string) {
	if strings.TrimSpace(m.Timestamp) == "" {
		return errors, warnings
	}

	ts, err := models.ParseTimestamp(m.Timestamp)
	if err != nil {
		errors = append(errors, fmt.Sprintf("invalid timestamp format: %s", m.Timestamp))
		return errors, warnings
	}

	now := v.now()
	if ts.After(now) {
		warnings = append(warnings, fmt.Sprintf("timestamp is in the future: %s", m.Timestamp))
	}
	if ts.Before(now.AddDate(-10, 0, 0)) {
		warnings = append(warnings, fmt.Sprintf("timestamp is more than 10 years old: %s", m.Timestamp))
	}
	return errors, warnings
}

func (v *Validator) checkValueRange(m *models.HealthMetric, errors, warnings []string) ([]string, []string) {
	if r, ok := metricRanges[m.Type]; ok {
		if m.Value < r.Min || m.Value > r.Max {
			msg := fmt.Sprintf("value %v %s is outside range [%v-%v] for %s",
				m.Value, m.Unit, r.Min, r.Max, m.Type)
			if models.ReliableSources[m.Source] {
				warnings = append(warnings, msg)
			} else {
				errors = append(errors, msg)
			}
		}
	}

	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		errors = append(errors, fmt.Sprintf("value is not a valid number: %v", m.Value))
	}

	if m.Value < 0 && !negativeAllowed[m.Type] {
		errors = append(errors, fmt.Sprintf("negative values not allowed for %s: %v", m.Type, m.Value))
	}
	return errors, warnings
}

func (v *Validator) checkUnit(m *models.HealthMetric, warnings []string) []string {
	accepted, ok := acceptedUnits[m.Type]
	if !ok {
		return warnings
	}
	for _, u := range accepted {
		if strings.EqualFold(u, m.Unit) {
			return warnings
		}
	}
	return append(warnings, fmt.Sprintf("unexpected unit %q for %s, expected one of: %s",
		m.Unit, m.Type, strings.Join(accepted, ", ")))
}

func (v *Validator) checkSourceFit(m *models.HealthMetric, warnings []string) []string {
	if models.IsBiomarker(m.Type) {
		if m.Source != models.SourceLabTest && m.Source != models.SourceManualEntry {
			warnings = append(warnings, fmt.Sprintf(
				"biomarker %s should typically come from lab tests or manual entry", m.Type))
		}
		return warnings
	}

	if want, ok := wearableTypeSources[m.Type]; ok {
		if m.Source != want && m.Source != models.SourceManualEntry {
			warnings = append(warnings, fmt.Sprintf(
				"%s data typically comes from %s or manual entry", m.Type, want))
		}
	}
	return warnings
}

func (v *Validator) checkMetadata(m *models.HealthMetric, warnings []string) []string {
	if m.Metadata == nil || strings.TrimSpace(*m.Metadata) == "" {
		return warnings
	}
	if !json.Valid([]byte(*m.Metadata)) {
		warnings = append(warnings, "metadata is not valid JSON")
	}
	return warnings
}

// confidence starts at 1.0, drops 0.3 per error and 0.1 per warning, and
// gains boosts for trusted sources; clamped to [0,1].
func confidence(m *models.HealthMetric, errorCount, warningCount int) float64 {
	c := 1.0
	c -= float64(errorCount) * 0.3
	c -= float64(warningCount) * 0.1

	if models.ReliableSources[m.Source] {
		c += 0.1
	}
	if m.Source == models.SourceManualEntry {
		c += 0.1
	}
	if m.Source == models.SourceLabTest {
		c += 0.2
	}

	return math.Min(1.0, math.Max(0.0, c))
}

func normalizeTimestamp(ts string) string {
	parsed, err := models.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	return models.FormatTimestamp(parsed)
}

func decimalsFor(mt models.MetricType) int {
	if d, ok := valueDecimals[mt]; ok {
		return d
	}
	return defaultDecimals
}

func roundToDecimals(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}

// normalizeUnit rewrites a unit to its canonical spelling. Unknown units
// are left as-is; Validate already warned about them.
func normalizeUnit(unit string, mt models.MetricType) string {
	trimmed := strings.TrimSpace(unit)
	if canonical, ok := unitSpellings[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	if canonical, ok := models.CanonicalUnits[mt]; ok && strings.EqualFold(trimmed, canonical) {
		return canonical
	}
	return unit
}

func sanitizeMetadata(metadata *string) *string {
	if metadata == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*metadata)
	if trimmed == "" {
		return nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return metadata
	}
	out, err := json.Marshal(parsed)
	if err != nil {
		return metadata
	}
	s := string(out)
	return &s
}
