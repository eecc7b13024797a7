// ABOUTME: HealthMetric model and MetricType enum for the reconciliation pipeline.
// ABOUTME: Defines 39 metric types across activity, vitals, body composition, recovery, and biomarkers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MetricType represents the type of health metric being recorded.
type MetricType string

const (
	// Activity
	MetricSteps            MetricType = "steps"
	MetricCaloriesBurned   MetricType = "calories_burned"
	MetricExerciseDuration MetricType = "exercise_duration"
	MetricHydration        MetricType = "hydration"

	// Vitals
	MetricHeartRate     MetricType = "heart_rate"
	MetricBloodPressure MetricType = "blood_pressure"
	MetricBloodGlucose  MetricType = "blood_glucose"
	MetricECG           MetricType = "ecg"

	// Body composition
	MetricWeight     MetricType = "weight"
	MetricBodyFat    MetricType = "body_fat"
	MetricMuscleMass MetricType = "muscle_mass"

	// Sleep
	MetricSleepDuration MetricType = "sleep_duration"

	// Recovery / stress
	MetricHRV              MetricType = "hrv"
	MetricVO2Max           MetricType = "vo2_max"
	MetricTrainingRecovery MetricType = "training_recovery"
	MetricStressScore      MetricType = "stress_score"
	MetricBiologicalAge    MetricType = "biological_age"

	// Biomarkers - hormonal
	MetricTestosterone MetricType = "testosterone"
	MetricEstradiol    MetricType = "estradiol"
	MetricCortisol     MetricType = "cortisol"
	MetricThyroidTSH   MetricType = "thyroid_tsh"
	MetricThyroidT3    MetricType = "thyroid_t3"
	MetricThyroidT4    MetricType = "thyroid_t4"

	// Biomarkers - micronutrients
	MetricVitaminD3  MetricType = "vitamin_d3"
	MetricVitaminB12 MetricType = "vitamin_b12"
	MetricVitaminB6  MetricType = "vitamin_b6"
	MetricFolate     MetricType = "folate"
	MetricIron       MetricType = "iron"
	MetricFerritin   MetricType = "ferritin"
	MetricZinc       MetricType = "zinc"
	MetricMagnesium  MetricType = "magnesium"

	// Biomarkers - general health
	MetricTotalCholesterol MetricType = "total_cholesterol"
	MetricHDL              MetricType = "hdl"
	MetricLDL              MetricType = "ldl"
	MetricTriglycerides    MetricType = "triglycerides"
	MetricHbA1c            MetricType = "hba1c"
	MetricRBCCount         MetricType = "rbc_count"
	MetricHemoglobin       MetricType = "hemoglobin"

	// User-defined
	MetricCustomHabit MetricType = "custom_habit"
)

// CanonicalUnits maps metric types to their canonical unit spelling.
var CanonicalUnits = map[MetricType]string{
	MetricSteps:            "steps",
	MetricCaloriesBurned:   "cal",
	MetricExerciseDuration: "minutes",
	MetricHydration:        "ml",
	MetricHeartRate:        "bpm",
	MetricBloodPressure:    "mmHg",
	MetricBloodGlucose:     "mmol/L",
	MetricECG:              "mV",
	MetricWeight:           "kg",
	MetricBodyFat:          "%",
	MetricMuscleMass:       "kg",
	MetricSleepDuration:    "hours",
	MetricHRV:              "ms",
	MetricVO2Max:           "ml/min/kg",
	MetricTrainingRecovery: "score",
	MetricStressScore:      "score",
	MetricBiologicalAge:    "years",
	MetricTestosterone:     "nmol/L",
	MetricEstradiol:        "pmol/L",
	MetricCortisol:         "nmol/L",
	MetricThyroidTSH:       "mIU/L",
	MetricThyroidT3:        "pmol/L",
	MetricThyroidT4:        "pmol/L",
	MetricVitaminD3:        "nmol/L",
	MetricVitaminB12:       "pmol/L",
	MetricVitaminB6:        "nmol/L",
	MetricFolate:           "nmol/L",
	MetricIron:             "µmol/L",
	MetricFerritin:         "µg/L",
	MetricZinc:             "µmol/L",
	MetricMagnesium:        "mmol/L",
	MetricTotalCholesterol: "mmol/L",
	MetricHDL:              "mmol/L",
	MetricLDL:              "mmol/L",
	MetricTriglycerides:    "mmol/L",
	MetricHbA1c:            "%",
	MetricRBCCount:         "10^12/L",
	MetricHemoglobin:       "g/L",
	MetricCustomHabit:      "count",
}

// AllMetricTypes returns all valid metric types.
var AllMetricTypes = []MetricType{
	MetricSteps, MetricCaloriesBurned, MetricExerciseDuration, MetricHydration,
	MetricHeartRate, MetricBloodPressure, MetricBloodGlucose, MetricECG,
	MetricWeight, MetricBodyFat, MetricMuscleMass,
	MetricSleepDuration,
	MetricHRV, MetricVO2Max, MetricTrainingRecovery, MetricStressScore, MetricBiologicalAge,
	MetricTestosterone, MetricEstradiol, MetricCortisol,
	MetricThyroidTSH, MetricThyroidT3, MetricThyroidT4,
	MetricVitaminD3, MetricVitaminB12, MetricVitaminB6, MetricFolate,
	MetricIron, MetricFerritin, MetricZinc, MetricMagnesium,
	MetricTotalCholesterol, MetricHDL, MetricLDL, MetricTriglycerides,
	MetricHbA1c, MetricRBCCount, MetricHemoglobin,
	MetricCustomHabit,
}

// biomarkerTypes is the set of laboratory biomarker metric types.
var biomarkerTypes = map[MetricType]bool{
	MetricTestosterone: true, MetricEstradiol: true, MetricCortisol: true,
	MetricThyroidTSH: true, MetricThyroidT3: true, MetricThyroidT4: true,
	MetricVitaminD3: true, MetricVitaminB12: true, MetricVitaminB6: true,
	MetricFolate: true, MetricIron: true, MetricFerritin: true,
	MetricZinc: true, MetricMagnesium: true,
	MetricTotalCholesterol: true, MetricHDL: true, MetricLDL: true,
	MetricTriglycerides: true, MetricHbA1c: true, MetricRBCCount: true,
	MetricHemoglobin: true,
}

// IsValidMetricType checks if a string is a valid metric type.
func IsValidMetricType(s string) bool {
	for _, mt := range AllMetricTypes {
		if string(mt) == s {
			return true
		}
	}
	return false
}

// IsBiomarker reports whether a metric type is a laboratory biomarker.
func IsBiomarker(mt MetricType) bool {
	return biomarkerTypes[mt]
}

// TimestampLayout is the canonical local date-time format for metric timestamps.
// Timestamps carry no time zone; they are interpreted in local time.
const TimestampLayout = "2006-01-02T15:04:05"

// timestampLayouts are the accepted input formats, most specific first.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	TimestampLayout,
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO-8601 local date-time string.
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// FormatTimestamp renders a time in the canonical timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ShortID returns the 8-character display prefix of an ID. IDs from
// external providers may be shorter than a UUID; those pass through whole.
func ShortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}

// HealthMetric is the unit of data flowing through the reconciliation pipeline.
// Records are never mutated in place; each pipeline stage produces new lists.
type HealthMetric struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Type       MetricType `json:"type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Timestamp  string     `json:"timestamp"`
	Source     Source     `json:"source"`
	Metadata   *string    `json:"metadata,omitempty"`
	Confidence float64    `json:"confidence"`
}

// NewHealthMetric creates a metric with a generated UUID, canonical unit,
// and the current local timestamp.
func NewHealthMetric(userID string, metricType MetricType, value float64, source Source) *HealthMetric {
	return &HealthMetric{
		ID:         uuid.New().String(),
		UserID:     userID,
		Type:       metricType,
		Value:      value,
		Unit:       CanonicalUnits[metricType],
		Timestamp:  FormatTimestamp(time.Now()),
		Source:     source,
		Confidence: 1.0,
	}
}

// WithTimestamp sets a custom timestamp.
func (m *HealthMetric) WithTimestamp(t time.Time) *HealthMetric {
	m.Timestamp = FormatTimestamp(t)
	return m
}

// WithMetadata sets the metadata JSON blob.
func (m *HealthMetric) WithMetadata(metadata string) *HealthMetric {
	m.Metadata = &metadata
	return m
}

// IsManualEntry reports whether the record was entered by hand.
func (m *HealthMetric) IsManualEntry() bool {
	return m.Source == SourceManualEntry
}

// Time parses the record's timestamp.
func (m *HealthMetric) Time() (time.Time, error) {
	return ParseTimestamp(m.Timestamp)
}
