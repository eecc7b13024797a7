// ABOUTME: Plausibility ranges, accepted units, and precision tables per metric type.
// ABOUTME: Pure data consulted by the validator; kept separate from branching code.
package validate

import "github.com/harperreed/healthsync/internal/models"

type valueRange struct {
	Min, Max float64
}

// metricRanges are the closed plausible ranges per type. Values outside the
// range are hard errors unless the source is in models.ReliableSources.
var metricRanges = map[models.MetricType]valueRange{
	models.MetricSteps:            {0, 100000},
	models.MetricHeartRate:        {30, 220},   // bpm
	models.MetricWeight:           {20, 500},   // kg
	models.MetricCaloriesBurned:   {0, 10000},  // cal
	models.MetricBloodPressure:    {50, 250},   // mmHg
	models.MetricBloodGlucose:     {2, 30},     // mmol/L
	models.MetricBodyFat:          {3, 50},     // %
	models.MetricMuscleMass:       {10, 100},   // kg
	models.MetricSleepDuration:    {0, 24},     // hours
	models.MetricExerciseDuration: {0, 720},    // minutes
	models.MetricHydration:        {0, 10000},  // ml
	models.MetricVO2Max:           {10, 90},    // ml/min/kg
	models.MetricHRV:              {5, 200},    // ms
	models.MetricTrainingRecovery: {0, 100},    // score
	models.MetricStressScore:      {0, 100},    // score
	models.MetricBiologicalAge:    {10, 120},   // years

	// Biomarkers - hormonal (typical ranges, may vary by lab)
	models.MetricTestosterone: {0.1, 50},  // nmol/L
	models.MetricEstradiol:    {0, 2000},  // pmol/L
	models.MetricCortisol:     {100, 800}, // nmol/L
	models.MetricThyroidTSH:   {0.4, 10},  // mIU/L
	models.MetricThyroidT3:    {3, 8},     // pmol/L
	models.MetricThyroidT4:    {9, 25},    // pmol/L

	// Biomarkers - micronutrients
	models.MetricVitaminD3:  {10, 250},  // nmol/L
	models.MetricVitaminB12: {150, 900}, // pmol/L
	models.MetricVitaminB6:  {20, 200},  // nmol/L
	models.MetricFolate:     {7, 45},    // nmol/L
	models.MetricIron:       {6, 35},    // µmol/L
	models.MetricFerritin:   {12, 300},  // µg/L
	models.MetricZinc:       {10, 25},   // µmol/L
	models.MetricMagnesium:  {0.7, 1.1}, // mmol/L

	// Biomarkers - general health
	models.MetricTotalCholesterol: {2, 10},     // mmol/L
	models.MetricHDL:              {0.5, 3},    // mmol/L
	models.MetricLDL:              {1, 8},      // mmol/L
	models.MetricTriglycerides:    {0.4, 5},    // mmol/L
	models.MetricHbA1c:            {4, 15},     // %
	models.MetricRBCCount:         {3.5, 6.5},  // 10^12/L
	models.MetricHemoglobin:       {100, 200},  // g/L
}

// PlausibleRange returns the closed plausible range for a metric type.
// Types without a range (custom_habit, ecg) report ok=false.
func PlausibleRange(mt models.MetricType) (min, max float64, ok bool) {
	r, ok := metricRanges[mt]
	return r.Min, r.Max, ok
}

// acceptedUnits lists the unit spellings accepted per type, compared
// case-insensitively. The canonical spelling comes first.
var acceptedUnits = map[models.MetricType][]string{
	models.MetricSteps:            {"steps", "count"},
	models.MetricHeartRate:        {"bpm", "beats/min"},
	models.MetricWeight:           {"kg", "lbs", "pounds"},
	models.MetricCaloriesBurned:   {"cal", "kcal", "calories"},
	models.MetricBloodPressure:    {"mmHg", "mm Hg"},
	models.MetricBloodGlucose:     {"mmol/L", "mg/dL"},
	models.MetricBodyFat:          {"%", "percent"},
	models.MetricMuscleMass:       {"kg", "lbs"},
	models.MetricSleepDuration:    {"hours", "h", "minutes", "min"},
	models.MetricExerciseDuration: {"minutes", "min", "hours", "h"},
	models.MetricHydration:        {"ml", "milliliters", "L", "liters"},
	models.MetricVO2Max:           {"ml/min/kg", "ml/kg/min"},
	models.MetricHRV:              {"ms", "milliseconds"},
	models.MetricTrainingRecovery: {"score", "points"},
	models.MetricStressScore:      {"score", "points"},
	models.MetricBiologicalAge:    {"years", "y"},
}

// unitSpellings maps lowercase unit variants to their canonical spelling.
// Normalization never crosses unit systems (lbs stays lbs, mg/dL stays
// mg/dL); it only fixes spelling.
var unitSpellings = map[string]string{
	"steps": "steps", "count": "steps",
	"bpm": "bpm", "beats/min": "bpm",
	"kg": "kg", "lbs": "lbs", "pounds": "lbs",
	"cal": "cal", "kcal": "kcal", "calories": "cal",
	"mmhg": "mmHg", "mm hg": "mmHg",
	"mmol/l": "mmol/L", "mg/dl": "mg/dL",
	"%": "%", "percent": "%",
	"hours": "hours", "h": "hours",
	"minutes": "minutes", "min": "minutes",
	"ml": "ml", "milliliters": "ml",
	"l": "L", "liters": "L",
	"ml/min/kg": "ml/min/kg", "ml/kg/min": "ml/min/kg",
	"ms": "ms", "milliseconds": "ms",
	"score": "score", "points": "score",
	"years": "years", "y": "years",
}

// valueDecimals is the rounding precision applied by Sanitize. Count-like
// types round to integers; most physiological measurements keep one
// decimal; everything else defaults to two.
var valueDecimals = map[models.MetricType]int{
	models.MetricSteps:        0,
	models.MetricHeartRate:    0,
	models.MetricHRV:          0,
	models.MetricWeight:       1,
	models.MetricBodyFat:      1,
	models.MetricBloodGlucose: 1,
	models.MetricVO2Max:       1,
}

const defaultDecimals = 2

// negativeAllowed lists the types for which negative values are valid.
var negativeAllowed = map[models.MetricType]bool{
	models.MetricCustomHabit: true,
}

// wearableTypeSources maps metric types that typically come from a specific
// wearable platform; readings from elsewhere draw a warning.
var wearableTypeSources = map[models.MetricType]models.Source{
	models.MetricECG:              models.SourceWearableSecondary,
	models.MetricHRV:              models.SourceWearablePrimary,
	models.MetricTrainingRecovery: models.SourceWearablePrimary,
	models.MetricBiologicalAge:    models.SourceWearablePrimary,
}
