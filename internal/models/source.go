// ABOUTME: Source enum for health data providers with global reliability ranking.
// ABOUTME: Defines the reliable-source set used by validation and prioritization.
package models

// Source identifies where a health metric came from.
type Source string

const (
	SourceManualEntry       Source = "manual_entry"
	SourceLabTest           Source = "lab_test"
	SourceWearablePrimary   Source = "wearable_primary"
	SourceWearableSecondary Source = "wearable_secondary"
	SourceAggregator        Source = "aggregator"
	SourceCustom            Source = "custom"
)

// SourcePriority is the global reliability ranking (higher = more trusted).
// Per-type source preferences take precedence over this ranking.
var SourcePriority = map[Source]int{
	SourceManualEntry:       100, // user entered
	SourceLabTest:           90,  // medical grade
	SourceWearablePrimary:   80,  // advanced fitness tracking
	SourceWearableSecondary: 70,
	SourceAggregator:        60, // platform aggregator
	SourceCustom:            50,
}

// ReliableSources are exempt from hard range rejection during validation;
// implausible values from these sources degrade to warnings.
var ReliableSources = map[Source]bool{
	SourceManualEntry:     true,
	SourceLabTest:         true,
	SourceWearablePrimary: true,
}

// AllSources returns all valid sources.
var AllSources = []Source{
	SourceManualEntry, SourceLabTest, SourceWearablePrimary,
	SourceWearableSecondary, SourceAggregator, SourceCustom,
}

// IsValidSource checks if a string is a valid source.
func IsValidSource(s string) bool {
	for _, src := range AllSources {
		if string(src) == s {
			return true
		}
	}
	return false
}
