// ABOUTME: Tests for Source enum and reliability ranking.
// ABOUTME: Verifies the global priority ordering and the reliable-source set.
package models

import "testing"

func TestSourcePriorityOrdering(t *testing.T) {
	ordered := []Source{
		SourceManualEntry, SourceLabTest, SourceWearablePrimary,
		SourceWearableSecondary, SourceAggregator, SourceCustom,
	}

	for i := 1; i < len(ordered); i++ {
		higher, lower := ordered[i-1], ordered[i]
		if SourcePriority[higher] <= SourcePriority[lower] {
			t.Errorf("expected %s to outrank %s", higher, lower)
		}
	}
}

func TestReliableSources(t *testing.T) {
	for _, src := range []Source{SourceManualEntry, SourceLabTest, SourceWearablePrimary} {
		if !ReliableSources[src] {
			t.Errorf("%s should be a reliable source", src)
		}
	}
	for _, src := range []Source{SourceWearableSecondary, SourceAggregator, SourceCustom} {
		if ReliableSources[src] {
			t.Errorf("%s should not be a reliable source", src)
		}
	}
}

func TestIsValidSource(t *testing.T) {
	if !IsValidSource("lab_test") {
		t.Error("lab_test should be valid")
	}
	if IsValidSource("fitbit") {
		t.Error("unknown source should not be valid")
	}
}
