package core

import (
	"testing"
	"time"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestParseHypothesisID tests hypothesis ID parsing
func TestParseHypothesisID(t *testing.T) {
	tests := []struct {
		input    string
		expected HypothesisID
		hasError bool
	}{
		{"valid-id", HypothesisID("valid-id"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, test := range tests {
		result, err := ParseHypothesisID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError && err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
		}
		if result != test.expected {
			t.Errorf("Expected %s, got %s", test.expected, result)
		}
	}
}

// TestTimestampAgeDays tests age computation and future clamping
func TestTimestampAgeDays(t *testing.T) {
	asOf := NewTimestamp(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	old := NewTimestamp(asOf.Time().AddDate(0, 0, -30))
	if age := old.AgeDays(asOf); age < 29.9 || age > 30.1 {
		t.Errorf("Expected ~30 day age, got %f", age)
	}

	future := NewTimestamp(asOf.Time().AddDate(0, 0, 5))
	if age := future.AgeDays(asOf); age != 0 {
		t.Errorf("Expected future timestamps to clamp to 0 age, got %f", age)
	}
}

// TestComputeFingerprintDeterministic tests that identical parts produce identical hashes
func TestComputeFingerprintDeterministic(t *testing.T) {
	parts := map[string]string{"user": "u-1", "as_of": "2026-03-01", "obs": "412"}

	fp1 := ComputeFingerprint(parts)
	fp2 := ComputeFingerprint(map[string]string{"obs": "412", "as_of": "2026-03-01", "user": "u-1"})

	if !fp1.Equals(fp2) {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1, fp2)
	}

	fp3 := ComputeFingerprint(map[string]string{"user": "u-2", "as_of": "2026-03-01", "obs": "412"})
	if fp1.Equals(fp3) {
		t.Error("Different inputs produced identical fingerprints")
	}
}
