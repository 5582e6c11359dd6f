package policy

import (
	"testing"
)

func hostComplexity() ComplexityPolicy {
	return ComplexityPolicy{
		Comp:         ComponentHost,
		MinLength:    7,
		MinLowercase: 1,
		MinUppercase: 1,
		MinNumeric:   1,
		MinSpecial:   1,
		History:      5,
		MaxRetries:   intp(3),
	}
}

func directoryComplexity(minAlphabetic, maxIdentical string) ComplexityPolicy {
	return ComplexityPolicy{
		Comp:                 ComponentDirectory,
		MinLength:            8,
		MinLowercase:         1,
		MinUppercase:         1,
		MinNumeric:           1,
		MinSpecial:           1,
		History:              5,
		MinAlphabetic:        strp(minAlphabetic),
		MaxIdenticalAdjacent: strp(maxIdentical),
	}
}

func TestCompareIdenticalSets(t *testing.T) {
	current := hostComplexity()
	expected := hostComplexity()

	drifts, err := Compare(current, expected)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	want, _ := schemaFields(ComponentHost, CategoryComplexity)
	if len(drifts) != len(want) {
		t.Fatalf("got %d drift entries, want %d", len(drifts), len(want))
	}
	for _, d := range drifts {
		if !d.Match {
			t.Errorf("field %s: identical sets reported mismatch (current=%v expected=%v)", d.Field, d.Current, d.Expected)
		}
	}
	if HasDrift(drifts) {
		t.Error("HasDrift should be false for identical sets")
	}
}

func TestCompareSingleFieldDrift(t *testing.T) {
	current := hostComplexity()
	current.MinLength = 15

	drifts, err := Compare(current, hostComplexity())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	var mismatched []Drift
	for _, d := range drifts {
		if !d.Match {
			mismatched = append(mismatched, d)
		}
	}
	if len(mismatched) != 1 {
		t.Fatalf("got %d mismatches, want exactly 1: %+v", len(mismatched), mismatched)
	}
	got := mismatched[0]
	if got.Field != "minLength" {
		t.Errorf("mismatched field = %q, want minLength", got.Field)
	}
	if got.Current != 15 || got.Expected != 7 {
		t.Errorf("drift values = {current %v, expected %v}, want {15, 7}", got.Current, got.Expected)
	}
	if !HasDrift(drifts) {
		t.Error("HasDrift should be true")
	}
}

func TestCompareNormalizedFields(t *testing.T) {
	tests := []struct {
		name      string
		current   Set
		expected  Set
		field     string
		wantMatch bool
	}{
		{
			name:      "empty string equals literal zero for exempt field",
			current:   directoryComplexity("", "3"),
			expected:  directoryComplexity("0", "3"),
			field:     "minAlphabetic",
			wantMatch: true,
		},
		{
			name:      "exempt field still drifts on real values",
			current:   directoryComplexity("2", "3"),
			expected:  directoryComplexity("4", "3"),
			field:     "minAlphabetic",
			wantMatch: false,
		},
		{
			name: "non-exempt string field compares literally",
			current: ExpirationPolicy{
				Comp: ComponentManagerRoot, MaxDays: 90, MinDays: 0, WarnDays: 7, Email: strp(""),
			},
			expected: ExpirationPolicy{
				Comp: ComponentManagerRoot, MaxDays: 90, MinDays: 0, WarnDays: 7, Email: strp("0"),
			},
			field:     "email",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drifts, err := Compare(tt.current, tt.expected)
			if err != nil {
				t.Fatalf("Compare: %v", err)
			}
			found := false
			for _, d := range drifts {
				if d.Field == tt.field {
					found = true
					if d.Match != tt.wantMatch {
						t.Errorf("field %s match = %v, want %v", tt.field, d.Match, tt.wantMatch)
					}
				}
			}
			if !found {
				t.Fatalf("field %s missing from comparison result", tt.field)
			}
		})
	}
}

func TestCompareNormalizationKeepsOriginalValues(t *testing.T) {
	// The rendered report must show what the source actually returned,
	// not the normalized value.
	drifts, err := Compare(directoryComplexity("", "3"), directoryComplexity("0", "3"))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for _, d := range drifts {
		if d.Field == "minAlphabetic" {
			if d.Current != "" || d.Expected != "0" {
				t.Errorf("normalization must not rewrite reported values, got {%v, %v}", d.Current, d.Expected)
			}
		}
	}
}

func TestCompareSchemaMismatch(t *testing.T) {
	hostExpiration := ExpirationPolicy{Comp: ComponentHost, MaxDays: 99999, MinDays: 0, WarnDays: 7}
	rootExpiration := ExpirationPolicy{Comp: ComponentManagerRoot, MaxDays: 90, MinDays: 0, WarnDays: 7, Email: strp("")}

	tests := []struct {
		name     string
		current  Set
		expected Set
	}{
		{"category mismatch", hostComplexity(), hostExpiration},
		{"component mismatch", hostExpiration, ExpirationPolicy{Comp: ComponentManager, MaxDays: 90, MinDays: 0, WarnDays: 7}},
		{"field set mismatch", rootExpiration, ExpirationPolicy{Comp: ComponentManagerRoot, MaxDays: 90, MinDays: 0, WarnDays: 7}},
		{"nil expected", hostComplexity(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drifts, err := Compare(tt.current, tt.expected)
			if err == nil {
				t.Fatalf("Compare should fail, got %d entries", len(drifts))
			}
			if !IsSchemaMismatch(err) {
				t.Errorf("error = %v, want SCHEMA_MISMATCH", err)
			}
		})
	}
}

func TestCompareAgainstDefaults(t *testing.T) {
	// A live set equal to the shipped defaults reports no drift.
	expected, ok, err := DefaultSet("5.1.0.0", ComponentNetworkManager, CategoryLockout)
	if err != nil || !ok {
		t.Fatalf("DefaultSet: ok=%v err=%v", ok, err)
	}

	current := LockoutPolicy{
		Comp:                 ComponentNetworkManager,
		MaxFailures:          5,
		UnlockIntervalSec:    900,
		FailureIntervalSec:   120,
		CLIMaxFailures:       intp(5),
		CLIUnlockIntervalSec: intp(300),
	}
	drifts, err := Compare(current, expected)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if HasDrift(drifts) {
		t.Fatalf("default-valued live policy should not drift: %+v", drifts)
	}
}
