package report

import (
	"testing"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

func TestNewComputesSummary(t *testing.T) {
	results := []Result{
		{
			Component: policy.ComponentHost,
			Category:  policy.CategoryLockout,
			Drifts: []policy.Drift{
				{Field: "maxFailures", Current: 10, Expected: 5, Match: false},
				{Field: "unlockIntervalSec", Current: 900, Expected: 900, Match: true},
			},
		},
		{
			Component: policy.ComponentManager,
			Category:  policy.CategoryExpiration,
			Drifts: []policy.Drift{
				{Field: "maxDays", Current: 90, Expected: 90, Match: true},
			},
		},
		{
			Component: policy.ComponentNetworkEdge,
			Category:  policy.CategoryComplexity,
			Error:     "connection refused",
		},
	}

	rep := New("5.1.0.0", "defaults", results)

	if rep.ID == "" {
		t.Error("report should carry an ID")
	}
	want := Summary{
		TotalChecks:      3,
		DriftedChecks:    1,
		TotalFields:      3,
		MismatchedFields: 1,
		FailedChecks:     1,
	}
	if rep.Summary != want {
		t.Errorf("summary = %+v, want %+v", rep.Summary, want)
	}
	if rep.Compliant() {
		t.Error("report with drift and failures is not compliant")
	}
}

func TestCompliantReport(t *testing.T) {
	rep := New("5.1.0.0", "defaults", []Result{
		{
			Component: policy.ComponentHost,
			Category:  policy.CategoryLockout,
			Drifts: []policy.Drift{
				{Field: "maxFailures", Current: 5, Expected: 5, Match: true},
			},
		},
	})
	if !rep.Compliant() {
		t.Error("drift-free report should be compliant")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	rep := New("5.0.0.0", "/etc/pwdrift/baseline.json", []Result{
		{
			Component: policy.ComponentDirectory,
			Category:  policy.CategoryComplexity,
			Drifts: []policy.Drift{
				{Field: "minAlphabetic", Current: "", Expected: "0", Match: true},
			},
		},
	})

	data, err := rep.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	parsed, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.ID != rep.ID || parsed.Version != rep.Version {
		t.Errorf("identity fields did not round-trip: %+v", parsed)
	}
	if parsed.Summary != rep.Summary {
		t.Errorf("summary did not round-trip: %+v", parsed.Summary)
	}
	if len(parsed.Results) != 1 || parsed.Results[0].Drifts[0].Field != "minAlphabetic" {
		t.Errorf("results did not round-trip: %+v", parsed.Results)
	}
}
