// Package report assembles drift comparison results into a renderable,
// storable report.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

// Result is the comparison outcome for one component and category.
type Result struct {
	Component policy.Component `json:"component"`
	Category  policy.Category  `json:"category"`

	// Drifts is the field-by-field comparison. Empty when Error is set.
	Drifts []policy.Drift `json:"drifts,omitempty"`

	// Error records a collection or comparison failure for this entry.
	// Failures of individual components do not abort the run.
	Error string `json:"error,omitempty"`
}

// HasDrift reports whether any field in this result mismatches.
func (r Result) HasDrift() bool {
	return policy.HasDrift(r.Drifts)
}

// Summary aggregates a report.
type Summary struct {
	TotalChecks      int `json:"total_checks"`
	DriftedChecks    int `json:"drifted_checks"`
	TotalFields      int `json:"total_fields"`
	MismatchedFields int `json:"mismatched_fields"`
	FailedChecks     int `json:"failed_checks"`
}

// Report is one drift detection run.
type Report struct {
	ID          string         `json:"id"`
	Version     policy.Version `json:"version"`
	GeneratedAt time.Time      `json:"generated_at"`

	// BaselineSource is "defaults" or the baseline file path.
	BaselineSource string `json:"baseline_source"`

	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}

// New builds a report from comparison results and computes its summary.
func New(version policy.Version, baselineSource string, results []Result) *Report {
	rep := &Report{
		ID:             uuid.NewString(),
		Version:        version,
		GeneratedAt:    time.Now().UTC(),
		BaselineSource: baselineSource,
		Results:        results,
	}
	for _, res := range results {
		rep.Summary.TotalChecks++
		if res.Error != "" {
			rep.Summary.FailedChecks++
			continue
		}
		if res.HasDrift() {
			rep.Summary.DriftedChecks++
		}
		for _, d := range res.Drifts {
			rep.Summary.TotalFields++
			if !d.Match {
				rep.Summary.MismatchedFields++
			}
		}
	}
	return rep
}

// Compliant reports whether the run saw neither drift nor failures.
func (r *Report) Compliant() bool {
	return r.Summary.DriftedChecks == 0 && r.Summary.FailedChecks == 0
}

// JSON renders the report.
func (r *Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render report %s: %w", r.ID, err)
	}
	return append(data, '\n'), nil
}

// WriteFile renders the report to a file.
func (r *Report) WriteFile(path string) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// FromJSON parses a rendered report.
func FromJSON(data []byte) (*Report, error) {
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("malformed report document: %w", err)
	}
	return &rep, nil
}

// LoadFile reads a rendered report from disk.
func LoadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	return FromJSON(data)
}
