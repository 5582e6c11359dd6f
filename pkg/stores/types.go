package stores

import "time"

// ReportRecord is the summary row stored for each drift report. The full
// report document is kept alongside as JSON and rehydrated on read.
type ReportRecord struct {
	// ID is the report's UUID.
	ID string

	// Version is the platform release the report was generated against.
	Version string

	// BaselineSource names the expected side: "defaults" or a file path.
	BaselineSource string

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time

	// Compliant is true when no field drifted and no check failed.
	Compliant bool

	// TotalChecks is the number of (component, category) pairs inspected.
	TotalChecks int

	// DriftedChecks is how many of those had at least one mismatch.
	DriftedChecks int

	// MismatchedFields is the total number of drifting fields.
	MismatchedFields int

	// FailedChecks is how many checks errored before comparison.
	FailedChecks int
}

// Finding is one drifting field from a stored report.
type Finding struct {
	ReportID  string
	Component string
	Category  string
	Field     string
	Current   string
	Expected  string
}
