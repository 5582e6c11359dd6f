package rules

import "time"

// Severity represents the severity level of a rule violation.
type Severity string

const (
	// SeverityInfo is for informational findings.
	SeverityInfo Severity = "info"

	// SeverityWarning is for findings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for findings that fail the audit.
	SeverityError Severity = "error"
)

// Rule is one compliance rule with its Rego code.
type Rule struct {
	// Name is the unique name of the rule.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the rule's Rego code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations the rule raises.
	Severity Severity `json:"severity"`

	// Enabled indicates if the rule is active.
	Enabled bool `json:"enabled"`

	// Builtin marks rules compiled into the binary.
	Builtin bool `json:"builtin"`
}

// Violation is one finding raised by a rule.
type Violation struct {
	// Rule is the name of the rule that raised the finding.
	Rule string `json:"rule"`

	// Component is the component the finding concerns, when known.
	Component string `json:"component,omitempty"`

	// Message is a human-readable description of the finding.
	Message string `json:"message"`

	// Severity is the finding's severity level.
	Severity Severity `json:"severity"`
}

// EvalResult is the outcome of evaluating all rules against one report.
type EvalResult struct {
	// Passed is false when any violation has error severity.
	Passed bool `json:"passed"`

	// Violations lists all findings, ordered by rule.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists rules that failed to evaluate.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the evaluation ran.
	EvaluatedAt time.Time `json:"evaluated_at"`
}
