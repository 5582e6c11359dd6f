package rules

// BuiltinRules returns the rules compiled into the binary.
func BuiltinRules() []Rule {
	return []Rule{
		lockoutDriftRule(),
		neverExpireRule(),
		collectionFailureRule(),
	}
}

// lockoutDriftRule fails the audit when account lockout settings drift.
// Weakened lockout is the finding auditors care most about, so any lockout
// mismatch is an error regardless of direction.
func lockoutDriftRule() Rule {
	return Rule{
		Name:        "lockout-drift",
		Description: "Account lockout settings must match the expected policy",
		Severity:    SeverityError,
		Enabled:     true,
		Builtin:     true,
		Rego: `package pwdrift.rules.lockout

import rego.v1

deny contains violation if {
	some result in input.results
	result.category == "AccountLockout"
	some drift in result.drifts
	drift.match == false
	violation := {
		"message": sprintf("%s lockout setting %s is %v, expected %v", [result.component, drift.field, drift.current, drift.expected]),
		"severity": "error",
		"component": result.component,
	}
}
`,
	}
}

// neverExpireRule flags effectively non-expiring passwords. Hosts are
// exempt: their default maximum age is already 99999 days.
func neverExpireRule() Rule {
	return Rule{
		Name:        "never-expire",
		Description: "Passwords on appliance components should not be configured to never expire",
		Severity:    SeverityWarning,
		Enabled:     true,
		Builtin:     true,
		Rego: `package pwdrift.rules.expiry

import rego.v1

deny contains violation if {
	some result in input.results
	result.category == "PasswordExpiration"
	result.component != "host"
	some drift in result.drifts
	drift.field == "maxDays"
	drift.current > 9999
	violation := {
		"message": sprintf("%s passwords effectively never expire (maxDays=%v)", [result.component, drift.current]),
		"severity": "warning",
		"component": result.component,
	}
}
`,
	}
}

// collectionFailureRule surfaces components that could not be audited.
func collectionFailureRule() Rule {
	return Rule{
		Name:        "collection-failure",
		Description: "Every configured component must be reachable for the audit to be complete",
		Severity:    SeverityWarning,
		Enabled:     true,
		Builtin:     true,
		Rego: `package pwdrift.rules.coverage

import rego.v1

deny contains violation if {
	some result in input.results
	result.error != ""
	violation := {
		"message": sprintf("%s/%s could not be audited: %s", [result.component, result.category, result.error]),
		"severity": "warning",
		"component": result.component,
	}
}
`,
	}
}
