// Package rules evaluates Rego compliance rules against drift reports.
//
// Built-in rules cover the checks every audit wants: lockout drift is an
// error, passwords configured to never expire are flagged, and components
// that could not be collected are surfaced. Additional *.rego files can be
// loaded from a rules directory and hot-reloaded on change.
//
// Rules receive the rendered report as input and add violations to a
// "deny" set in their package:
//
//	package pwdrift.rules.example
//
//	import rego.v1
//
//	deny contains violation if {
//		some result in input.results
//		result.error != ""
//		violation := {
//			"message": sprintf("collection failed for %s", [result.component]),
//			"severity": "warning",
//			"component": result.component,
//		}
//	}
package rules
