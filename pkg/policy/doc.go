// Package policy is the core of pwdrift: the out-of-the-box password
// policy tables for each supported platform release, the drift comparator
// that diffs a live policy against an expected one, and the on-disk
// baseline file format.
//
// The package is pure computation plus file I/O. Anything that talks to a
// managed component (SSH, REST) lives in pkg/collectors; this package only
// sees the resulting Set values.
//
// Three concepts:
//
//   - Set: an immutable bag of policy values for one component and one
//     category (expiration, complexity, account lockout). A closed sum over
//     ExpirationPolicy, ComplexityPolicy and LockoutPolicy.
//
//   - Defaults: an exact-match lookup from a platform release version to
//     the vendor-shipped policy values. The table is hand-maintained data,
//     not derived; releases really did ship different values.
//
//   - Compare: a field-by-field diff of two Sets of the same component and
//     category, producing one Drift entry per schema field.
package policy
