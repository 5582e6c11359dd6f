package policy

// Drift is the comparison result for one policy field. A field that
// differs is data, not an error: mismatches are the point of running a
// comparison.
type Drift struct {
	Field    string      `json:"field"`
	Current  interface{} `json:"current"`
	Expected interface{} `json:"expected"`
	Match    bool        `json:"match"`
}

// normalizedFields lists the (component, category, field) triples whose
// values must be normalized before equality. These are the directory
// service knobs the admin CLI reports as free text: depending on the
// server build an unset value arrives as "" or as the literal "0", and
// comparing those literally against a hand-authored baseline produces
// spurious drift. The set is fixed; do not extend it on general
// principles.
var normalizedFields = map[Component]map[Category]map[string]bool{
	ComponentDirectory: {
		CategoryComplexity: {
			"minAlphabetic":        true,
			"maxIdenticalAdjacent": true,
		},
	},
}

// Compare diffs a live policy set against an expected one and returns one
// Drift entry per schema field, in schema order.
//
// Both sets must be of the same component and category and carry identical
// field-name sets; anything else is a SCHEMA_MISMATCH, never a silent
// subset comparison. Field values compare by exact equality (all values
// are ints, strings or bools), except the fields in normalizedFields.
func Compare(current, expected Set) ([]Drift, error) {
	if current == nil || expected == nil {
		return nil, newError(CodeSchemaMismatch, "cannot compare nil policy sets")
	}
	if current.Category() != expected.Category() {
		return nil, newError(CodeSchemaMismatch, "category mismatch: current is %s, expected is %s",
			current.Category(), expected.Category())
	}
	if current.Component() != expected.Component() {
		return nil, newError(CodeSchemaMismatch, "component mismatch: current is %s, expected is %s",
			current.Component(), expected.Component())
	}

	curFields := current.Fields()
	expFields := expected.Fields()

	expByName := make(map[string]interface{}, len(expFields))
	for _, f := range expFields {
		expByName[f.Name] = f.Value
	}
	if len(expByName) != len(expFields) {
		return nil, newError(CodeSchemaMismatch, "expected %s/%s set carries duplicate fields",
			expected.Component(), expected.Category())
	}

	drifts := make([]Drift, 0, len(curFields))
	seen := make(map[string]bool, len(curFields))
	for _, f := range curFields {
		expVal, ok := expByName[f.Name]
		if !ok {
			return nil, newError(CodeSchemaMismatch, "field %q present in current %s/%s set but not in expected",
				f.Name, current.Component(), current.Category())
		}
		seen[f.Name] = true

		curVal, expCmp := f.Value, expVal
		if isNormalized(current.Component(), current.Category(), f.Name) {
			curVal = normalizeText(curVal)
			expCmp = normalizeText(expCmp)
		}

		drifts = append(drifts, Drift{
			Field:    f.Name,
			Current:  f.Value,
			Expected: expVal,
			Match:    curVal == expCmp,
		})
	}
	for _, f := range expFields {
		if !seen[f.Name] {
			return nil, newError(CodeSchemaMismatch, "field %q present in expected %s/%s set but not in current",
				f.Name, expected.Component(), expected.Category())
		}
	}

	return drifts, nil
}

// HasDrift reports whether any entry in a comparison result mismatches.
func HasDrift(drifts []Drift) bool {
	for _, d := range drifts {
		if !d.Match {
			return true
		}
	}
	return false
}

func isNormalized(comp Component, cat Category, field string) bool {
	return normalizedFields[comp][cat][field]
}

// normalizeText maps the two textual spellings of "unset" to a single
// value so they compare equal. Non-string values pass through untouched.
func normalizeText(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if s == "" || s == "0" {
		return ""
	}
	return s
}
