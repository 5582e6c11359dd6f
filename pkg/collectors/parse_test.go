package collectors

import (
	"reflect"
	"testing"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

func TestParseKeyValues(t *testing.T) {
	output := `# host password expiration
maxDays=99999
minDays=0

warnDays = 7
`
	kv, err := parseKeyValues(output)
	if err != nil {
		t.Fatalf("parseKeyValues: %v", err)
	}
	want := map[string]string{"maxDays": "99999", "minDays": "0", "warnDays": "7"}
	if !reflect.DeepEqual(kv, want) {
		t.Errorf("parsed %v, want %v", kv, want)
	}
}

func TestParseKeyValuesRejectsMalformed(t *testing.T) {
	if _, err := parseKeyValues("maxDays 99999"); err == nil {
		t.Error("line without '=' should fail")
	}
	if _, err := parseKeyValues("maxDays=1\nmaxDays=2"); err == nil {
		t.Error("duplicate key should fail")
	}
}

func TestSetFromKeyValues(t *testing.T) {
	kv := map[string]string{
		"maxFailures":        "5",
		"unlockIntervalSec":  "900",
		"failureIntervalSec": "900",
	}
	set, err := setFromKeyValues(policy.ComponentHost, policy.CategoryLockout, kv)
	if err != nil {
		t.Fatalf("setFromKeyValues: %v", err)
	}
	lockout, ok := set.(policy.LockoutPolicy)
	if !ok {
		t.Fatalf("expected LockoutPolicy, got %T", set)
	}
	if lockout.MaxFailures != 5 || lockout.UnlockIntervalSec != 900 {
		t.Errorf("unexpected values: %+v", lockout)
	}
	if lockout.Component() != policy.ComponentHost {
		t.Errorf("component = %s, want host", lockout.Component())
	}
}

func TestSetFromKeyValuesTextFields(t *testing.T) {
	kv := map[string]string{
		"minLength":            "15",
		"minLowercase":         "1",
		"minUppercase":         "1",
		"minNumeric":           "1",
		"minSpecial":           "1",
		"history":              "5",
		"minAlphabetic":        "2",
		"maxIdenticalAdjacent": "",
	}
	set, err := setFromKeyValues(policy.ComponentDirectory, policy.CategoryComplexity, kv)
	if err != nil {
		t.Fatalf("setFromKeyValues: %v", err)
	}
	cx := set.(policy.ComplexityPolicy)
	if cx.MinAlphabetic == nil || *cx.MinAlphabetic != "2" {
		t.Errorf("minAlphabetic should stay text, got %v", cx.MinAlphabetic)
	}
	if cx.MaxIdenticalAdjacent == nil || *cx.MaxIdenticalAdjacent != "" {
		t.Errorf("empty text value should survive, got %v", cx.MaxIdenticalAdjacent)
	}
}

func TestSetFromKeyValuesRejectsSchemaViolations(t *testing.T) {
	// maxRetries belongs to hosts, not the manager.
	kv := map[string]string{
		"minLength":    "8",
		"minLowercase": "1",
		"minUppercase": "1",
		"minNumeric":   "1",
		"minSpecial":   "1",
		"history":      "5",
		"maxRetries":   "3",
	}
	if _, err := setFromKeyValues(policy.ComponentManager, policy.CategoryComplexity, kv); err == nil {
		t.Error("field outside the component schema should fail")
	}

	if _, err := setFromKeyValues(policy.ComponentHost, policy.CategoryLockout, map[string]string{
		"maxFailures": "ten",
	}); err == nil {
		t.Error("non-integer value for an int field should fail")
	}
}

func TestKeyValueArgs(t *testing.T) {
	set := policy.LockoutPolicy{
		Comp:               policy.ComponentHost,
		MaxFailures:        5,
		UnlockIntervalSec:  900,
		FailureIntervalSec: 900,
	}
	got := keyValueArgs(set)
	want := []string{"failureIntervalSec=900", "maxFailures=5", "unlockIntervalSec=900"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("keyValueArgs = %v, want %v", got, want)
	}
}
