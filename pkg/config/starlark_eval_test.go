package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

const lockoutBaselineScript = `
def lockout(max_failures):
    return {
        "maxFailures": max_failures,
        "unlockIntervalSec": 900,
        "failureIntervalSec": 900,
    }

baseline = {
    version: {
        "manager": {"AccountLockout": lockout(3)},
        "identity-broker": {"AccountLockout": lockout(5)},
    },
}
`

func TestEvalBaselineMatchesJSONEquivalent(t *testing.T) {
	eval := NewStarlarkEvaluator(0)
	data, err := eval.EvalBaseline(context.Background(), lockoutBaselineScript,
		map[string]interface{}{"version": "5.1.0.0"})
	if err != nil {
		t.Fatalf("EvalBaseline: %v", err)
	}

	file, err := policy.Parse(data)
	if err != nil {
		t.Fatalf("Parse rendered baseline: %v", err)
	}

	set, ok, err := file.Set("5.1.0.0", policy.ComponentManager, policy.CategoryLockout)
	if err != nil || !ok {
		t.Fatalf("file.Set: ok=%v err=%v", ok, err)
	}
	lockout := set.(policy.LockoutPolicy)
	if lockout.MaxFailures != 3 || lockout.UnlockIntervalSec != 900 {
		t.Errorf("unexpected lockout values: %+v", lockout)
	}
}

func TestEvalBaselineRequiresBaselineGlobal(t *testing.T) {
	eval := NewStarlarkEvaluator(0)
	_, err := eval.EvalBaseline(context.Background(), `something_else = {}`, nil)
	if err == nil {
		t.Fatal("script without a baseline dict must fail")
	}
}

func TestEvalBaselineRejectsNonDict(t *testing.T) {
	eval := NewStarlarkEvaluator(0)
	_, err := eval.EvalBaseline(context.Background(), `baseline = ["not", "a", "dict"]`, nil)
	if err == nil {
		t.Fatal("non-dict baseline must fail")
	}
}

func TestEvalBaselineTimeout(t *testing.T) {
	eval := NewStarlarkEvaluator(50 * time.Millisecond)
	script := `
def spin():
    x = 0
    for i in range(1000000000):
        x += i
    return x

_total = spin()
baseline = {}
`
	if _, err := eval.EvalBaseline(context.Background(), script, nil); err == nil {
		t.Fatal("runaway script should time out")
	}
}

func TestLoadBaselineStarlarkFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.star")
	if err := os.WriteFile(path, []byte(lockoutBaselineScript), 0o644); err != nil {
		t.Fatal(err)
	}

	file, err := LoadBaseline(context.Background(), path, "5.0.0.0")
	if err != nil {
		t.Fatalf("LoadBaseline: %v", err)
	}

	// The script keys its document by the injected version.
	if _, err := file.Baseline("5.0.0.0"); err != nil {
		t.Errorf("baseline should carry the injected version block: %v", err)
	}
	if _, err := file.Baseline("5.1.0.0"); !policy.IsVersionMismatch(err) {
		t.Errorf("other versions must be absent, got %v", err)
	}
}
