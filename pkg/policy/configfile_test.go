package policy

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")

	if err := Generate("5.1.0.0", path, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	defaults, err := Defaults("5.1.0.0")
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}

	for _, want := range defaults {
		got, ok, err := file.Set("5.1.0.0", want.Component(), want.Category())
		if err != nil {
			t.Fatalf("file.Set(%s, %s): %v", want.Component(), want.Category(), err)
		}
		if !ok {
			t.Fatalf("baseline file misses %s/%s", want.Component(), want.Category())
		}

		drifts, err := Compare(got, want)
		if err != nil {
			t.Fatalf("Compare %s/%s: %v", want.Component(), want.Category(), err)
		}
		for _, d := range drifts {
			if !d.Match {
				t.Errorf("%s/%s field %s did not round-trip: file has %v, defaults have %v",
					want.Component(), want.Category(), d.Field, d.Current, d.Expected)
			}
		}
	}
}

func TestGenerateUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	err := Generate("9.9.9.9", path, false)
	if !IsUnsupportedVersion(err) {
		t.Fatalf("error = %v, want UNSUPPORTED_VERSION", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("failed Generate must not leave a file behind")
	}
}

func TestGenerateOverwriteGuard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")

	if err := Generate("4.4.0.0", path, false); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	// Second call without overwrite fails and leaves the file untouched.
	if err := Generate("5.1.0.0", path, false); !IsFileExists(err) {
		t.Fatalf("error = %v, want FILE_EXISTS", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("guarded Generate must not modify the existing file")
	}

	// With overwrite the file is fully replaced.
	if err := Generate("5.1.0.0", path, true); err != nil {
		t.Fatalf("overwriting Generate: %v", err)
	}
	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if _, err := file.Baseline("5.1.0.0"); err != nil {
		t.Errorf("overwritten file should carry the new version block: %v", err)
	}
	if _, err := file.Baseline("4.4.0.0"); !IsVersionMismatch(err) {
		t.Errorf("overwritten file should not carry the old version block, got %v", err)
	}
}

func TestBaselineVersionGating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseline.json")
	if err := Generate("5.0.0.0", path, false); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	file, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if _, err := file.Baseline("5.1.0.0"); !IsVersionMismatch(err) {
		t.Fatalf("comparing against a wrong-version baseline must fail, got %v", err)
	}
}

func TestParseRejectsUnknownComponent(t *testing.T) {
	doc := `{"5.1.0.0": {"mystery-box": {"AccountLockout": {"maxFailures": 3, "unlockIntervalSec": 900, "failureIntervalSec": 900}}}}`
	if _, err := Parse([]byte(doc)); !IsParseError(err) {
		t.Fatalf("error = %v, want PARSE_ERROR", err)
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	doc := `{"5.1.0.0": {"manager": {"AccountLockout": {"maxFailures": 3, "unlockIntervalSec": 900, "failureIntervalSec": 900, "graceLogins": 2}}}}`
	if _, err := Parse([]byte(doc)); !IsParseError(err) {
		t.Fatalf("error = %v, want PARSE_ERROR", err)
	}
}

func TestParseRejectsOffSchemaFieldSet(t *testing.T) {
	// cliMaxFailures belongs to the network manager, not the management
	// server, so decoding succeeds but the schema check must reject it.
	doc := `{"5.1.0.0": {"network-edge": {"AccountLockout": {"maxFailures": 5, "unlockIntervalSec": 300, "failureIntervalSec": 120, "cliMaxFailures": 5, "cliUnlockIntervalSec": 300}}}}`
	if _, err := Parse([]byte(doc)); !IsSchemaMismatch(err) {
		t.Fatalf("error = %v, want SCHEMA_MISMATCH", err)
	}
}

func TestMarshalDocumentDepth(t *testing.T) {
	// Version, component, category, field: all four levels must survive a
	// marshal/unmarshal cycle without truncation.
	sets, err := Defaults("5.1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	data, err := marshalDocument("5.1.0.0", sets)
	if err != nil {
		t.Fatalf("marshalDocument: %v", err)
	}

	var generic map[string]map[string]map[string]map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("document is not four levels deep: %v", err)
	}
	leaf := generic["5.1.0.0"]["host"]["PasswordExpiration"]
	if leaf["maxDays"] != float64(99999) {
		t.Errorf("leaf field lost in serialization: %v", leaf)
	}
}
