package config

import (
	"testing"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

func TestValidateBaselineAcceptsGeneratedDocument(t *testing.T) {
	// Whatever Generate writes must pass the schema.
	path := t.TempDir() + "/baseline.json"
	if err := policy.Generate("5.1.0.0", path, false); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadBaseline(t.Context(), path, "5.1.0.0"); err != nil {
		t.Fatalf("generated baseline failed validation: %v", err)
	}
}

func TestValidateBaselineShape(t *testing.T) {
	registry, err := NewSchemaRegistry()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid document",
			doc: `{"5.1.0.0": {"manager": {"AccountLockout":
				{"maxFailures": 3, "unlockIntervalSec": 900, "failureIntervalSec": 900}}}}`,
			wantErr: false,
		},
		{
			name: "string where int expected",
			doc: `{"5.1.0.0": {"manager": {"AccountLockout":
				{"maxFailures": "three", "unlockIntervalSec": 900, "failureIntervalSec": 900}}}}`,
			wantErr: true,
		},
		{
			name:    "malformed version key",
			doc:     `{"5.1": {"manager": {}}}`,
			wantErr: true,
		},
		{
			name: "unknown category",
			doc: `{"5.1.0.0": {"manager": {"PasswordRotation":
				{"days": 30}}}}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			doc:     `["5.1.0.0"]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := registry.ValidateBaseline([]byte(tt.doc))
			if tt.wantErr && err == nil {
				t.Error("validation should fail")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("validation failed: %v", err)
			}
		})
	}
}
