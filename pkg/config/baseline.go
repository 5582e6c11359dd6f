package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

// LoadBaseline loads a baseline document from either a JSON file or a
// Starlark script, validates its shape against the CUE schema, and parses
// it into typed policy sets. The target version is injected into Starlark
// scripts as `version`.
func LoadBaseline(ctx context.Context, path string, version policy.Version) (*policy.File, error) {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".star":
		eval := NewStarlarkEvaluator(0)
		data, err = eval.EvalBaselineFile(ctx, path, map[string]interface{}{
			"version": string(version),
		})
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline %s: %w", path, err)
	}

	registry, err := NewSchemaRegistry()
	if err != nil {
		return nil, err
	}
	if err := registry.ValidateBaseline(data); err != nil {
		return nil, fmt.Errorf("baseline %s: %w", path, err)
	}

	file, err := policy.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("baseline %s: %w", path, err)
	}
	return file, nil
}
