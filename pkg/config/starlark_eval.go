package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// StarlarkEvaluator executes baseline scripts. A script is plain Starlark
// that must leave a dict named `baseline` in its globals, with the same
// version → component → category → field shape as a JSON baseline
// document. Scripts get the target platform version injected as
// `version`, which is what makes templated multi-environment baselines
// worth the indirection.
type StarlarkEvaluator struct {
	timeout time.Duration
}

// NewStarlarkEvaluator creates an evaluator. A zero timeout defaults to
// 30 seconds.
func NewStarlarkEvaluator(timeout time.Duration) *StarlarkEvaluator {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &StarlarkEvaluator{timeout: timeout}
}

// EvalBaselineFile evaluates a *.star baseline script from disk and
// returns the rendered JSON document.
func (se *StarlarkEvaluator) EvalBaselineFile(ctx context.Context, path string, vars map[string]interface{}) ([]byte, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline script %s: %w", path, err)
	}
	return se.EvalBaseline(ctx, string(script), vars)
}

// EvalBaseline evaluates a baseline script and returns the `baseline`
// global rendered as JSON.
func (se *StarlarkEvaluator) EvalBaseline(ctx context.Context, script string, vars map[string]interface{}) ([]byte, error) {
	evalCtx, cancel := context.WithTimeout(ctx, se.timeout)
	defer cancel()

	type result struct {
		doc []byte
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		doc, err := se.evalSync(script, vars)
		resultCh <- result{doc: doc, err: err}
	}()

	select {
	case <-evalCtx.Done():
		return nil, fmt.Errorf("baseline script timed out after %v", se.timeout)
	case r := <-resultCh:
		return r.doc, r.err
	}
}

func (se *StarlarkEvaluator) evalSync(script string, vars map[string]interface{}) ([]byte, error) {
	thread := &starlark.Thread{
		Name: "pwdrift-baseline",
		Print: func(_ *starlark.Thread, _ string) {
			// Scripts have no business printing; drop it.
		},
	}

	predeclared := starlark.StringDict{
		"struct": starlarkstruct.Default,
	}
	for key, val := range vars {
		starlarkVal, err := toStarlarkValue(val)
		if err != nil {
			return nil, fmt.Errorf("failed to convert input %s: %w", key, err)
		}
		predeclared[key] = starlarkVal
	}

	globals, err := starlark.ExecFile(thread, "baseline.star", script, predeclared)
	if err != nil {
		return nil, fmt.Errorf("baseline script failed: %w", err)
	}

	baseline, ok := globals["baseline"]
	if !ok {
		return nil, fmt.Errorf("baseline script must define a `baseline` dict")
	}
	doc, err := fromStarlarkValue(baseline)
	if err != nil {
		return nil, fmt.Errorf("failed to convert baseline value: %w", err)
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return nil, fmt.Errorf("`baseline` must be a dict, got %s", baseline.Type())
	}

	return json.MarshalIndent(doc, "", "  ")
}

// toStarlarkValue converts a Go value to a Starlark value.
func toStarlarkValue(v interface{}) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []interface{}:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			conv, err := toStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = conv
		}
		return starlark.NewList(list), nil
	case map[string]interface{}:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			conv, err := toStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), conv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// fromStarlarkValue converts a Starlark value to a Go value suitable for
// JSON rendering.
func fromStarlarkValue(v starlark.Value) (interface{}, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(val), nil
	case starlark.Int:
		i, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer too large")
		}
		return i, nil
	case starlark.Float:
		return float64(val), nil
	case starlark.String:
		return string(val), nil
	case *starlark.List:
		list := make([]interface{}, val.Len())
		for i := 0; i < val.Len(); i++ {
			item, err := fromStarlarkValue(val.Index(i))
			if err != nil {
				return nil, err
			}
			list[i] = item
		}
		return list, nil
	case *starlark.Dict:
		dict := make(map[string]interface{})
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string")
			}
			value, err := fromStarlarkValue(item[1])
			if err != nil {
				return nil, err
			}
			dict[string(key)] = value
		}
		return dict, nil
	case *starlarkstruct.Struct:
		dict := make(map[string]interface{})
		for _, name := range val.AttrNames() {
			attr, err := val.Attr(name)
			if err != nil {
				continue
			}
			value, err := fromStarlarkValue(attr)
			if err != nil {
				return nil, err
			}
			dict[name] = value
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported starlark type: %s", v.Type())
	}
}
