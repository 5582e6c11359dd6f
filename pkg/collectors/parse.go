package collectors

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

// textFields lists policy fields whose values are free text rather than
// integers. Everything else parses as an int.
var textFields = map[string]bool{
	"email":                true,
	"minAlphabetic":        true,
	"maxIdenticalAdjacent": true,
}

// parseKeyValues splits polctl output into a key/value map. The CLI emits
// one "key=value" pair per line; blank lines and lines starting with '#'
// are ignored. Duplicate keys are an error.
func parseKeyValues(output string) (map[string]string, error) {
	kv := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed output line %q", line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if _, exists := kv[key]; exists {
			return nil, fmt.Errorf("duplicate key %q in output", key)
		}
		kv[key] = value
	}
	return kv, nil
}

// setFromKeyValues builds a typed policy set out of CLI key/value pairs.
// The pairs must cover the component's schema for the category exactly;
// policy.DecodeSet enforces that.
func setFromKeyValues(comp policy.Component, cat policy.Category, kv map[string]string) (policy.Set, error) {
	values := make(map[string]interface{}, len(kv))
	for key, raw := range kv {
		if textFields[key] {
			values[key] = raw
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: expected integer, got %q", key, raw)
		}
		values[key] = n
	}

	leaf, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s/%s values: %w", comp, cat, err)
	}
	return policy.DecodeSet(comp, cat, json.RawMessage(leaf))
}

// keyValueArgs renders a policy set as sorted "key=value" CLI arguments.
func keyValueArgs(set policy.Set) []string {
	fields := set.Fields()
	args := make([]string, 0, len(fields))
	for _, f := range fields {
		args = append(args, fmt.Sprintf("%s=%v", f.Name, f.Value))
	}
	sort.Strings(args)
	return args
}
