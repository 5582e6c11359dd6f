package config

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// SchemaRegistry manages CUE schemas for validating user-authored
// documents before typed decoding.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a registry with the built-in schemas
// registered.
func NewSchemaRegistry() (*SchemaRegistry, error) {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
	if err := sr.Register("baseline", builtinBaselineSchema); err != nil {
		return nil, err
	}
	return sr, nil
}

// Register compiles and stores a CUE schema under a name.
func (sr *SchemaRegistry) Register(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	sr.schemas[name] = val
	return nil
}

// Validate unifies data with a named schema and reports constraint
// violations.
func (sr *SchemaRegistry) Validate(schemaName string, data interface{}) error {
	sr.mu.RLock()
	schema, ok := sr.schemas[schemaName]
	sr.mu.RUnlock()
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateBaseline checks a baseline JSON document against the baseline
// schema. It catches shape errors (wrong value types, malformed version
// keys) with CUE's error positions; the typed decoder in pkg/policy
// remains the authority on field sets.
func (sr *SchemaRegistry) ValidateBaseline(data []byte) error {
	// Extract the JSON directly into CUE rather than round-tripping
	// through map[string]interface{}, which would widen every integer
	// to float64 and break unification with the schema's int leaves.
	expr, err := cuejson.Extract("baseline.json", data)
	if err != nil {
		return fmt.Errorf("baseline is not a JSON object: %w", err)
	}

	sr.mu.RLock()
	schema, ok := sr.schemas["baseline"]
	sr.mu.RUnlock()
	if !ok {
		return fmt.Errorf("schema baseline not found")
	}

	dataVal := sr.ctx.BuildExpr(expr)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// builtinBaselineSchema constrains the baseline document: version-string
// keys, known category names, and int/string leaf types. Per-component
// field sets are checked by the typed decoder, which knows which optional
// fields each component carries.
const builtinBaselineSchema = `
#Expiration: {
	maxDays:  int
	minDays:  int
	warnDays: int
	email?:   string
}

#Complexity: {
	minLength:    int
	minLowercase: int
	minUppercase: int
	minNumeric:   int
	minSpecial:   int
	history:      int
	maxRetries?:  int
	minUnique?:   int

	// Directory service knobs arrive as text; the comparator applies its
	// own normalization to these.
	minAlphabetic?:        string
	maxIdenticalAdjacent?: string
}

#Lockout: {
	maxFailures:           int
	unlockIntervalSec:     int
	failureIntervalSec:    int
	cliMaxFailures?:       int
	cliUnlockIntervalSec?: int
}

#Component: {
	PasswordExpiration?: #Expiration
	PasswordComplexity?: #Complexity
	AccountLockout?:     #Lockout
}

close({
	[=~"^[0-9]+\\.[0-9]+\\.[0-9]+\\.[0-9]+$"]: {
		[string]: #Component
	}
})
`
