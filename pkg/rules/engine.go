package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"

	"github.com/pwdrift/pwdrift/pkg/report"
)

// Engine compiles and evaluates compliance rules.
type Engine struct {
	mu     sync.RWMutex
	rules  map[string]*compiledRule
	logger zerolog.Logger
}

// compiledRule is a rule whose Rego module parsed cleanly.
type compiledRule struct {
	rule     *Rule
	module   *ast.Module
	compiled time.Time
}

// NewEngine creates an engine with the built-in rules loaded.
func NewEngine(logger zerolog.Logger) (*Engine, error) {
	e := &Engine{
		rules:  make(map[string]*compiledRule),
		logger: logger.With().Str("component", "rules-engine").Logger(),
	}
	if err := e.loadBuiltinRules(); err != nil {
		return nil, fmt.Errorf("failed to load built-in rules: %w", err)
	}
	return e, nil
}

// Evaluate runs every enabled rule against a drift report. A rule that
// fails to evaluate becomes a warning rather than aborting the run.
func (e *Engine) Evaluate(ctx context.Context, rep *report.Report) (*EvalResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	input, err := reportInput(rep)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &EvalResult{Passed: true, EvaluatedAt: start}

	for _, name := range e.sortedNames() {
		cr := e.rules[name]
		if !cr.rule.Enabled {
			continue
		}

		violations, err := e.evaluateRule(ctx, cr, input)
		if err != nil {
			e.logger.Error().Err(err).Str("rule", cr.rule.Name).Msg("rule evaluation failed")
			result.Warnings = append(result.Warnings, fmt.Sprintf("rule %s evaluation failed: %v", cr.rule.Name, err))
			continue
		}
		result.Violations = append(result.Violations, violations...)
	}

	for i := range result.Violations {
		if result.Violations[i].Severity == SeverityError {
			result.Passed = false
			break
		}
	}

	e.logger.Debug().
		Str("report", rep.ID).
		Int("violations", len(result.Violations)).
		Dur("duration", time.Since(start)).
		Msg("rule evaluation completed")

	return result, nil
}

// evaluateRule queries the deny set of one rule's package.
func (e *Engine) evaluateRule(ctx context.Context, cr *compiledRule, input interface{}) ([]Violation, error) {
	query := fmt.Sprintf("data.%s.deny", cr.module.Package.Path.String()[len("data."):])

	r := rego.New(
		rego.Module(cr.rule.Name, cr.rule.Rego),
		rego.Query(query),
		rego.Input(input),
	)
	results, err := r.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("rego evaluation error: %w", err)
	}

	var violations []Violation
	for _, res := range results {
		for _, expr := range res.Expressions {
			denySet, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, d := range denySet {
				violations = append(violations, e.buildViolation(cr.rule, d))
			}
		}
	}
	return violations, nil
}

// buildViolation converts one deny-set entry into a Violation. Entries are
// either plain strings or objects with message/severity/component keys.
func (e *Engine) buildViolation(rule *Rule, entry interface{}) Violation {
	v := Violation{Rule: rule.Name, Severity: rule.Severity}

	switch value := entry.(type) {
	case string:
		v.Message = value
	case map[string]interface{}:
		if msg, ok := value["message"].(string); ok {
			v.Message = msg
		}
		if sev, ok := value["severity"].(string); ok {
			v.Severity = Severity(sev)
		}
		if comp, ok := value["component"].(string); ok {
			v.Component = comp
		}
	default:
		v.Message = fmt.Sprintf("%v", entry)
	}
	return v
}

// LoadRules compiles additional rules from files or directories. Loaded
// rules may shadow builtins of the same name.
func (e *Engine) LoadRules(ctx context.Context, paths []string) error {
	loader := NewLoader(e.logger)
	loaded, err := loader.LoadFromPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	return e.ReplaceRules(loaded)
}

// ReplaceRules swaps in a new set of loaded rules on top of the builtins.
func (e *Engine) ReplaceRules(loaded []Rule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = make(map[string]*compiledRule)
	if err := e.loadBuiltinRulesLocked(); err != nil {
		return err
	}
	for i := range loaded {
		if err := e.compileLocked(&loaded[i]); err != nil {
			return fmt.Errorf("failed to compile rule %s: %w", loaded[i].Name, err)
		}
	}

	e.logger.Info().Int("count", len(loaded)).Msg("rules loaded")
	return nil
}

// WatchRules reloads rules whenever a file under paths changes. Each
// reload replaces the custom rule set on top of the builtins and then
// calls onReload, if set. Watching stops when ctx is cancelled.
func (e *Engine) WatchRules(ctx context.Context, paths []string, onReload func()) error {
	loader := NewLoader(e.logger)
	return loader.Watch(ctx, paths, func(loaded []Rule) error {
		if err := e.ReplaceRules(loaded); err != nil {
			return err
		}
		if onReload != nil {
			onReload()
		}
		return nil
	})
}

// Get returns a rule by name.
func (e *Engine) Get(name string) (*Rule, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cr, exists := e.rules[name]
	if !exists {
		return nil, fmt.Errorf("rule not found: %s", name)
	}
	return cr.rule, nil
}

// List returns all loaded rules sorted by name.
func (e *Engine) List() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list := make([]Rule, 0, len(e.rules))
	for _, name := range e.sortedNames() {
		list = append(list, *e.rules[name].rule)
	}
	return list
}

// SetEnabled enables or disables a rule by name.
func (e *Engine) SetEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cr, exists := e.rules[name]
	if !exists {
		return fmt.Errorf("rule not found: %s", name)
	}
	cr.rule.Enabled = enabled
	e.logger.Info().Str("rule", name).Bool("enabled", enabled).Msg("rule toggled")
	return nil
}

func (e *Engine) loadBuiltinRules() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadBuiltinRulesLocked()
}

func (e *Engine) loadBuiltinRulesLocked() error {
	builtins := BuiltinRules()
	for i := range builtins {
		if err := e.compileLocked(&builtins[i]); err != nil {
			return fmt.Errorf("built-in rule %s: %w", builtins[i].Name, err)
		}
	}
	return nil
}

func (e *Engine) compileLocked(rule *Rule) error {
	module, err := ast.ParseModule(rule.Name, rule.Rego)
	if err != nil {
		return fmt.Errorf("failed to parse rule: %w", err)
	}
	if !strings.HasPrefix(module.Package.Path.String(), "data.") {
		return fmt.Errorf("rule package must live under data")
	}

	e.rules[rule.Name] = &compiledRule{
		rule:     rule,
		module:   module,
		compiled: time.Now(),
	}
	return nil
}

func (e *Engine) sortedNames() []string {
	names := make([]string, 0, len(e.rules))
	for name := range e.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reportInput renders a report into the generic JSON shape rules see as
// input, so Rego field access matches the report's wire format.
func reportInput(rep *report.Report) (interface{}, error) {
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report for evaluation: %w", err)
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to decode report for evaluation: %w", err)
	}
	return input, nil
}
