package expr

import (
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	gocache "github.com/patrickmn/go-cache"
)

const (
	programCacheTTL     = 10 * time.Minute
	programCacheCleanup = 30 * time.Minute
)

// ExprEvaluator implements the CEL-style language on expr-lang/expr.
// State fields are merged directly into the evaluation environment (no
// wrapper namespace), and unknown identifiers evaluate to nil.
type ExprEvaluator struct {
	programs *gocache.Cache
}

// NewExprEvaluator creates an evaluator with a bounded TTL program cache.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{
		programs: gocache.New(programCacheTTL, programCacheCleanup),
	}
}

func (e *ExprEvaluator) compile(source string) (*vm.Program, error) {
	if cached, ok := e.programs.Get(source); ok {
		return cached.(*vm.Program), nil
	}
	program, err := exprlang.Compile(source, exprlang.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	e.programs.Set(source, program, gocache.DefaultExpiration)
	return program, nil
}

// Evaluate runs the expression against vars.
func (e *ExprEvaluator) Evaluate(source string, vars map[string]any) (any, error) {
	program, err := e.compile(source)
	if err != nil {
		return nil, err
	}
	if vars == nil {
		vars = map[string]any{}
	}
	out, err := exprlang.Run(program, vars)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", source, err)
	}
	return out, nil
}

// EvaluateCondition evaluates and requires a boolean result.
func (e *ExprEvaluator) EvaluateCondition(source string, vars map[string]any) (bool, error) {
	out, err := e.Evaluate(source, vars)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q returned non-boolean %T", source, out)
	}
	return b, nil
}

// Compile validates syntax without running the expression.
func (e *ExprEvaluator) Compile(source string) error {
	_, err := e.compile(source)
	return err
}

// ClearCache drops compiled programs.
func (e *ExprEvaluator) ClearCache() {
	e.programs.Flush()
}
