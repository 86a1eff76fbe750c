package expr

import (
	"fmt"

	"github.com/aretw0/fable/pkg/domain"
)

// Evaluator is the language-agnostic contract for expression evaluation.
// Implementations must be safe for repeated calls with different variable
// sets; compiled forms are cached internally.
type Evaluator interface {
	// Evaluate computes the value of an expression against the given
	// variables. Syntax and runtime errors are returned, never swallowed.
	// Unknown variables resolve to nil rather than erroring, so arithmetic
	// on a missing operand surfaces as a runtime error instead of silently
	// producing a value.
	Evaluate(source string, vars map[string]any) (any, error)

	// EvaluateCondition computes an expression and coerces it to a boolean
	// per the language's truthiness rules. A non-boolean result in a
	// strict-boolean language is an error.
	EvaluateCondition(source string, vars map[string]any) (bool, error)

	// Compile checks the expression's syntax without evaluating it.
	Compile(source string) error

	// ClearCache drops all cached compiled forms.
	ClearCache()
}

// ForLanguage returns the evaluator for a flow's declared language.
// An empty language selects CEL.
func ForLanguage(lang domain.ExpressionLanguage) (Evaluator, error) {
	switch lang {
	case domain.LanguageCEL, "":
		return NewExprEvaluator(), nil
	case domain.LanguageLiquid:
		return NewLiquidEvaluator(), nil
	default:
		return nil, fmt.Errorf("unsupported expression language %q", lang)
	}
}
