// Package interpolate substitutes ${expression} placeholders in node text
// with live-state-derived values. Interpolation never fails as a whole: a
// broken expression resolves to an empty string and is reported in the
// result, so it is safe on every render of a node's title or content.
package interpolate

import (
	"strings"

	"github.com/aretw0/fable/pkg/expr"
)

// escapeToken temporarily stands in for `\${` so escaped markers survive
// the interpolation pass and are restored literally (without the
// backslash).
const escapeToken = "\x00esc-marker\x00"

// ExpressionError records a single placeholder that failed to evaluate.
type ExpressionError struct {
	Expression string `json:"expression"`
	Message    string `json:"message"`
}

// Result is the outcome of one interpolation pass.
type Result struct {
	Content           string            `json:"content"`
	HasInterpolations bool              `json:"hasInterpolations"`
	Errors            []ExpressionError `json:"errors,omitempty"`
}

// Interpolator renders ${...} markers through an expression evaluator.
type Interpolator struct {
	eval expr.Evaluator
}

// New creates an interpolator bound to an evaluator.
func New(eval expr.Evaluator) *Interpolator {
	return &Interpolator{eval: eval}
}

// HasMarkers reports whether text contains an unescaped ${...} marker.
// Used to skip allocation on marker-free reads.
func HasMarkers(text string) bool {
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '$' && text[i+1] == '{' {
			if i > 0 && text[i-1] == '\\' {
				continue
			}
			return true
		}
	}
	return false
}

// Interpolate evaluates every ${expr} marker in text against state.
// Escaped markers (`\${...}`) are restored literally. One nested brace
// level is supported inside an expression (ternaries, object literals).
func (i *Interpolator) Interpolate(text string, state map[string]any) Result {
	res := Result{}

	// Protect escaped markers from the scan.
	protected := strings.ReplaceAll(text, `\${`, escapeToken)

	var out strings.Builder
	rest := protected
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])

		exprStart := start + 2
		end := matchClosingBrace(rest, exprStart)
		if end < 0 {
			// Unterminated marker: emit the remainder literally.
			out.WriteString(rest[start:])
			break
		}

		source := rest[exprStart:end]
		res.HasInterpolations = true

		value, err := i.eval.Evaluate(source, state)
		if err != nil {
			res.Errors = append(res.Errors, ExpressionError{
				Expression: source,
				Message:    err.Error(),
			})
		} else {
			out.WriteString(FormatValue(value))
		}

		rest = rest[end+1:]
	}

	res.Content = strings.ReplaceAll(out.String(), escapeToken, "${")
	return res
}

// matchClosingBrace finds the index of the brace closing the marker whose
// expression starts at from, allowing one nested brace level. Returns -1
// when unterminated.
func matchClosingBrace(s string, from int) int {
	depth := 0
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}
