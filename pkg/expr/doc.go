// Package expr provides the pluggable expression evaluators behind
// conditions, computed action values and content interpolation. Two
// implementations ship: a CEL-style engine backed by expr-lang/expr and a
// Liquid engine backed by osteele/liquid. Both expose the same contract so
// the rest of the system stays language-agnostic.
package expr
