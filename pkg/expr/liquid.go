package expr

import (
	"fmt"
	"strings"

	"github.com/osteele/liquid"
	"github.com/osteele/liquid/expressions"
	gocache "github.com/patrickmn/go-cache"
)

// LiquidEvaluator implements Liquid expression semantics: pipe filters and
// truthiness where only false and nil are falsey.
type LiquidEvaluator struct {
	engine   *liquid.Engine
	config   expressions.Config
	compiled *gocache.Cache
}

// NewLiquidEvaluator creates an evaluator with a common filter set
// registered and a bounded TTL cache of parsed expressions.
func NewLiquidEvaluator() *LiquidEvaluator {
	cfg := expressions.NewConfig()
	registerFilters(&cfg)
	return &LiquidEvaluator{
		engine:   liquid.NewEngine(),
		config:   cfg,
		compiled: gocache.New(programCacheTTL, programCacheCleanup),
	}
}

func registerFilters(cfg *expressions.Config) {
	cfg.AddFilter("upcase", strings.ToUpper)
	cfg.AddFilter("downcase", strings.ToLower)
	cfg.AddFilter("strip", strings.TrimSpace)
	cfg.AddFilter("append", func(s, suffix string) string { return s + suffix })
	cfg.AddFilter("plus", func(a, b float64) float64 { return a + b })
	cfg.AddFilter("minus", func(a, b float64) float64 { return a - b })
	cfg.AddFilter("times", func(a, b float64) float64 { return a * b })
	cfg.AddFilter("size", func(v any) int {
		switch val := v.(type) {
		case string:
			return len(val)
		case []any:
			return len(val)
		case map[string]any:
			return len(val)
		default:
			return 0
		}
	})
	cfg.AddFilter("default", func(v, fallback any) any {
		if v == nil || v == false || v == "" {
			return fallback
		}
		return v
	})
}

func (e *LiquidEvaluator) parse(source string) (expressions.Expression, error) {
	if cached, ok := e.compiled.Get(source); ok {
		return cached.(expressions.Expression), nil
	}
	parsed, err := expressions.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}
	e.compiled.Set(source, parsed, gocache.DefaultExpiration)
	return parsed, nil
}

// Evaluate computes the value of a Liquid expression against vars.
func (e *LiquidEvaluator) Evaluate(source string, vars map[string]any) (out any, err error) {
	parsed, err := e.parse(source)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The expressions package panics on some runtime faults.
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("evaluate %q: %v", source, r)
		}
	}()
	ctx := expressions.NewContext(vars, e.config)
	result, err := parsed.Evaluate(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", source, err)
	}
	return result, nil
}

// EvaluateCondition applies Liquid truthiness: only false and nil are falsey.
func (e *LiquidEvaluator) EvaluateCondition(source string, vars map[string]any) (bool, error) {
	out, err := e.Evaluate(source, vars)
	if err != nil {
		return false, err
	}
	return out != nil && out != false, nil
}

// Compile validates syntax without evaluating.
func (e *LiquidEvaluator) Compile(source string) error {
	_, err := e.parse(source)
	return err
}

// ClearCache drops parsed expressions.
func (e *LiquidEvaluator) ClearCache() {
	e.compiled.Flush()
}

// RenderTemplate renders a full Liquid template ({{ ... }} / {% ... %}
// syntax) against vars. Used by hosts that author node content in Liquid
// rather than ${...} markers.
func (e *LiquidEvaluator) RenderTemplate(template string, vars map[string]any) (string, error) {
	out, err := e.engine.ParseAndRenderString(template, liquid.Bindings(vars))
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return out, nil
}
