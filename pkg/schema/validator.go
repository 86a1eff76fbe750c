package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	gocache "github.com/patrickmn/go-cache"
)

const (
	compiledTTL     = 15 * time.Minute
	compiledCleanup = 30 * time.Minute
)

func init() {
	// JSON-Schema string formats the engine guarantees support for.
	openapi3.DefineStringFormatValidator("email",
		openapi3.NewRegexpFormatValidator(`^[^@\s]+@[^@\s]+\.[^@\s]+$`))
	openapi3.DefineStringFormatValidator("date",
		openapi3.NewRegexpFormatValidator(`^\d{4}-\d{2}-\d{2}$`))
}

// Result is the outcome of one validation pass.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Validator validates state objects against JSON-Schema documents, caching
// compiled schemas by their serialized form.
type Validator struct {
	compiled *gocache.Cache
}

// NewValidator creates a validator with a bounded TTL compilation cache.
func NewValidator() *Validator {
	return &Validator{compiled: gocache.New(compiledTTL, compiledCleanup)}
}

func (v *Validator) compile(doc map[string]any) (*openapi3.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize schema: %w", err)
	}
	key := string(raw)
	if cached, ok := v.compiled.Get(key); ok {
		return cached.(*openapi3.Schema), nil
	}

	var sch openapi3.Schema
	if err := sch.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v.compiled.Set(key, &sch, gocache.DefaultExpiration)
	return &sch, nil
}

// Validate checks data against the schema document. The error return covers
// schema compilation failures only; data violations land in the Result.
func (v *Validator) Validate(data map[string]any, doc map[string]any) (Result, error) {
	if len(doc) == 0 {
		return Result{Valid: true}, nil
	}

	sch, err := v.compile(doc)
	if err != nil {
		return Result{}, err
	}

	err = sch.VisitJSON(map[string]any(data),
		openapi3.MultiErrors(),
		openapi3.EnableFormatValidation(),
	)
	if err == nil {
		return Result{Valid: true}, nil
	}
	return Result{Valid: false, Errors: collectErrors(err)}, nil
}

// ClearCache drops compiled schemas.
func (v *Validator) ClearCache() {
	v.compiled.Flush()
}

func collectErrors(err error) []FieldError {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []FieldError
		for _, sub := range multi {
			out = append(out, collectErrors(sub)...)
		}
		return out
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		return []FieldError{{
			Path:    strings.Join(schemaErr.JSONPointer(), "."),
			Message: schemaErr.Reason,
		}}
	}

	return []FieldError{{Message: err.Error()}}
}
