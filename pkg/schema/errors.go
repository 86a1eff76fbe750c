package schema

import (
	"fmt"
	"strings"
)

// FieldError describes a single validation failure with the failing path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ViolationError aggregates every field error from one validation pass.
type ViolationError struct {
	Errors []FieldError
}

func (e *ViolationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.String()
	}
	return fmt.Sprintf("schema validation failed: %s", strings.Join(msgs, "; "))
}
