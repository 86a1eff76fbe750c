package domain

import "strings"

// GetPath resolves a dotted path against a JSON-like state tree. The second
// return reports whether every segment resolved.
func GetPath(state map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current any = state
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// SetPath assigns a value at a dotted path, creating intermediate objects
// along the way. A non-object intermediate is replaced by a fresh object.
func SetPath(state map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := state
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[seg] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// DeepCopyState returns an independent copy of a state tree. nil input
// yields an empty map so callers can mutate the result safely.
func DeepCopyState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = DeepCopyValue(v)
	}
	return out
}

// DeepCopyValue copies a JSON-like value (null/bool/number/string/array/map).
// Scalar types are returned as-is.
func DeepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopyState(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DeepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
