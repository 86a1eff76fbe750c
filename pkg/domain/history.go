package domain

import "time"

// DefaultMaxHistorySize bounds the history ring when the host does not
// configure one.
const DefaultMaxHistorySize = 100

// ExecutionStep is one history entry: a point-in-time snapshot of the node
// entered, the choice that led there, and the state after entry actions ran.
// Snapshots are deep copies and never alias live state.
type ExecutionStep struct {
	Node      Node           `json:"node"`
	ChoiceID  string         `json:"choiceId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	State     map[string]any `json:"state"`
}
