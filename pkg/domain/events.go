package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter   EventType = "node_enter"
	EventNodeExit    EventType = "node_exit"
	EventStateChange EventType = "state_change"
	EventAutoAdvance EventType = "auto_advance"
	EventError       EventType = "error"
	EventComplete    EventType = "complete"
)

// Recoverable error event kinds carried by ErrorEvent.Kind.
const (
	ErrKindSchemaValidation    = "schemaValidation"
	ErrKindConditionEvaluation = "conditionEvaluation"
	ErrKindAutoAdvance         = "autoAdvance"
	ErrKindForceTransition     = "forceTransition"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FlowID    string    `json:"flow_id,omitempty"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string   `json:"node_id"`
	NodeType NodeType `json:"node_type"`
}

// StateChangeEvent carries a snapshot of the state after a committed
// mutation.
type StateChangeEvent struct {
	EventBase
	State map[string]any `json:"state"`
}

// AutoAdvanceEvent reports an automatic traversal through an outlet.
type AutoAdvanceEvent struct {
	EventBase
	FromNodeID string `json:"from_node_id"`
	ToNodeID   string `json:"to_node_id"`
	OutletID   string `json:"outlet_id"`
}

// ErrorEvent reports a recoverable failure. Execution continues in the last
// good state; hosts surface these as non-blocking warnings.
type ErrorEvent struct {
	EventBase
	Kind    string     `json:"kind"`
	Message string     `json:"message"`
	NodeID  string     `json:"node_id,omitempty"`
	Rule    *StateRule `json:"rule,omitempty"`
	Details []string   `json:"details,omitempty"`
}

// RuleEvent is emitted by a triggerEvent state rule.
type RuleEvent struct {
	EventBase
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability. Hooks fire
// synchronously on the originating call stack, before the triggering
// operation returns; forced-transition interception depends on that timing.
type LifecycleHooks struct {
	OnNodeEnter   func(*NodeEvent)
	OnNodeExit    func(*NodeEvent)
	OnStateChange func(*StateChangeEvent)
	OnAutoAdvance func(*AutoAdvanceEvent)
	OnError       func(*ErrorEvent)
	OnComplete    func(*NodeEvent)
	OnRuleEvent   func(*RuleEvent)
}

// Merge layers other's non-nil callbacks after h's, returning hooks that
// invoke both.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	merged := h
	if other.OnNodeEnter != nil {
		prev := merged.OnNodeEnter
		merged.OnNodeEnter = func(e *NodeEvent) {
			if prev != nil {
				prev(e)
			}
			other.OnNodeEnter(e)
		}
	}
	if other.OnNodeExit != nil {
		prev := merged.OnNodeExit
		merged.OnNodeExit = func(e *NodeEvent) {
			if prev != nil {
				prev(e)
			}
			other.OnNodeExit(e)
		}
	}
	if other.OnStateChange != nil {
		prev := merged.OnStateChange
		merged.OnStateChange = func(e *StateChangeEvent) {
			if prev != nil {
				prev(e)
			}
			other.OnStateChange(e)
		}
	}
	if other.OnAutoAdvance != nil {
		prev := merged.OnAutoAdvance
		merged.OnAutoAdvance = func(e *AutoAdvanceEvent) {
			if prev != nil {
				prev(e)
			}
			other.OnAutoAdvance(e)
		}
	}
	if other.OnError != nil {
		prev := merged.OnError
		merged.OnError = func(e *ErrorEvent) {
			if prev != nil {
				prev(e)
			}
			other.OnError(e)
		}
	}
	if other.OnComplete != nil {
		prev := merged.OnComplete
		merged.OnComplete = func(e *NodeEvent) {
			if prev != nil {
				prev(e)
			}
			other.OnComplete(e)
		}
	}
	if other.OnRuleEvent != nil {
		prev := merged.OnRuleEvent
		merged.OnRuleEvent = func(e *RuleEvent) {
			if prev != nil {
				prev(e)
			}
			other.OnRuleEvent(e)
		}
	}
	return merged
}
