package domain

// ActionSet is the only action type currently defined.
const ActionSet = "set"

// StateAction mutates one state path. Exactly one of Value/Expression is
// meaningful; Expression wins when both are set.
type StateAction struct {
	Type string `json:"type" yaml:"type"`

	// Target is a dotted path ("player.stats.hp"). Intermediate objects are
	// created when absent.
	Target string `json:"target" yaml:"target"`

	// Value is a literal assigned as-is.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`

	// Expression is evaluated against the working state and its result
	// assigned.
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// RuleAction is the effect a StateRule fires when its condition holds.
type RuleAction string

const (
	// RuleForceTransition asks the engine to jump to the rule's target node.
	// The state manager only reports it; the engine performs the move.
	RuleForceTransition RuleAction = "forceTransition"
	// RuleSetState sets the rule's target path to its value.
	RuleSetState RuleAction = "setState"
	// RuleTriggerEvent emits a named custom event to the host.
	RuleTriggerEvent RuleAction = "triggerEvent"
)

// StateRule is a global trigger evaluated after every state mutation, in
// declaration order, independent of the current node.
type StateRule struct {
	Condition string     `json:"condition" yaml:"condition"`
	Action    RuleAction `json:"action" yaml:"action"`
	Target    string     `json:"target,omitempty" yaml:"target,omitempty"`
	Value     any        `json:"value,omitempty" yaml:"value,omitempty"`
}
