package domain

// ExpressionLanguage selects which evaluator a flow's conditions and
// interpolations run through.
type ExpressionLanguage string

const (
	// LanguageCEL is the default expression language: CEL-style expressions
	// evaluated directly against the state map.
	LanguageCEL ExpressionLanguage = "cel"
	// LanguageLiquid uses Liquid expression semantics (pipe filters,
	// nil/false-only falsiness).
	LanguageLiquid ExpressionLanguage = "liquid"
)

// AutoAdvanceMode controls whether nodes advance without an explicit choice.
type AutoAdvanceMode string

const (
	// AutoAdvanceAlways advances through every node that has outlets.
	AutoAdvanceAlways AutoAdvanceMode = "always"
	// AutoAdvanceDefault advances only through nodes flagged IsAutoAdvance.
	AutoAdvanceDefault AutoAdvanceMode = "default"
	// AutoAdvanceNever disables auto-advance regardless of node flags.
	AutoAdvanceNever AutoAdvanceMode = "never"
)

// FlowDefinition is the canonical wire format for a flow. Editors, importers
// and stores all produce/consume this shape; the engine treats it as
// immutable once execution starts.
type FlowDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// ExpressionLanguage defaults to LanguageCEL when empty.
	ExpressionLanguage ExpressionLanguage `json:"expressionLanguage,omitempty" yaml:"expressionLanguage,omitempty"`

	// StartNodeID must reference a node in Nodes. Checked at Start().
	StartNodeID string `json:"startNodeId" yaml:"startNodeId"`

	// InitialState seeds the state manager. The engine deep-clones it so a
	// running flow never aliases the definition.
	InitialState map[string]any `json:"initialState,omitempty" yaml:"initialState,omitempty"`

	// StateSchema is a JSON-Schema document validated against the state on
	// every mutation, when present.
	StateSchema map[string]any `json:"stateSchema,omitempty" yaml:"stateSchema,omitempty"`

	// StateRules are global condition->effect triggers checked after every
	// state mutation, independent of the current node.
	StateRules []StateRule `json:"stateRules,omitempty" yaml:"stateRules,omitempty"`

	AutoAdvanceMode AutoAdvanceMode `json:"autoAdvanceMode,omitempty" yaml:"autoAdvanceMode,omitempty"`

	Nodes []Node `json:"nodes" yaml:"nodes"`
}

// FindNode returns the node with the given id, or nil.
func (f *FlowDefinition) FindNode(id string) *Node {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}
