package domain

// NodeType is inferred from graph topology at load time, never authored.
// Inference avoids drift between a declared type and the actual shape of
// the graph.
type NodeType string

const (
	// NodeTypeIsolated has no incoming and no outgoing outlets.
	NodeTypeIsolated NodeType = "isolated"
	// NodeTypeStart has no incoming outlets and at least one outgoing.
	NodeTypeStart NodeType = "start"
	// NodeTypeEnd has at least one incoming outlet and none outgoing.
	NodeTypeEnd NodeType = "end"
	// NodeTypeDecision has more than one outgoing outlet.
	NodeTypeDecision NodeType = "decision"
	// NodeTypeAction has exactly one outgoing outlet and at least one incoming.
	NodeTypeAction NodeType = "action"
)

// Node is a logical unit in the graph: content to present, actions to apply
// on entry, and outlets leading onward.
type Node struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`

	// Content may contain ${...} interpolation markers; it is rendered
	// against live state on every read.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Actions run when the node is entered, before history is recorded.
	Actions []StateAction `json:"actions,omitempty" yaml:"actions,omitempty"`

	// Outlets are evaluated in declaration order (if/elseif semantics).
	Outlets []Outlet `json:"outlets,omitempty" yaml:"outlets,omitempty"`

	// IsAutoAdvance requests automatic traversal through this node's
	// outlets, subject to the flow's AutoAdvanceMode.
	IsAutoAdvance bool `json:"isAutoAdvance,omitempty" yaml:"isAutoAdvance,omitempty"`
}

// FindOutlet returns the outlet with the given id, or nil.
func (n *Node) FindOutlet(id string) *Outlet {
	for i := range n.Outlets {
		if n.Outlets[i].ID == id {
			return &n.Outlets[i]
		}
	}
	return nil
}

// Outlet is a directed, optionally guarded, optionally effectful edge.
type Outlet struct {
	ID    string `json:"id" yaml:"id"`
	To    string `json:"to" yaml:"to"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Condition must evaluate truthy for the outlet to be taken. Empty means
	// always eligible (a "default" outlet in auto-advance resolution).
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Actions run when the outlet is traversed, before the target node's own
	// actions.
	Actions []StateAction `json:"actions,omitempty" yaml:"actions,omitempty"`
}
