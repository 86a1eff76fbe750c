package dsl

import (
	"fmt"

	"github.com/aretw0/fable/pkg/domain"
)

// Builder accumulates a flow definition.
type Builder struct {
	def   domain.FlowDefinition
	order []string
	nodes map[string]*NodeBuilder
}

// NewFlow creates a builder for the given flow id.
func NewFlow(id string) *Builder {
	return &Builder{
		def:   domain.FlowDefinition{ID: id},
		nodes: make(map[string]*NodeBuilder),
	}
}

// Title sets the flow title.
func (b *Builder) Title(title string) *Builder {
	b.def.Title = title
	return b
}

// Start sets the start node id.
func (b *Builder) Start(nodeID string) *Builder {
	b.def.StartNodeID = nodeID
	return b
}

// ExpressionLanguage selects the condition engine ("cel" default, "liquid").
func (b *Builder) ExpressionLanguage(lang string) *Builder {
	b.def.ExpressionLanguage = domain.ExpressionLanguage(lang)
	return b
}

// InitialState seeds the flow state.
func (b *Builder) InitialState(state map[string]any) *Builder {
	b.def.InitialState = state
	return b
}

// StateSchema attaches a JSON-Schema document validated on every mutation.
func (b *Builder) StateSchema(schema map[string]any) *Builder {
	b.def.StateSchema = schema
	return b
}

// AutoAdvanceMode sets the flow-level auto-advance mode.
func (b *Builder) AutoAdvanceMode(mode domain.AutoAdvanceMode) *Builder {
	b.def.AutoAdvanceMode = mode
	return b
}

// Rule appends a global state rule.
func (b *Builder) Rule(rule domain.StateRule) *Builder {
	b.def.StateRules = append(b.def.StateRules, rule)
	return b
}

// Node creates (or reopens) a node in the flow.
func (b *Builder) Node(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Build compiles the definition, checking the structural minimum: a start
// node that exists, unique outlet ids, and resolvable outlet targets.
func (b *Builder) Build() (*domain.FlowDefinition, error) {
	def := b.def
	def.Nodes = make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		def.Nodes = append(def.Nodes, b.nodes[id].node)
	}

	if def.StartNodeID == "" {
		return nil, fmt.Errorf("flow %q: start node not set", def.ID)
	}
	if _, ok := b.nodes[def.StartNodeID]; !ok {
		return nil, fmt.Errorf("flow %q: start node %q not defined", def.ID, def.StartNodeID)
	}

	outletIDs := make(map[string]string)
	for i := range def.Nodes {
		node := &def.Nodes[i]
		for j := range node.Outlets {
			outlet := &node.Outlets[j]
			if owner, dup := outletIDs[outlet.ID]; dup {
				return nil, fmt.Errorf("flow %q: outlet id %q used by both %q and %q", def.ID, outlet.ID, owner, node.ID)
			}
			outletIDs[outlet.ID] = node.ID
			if _, ok := b.nodes[outlet.To]; !ok {
				return nil, fmt.Errorf("flow %q: outlet %q targets undefined node %q", def.ID, outlet.ID, outlet.To)
			}
		}
	}
	return &def, nil
}
