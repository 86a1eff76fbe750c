package dsl

import "github.com/aretw0/fable/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Title sets the node title.
func (n *NodeBuilder) Title(title string) *NodeBuilder {
	n.node.Title = title
	return n
}

// Content sets the node content. ${...} markers interpolate against live
// state at read time.
func (n *NodeBuilder) Content(content string) *NodeBuilder {
	n.node.Content = content
	return n
}

// AutoAdvance marks the node to advance without host input.
func (n *NodeBuilder) AutoAdvance() *NodeBuilder {
	n.node.IsAutoAdvance = true
	return n
}

// Set appends a state action assigning a literal value on entry.
func (n *NodeBuilder) Set(target string, value any) *NodeBuilder {
	n.node.Actions = append(n.node.Actions, domain.StateAction{
		Type:   domain.ActionSet,
		Target: target,
		Value:  value,
	})
	return n
}

// Compute appends a state action assigning an evaluated expression on entry.
func (n *NodeBuilder) Compute(target, expression string) *NodeBuilder {
	n.node.Actions = append(n.node.Actions, domain.StateAction{
		Type:       domain.ActionSet,
		Target:     target,
		Expression: expression,
	})
	return n
}

// Outlet appends a transition to another node and opens its builder.
func (n *NodeBuilder) Outlet(id, to string) *OutletBuilder {
	n.node.Outlets = append(n.node.Outlets, domain.Outlet{ID: id, To: to})
	return &OutletBuilder{
		node: n,
		idx:  len(n.node.Outlets) - 1,
	}
}

// Node closes this node and opens (or reopens) another.
func (n *NodeBuilder) Node(id string) *NodeBuilder {
	return n.builder.Node(id)
}

// Build closes this node and compiles the flow.
func (n *NodeBuilder) Build() (*domain.FlowDefinition, error) {
	return n.builder.Build()
}

// OutletBuilder configures one transition. It addresses the outlet by
// index; appending siblings may reallocate the slice.
type OutletBuilder struct {
	node *NodeBuilder
	idx  int
}

func (o *OutletBuilder) outlet() *domain.Outlet {
	return &o.node.node.Outlets[o.idx]
}

// Label sets the choice label shown to the host.
func (o *OutletBuilder) Label(label string) *OutletBuilder {
	o.outlet().Label = label
	return o
}

// When guards the transition with a condition expression.
func (o *OutletBuilder) When(condition string) *OutletBuilder {
	o.outlet().Condition = condition
	return o
}

// Set appends a state action assigning a literal value when the outlet is
// taken.
func (o *OutletBuilder) Set(target string, value any) *OutletBuilder {
	o.outlet().Actions = append(o.outlet().Actions, domain.StateAction{
		Type:   domain.ActionSet,
		Target: target,
		Value:  value,
	})
	return o
}

// Compute appends a state action assigning an evaluated expression when the
// outlet is taken.
func (o *OutletBuilder) Compute(target, expression string) *OutletBuilder {
	o.outlet().Actions = append(o.outlet().Actions, domain.StateAction{
		Type:       domain.ActionSet,
		Target:     target,
		Expression: expression,
	})
	return o
}

// Outlet appends a sibling transition on the same node.
func (o *OutletBuilder) Outlet(id, to string) *OutletBuilder {
	return o.node.Outlet(id, to)
}

// Done returns to the node builder.
func (o *OutletBuilder) Done() *NodeBuilder {
	return o.node
}

// Node closes the current node and opens (or reopens) another.
func (o *OutletBuilder) Node(id string) *NodeBuilder {
	return o.node.builder.Node(id)
}

// Build closes the current node and compiles the flow.
func (o *OutletBuilder) Build() (*domain.FlowDefinition, error) {
	return o.node.builder.Build()
}
