// Package graph provides lookup maps, topology-inferred node types and
// traversal analysis (reachability, depth, cycles, bounded path
// enumeration) over a flow definition. A Graph is built once per
// definition; analysis results are held in bounded TTL caches and always
// returned as copies, never as shared mutable state.
package graph

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/aretw0/fable/pkg/domain"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Graph indexes a flow definition for traversal queries.
type Graph struct {
	def     *domain.FlowDefinition
	nodes   map[string]*domain.Node
	outlets map[string]*domain.Outlet
	// outletOwner maps outlet id -> owning node id.
	outletOwner map[string]string
	incoming    map[string]int
	outgoing    map[string]int
	cache       *gocache.Cache
}

// New builds the lookup maps for a definition. The definition must not be
// mutated afterwards; the engine treats it as immutable once execution
// starts.
func New(def *domain.FlowDefinition) *Graph {
	g := &Graph{
		def:         def,
		nodes:       make(map[string]*domain.Node, len(def.Nodes)),
		outlets:     make(map[string]*domain.Outlet),
		outletOwner: make(map[string]string),
		incoming:    make(map[string]int),
		outgoing:    make(map[string]int),
		cache:       gocache.New(cacheTTL, cacheCleanup),
	}
	for i := range def.Nodes {
		node := &def.Nodes[i]
		g.nodes[node.ID] = node
	}
	for i := range def.Nodes {
		node := &def.Nodes[i]
		for j := range node.Outlets {
			outlet := &node.Outlets[j]
			g.outlets[outlet.ID] = outlet
			g.outletOwner[outlet.ID] = node.ID
			g.outgoing[node.ID]++
			if _, ok := g.nodes[outlet.To]; ok {
				g.incoming[outlet.To]++
			}
		}
	}
	return g
}

// Definition returns the underlying flow definition.
func (g *Graph) Definition() *domain.FlowDefinition { return g.def }

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *domain.Node { return g.nodes[id] }

// Outlet returns the outlet with the given id, or nil.
func (g *Graph) Outlet(id string) *domain.Outlet { return g.outlets[id] }

// OutletOwner returns the id of the node owning an outlet.
func (g *Graph) OutletOwner(outletID string) string { return g.outletOwner[outletID] }

// NodeIDs returns all node ids in declaration order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.def.Nodes))
	for i := range g.def.Nodes {
		ids[i] = g.def.Nodes[i].ID
	}
	return ids
}

// NodeType infers a node's type from topology: isolated, start, end,
// decision or action. Unknown ids yield the empty string.
func (g *Graph) NodeType(id string) domain.NodeType {
	if _, ok := g.nodes[id]; !ok {
		return ""
	}
	in, out := g.incoming[id], g.outgoing[id]
	switch {
	case in == 0 && out == 0:
		return domain.NodeTypeIsolated
	case in == 0:
		return domain.NodeTypeStart
	case out == 0:
		return domain.NodeTypeEnd
	case out > 1:
		return domain.NodeTypeDecision
	default:
		return domain.NodeTypeAction
	}
}

// start resolves an optional start override to a concrete node id.
func (g *Graph) start(override string) string {
	if override != "" {
		return override
	}
	return g.def.StartNodeID
}
