package graph

import (
	"testing"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:          "linear",
		StartNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Outlets: []domain.Outlet{{ID: "a-b", To: "b"}}},
			{ID: "b", Outlets: []domain.Outlet{{ID: "b-c", To: "c"}}},
			{ID: "c"},
			{ID: "island"},
		},
	}
}

func cyclicFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:          "cyclic",
		StartNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Outlets: []domain.Outlet{{ID: "a-b", To: "b"}}},
			{ID: "b", Outlets: []domain.Outlet{{ID: "b-c", To: "c"}}},
			{ID: "c", Outlets: []domain.Outlet{{ID: "c-a", To: "a"}}},
		},
	}
}

func diamondFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:          "diamond",
		StartNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Outlets: []domain.Outlet{{ID: "a-b", To: "b"}, {ID: "a-c", To: "c"}}},
			{ID: "b", Outlets: []domain.Outlet{{ID: "b-d", To: "d"}}},
			{ID: "c", Outlets: []domain.Outlet{{ID: "c-d", To: "d"}}},
			{ID: "d"},
		},
	}
}

func TestGraph_NodeTypes(t *testing.T) {
	g := New(diamondFlow())

	assert.Equal(t, domain.NodeTypeStart, g.NodeType("a"))
	assert.Equal(t, domain.NodeTypeAction, g.NodeType("b"))
	assert.Equal(t, domain.NodeTypeEnd, g.NodeType("d"))
	assert.Equal(t, domain.NodeType(""), g.NodeType("missing"))

	g2 := New(linearFlow())
	assert.Equal(t, domain.NodeTypeIsolated, g2.NodeType("island"))

	decision := &domain.FlowDefinition{
		StartNodeID: "s",
		Nodes: []domain.Node{
			{ID: "s", Outlets: []domain.Outlet{{ID: "s-d", To: "d"}}},
			{ID: "d", Outlets: []domain.Outlet{{ID: "d-x", To: "x"}, {ID: "d-y", To: "y"}}},
			{ID: "x"},
			{ID: "y"},
		},
	}
	assert.Equal(t, domain.NodeTypeDecision, New(decision).NodeType("d"))
}

func TestGraph_Reachability(t *testing.T) {
	g := New(linearFlow())

	reachable := g.Reachable("")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, reachable)

	// Cached result must be a copy: corrupting the return value must not
	// corrupt later reads.
	reachable[0] = "corrupted"
	assert.ElementsMatch(t, []string{"a", "b", "c"}, g.Reachable(""))

	assert.True(t, g.IsReachable("c", ""))
	assert.False(t, g.IsReachable("island", ""))
	assert.Equal(t, []string{"island"}, g.Unreachable())
}

func TestGraph_Depths(t *testing.T) {
	g := New(diamondFlow())

	depths := g.NodeDepths("")
	assert.Equal(t, 0, depths["a"])
	assert.Equal(t, 1, depths["b"])
	assert.Equal(t, 1, depths["c"])
	assert.Equal(t, 2, depths["d"])

	assert.Equal(t, 3, g.MaxDepth(""))
}

func TestGraph_MaxDepthTerminatesOnCycle(t *testing.T) {
	g := New(cyclicFlow())
	assert.Equal(t, 3, g.MaxDepth(""))
}

func TestGraph_HasCycles(t *testing.T) {
	assert.True(t, New(cyclicFlow()).HasCycles(""))
	// A diamond reconverges but has no back-edge.
	assert.False(t, New(diamondFlow()).HasCycles(""))
	assert.False(t, New(linearFlow()).HasCycles(""))
}

func TestGraph_ExploreAllPaths(t *testing.T) {
	g := New(diamondFlow())

	paths := g.ExploreAllPaths(PathOptions{})
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.True(t, p.Complete)
		assert.False(t, p.HasCycle)
		assert.Equal(t, "d", p.Nodes[len(p.Nodes)-1])
	}
}

func TestGraph_ExploreAllPaths_CycleFlag(t *testing.T) {
	g := New(cyclicFlow())

	paths := g.ExploreAllPaths(PathOptions{MaxDepth: 10})
	require.NotEmpty(t, paths)
	assert.True(t, paths[0].HasCycle)
}

func TestGraph_ExploreAllPaths_ConditionGated(t *testing.T) {
	def := &domain.FlowDefinition{
		StartNodeID: "start",
		Nodes: []domain.Node{
			{
				ID:      "start",
				Actions: []domain.StateAction{{Type: domain.ActionSet, Target: "score", Value: 5}},
				Outlets: []domain.Outlet{
					{ID: "hi", To: "high", Condition: "score > 10"},
					{ID: "lo", To: "low", Condition: "score <= 10"},
				},
			},
			{ID: "high"},
			{ID: "low"},
		},
	}
	g := New(def)

	paths := g.ExploreAllPaths(PathOptions{
		Evaluator:    expr.NewExprEvaluator(),
		InitialState: map[string]any{},
		ApplyActions: true,
	})
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"start", "low"}, paths[0].Nodes)
	assert.EqualValues(t, 5, paths[0].State["score"])
}

func TestGraph_ExploreAllPaths_Bounds(t *testing.T) {
	g := New(diamondFlow())

	paths := g.ExploreAllPaths(PathOptions{MaxPaths: 1})
	assert.Len(t, paths, 1)
}
