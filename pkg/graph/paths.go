package graph

import (
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/expr"
)

// Default bounds for path exploration.
const (
	DefaultMaxPathDepth = 50
	DefaultMaxPaths     = 1000
)

// PathOptions bounds and configures ExploreAllPaths.
type PathOptions struct {
	// Start overrides the flow's start node.
	Start string
	// MaxDepth caps the number of nodes in a single path.
	MaxDepth int
	// MaxPaths caps the total number of enumerated paths.
	MaxPaths int

	// Evaluator enables condition-gated traversal: outlets whose conditions
	// evaluate false under the threaded state are not followed. Nil follows
	// every outlet.
	Evaluator expr.Evaluator
	// InitialState seeds per-path state threading. Node and outlet actions
	// are applied along the way when ApplyActions is set.
	InitialState map[string]any
	ApplyActions bool
}

// Path is one enumerated traversal.
type Path struct {
	Nodes    []string
	Outlets  []string
	HasCycle bool
	// Complete is true when the path terminates at a node with no outlets.
	Complete bool
	// State is the threaded final state (nil unless state threading is on).
	State map[string]any
}

type pathWork struct {
	nodeID  string
	nodes   []string
	outlets []string
	state   map[string]any
	seen    map[string]int
}

// ExploreAllPaths enumerates paths from start breadth-first, bounded by
// MaxDepth and MaxPaths. A path's HasCycle flag is set when any node
// repeats within it.
func (g *Graph) ExploreAllPaths(opts PathOptions) []Path {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxPathDepth
	}
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = DefaultMaxPaths
	}

	from := g.start(opts.Start)
	if g.nodes[from] == nil {
		return nil
	}

	threading := opts.InitialState != nil || opts.ApplyActions
	var initial map[string]any
	if threading {
		initial = domain.DeepCopyState(opts.InitialState)
	}

	var paths []Path
	queue := []pathWork{{
		nodeID: from,
		nodes:  []string{from},
		state:  initial,
		seen:   map[string]int{from: 1},
	}}

	for len(queue) > 0 && len(paths) < opts.MaxPaths {
		work := queue[0]
		queue = queue[1:]

		node := g.nodes[work.nodeID]
		state := work.state
		if node != nil && opts.ApplyActions && len(node.Actions) > 0 {
			state = applyActions(state, node.Actions, opts.Evaluator)
			work.state = state
		}

		terminal := node == nil || len(node.Outlets) == 0 || len(work.nodes) >= opts.MaxDepth
		var followed bool
		if !terminal {
			for i := range node.Outlets {
				outlet := &node.Outlets[i]
				if g.nodes[outlet.To] == nil {
					continue
				}
				if opts.Evaluator != nil && outlet.Condition != "" {
					ok, err := opts.Evaluator.EvaluateCondition(outlet.Condition, state)
					if err != nil || !ok {
						continue
					}
				}

				next := pathWork{
					nodeID:  outlet.To,
					nodes:   append(append([]string(nil), work.nodes...), outlet.To),
					outlets: append(append([]string(nil), work.outlets...), outlet.ID),
					seen:    copySeen(work.seen),
				}
				next.seen[outlet.To]++
				if threading {
					var outletState map[string]any
					if opts.ApplyActions && len(outlet.Actions) > 0 {
						outletState = applyActions(state, outlet.Actions, opts.Evaluator)
					} else {
						outletState = domain.DeepCopyState(state)
					}
					next.state = outletState
				}

				// Bound cycles: a node revisited within the same path is
				// explored at most once more before the branch stops.
				if next.seen[outlet.To] > 2 {
					paths = append(paths, finishPath(next, g, threading))
					if len(paths) >= opts.MaxPaths {
						break
					}
					continue
				}

				queue = append(queue, next)
				followed = true
			}
		}

		if terminal || !followed {
			paths = append(paths, finishPath(work, g, threading))
		}
	}

	return paths
}

func finishPath(work pathWork, g *Graph, threading bool) Path {
	p := Path{
		Nodes:   work.nodes,
		Outlets: work.outlets,
	}
	for _, count := range work.seen {
		if count > 1 {
			p.HasCycle = true
			break
		}
	}
	if node := g.nodes[work.nodeID]; node != nil && len(node.Outlets) == 0 {
		p.Complete = true
	}
	if threading {
		p.State = work.state
	}
	return p
}

func applyActions(state map[string]any, actions []domain.StateAction, eval expr.Evaluator) map[string]any {
	next := domain.DeepCopyState(state)
	for _, action := range actions {
		if action.Type != domain.ActionSet || action.Target == "" {
			continue
		}
		value := domain.DeepCopyValue(action.Value)
		if action.Expression != "" && eval != nil {
			evaluated, err := eval.Evaluate(action.Expression, next)
			if err != nil {
				continue
			}
			value = evaluated
		}
		domain.SetPath(next, action.Target, value)
	}
	return next
}

func copySeen(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
