package analysis

import (
	"fmt"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/expr"
	"github.com/aretw0/fable/pkg/graph"
)

// Path-test issue codes.
const (
	CodeStepBudgetExceeded IssueCode = "step_budget_exceeded"
	CodeDanglingOutlet     IssueCode = "dangling_outlet"
	CodeDeadEnd            IssueCode = "dead_end"
	CodeLongPath           IssueCode = "long_path"
)

// Revisiting a node more than this many times within one path abandons the
// branch; exhaustive search over a cyclic graph has to stop somewhere.
const maxNodeRepeats = 3

// PathTestOptions bounds RunPathTests.
type PathTestOptions struct {
	// MaxSteps caps the length of a single path (default 50).
	MaxSteps int
	// MaxPaths caps the number of explored paths (default 1000).
	MaxPaths int
	// Verbose includes every explored path in the rendered report.
	Verbose bool
}

// TestedPath is one explored traversal.
type TestedPath struct {
	Nodes     []string       `json:"nodes"`
	Outlets   []string       `json:"outlets,omitempty"`
	Completed bool           `json:"completed"`
	Steps     int            `json:"steps"`
	State     map[string]any `json:"state,omitempty"`
}

// Coverage reports visited versus total nodes and outlets.
type Coverage struct {
	NodesTotal       int      `json:"nodesTotal"`
	NodesVisited     int      `json:"nodesVisited"`
	NodePercent      float64  `json:"nodePercent"`
	UncoveredNodes   []string `json:"uncoveredNodes,omitempty"`
	OutletsTotal     int      `json:"outletsTotal"`
	OutletsVisited   int      `json:"outletsVisited"`
	OutletPercent    float64  `json:"outletPercent"`
	UncoveredOutlets []string `json:"uncoveredOutlets,omitempty"`
}

// PathReport is the result of exhaustive bounded path exploration.
type PathReport struct {
	FlowID    string       `json:"flowId"`
	Paths     []TestedPath `json:"paths"`
	Completed int          `json:"completed"`
	Errors    []Issue      `json:"errors,omitempty"`
	Warnings  []Issue      `json:"warnings,omitempty"`
	Coverage  Coverage     `json:"coverage"`
	Verbose   bool         `json:"-"`
}

type pathState struct {
	nodeID  string
	nodes   []string
	outlets []string
	state   map[string]any
	visits  map[string]int
}

// RunPathTests explores every path from the start node breadth-first,
// threading a per-path state snapshot: node and outlet actions are applied
// along the way and outlet conditions filter the available transitions.
func RunPathTests(def *domain.FlowDefinition, opts PathTestOptions) *PathReport {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = graph.DefaultMaxPathDepth
	}
	if opts.MaxPaths <= 0 {
		opts.MaxPaths = graph.DefaultMaxPaths
	}

	report := &PathReport{FlowID: def.ID, Verbose: opts.Verbose}
	g := graph.New(def)
	eval, err := expr.ForLanguage(def.ExpressionLanguage)
	if err != nil {
		report.Errors = append(report.Errors, Issue{
			Code:     CodeInvalidCondition,
			Severity: SeverityError,
			Message:  err.Error(),
		})
		return report
	}

	start := g.Node(def.StartNodeID)
	if start == nil {
		report.Errors = append(report.Errors, Issue{
			Code:     CodeMissingStartNode,
			Severity: SeverityError,
			Message:  fmt.Sprintf("start node %q does not exist", def.StartNodeID),
		})
		return report
	}

	visitedNodes := map[string]bool{}
	visitedOutlets := map[string]bool{}
	queue := []pathState{{
		nodeID: start.ID,
		nodes:  []string{start.ID},
		state:  domain.DeepCopyState(def.InitialState),
		visits: map[string]int{start.ID: 1},
	}}

	for len(queue) > 0 && len(report.Paths) < opts.MaxPaths {
		work := queue[0]
		queue = queue[1:]
		visitedNodes[work.nodeID] = true

		node := g.Node(work.nodeID)
		if len(node.Actions) > 0 {
			work.state = applyPathActions(work.state, node.Actions, eval)
		}

		if len(work.nodes) > opts.MaxSteps {
			report.Errors = append(report.Errors, Issue{
				Code:     CodeStepBudgetExceeded,
				Severity: SeverityError,
				NodeID:   work.nodeID,
				Message:  fmt.Sprintf("path through %q exceeds %d steps; likely an infinite loop", work.nodeID, opts.MaxSteps),
			})
			report.Paths = append(report.Paths, finishTestedPath(work, false))
			continue
		}

		if len(node.Outlets) == 0 {
			report.Completed++
			report.Paths = append(report.Paths, finishTestedPath(work, true))
			continue
		}

		followed := false
		for i := range node.Outlets {
			outlet := &node.Outlets[i]
			target := g.Node(outlet.To)
			if target == nil {
				report.Errors = append(report.Errors, Issue{
					Code:     CodeDanglingOutlet,
					Severity: SeverityError,
					NodeID:   node.ID,
					OutletID: outlet.ID,
					Message:  fmt.Sprintf("outlet %q targets non-existent node %q", outlet.ID, outlet.To),
				})
				continue
			}
			if outlet.Condition != "" {
				ok, err := eval.EvaluateCondition(outlet.Condition, work.state)
				if err != nil || !ok {
					continue
				}
			}

			visitedOutlets[outlet.ID] = true
			next := pathState{
				nodeID:  outlet.To,
				nodes:   append(append([]string(nil), work.nodes...), outlet.To),
				outlets: append(append([]string(nil), work.outlets...), outlet.ID),
				state:   work.state,
				visits:  copyVisits(work.visits),
			}
			if len(outlet.Actions) > 0 {
				next.state = applyPathActions(work.state, outlet.Actions, eval)
			} else {
				next.state = domain.DeepCopyState(work.state)
			}
			next.visits[outlet.To]++

			if next.visits[outlet.To] > maxNodeRepeats {
				// Abandon this branch rather than chase the cycle forever.
				report.Warnings = append(report.Warnings, Issue{
					Code:     CodeLongPath,
					Severity: SeverityWarning,
					NodeID:   outlet.To,
					Message:  fmt.Sprintf("node %q repeats more than %d times in one path; branch abandoned", outlet.To, maxNodeRepeats),
				})
				report.Paths = append(report.Paths, finishTestedPath(next, false))
				followed = true
				continue
			}

			queue = append(queue, next)
			followed = true
		}

		if !followed {
			// Outlets exist but none can fire under the threaded state.
			report.Errors = append(report.Errors, Issue{
				Code:     CodeDeadEnd,
				Severity: SeverityError,
				NodeID:   node.ID,
				Message:  fmt.Sprintf("node %q has outlets but no traversable transition", node.ID),
			})
			report.Paths = append(report.Paths, finishTestedPath(work, false))
		}
	}

	report.Coverage = buildCoverage(g, visitedNodes, visitedOutlets)
	return report
}

func finishTestedPath(work pathState, completed bool) TestedPath {
	return TestedPath{
		Nodes:     work.nodes,
		Outlets:   work.outlets,
		Completed: completed,
		Steps:     len(work.nodes),
		State:     work.state,
	}
}

func buildCoverage(g *graph.Graph, nodes, outlets map[string]bool) Coverage {
	def := g.Definition()
	cov := Coverage{
		NodesTotal:   len(def.Nodes),
		NodesVisited: len(nodes),
	}
	for i := range def.Nodes {
		if !nodes[def.Nodes[i].ID] {
			cov.UncoveredNodes = append(cov.UncoveredNodes, def.Nodes[i].ID)
		}
		for j := range def.Nodes[i].Outlets {
			cov.OutletsTotal++
			id := def.Nodes[i].Outlets[j].ID
			if outlets[id] {
				cov.OutletsVisited++
			} else {
				cov.UncoveredOutlets = append(cov.UncoveredOutlets, id)
			}
		}
	}
	if cov.NodesTotal > 0 {
		cov.NodePercent = 100 * float64(cov.NodesVisited) / float64(cov.NodesTotal)
	}
	if cov.OutletsTotal > 0 {
		cov.OutletPercent = 100 * float64(cov.OutletsVisited) / float64(cov.OutletsTotal)
	}
	return cov
}

func applyPathActions(st map[string]any, actions []domain.StateAction, eval expr.Evaluator) map[string]any {
	next := domain.DeepCopyState(st)
	for _, action := range actions {
		if action.Type != domain.ActionSet || action.Target == "" {
			continue
		}
		value := domain.DeepCopyValue(action.Value)
		if action.Expression != "" {
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

func copyVisits(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
