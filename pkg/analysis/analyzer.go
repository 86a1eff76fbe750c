package analysis

import (
	"fmt"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/graph"
)

// Analysis is the combined quality assessment of a flow definition.
type Analysis struct {
	FlowID string `json:"flowId"`
	// Score is a 0-100 heuristic quality score.
	Score int `json:"score"`

	Structure  StructureMetrics `json:"structure"`
	Validation ValidationReport `json:"validation"`
	PathReport *PathReport      `json:"paths,omitempty"`

	Suggestions []string `json:"suggestions,omitempty"`
}

// StructureMetrics summarizes graph shape.
type StructureMetrics struct {
	Nodes       int `json:"nodes"`
	Outlets     int `json:"outlets"`
	EndNodes    int `json:"endNodes"`
	Decisions   int `json:"decisions"`
	Isolated    int `json:"isolated"`
	Unreachable int `json:"unreachable"`
	MaxDepth    int `json:"maxDepth"`
	HasCycles   bool `json:"hasCycles"`
}

// AnalyzeOptions configures Analyze.
type AnalyzeOptions struct {
	// SkipPaths disables the path exploration phase; the score is then
	// computed from structure and validation alone.
	SkipPaths bool
	PathTest  PathTestOptions
}

// Analyze runs validation, structural metrics and (optionally) path
// exploration over a definition, combining them into a single scored
// assessment. The score starts at 100 and loses points per finding:
// 15 per validation error, 3 per warning, plus coverage shortfalls.
func Analyze(def *domain.FlowDefinition, opts AnalyzeOptions) *Analysis {
	g := graph.New(def)
	a := &Analysis{
		FlowID:     def.ID,
		Validation: Validate(def),
		Structure:  buildStructure(g),
	}
	if !opts.SkipPaths && a.Validation.Valid {
		a.PathReport = RunPathTests(def, opts.PathTest)
	}
	a.Score = score(a)
	a.Suggestions = suggest(a)
	return a
}

func buildStructure(g *graph.Graph) StructureMetrics {
	def := g.Definition()
	m := StructureMetrics{Nodes: len(def.Nodes)}
	for i := range def.Nodes {
		m.Outlets += len(def.Nodes[i].Outlets)
		switch g.NodeType(def.Nodes[i].ID) {
		case domain.NodeTypeEnd:
			m.EndNodes++
		case domain.NodeTypeDecision:
			m.Decisions++
		case domain.NodeTypeIsolated:
			m.Isolated++
		}
	}
	if g.Node(def.StartNodeID) != nil {
		m.Unreachable = len(g.Unreachable())
		m.MaxDepth = g.MaxDepth(def.StartNodeID)
		m.HasCycles = g.HasCycles("")
	}
	return m
}

func score(a *Analysis) int {
	s := 100
	s -= 15 * len(a.Validation.Errors)
	s -= 3 * len(a.Validation.Warnings)

	if a.PathReport != nil {
		s -= 15 * len(a.PathReport.Errors)
		s -= 2 * len(a.PathReport.Warnings)

		// Coverage shortfall costs up to 20 points per dimension.
		cov := a.PathReport.Coverage
		if cov.NodesTotal > 0 {
			s -= int((100 - cov.NodePercent) / 5)
		}
		if cov.OutletsTotal > 0 {
			s -= int((100 - cov.OutletPercent) / 5)
		}
		if a.PathReport.Completed == 0 && len(a.PathReport.Paths) > 0 {
			s -= 20
		}
	}

	if s < 0 {
		s = 0
	}
	return s
}

func suggest(a *Analysis) []string {
	var out []string
	if a.Structure.EndNodes == 0 {
		out = append(out, "add at least one end node so paths can complete")
	}
	if a.Structure.Isolated > 0 {
		out = append(out, fmt.Sprintf("remove or connect %d isolated node(s)", a.Structure.Isolated))
	}
	if a.Structure.Unreachable > 0 {
		out = append(out, fmt.Sprintf("connect %d unreachable node(s) to the start node", a.Structure.Unreachable))
	}
	if a.PathReport != nil {
		if len(a.PathReport.Coverage.UncoveredNodes) > 0 {
			out = append(out, "some nodes are never visited under the initial state; check outlet conditions")
		}
		if a.PathReport.Completed == 0 && len(a.PathReport.Paths) > 0 {
			out = append(out, "no explored path reaches an end node")
		}
	}
	if a.Structure.HasCycles {
		out = append(out, "flow contains cycles; confirm each has a reachable exit condition")
	}
	return out
}
