package analysis

import (
	"fmt"
	"strings"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/expr"
	"github.com/aretw0/fable/pkg/graph"
)

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// IssueCode identifies a class of validation finding.
type IssueCode string

const (
	// Errors: fatal to correctness.
	CodeMissingStartNode     IssueCode = "missing_start_node"
	CodeInvalidOutletTarget  IssueCode = "invalid_outlet_target"
	CodeInvalidCondition     IssueCode = "invalid_condition"
	CodeInvalidPathStructure IssueCode = "invalid_path_structure"

	// Warnings: style and reachability concerns.
	CodeNoEndNodes          IssueCode = "no_end_nodes"
	CodeUnreachableNode     IssueCode = "unreachable_node"
	CodeCircularDependency  IssueCode = "circular_dependency"
	CodeDefaultOutletOrder  IssueCode = "default_outlet_order"
	CodeUnreachableOutlet   IssueCode = "unreachable_outlet"
	CodeMissingDefaultOutlet IssueCode = "missing_default_outlet"
)

// Issue is one validation finding.
type Issue struct {
	Code     IssueCode `json:"code"`
	Severity Severity  `json:"severity"`
	NodeID   string    `json:"nodeId,omitempty"`
	OutletID string    `json:"outletId,omitempty"`
	Message  string    `json:"message"`
}

// ValidationReport aggregates every finding from one pass.
type ValidationReport struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Validate runs the static structural checks over a flow definition.
// It is a pure function: all findings are collected, nothing throws.
func Validate(def *domain.FlowDefinition) ValidationReport {
	var report ValidationReport
	g := graph.New(def)

	eval, evalErr := expr.ForLanguage(def.ExpressionLanguage)
	if evalErr != nil {
		report.Errors = append(report.Errors, Issue{
			Code:     CodeInvalidCondition,
			Severity: SeverityError,
			Message:  evalErr.Error(),
		})
	}

	if g.Node(def.StartNodeID) == nil {
		report.Errors = append(report.Errors, Issue{
			Code:     CodeMissingStartNode,
			Severity: SeverityError,
			Message:  fmt.Sprintf("start node %q does not exist", def.StartNodeID),
		})
	}

	hasEnd := false
	for i := range def.Nodes {
		node := &def.Nodes[i]
		nodeType := g.NodeType(node.ID)
		if nodeType == domain.NodeTypeEnd {
			hasEnd = true
		}

		checkOutlets(g, eval, node, &report)
		checkAutoAdvanceShape(def, node, &report)
	}

	if !hasEnd {
		report.Warnings = append(report.Warnings, Issue{
			Code:     CodeNoEndNodes,
			Severity: SeverityWarning,
			Message:  "flow has no end nodes; every path cycles or dead-ends",
		})
	}

	if g.Node(def.StartNodeID) != nil {
		for _, id := range g.Unreachable() {
			report.Warnings = append(report.Warnings, Issue{
				Code:     CodeUnreachableNode,
				Severity: SeverityWarning,
				NodeID:   id,
				Message:  fmt.Sprintf("node %q is unreachable from the start node", id),
			})
		}
		if g.HasCycles("") {
			report.Warnings = append(report.Warnings, Issue{
				Code:     CodeCircularDependency,
				Severity: SeverityWarning,
				Message:  "flow contains at least one cycle",
			})
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

func checkOutlets(g *graph.Graph, eval expr.Evaluator, node *domain.Node, report *ValidationReport) {
	seenAlwaysTrue := false
	for i := range node.Outlets {
		outlet := &node.Outlets[i]

		if g.Node(outlet.To) == nil {
			report.Errors = append(report.Errors, Issue{
				Code:     CodeInvalidOutletTarget,
				Severity: SeverityError,
				NodeID:   node.ID,
				OutletID: outlet.ID,
				Message:  fmt.Sprintf("outlet %q targets non-existent node %q", outlet.ID, outlet.To),
			})
		}

		if outlet.Condition != "" {
			if !balancedParens(outlet.Condition) {
				report.Errors = append(report.Errors, Issue{
					Code:     CodeInvalidCondition,
					Severity: SeverityError,
					NodeID:   node.ID,
					OutletID: outlet.ID,
					Message:  fmt.Sprintf("condition %q has unbalanced parentheses", outlet.Condition),
				})
			} else if eval != nil {
				if err := eval.Compile(outlet.Condition); err != nil {
					report.Errors = append(report.Errors, Issue{
						Code:     CodeInvalidCondition,
						Severity: SeverityError,
						NodeID:   node.ID,
						OutletID: outlet.ID,
						Message:  fmt.Sprintf("condition %q does not compile: %v", outlet.Condition, err),
					})
				}
			}

			if seenAlwaysTrue {
				report.Warnings = append(report.Warnings, Issue{
					Code:     CodeUnreachableOutlet,
					Severity: SeverityWarning,
					NodeID:   node.ID,
					OutletID: outlet.ID,
					Message:  fmt.Sprintf("outlet %q is unreachable: a preceding sibling condition is always true", outlet.ID),
				})
			}
			if isAlwaysTrue(outlet.Condition) {
				seenAlwaysTrue = true
			}
		} else if seenAlwaysTrue {
			report.Warnings = append(report.Warnings, Issue{
				Code:     CodeUnreachableOutlet,
				Severity: SeverityWarning,
				NodeID:   node.ID,
				OutletID: outlet.ID,
				Message:  fmt.Sprintf("outlet %q is unreachable: a preceding sibling condition is always true", outlet.ID),
			})
		}
	}
}

func checkAutoAdvanceShape(def *domain.FlowDefinition, node *domain.Node, report *ValidationReport) {
	autoAdvancing := node.IsAutoAdvance || def.AutoAdvanceMode == domain.AutoAdvanceAlways
	if !autoAdvancing || len(node.Outlets) == 0 {
		return
	}

	defaults := 0
	defaultBeforeConditional := false
	sawDefault := false
	for i := range node.Outlets {
		if node.Outlets[i].Condition == "" {
			defaults++
			sawDefault = true
		} else if sawDefault {
			defaultBeforeConditional = true
		}
	}

	if defaults > 1 {
		report.Errors = append(report.Errors, Issue{
			Code:     CodeInvalidPathStructure,
			Severity: SeverityError,
			NodeID:   node.ID,
			Message:  fmt.Sprintf("auto-advance node %q has %d default outlets; at most one is allowed", node.ID, defaults),
		})
	}
	if defaults == 0 {
		report.Warnings = append(report.Warnings, Issue{
			Code:     CodeMissingDefaultOutlet,
			Severity: SeverityWarning,
			NodeID:   node.ID,
			Message:  fmt.Sprintf("auto-advance node %q has no default outlet; unmatched conditions will stall", node.ID),
		})
	}
	if defaultBeforeConditional {
		report.Warnings = append(report.Warnings, Issue{
			Code:     CodeDefaultOutletOrder,
			Severity: SeverityWarning,
			NodeID:   node.ID,
			Message:  fmt.Sprintf("node %q places a default outlet before conditional outlets", node.ID),
		})
	}
}

func balancedParens(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// isAlwaysTrue is a heuristic over literal forms; it makes no attempt at
// full constant folding.
func isAlwaysTrue(condition string) bool {
	c := strings.TrimSpace(condition)
	c = strings.TrimPrefix(c, "(")
	c = strings.TrimSuffix(c, ")")
	c = strings.ReplaceAll(c, " ", "")
	switch c {
	case "true", "1", "1==1", "true==true":
		return true
	}
	return false
}
