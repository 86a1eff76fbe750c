package analysis

import (
	"fmt"
	"strings"
)

// RenderValidation renders a validation report as markdown.
func RenderValidation(r ValidationReport, flowID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Validation: %s\n\n", flowID)
	if r.Valid {
		b.WriteString("**Result:** valid\n")
	} else {
		b.WriteString("**Result:** invalid\n")
	}
	writeIssues(&b, "Errors", r.Errors)
	writeIssues(&b, "Warnings", r.Warnings)
	return b.String()
}

// RenderPathReport renders a path-test report as markdown. Individual
// paths are listed only when the report was produced in verbose mode.
func RenderPathReport(r *PathReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Path test: %s\n\n", r.FlowID)
	fmt.Fprintf(&b, "- paths explored: %d\n", len(r.Paths))
	fmt.Fprintf(&b, "- completed: %d\n", r.Completed)
	fmt.Fprintf(&b, "- node coverage: %d/%d (%.0f%%)\n",
		r.Coverage.NodesVisited, r.Coverage.NodesTotal, r.Coverage.NodePercent)
	fmt.Fprintf(&b, "- outlet coverage: %d/%d (%.0f%%)\n",
		r.Coverage.OutletsVisited, r.Coverage.OutletsTotal, r.Coverage.OutletPercent)

	if len(r.Coverage.UncoveredNodes) > 0 {
		fmt.Fprintf(&b, "\n**Uncovered nodes:** %s\n", strings.Join(r.Coverage.UncoveredNodes, ", "))
	}
	if len(r.Coverage.UncoveredOutlets) > 0 {
		fmt.Fprintf(&b, "**Uncovered outlets:** %s\n", strings.Join(r.Coverage.UncoveredOutlets, ", "))
	}

	writeIssues(&b, "Errors", r.Errors)
	writeIssues(&b, "Warnings", r.Warnings)

	if r.Verbose && len(r.Paths) > 0 {
		b.WriteString("\n## Paths\n\n")
		for i, p := range r.Paths {
			status := "incomplete"
			if p.Completed {
				status = "complete"
			}
			fmt.Fprintf(&b, "%d. %s (%s, %d steps)\n", i+1, strings.Join(p.Nodes, " -> "), status, p.Steps)
		}
	}
	return b.String()
}

// RenderAnalysis renders a full analysis as markdown.
func RenderAnalysis(a *Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis: %s\n\n", a.FlowID)
	fmt.Fprintf(&b, "**Score:** %d/100\n\n", a.Score)

	b.WriteString("## Structure\n\n")
	fmt.Fprintf(&b, "- nodes: %d (end: %d, decision: %d, isolated: %d)\n",
		a.Structure.Nodes, a.Structure.EndNodes, a.Structure.Decisions, a.Structure.Isolated)
	fmt.Fprintf(&b, "- outlets: %d\n", a.Structure.Outlets)
	fmt.Fprintf(&b, "- max depth: %d\n", a.Structure.MaxDepth)
	fmt.Fprintf(&b, "- unreachable: %d\n", a.Structure.Unreachable)
	fmt.Fprintf(&b, "- cycles: %v\n", a.Structure.HasCycles)

	writeIssues(&b, "Validation errors", a.Validation.Errors)
	writeIssues(&b, "Validation warnings", a.Validation.Warnings)

	if a.PathReport != nil {
		fmt.Fprintf(&b, "\n## Paths\n\n")
		fmt.Fprintf(&b, "- explored: %d, completed: %d\n", len(a.PathReport.Paths), a.PathReport.Completed)
		fmt.Fprintf(&b, "- node coverage: %.0f%%, outlet coverage: %.0f%%\n",
			a.PathReport.Coverage.NodePercent, a.PathReport.Coverage.OutletPercent)
	}

	if len(a.Suggestions) > 0 {
		b.WriteString("\n## Suggestions\n\n")
		for _, s := range a.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}

func writeIssues(b *strings.Builder, title string, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, issue := range issues {
		loc := ""
		if issue.NodeID != "" {
			loc = fmt.Sprintf(" [%s]", issue.NodeID)
			if issue.OutletID != "" {
				loc = fmt.Sprintf(" [%s/%s]", issue.NodeID, issue.OutletID)
			}
		}
		fmt.Fprintf(b, "- `%s`%s %s\n", issue.Code, loc, issue.Message)
	}
}
