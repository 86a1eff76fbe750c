package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fable/pkg/domain"
)

func validFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:          "quiz",
		StartNodeID: "intro",
		Nodes: []domain.Node{
			{ID: "intro", Outlets: []domain.Outlet{{ID: "o1", To: "check"}}},
			{ID: "check", Outlets: []domain.Outlet{
				{ID: "o2", To: "pass", Condition: "score >= 60"},
				{ID: "o3", To: "fail"},
			}},
			{ID: "pass"},
			{ID: "fail"},
		},
	}
}

func codesOf(issues []Issue) []IssueCode {
	out := make([]IssueCode, len(issues))
	for i, issue := range issues {
		out[i] = issue.Code
	}
	return out
}

func TestValidateCleanFlow(t *testing.T) {
	report := Validate(validFlow())
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
}

func TestValidateMissingStartNode(t *testing.T) {
	def := validFlow()
	def.StartNodeID = "nope"

	report := Validate(def)
	assert.False(t, report.Valid)
	assert.Contains(t, codesOf(report.Errors), CodeMissingStartNode)
}

func TestValidateDanglingOutletTarget(t *testing.T) {
	def := validFlow()
	def.Nodes[0].Outlets[0].To = "ghost"

	report := Validate(def)
	assert.False(t, report.Valid)
	assert.Contains(t, codesOf(report.Errors), CodeInvalidOutletTarget)
}

func TestValidateBrokenCondition(t *testing.T) {
	def := validFlow()
	def.Nodes[1].Outlets[0].Condition = "score >= (60"

	report := Validate(def)
	require.False(t, report.Valid)
	assert.Contains(t, codesOf(report.Errors), CodeInvalidCondition)
}

func TestValidateNoEndNodesWarning(t *testing.T) {
	def := &domain.FlowDefinition{
		ID:          "loop",
		StartNodeID: "a",
		Nodes: []domain.Node{
			{ID: "a", Outlets: []domain.Outlet{{ID: "o1", To: "b"}}},
			{ID: "b", Outlets: []domain.Outlet{{ID: "o2", To: "a"}}},
		},
	}

	report := Validate(def)
	assert.True(t, report.Valid, "cycles and missing ends are warnings, not errors")
	codes := codesOf(report.Warnings)
	assert.Contains(t, codes, CodeNoEndNodes)
	assert.Contains(t, codes, CodeCircularDependency)
}

func TestValidateUnreachableNode(t *testing.T) {
	def := validFlow()
	def.Nodes = append(def.Nodes, domain.Node{
		ID:      "orphan",
		Outlets: []domain.Outlet{{ID: "o9", To: "pass"}},
	})

	report := Validate(def)
	assert.True(t, report.Valid)
	assert.Contains(t, codesOf(report.Warnings), CodeUnreachableNode)
}

func TestValidateShadowedOutlet(t *testing.T) {
	def := validFlow()
	def.Nodes[1].Outlets = []domain.Outlet{
		{ID: "o2", To: "pass", Condition: "true"},
		{ID: "o3", To: "fail", Condition: "score < 60"},
	}

	report := Validate(def)
	assert.Contains(t, codesOf(report.Warnings), CodeUnreachableOutlet)
}

func TestValidateAutoAdvanceShape(t *testing.T) {
	t.Run("two defaults is an error", func(t *testing.T) {
		def := validFlow()
		def.Nodes[1].IsAutoAdvance = true
		def.Nodes[1].Outlets = []domain.Outlet{
			{ID: "o2", To: "pass"},
			{ID: "o3", To: "fail"},
		}
		report := Validate(def)
		assert.Contains(t, codesOf(report.Errors), CodeInvalidPathStructure)
	})

	t.Run("no default warns", func(t *testing.T) {
		def := validFlow()
		def.Nodes[1].IsAutoAdvance = true
		def.Nodes[1].Outlets = []domain.Outlet{
			{ID: "o2", To: "pass", Condition: "score >= 60"},
			{ID: "o3", To: "fail", Condition: "score < 60"},
		}
		report := Validate(def)
		assert.Contains(t, codesOf(report.Warnings), CodeMissingDefaultOutlet)
	})

	t.Run("default before conditional warns", func(t *testing.T) {
		def := validFlow()
		def.Nodes[1].IsAutoAdvance = true
		def.Nodes[1].Outlets = []domain.Outlet{
			{ID: "o2", To: "pass"},
			{ID: "o3", To: "fail", Condition: "score < 60"},
		}
		report := Validate(def)
		assert.Contains(t, codesOf(report.Warnings), CodeDefaultOutletOrder)
	})
}
