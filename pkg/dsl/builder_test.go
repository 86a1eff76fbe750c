package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/dsl"
)

func TestBuilderProducesDefinition(t *testing.T) {
	def, err := dsl.NewFlow("quest").
		Title("The Quest").
		Start("camp").
		ExpressionLanguage("liquid").
		InitialState(map[string]any{"gold": 10}).
		Node("camp").Content("You wake at camp with ${gold} gold.").
		Outlet("shop", "market").Label("Visit the market").When("gold > 0").
		Outlet("rest", "camp-end").Label("Sleep in").
		Node("market").Content("The market bustles.").
		Compute("gold", "gold - 5").
		Outlet("return", "camp-end").Done().
		Node("camp-end").Content("The day ends.").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "quest", def.ID)
	assert.Equal(t, "camp", def.StartNodeID)
	assert.Equal(t, domain.ExpressionLanguage("liquid"), def.ExpressionLanguage)
	require.Len(t, def.Nodes, 3)
	assert.Equal(t, []string{"camp", "market", "camp-end"},
		[]string{def.Nodes[0].ID, def.Nodes[1].ID, def.Nodes[2].ID},
		"nodes keep declaration order")

	camp := def.FindNode("camp")
	require.NotNil(t, camp)
	require.Len(t, camp.Outlets, 2)
	assert.Equal(t, "gold > 0", camp.Outlets[0].Condition)
	assert.Equal(t, "Sleep in", camp.Outlets[1].Label)

	market := def.FindNode("market")
	require.Len(t, market.Actions, 1)
	assert.Equal(t, "gold - 5", market.Actions[0].Expression)
}

func TestBuilderErrors(t *testing.T) {
	t.Run("missing start", func(t *testing.T) {
		_, err := dsl.NewFlow("f").Node("a").Build()
		assert.Error(t, err)
	})

	t.Run("undefined start", func(t *testing.T) {
		_, err := dsl.NewFlow("f").Start("x").Node("a").Build()
		assert.Error(t, err)
	})

	t.Run("dangling outlet", func(t *testing.T) {
		_, err := dsl.NewFlow("f").Start("a").
			Node("a").Outlet("o1", "ghost").Build()
		assert.Error(t, err)
	})

	t.Run("duplicate outlet id", func(t *testing.T) {
		_, err := dsl.NewFlow("f").Start("a").
			Node("a").Outlet("o1", "b").
			Node("b").Outlet("o1", "a").Build()
		assert.Error(t, err)
	})
}

func TestBuiltDefinitionRuns(t *testing.T) {
	def, err := dsl.NewFlow("auto").
		Start("a").
		AutoAdvanceMode(domain.AutoAdvanceAlways).
		Node("a").Set("step", 1).Outlet("o1", "b").Done().
		Node("b").Compute("step", "step + 1").
		Build()
	require.NoError(t, err)

	eng, err := fable.New(def)
	require.NoError(t, err)
	res, err := eng.Start()
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, 2, eng.GetState()["step"])
}
