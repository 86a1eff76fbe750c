package fable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fable"
	"github.com/aretw0/fable/pkg/domain"
)

func storyDef() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:           "story",
		Title:        "A Short Story",
		StartNodeID:  "intro",
		InitialState: map[string]any{"coins": 2},
		Nodes: []domain.Node{
			{
				ID:      "intro",
				Content: "You have ${coins} coins.",
				Outlets: []domain.Outlet{
					{ID: "buy", To: "shop", Label: "Buy a sword", Condition: "coins >= 2",
						Actions: []domain.StateAction{{Type: domain.ActionSet, Target: "coins", Expression: "coins - 2"}}},
					{ID: "leave", To: "road", Label: "Walk away"},
				},
			},
			{ID: "shop", Content: "You now have ${coins} coins.", Outlets: []domain.Outlet{{ID: "s1", To: "end"}}},
			{ID: "road", Outlets: []domain.Outlet{{ID: "r1", To: "end"}}},
			{ID: "end", Content: "The end."},
		},
	}
}

func TestNewRequiresDefinition(t *testing.T) {
	_, err := fable.New(nil)
	assert.Error(t, err)

	_, err = fable.New(&domain.FlowDefinition{ID: "empty"})
	assert.ErrorIs(t, err, domain.ErrMissingStartNode)
}

func TestEngineEndToEnd(t *testing.T) {
	eng, err := fable.New(storyDef())
	require.NoError(t, err)

	res, err := eng.Start()
	require.NoError(t, err)
	assert.Equal(t, "You have 2 coins.", res.Node.Content)
	require.Len(t, res.Choices, 2)

	res, err = eng.Next("buy")
	require.NoError(t, err)
	assert.Equal(t, "You now have 0 coins.", res.Node.Content)

	res, err = eng.Next("")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.True(t, eng.IsComplete())
}

func TestLifecycleHooksThroughFacade(t *testing.T) {
	var entered []string
	var stateChanges int
	completed := false

	eng, err := fable.New(storyDef(), fable.WithLifecycleHooks(domain.LifecycleHooks{
		OnNodeEnter:   func(ev *domain.NodeEvent) { entered = append(entered, ev.NodeID) },
		OnStateChange: func(ev *domain.StateChangeEvent) { stateChanges++ },
		OnComplete:    func(ev *domain.NodeEvent) { completed = true },
	}))
	require.NoError(t, err)

	_, err = eng.Start()
	require.NoError(t, err)
	_, err = eng.Next("buy")
	require.NoError(t, err)
	_, err = eng.Next("")
	require.NoError(t, err)

	assert.Equal(t, []string{"intro", "shop", "end"}, entered)
	assert.Equal(t, 1, stateChanges, "only the buy outlet mutates state")
	assert.True(t, completed)
}

func TestWithHistoryLimitDisablesGoBack(t *testing.T) {
	eng, err := fable.New(storyDef(), fable.WithHistoryLimit(-1))
	require.NoError(t, err)

	_, err = eng.Start()
	require.NoError(t, err)
	_, err = eng.Next("leave")
	require.NoError(t, err)

	assert.False(t, eng.CanGoBack())
	_, err = eng.GoBack()
	assert.ErrorIs(t, err, domain.ErrHistoryUnavailable)
	assert.Empty(t, eng.GetHistory())
}

func TestSchemaValidationThroughFacade(t *testing.T) {
	def := storyDef()
	def.StateSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"coins": map[string]any{"type": "number", "minimum": 0},
		},
	}

	eng, err := fable.New(def)
	require.NoError(t, err)
	_, err = eng.Start()
	require.NoError(t, err)

	err = eng.SetState(map[string]any{"coins": -1})
	assert.Error(t, err, "schema gate rejects negative coins")
	assert.Equal(t, 2, eng.GetState()["coins"])

	relaxed, err := fable.New(def, fable.WithSchemaValidation(false))
	require.NoError(t, err)
	_, err = relaxed.Start()
	require.NoError(t, err)
	assert.NoError(t, relaxed.SetState(map[string]any{"coins": -1}))
}

func TestShowDisabledChoicesOption(t *testing.T) {
	def := storyDef()
	def.InitialState = map[string]any{"coins": 0}

	eng, err := fable.New(def, fable.WithShowDisabledChoices(true))
	require.NoError(t, err)

	res, err := eng.Start()
	require.NoError(t, err)
	require.Len(t, res.Choices, 2)
	assert.True(t, res.Choices[0].Disabled)
	assert.NotEmpty(t, res.Choices[0].Reason)
	assert.False(t, res.Choices[1].Disabled)
}

func TestUnknownExpressionLanguage(t *testing.T) {
	def := storyDef()
	def.ExpressionLanguage = "brainfuck"

	_, err := fable.New(def)
	assert.Error(t, err)
}
