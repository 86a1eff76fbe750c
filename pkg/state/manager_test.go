package state

import (
	"testing"

	"github.com/aretw0/fable/pkg/domain"
	"github.com/aretw0/fable/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetStateIsolation(t *testing.T) {
	m := NewManager(map[string]any{"score": 10, "inner": map[string]any{"x": 1}})

	a := m.GetState()
	b := m.GetState()
	assert.Equal(t, a, b)

	a["score"] = 999
	a["inner"].(map[string]any)["x"] = 999
	assert.Equal(t, 10, m.GetState()["score"])
	assert.Equal(t, 1, m.GetState()["inner"].(map[string]any)["x"])
}

func TestManager_SetStateMerges(t *testing.T) {
	changes := 0
	m := NewManager(map[string]any{"a": 1, "b": 2},
		WithHooks(Hooks{OnChange: func(map[string]any) { changes++ }}))

	require.NoError(t, m.SetState(map[string]any{"b": 3, "c": 4}))
	st := m.GetState()
	assert.Equal(t, 1, st["a"])
	assert.Equal(t, 3, st["b"])
	assert.Equal(t, 4, st["c"])
	assert.Equal(t, 1, changes)
}

func TestManager_SchemaGatesMutation(t *testing.T) {
	doc := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"score": map[string]any{"type": "number"},
		},
	}

	var errEvents []*domain.ErrorEvent
	m := NewManager(map[string]any{"score": 1.0},
		WithSchema(doc),
		WithHooks(Hooks{OnError: func(ev *domain.ErrorEvent) { errEvents = append(errEvents, ev) }}))

	err := m.SetState(map[string]any{"bogus": true})
	require.Error(t, err)

	var violation *schema.ViolationError
	require.ErrorAs(t, err, &violation)
	require.Len(t, errEvents, 1)
	assert.Equal(t, domain.ErrKindSchemaValidation, errEvents[0].Kind)

	// State unchanged after the failed mutation.
	assert.Equal(t, map[string]any{"score": 1.0}, m.GetState())
}

func TestManager_ExecuteActions(t *testing.T) {
	m := NewManager(map[string]any{"score": 10})

	err := m.ExecuteActions([]domain.StateAction{
		{Type: domain.ActionSet, Target: "score", Expression: "score + 5"},
		{Type: domain.ActionSet, Target: "player.name", Value: "ada"},
		{Type: domain.ActionSet, Target: "doubled", Expression: "score * 2"},
	})
	require.NoError(t, err)

	st := m.GetState()
	assert.EqualValues(t, 15, st["score"])
	assert.Equal(t, "ada", st["player"].(map[string]any)["name"])
	// Later actions see earlier actions' effects on the working copy.
	assert.EqualValues(t, 30, st["doubled"])
}

func TestManager_ExecuteActionsAllOrNothing(t *testing.T) {
	doc := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
	}
	m := NewManager(map[string]any{"a": 0.0, "b": 0.0}, WithSchema(doc))
	before := m.GetState()

	err := m.ExecuteActions([]domain.StateAction{
		{Type: domain.ActionSet, Target: "a", Value: 1.0},
		{Type: domain.ActionSet, Target: "b", Value: "not-a-number"},
	})
	require.Error(t, err)
	assert.Equal(t, before, m.GetState(), "failed batch must not partially apply")
}

func TestManager_EvaluateConditionNeverThrows(t *testing.T) {
	m := NewManager(map[string]any{"score": 10})

	assert.True(t, m.EvaluateCondition(""))
	assert.True(t, m.EvaluateCondition("score >= 10"))
	assert.False(t, m.EvaluateCondition("score > 100"))
	// Syntax error and non-boolean results degrade to false.
	assert.False(t, m.EvaluateCondition("score >"))
	assert.False(t, m.EvaluateCondition("score + 1"))
	// Arithmetic on an unknown operand is an evaluation failure, not a
	// silent nil propagation.
	assert.False(t, m.EvaluateCondition("missing + 1 > 0"))
}

func TestManager_Rules(t *testing.T) {
	t.Run("SetState Rule", func(t *testing.T) {
		m := NewManager(map[string]any{"score": 0},
			WithRules([]domain.StateRule{
				{Condition: "score >= 100", Action: domain.RuleSetState, Target: "won", Value: true},
			}))

		require.NoError(t, m.SetState(map[string]any{"score": 150}))
		assert.Equal(t, true, m.GetState()["won"])
	})

	t.Run("ForceTransition Rule Emits Error Event", func(t *testing.T) {
		var events []*domain.ErrorEvent
		m := NewManager(map[string]any{"hp": 10},
			WithRules([]domain.StateRule{
				{Condition: "hp <= 0", Action: domain.RuleForceTransition, Target: "game-over"},
			}),
			WithHooks(Hooks{OnError: func(ev *domain.ErrorEvent) { events = append(events, ev) }}))

		require.NoError(t, m.SetState(map[string]any{"hp": 0}))
		require.Len(t, events, 1)
		assert.Equal(t, domain.ErrKindForceTransition, events[0].Kind)
		require.NotNil(t, events[0].Rule)
		assert.Equal(t, "game-over", events[0].Rule.Target)
	})

	t.Run("TriggerEvent Rule", func(t *testing.T) {
		var events []*domain.RuleEvent
		m := NewManager(map[string]any{"score": 0},
			WithRules([]domain.StateRule{
				{Condition: "score > 10", Action: domain.RuleTriggerEvent, Target: "high-score", Value: "gold"},
			}),
			WithHooks(Hooks{OnEvent: func(ev *domain.RuleEvent) { events = append(events, ev) }}))

		require.NoError(t, m.SetState(map[string]any{"score": 11}))
		require.Len(t, events, 1)
		assert.Equal(t, "high-score", events[0].Name)
		assert.Equal(t, "gold", events[0].Value)
	})
}

func TestManager_Reset(t *testing.T) {
	m := NewManager(map[string]any{"a": 1})
	require.NoError(t, m.SetState(map[string]any{"b": 2}))

	fresh := map[string]any{"a": 1}
	require.NoError(t, m.Reset(fresh))
	assert.Equal(t, map[string]any{"a": 1}, m.GetState())

	// The reset state must not alias the argument.
	fresh["a"] = 99
	assert.Equal(t, 1, m.GetState()["a"])
}
