package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprEvaluator_Evaluate(t *testing.T) {
	e := NewExprEvaluator()
	vars := map[string]any{"score": 50, "name": "ada"}

	t.Run("Arithmetic", func(t *testing.T) {
		out, err := e.Evaluate("score + 10", vars)
		require.NoError(t, err)
		assert.EqualValues(t, 60, out)
	})

	t.Run("String Concat", func(t *testing.T) {
		out, err := e.Evaluate(`"hello " + name`, vars)
		require.NoError(t, err)
		assert.Equal(t, "hello ada", out)
	})

	t.Run("Unknown Variable Is Nil", func(t *testing.T) {
		out, err := e.Evaluate("missing", vars)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("Syntax Error", func(t *testing.T) {
		_, err := e.Evaluate("score >", vars)
		assert.Error(t, err)
	})
}

func TestExprEvaluator_EvaluateCondition(t *testing.T) {
	e := NewExprEvaluator()
	vars := map[string]any{"score": 50}

	ok, err := e.EvaluateCondition("score >= 10", vars)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.EvaluateCondition("score > 100", vars)
	require.NoError(t, err)
	assert.False(t, ok)

	// Non-boolean results are an error; the state manager maps them to false.
	_, err = e.EvaluateCondition("score + 1", vars)
	assert.Error(t, err)
}

func TestExprEvaluator_CompileAndCache(t *testing.T) {
	e := NewExprEvaluator()

	require.NoError(t, e.Compile("a && b"))
	assert.Error(t, e.Compile("a &&"))

	// Same source twice hits the cache; behavior must be identical.
	out1, err := e.Evaluate("1 + 2", nil)
	require.NoError(t, err)
	out2, err := e.Evaluate("1 + 2", nil)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)

	e.ClearCache()
	require.NoError(t, e.Compile("a && b"))
}
