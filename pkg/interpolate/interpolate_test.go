package interpolate

import (
	"testing"

	"github.com/aretw0/fable/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInterpolator() *Interpolator {
	return New(expr.NewExprEvaluator())
}

func TestInterpolate_Basic(t *testing.T) {
	i := newInterpolator()

	res := i.Interpolate("Score: ${score}", map[string]any{"score": 10})
	assert.Equal(t, "Score: 10", res.Content)
	assert.True(t, res.HasInterpolations)
	assert.Empty(t, res.Errors)
}

func TestInterpolate_EscapedMarker(t *testing.T) {
	i := newInterpolator()

	res := i.Interpolate(`Hello \${name}, ${score}`, map[string]any{"score": 10})
	assert.Equal(t, "Hello ${name}, 10", res.Content)
	assert.True(t, res.HasInterpolations)
	assert.Empty(t, res.Errors)
}

func TestInterpolate_ErrorResolvesEmpty(t *testing.T) {
	i := newInterpolator()

	res := i.Interpolate("Value: ${1 +}", map[string]any{})
	assert.Equal(t, "Value: ", res.Content)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "1 +", res.Errors[0].Expression)
}

func TestInterpolate_NestedBraces(t *testing.T) {
	i := newInterpolator()

	res := i.Interpolate("${score > 5 ? {\"msg\": \"hi\"}.msg : \"lo\"}", map[string]any{"score": 10})
	require.Empty(t, res.Errors)
	assert.Equal(t, "hi", res.Content)
}

func TestInterpolate_Unterminated(t *testing.T) {
	i := newInterpolator()

	res := i.Interpolate("broken ${score", map[string]any{"score": 1})
	assert.Equal(t, "broken ${score", res.Content)
	assert.False(t, res.HasInterpolations)
}

func TestInterpolate_NoMarkers(t *testing.T) {
	i := newInterpolator()

	res := i.Interpolate("plain text", nil)
	assert.Equal(t, "plain text", res.Content)
	assert.False(t, res.HasInterpolations)

	assert.False(t, HasMarkers("plain text"))
	assert.False(t, HasMarkers(`escaped \${x}`))
	assert.True(t, HasMarkers("live ${x}"))
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{true, "true"},
		{false, "false"},
		{42, "42"},
		{42.0, "42"},
		{3.14159, "3.14"},
		{[]any{1, "a", true}, "1, a, true"},
		{map[string]any{"k": 1.0}, `{"k":1}`},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatValue(c.in), "%v", c.in)
	}
}
