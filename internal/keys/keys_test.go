package keys

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"github.com/iacexport/iacexport/pkg/model"
)

func TestContentKeyHasher(t *testing.T) {
	hasher1 := NewContentKeyHasher(xxhash.New())
	_ = hasher1.WriteString("a")

	hasher2 := NewContentKeyHasher(xxhash.New())
	_ = hasher2.WriteString("b")

	require.NotEqual(t, hasher1.Key(), hasher2.Key())
}

func TestVariablesKey(t *testing.T) {
	a := model.NewVariable("_123", "123")
	b := model.NewVariable("us_east", "us-east")

	require.Equal(t, VariablesKey([]model.Variable{a, b}), VariablesKey([]model.Variable{b, a}))
	require.Equal(t, VariablesKey([]model.Variable{a}), VariablesKey([]model.Variable{a, a}))
	require.NotEqual(t, VariablesKey([]model.Variable{a}), VariablesKey([]model.Variable{a, b}))
	require.NotEqual(t,
		VariablesKey([]model.Variable{model.NewVariable("x", "1")}),
		VariablesKey([]model.Variable{model.NewVariable("x", 1)}))
	require.NotEqual(t,
		VariablesKey([]model.Variable{model.NewVariable("ab", nil)}),
		VariablesKey([]model.Variable{model.NewVariable("a", nil), model.NewVariable("b", nil)}))
}

func TestCanonicalVariables(t *testing.T) {
	a := model.NewVariable("_123", "123")
	b := model.NewVariable("us_east", "us-east")

	require.Equal(t, "_123=\"123\"\x00us_east=\"us-east\"", CanonicalVariables([]model.Variable{b, a, b}))
	require.Equal(t, CanonicalVariables([]model.Variable{a, b}), CanonicalVariables([]model.Variable{b, a}))
	require.NotEqual(t,
		CanonicalVariables([]model.Variable{model.NewVariable("ab", nil)}),
		CanonicalVariables([]model.Variable{model.NewVariable("a", nil), model.NewVariable("b", nil)}))
	require.Empty(t, CanonicalVariables(nil))
}
