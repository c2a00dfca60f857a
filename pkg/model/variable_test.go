package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVariableEquality(t *testing.T) {
	require.True(t, NewVariable("pool_id", "123").Equal(NewVariable("pool_id", "123")))
	require.False(t, NewVariable("pool_id", "123").Equal(NewVariable("pool_id", "124")))
	require.False(t, NewVariable("pool_id", "123").Equal(NewVariable("pool_id", 123)))
	require.False(t, NewVariable("pool_id", nil).Equal(NewVariable("pool_id", "")))
	require.True(t, NewVariable("libs", []any{"a", "b"}).Equal(NewVariable("libs", []any{"a", "b"})))
}

func TestVariableKey(t *testing.T) {
	require.Equal(t, "a", NewVariable("a", nil).Key())
	require.Equal(t, `a="x"`, NewVariable("a", "x").Key())
	require.Equal(t, `a={"k":1}`, NewVariable("a", map[string]any{"k": 1}).Key())
}

func TestSortVariables(t *testing.T) {
	vars := []Variable{
		NewVariable("b", "1"),
		NewVariable("a", "2"),
		NewVariable("a", "1"),
	}
	SortVariables(vars)
	require.Equal(t, []Variable{
		NewVariable("a", "1"),
		NewVariable("a", "2"),
		NewVariable("b", "1"),
	}, vars)
}
