package hcl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iacexport/iacexport/pkg/model"
)

func TestSplitAnnotation(t *testing.T) {
	tests := []struct {
		key   string
		token string
		name  string
	}{
		{key: "@raw:definition", token: RawStringPrefix, name: "definition"},
		{key: "@expr:node_type", token: ExprPrefix, name: "node_type"},
		{key: "@block:library", token: BlockPrefix, name: "library"},
		{key: "plain", token: "", name: "plain"},
		{key: "@other:x", token: "", name: "@other:x"},
	}
	for _, test := range tests {
		token, name := SplitAnnotation(test.key)
		require.Equal(t, test.token, token, test.key)
		require.Equal(t, test.name, name, test.key)
	}
	require.True(t, IsToken(RawStringPrefix))
	require.False(t, IsToken("@raw"))
}

func TestInterpolation(t *testing.T) {
	require.Equal(t, "var.pool_id", VariableRef("pool_id"))
	require.Equal(t, "${var.pool_id}", Interpolate(VariableRef("pool_id")))
	require.True(t, IsInterpolation("${var.pool_id}"))
	require.False(t, IsInterpolation("pool ${var.pool_id}"))
	require.False(t, IsInterpolation("${a}${b}"))
}

func TestJSONSerializerResource(t *testing.T) {
	body := model.Record{
		"name":            "Shared ${not} a template",
		"@expr:node_type": "var.cluster_node_type",
		"@raw:definition": "pool_id: ${var.pool_id}",
		"@block:library": map[string]any{
			"jar": "dbfs:/a.jar",
		},
		"tags": []any{"a", 1, true},
	}
	vars := []model.Variable{
		model.NewVariable("cluster_node_type", "i3.xlarge"),
		model.NewVariable("no_default", nil),
	}

	out, err := JSONSerializer{}.Resource("databricks_cluster", "cluster_a", vars, body)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	resource := doc["resource"].(map[string]any)["databricks_cluster"].(map[string]any)["cluster_a"].(map[string]any)
	require.Equal(t, "Shared $${not} a template", resource["name"])
	require.Equal(t, "${var.cluster_node_type}", resource["node_type"])
	require.Equal(t, "pool_id: ${var.pool_id}", resource["definition"])
	require.Equal(t, map[string]any{"jar": "dbfs:/a.jar"}, resource["library"])
	require.Equal(t, []any{"a", float64(1), true}, resource["tags"])

	variables := doc["variable"].(map[string]any)
	require.Equal(t, map[string]any{"default": "i3.xlarge"}, variables["cluster_node_type"])
	require.Equal(t, map[string]any{}, variables["no_default"])
}

func TestJSONSerializerResourceWithoutVariables(t *testing.T) {
	out, err := JSONSerializer{}.Resource("databricks_notebook", "nb", nil, model.Record{"path": "/a"})
	require.NoError(t, err)
	require.NotContains(t, string(out), `"variable"`)
}

func TestJSONSerializerDuplicateAttribute(t *testing.T) {
	_, err := JSONSerializer{}.Resource("t", "id", nil, model.Record{
		"x":      "literal",
		"@raw:x": "raw",
	})
	require.ErrorContains(t, err, `attribute "x" is declared more than once`)
}

func TestJSONSerializerVariables(t *testing.T) {
	out, err := JSONSerializer{}.Variables([]model.Variable{
		model.NewVariable("pool_id", "123"),
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"variable": {"pool_id": {"default": "123"}}}`, string(out))

	out, err = JSONSerializer{}.Variables(nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(out))

	require.Equal(t, ".tf.json", JSONSerializer{}.Extension())
}
