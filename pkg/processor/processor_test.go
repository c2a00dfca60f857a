package processor

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/dotpath"
	"github.com/iacexport/iacexport/pkg/model"
)

const (
	defaultWait = time.Second
	defaultTick = 10 * time.Millisecond
)

func TestMain(m *testing.M) {
	// the pattern cache lives for the whole process; its maintenance
	// goroutines may start after the first snapshot below
	if _, err := CompilePattern(DefaultPattern); err != nil {
		panic(err)
	}
	goleak.VerifyTestMain(m,
		goleak.IgnoreCurrent(),
		goleak.IgnoreAnyFunction("github.com/Yiling-J/theine-go/internal.(*Store[...]).maintenance"),
		goleak.IgnoreAnyFunction("github.com/Yiling-J/theine-go/internal.(*Store[...]).maintenance.func1"),
	)
}

func newLedger(identity string, rec model.Record) *model.Ledger {
	return model.NewLedger(&model.Object{
		RawID:        identity,
		Identity:     identity,
		ResourceType: "databricks_cluster",
		Record:       rec,
	})
}

func TestKindString(t *testing.T) {
	require.Equal(t, "annotate", KindAnnotate.String())
	require.Equal(t, "resource_variable", KindResourceVariable.String())
	require.Equal(t, "shared_pattern", KindSharedPattern.String())
	require.Equal(t, "Kind(9)", Kind(9).String())
}

func TestAnnotate(t *testing.T) {
	p, err := NewAnnotate("@block:", []string{"autoscale", "libraries.[*].maven"})
	require.NoError(t, err)
	require.Equal(t, KindAnnotate, p.Kind())
	require.Equal(t, []string{"autoscale", "libraries.[*].maven"}, p.Paths())

	raw := model.Record{
		"autoscale": map[string]any{"min_workers": 1},
		"libraries": []any{
			map[string]any{"maven": map[string]any{"coordinates": "a:b:1"}},
		},
	}
	l := p.Apply(newLedger("c", raw))
	require.NoError(t, l.Err())
	require.Len(t, l.Lineage(), 2)

	want := model.Record{
		"@block:autoscale": map[string]any{"min_workers": 1},
		"libraries": []any{
			map[string]any{"@block:maven": map[string]any{"coordinates": "a:b:1"}},
		},
	}
	if diff := cmp.Diff(want, l.Latest()); diff != "" {
		t.Fatalf("unexpected snapshot (-want +got):\n%s", diff)
	}
	require.Contains(t, l.Raw(), "autoscale", "raw record must stay untouched")
}

func TestAnnotateUnknownToken(t *testing.T) {
	_, err := NewAnnotate("@nope:", []string{"a"})
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestAnnotateMissingPathRecordsError(t *testing.T) {
	p, err := NewAnnotate("@raw:", []string{"missing"})
	require.NoError(t, err)

	l := p.Apply(newLedger("c", model.Record{"present": 1}))
	require.True(t, l.HasErrors())
	require.ErrorIs(t, l.Err(), errors.ErrAddressing)
	require.ErrorIs(t, l.Err(), dotpath.ErrKeyNotFound)
	require.Len(t, l.Lineage(), 1)
}

func TestResourceVariablePromotion(t *testing.T) {
	p, err := NewResourceVariable("databricks_cluster", []string{"node_type"})
	require.NoError(t, err)

	l := p.Apply(newLedger("cluster-a", model.Record{"node_type": "Standard_DS3", "name": "a"}))
	require.NoError(t, l.Err())

	vars := l.ResourceVariables()
	require.Len(t, vars, 1)
	require.Equal(t, "databricks_cluster_cluster-a_node_type", vars[0].Name)
	require.Contains(t, vars[0].Name, "cluster-a")
	require.Contains(t, vars[0].Name, "node_type")
	require.Equal(t, "Standard_DS3", vars[0].Default)

	require.Equal(t, model.Record{
		"@expr:node_type": "var." + vars[0].Name,
		"name":            "a",
	}, l.Latest())
	require.Empty(t, l.SharedVariables())
}

func TestResourceVariableNamesAreUniquePerObject(t *testing.T) {
	p, err := NewResourceVariable("databricks_cluster", []string{"node_type"})
	require.NoError(t, err)

	a := p.Apply(newLedger("cluster-a", model.Record{"node_type": "Standard_DS3"}))
	b := p.Apply(newLedger("cluster-b", model.Record{"node_type": "Standard_DS3"}))
	require.NotEqual(t, a.ResourceVariables()[0].Name, b.ResourceVariables()[0].Name)
}

func TestResourceVariableBroadcast(t *testing.T) {
	p, err := NewResourceVariable("databricks_job", []string{"tasks.[*].cluster_id"})
	require.NoError(t, err)

	same := p.Apply(newLedger("job", model.Record{"tasks": []any{
		map[string]any{"cluster_id": "abc"},
		map[string]any{"cluster_id": "abc"},
	}}))
	require.NoError(t, same.Err())
	require.Equal(t, []any{
		map[string]any{"@expr:cluster_id": "var.databricks_job_job_cluster_id"},
		map[string]any{"@expr:cluster_id": "var.databricks_job_job_cluster_id"},
	}, same.Latest()["tasks"])

	different := p.Apply(newLedger("job", model.Record{"tasks": []any{
		map[string]any{"cluster_id": "abc"},
		map[string]any{"cluster_id": "def"},
	}}))
	require.ErrorIs(t, different.Err(), ErrAmbiguousValue)
	require.Empty(t, different.ResourceVariables())

	empty := p.Apply(newLedger("job", model.Record{"tasks": []any{}}))
	require.ErrorIs(t, empty.Err(), ErrNoValue)
}

func TestResourceVariableConfiguration(t *testing.T) {
	tests := map[string][]string{
		`nested`:         {"spark_conf", "spark_conf.pool"},
		`same_leaf_name`: {"a.node_type", "b.node_type"},
		`bad_syntax`:     {"a..b"},
	}
	for name, paths := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewResourceVariable("t", paths)
			require.ErrorIs(t, err, errors.ErrConfiguration)
		})
	}

	_, err := NewResourceVariable("t", []string{"node_type", "node_type_id"})
	require.NoError(t, err, "a shared string prefix is not a nested path")

	_, err = NewResourceVariable("t", []string{"a", "a"})
	require.NoError(t, err, "duplicates collapse")
}

func TestSharedPatternEndToEnd(t *testing.T) {
	p, err := NewSharedPattern(map[string]string{"definition": "pool_id: %{INT:pool}"})
	require.NoError(t, err)

	a := p.Apply(newLedger("a", model.Record{"definition": "pool_id: 123\nregion: us-east"}))
	b := p.Apply(newLedger("b", model.Record{"definition": "pool_id: 123\nregion: us-west"}))
	require.NoError(t, a.Err())
	require.NoError(t, b.Err())

	require.Equal(t, []model.Variable{model.NewVariable("_123", "123")}, a.SharedVariables())
	require.Equal(t, a.SharedVariables(), b.SharedVariables())

	require.Equal(t, model.Record{"@raw:definition": "pool_id: ${var._123}\nregion: us-east"}, a.Latest())
	require.Equal(t, model.Record{"@raw:definition": "pool_id: ${var._123}\nregion: us-west"}, b.Latest())
	require.Equal(t, model.Record{"definition": "pool_id: 123\nregion: us-east"}, a.Raw())
}

func TestSharedPatternDefaultCapturesWholeLines(t *testing.T) {
	p, err := NewSharedPattern(map[string]string{"instance_profile_arn": ""})
	require.NoError(t, err)

	l := p.Apply(newLedger("x", model.Record{"instance_profile_arn": "arn:aws:iam::1:role/x"}))
	require.NoError(t, l.Err())
	require.Equal(t, []model.Variable{model.NewVariable("arn_aws_iam_1_role_x", "arn:aws:iam::1:role/x")}, l.SharedVariables())
	require.Equal(t, model.Record{"@raw:instance_profile_arn": "${var.arn_aws_iam_1_role_x}"}, l.Latest())
}

func TestSharedPatternSkipsInterpolatedAndEmpty(t *testing.T) {
	p, err := NewSharedPattern(map[string]string{"v": ""})
	require.NoError(t, err)

	l := p.Apply(newLedger("x", model.Record{"v": "${var.already}\n\nplain"}))
	require.NoError(t, l.Err())
	require.Equal(t, []model.Variable{model.NewVariable("plain", "plain")}, l.SharedVariables())
	require.Equal(t, model.Record{"@raw:v": "${var.already}\n\n${var.plain}"}, l.Latest())

	again := p.Apply(newLedger("x", l.Latest()))
	require.NoError(t, again.Err())
	require.Empty(t, again.SharedVariables())
}

func TestSharedPatternErrors(t *testing.T) {
	p, err := NewSharedPattern(map[string]string{"count": ""})
	require.NoError(t, err)

	l := p.Apply(newLedger("x", model.Record{"count": 3}))
	require.ErrorIs(t, l.Err(), ErrNotString)
	require.ErrorIs(t, l.Err(), errors.ErrAddressing)

	l = p.Apply(newLedger("x", model.Record{}))
	require.ErrorIs(t, l.Err(), dotpath.ErrKeyNotFound)

	_, err = NewSharedPattern(map[string]string{"a": "%{MISSING:x}"})
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestChainShortCircuits(t *testing.T) {
	annotate, err := NewAnnotate("@raw:", []string{"missing"})
	require.NoError(t, err)
	shared, err := NewSharedPattern(map[string]string{"definition": ""})
	require.NoError(t, err)

	l := Chain{annotate, shared}.Apply(newLedger("x", model.Record{"definition": "abc"}))
	require.True(t, l.HasErrors())
	require.Len(t, l.Errors(), 1)
	require.Len(t, l.Lineage(), 1)
	require.Empty(t, l.SharedVariables())
}
