package dotpath

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]struct {
		expr     string
		segments []Segment
		err      error
	}{
		`single_key`: {
			expr:     "name",
			segments: []Segment{{Kind: KeySegment, Key: "name"}},
		},
		`nested`: {
			expr: "spark_conf.pool.id",
			segments: []Segment{
				{Kind: KeySegment, Key: "spark_conf"},
				{Kind: KeySegment, Key: "pool"},
				{Kind: KeySegment, Key: "id"},
			},
		},
		`index_and_wildcard`: {
			expr: "libraries.[2].jars.[*].path",
			segments: []Segment{
				{Kind: KeySegment, Key: "libraries"},
				{Kind: IndexSegment, Index: 2},
				{Kind: KeySegment, Key: "jars"},
				{Kind: WildcardSegment},
				{Kind: KeySegment, Key: "path"},
			},
		},
		`empty`:             {expr: "", err: ErrSyntax},
		`empty_segment`:     {expr: "a..b", err: ErrSyntax},
		`trailing_dot`:      {expr: "a.", err: ErrSyntax},
		`ends_with_index`:   {expr: "a.[0]", err: ErrSyntax},
		`ends_with_star`:    {expr: "a.[*]", err: ErrSyntax},
		`bad_index`:         {expr: "a.[x].b", err: ErrSyntax},
		`negative_index`:    {expr: "a.[-1].b", err: ErrSyntax},
		`unbalanced`:        {expr: "a[0].b", err: ErrSyntax},
		`unbalanced_closer`: {expr: "a.b]", err: ErrSyntax},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := Parse(test.expr)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				var pathErr *Error
				require.ErrorAs(t, err, &pathErr)
				require.Equal(t, test.expr, pathErr.Path)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.segments, p.segments)
			require.Equal(t, test.expr, p.String())
		})
	}
}

func TestMustParsePanics(t *testing.T) {
	require.Panics(t, func() { MustParse("a..b") })
	require.NotPanics(t, func() { MustParse("a.b") })
}

func TestLeaf(t *testing.T) {
	require.Equal(t, "node_type", MustParse("node_type").Leaf())
	require.Equal(t, "package", MustParse("libraries.[*].pypi.package").Leaf())
	require.Empty(t, Path{}.Leaf())
}

func TestHasPrefix(t *testing.T) {
	tests := []struct {
		path   string
		prefix string
		want   bool
	}{
		{path: "a.b", prefix: "a", want: true},
		{path: "a.b", prefix: "a.b", want: true},
		{path: "a.b", prefix: "a.b.c", want: false},
		{path: "node_type", prefix: "node", want: false},
		{path: "a.[0].b", prefix: "a.[0]", want: true},
		{path: "a.[0].b", prefix: "a.[*]", want: false},
	}
	for _, test := range tests {
		p := MustParse(test.path)
		prefix := Path{raw: test.prefix}
		for _, part := range splitForTest(test.prefix) {
			seg, err := parseSegment(part)
			require.NoError(t, err)
			prefix.segments = append(prefix.segments, seg)
		}
		require.Equal(t, test.want, p.HasPrefix(prefix), "%s has prefix %s", test.path, test.prefix)
	}
}

func splitForTest(expr string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '.' {
			parts = append(parts, expr[start:i])
			start = i + 1
		}
	}
	return append(parts, expr[start:])
}

func TestUnannotated(t *testing.T) {
	require.Equal(t, "definition", Unannotated("@raw:definition"))
	require.Equal(t, "source", Unannotated("@expr:source"))
	require.Equal(t, "plain", Unannotated("plain"))
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Path: "a.b", Segment: "b", Err: ErrKeyNotFound}
	require.Equal(t, `path "a.b" at "b": key not found`, err.Error())
	require.True(t, errors.Is(err, ErrKeyNotFound))
}
