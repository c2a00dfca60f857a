package containers

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBag(t *testing.T) {
	var b Bag[int]

	for i := range 1000 {
		b.Add(i + 1)
	}
	b.Add(1001, 1002)
	require.Equal(t, 1002, b.Len())

	values := b.Drain()
	require.Len(t, values, 1002)
	for i, v := range values {
		require.Equal(t, i+1, v)
	}
	require.Zero(t, b.Len())
	require.Empty(t, b.Drain())
}

func TestBagConcurrentAdd(t *testing.T) {
	var b Bag[int]
	var wg sync.WaitGroup

	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				b.Add(w*100 + i)
			}
		}()
	}
	wg.Wait()

	values := slices.Collect(b.Seq())
	require.Len(t, values, 800)
	slices.Sort(values)
	for i, v := range values {
		require.Equal(t, i, v)
	}
}

func TestAtomicMap(t *testing.T) {
	var m AtomicMap[string, string]

	v, loaded := m.LoadOrStore("exports/cluster/a.tf.json", "1")
	require.False(t, loaded)
	require.Equal(t, "1", v)

	v, loaded = m.LoadOrStore("exports/cluster/a.tf.json", "2")
	require.True(t, loaded)
	require.Equal(t, "1", v)

	v, loaded = m.LoadOrStore("exports/cluster/b.tf.json", "3")
	require.False(t, loaded)
	require.Equal(t, "3", v)
}

func BenchmarkBag(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var b Bag[int]
		for i := range 1000 {
			b.Add(i)
		}
	}
}
