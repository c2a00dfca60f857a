// Package containers holds small concurrent data structures.
package containers

import (
	"iter"
	"slices"
	"sync/atomic"
)

// node facilitates a basic link-list data type.
type node[T any] struct {
	value T
	next  *node[T]
}

// Bag is an append-only collection safe for concurrent writers. Adding
// never blocks; values can only be read back by draining the Bag.
// A zero value Bag can be used without initialization.
type Bag[T any] struct {
	head atomic.Pointer[node[T]]
	size atomic.Int64
}

// Add adds the provided values to the Bag.
func (b *Bag[T]) Add(v ...T) {
	if len(v) == 0 {
		return
	}

	// link the new values so the last one ends up first
	var newHead, tail *node[T]
	for _, value := range v {
		n := &node[T]{value: value, next: newHead}
		if tail == nil {
			tail = n
		}
		newHead = n
	}

	for {
		oldHead := b.head.Load()
		tail.next = oldHead
		if b.head.CompareAndSwap(oldHead, newHead) {
			break
		}
	}
	b.size.Add(int64(len(v)))
}

// Len reports how many values have been added and not yet drained.
func (b *Bag[T]) Len() int {
	return int(b.size.Load())
}

// Drain removes every value from the Bag and returns them in the order
// they were added. Values added concurrently with Drain are either
// returned or left in the Bag, never lost.
func (b *Bag[T]) Drain() []T {
	head := b.head.Swap(nil)

	var out []T
	for n := head; n != nil; n = n.next {
		out = append(out, n.value)
	}
	b.size.Add(-int64(len(out)))

	slices.Reverse(out)
	return out
}

// Seq drains the Bag and yields its values in the order they were added.
func (b *Bag[T]) Seq() iter.Seq[T] {
	values := b.Drain()
	return slices.Values(values)
}
