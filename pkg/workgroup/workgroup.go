// Package workgroup runs units of work on a bounded set of goroutines and
// hands back a Future per unit.
package workgroup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Future holds the result of one pushed unit.
type Future[R any] struct {
	done  chan struct{}
	value R
	err   error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// Resolved returns a Future that is already complete.
func Resolved[R any](value R, err error) *Future[R] {
	f := newFuture[R]()
	f.resolve(value, err)
	return f
}

func (f *Future[R]) resolve(value R, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Wait blocks until the result is available or ctx is done.
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Group is intended to concurrently perform a defined unit of work over an
// input set.
//
// Push sends a value to the Group for processing and returns the Future of
// its result. Push blocks while the Group cannot accept more inputs. If the
// Group has been closed, or ctx is done before the input is accepted, the
// Future resolves with an error right away.
//
// Pending reports how many accepted inputs have not completed yet.
//
// Close signals the Group that it must finish processing. It blocks until
// every accepted input has completed.
type Group[T, R any] interface {
	Push(ctx context.Context, t T) *Future[R]
	Pending() int
	Close() error
}

// boundGroup spawns a new go routine for each input up to a specified
// limit. If there is no input waiting to be processed, no go routines are
// running.
type boundGroup[T, R any] struct {
	wg      sync.WaitGroup
	limiter chan struct{}
	fn      func(context.Context, T) (R, error)
	pending atomic.Int64
	once    sync.Once
	ctx     context.Context
	cancel  func()
}

func (p *boundGroup[T, R]) Push(ctx context.Context, t T) *Future[R] {
	var zero R

	if err := p.ctx.Err(); err != nil {
		return Resolved(zero, err)
	}

	if err := ctx.Err(); err != nil {
		return Resolved(zero, err)
	}

	select {
	case <-p.ctx.Done():
		return Resolved(zero, p.ctx.Err())
	case <-ctx.Done():
		return Resolved(zero, ctx.Err())
	case p.limiter <- struct{}{}:
	}

	f := newFuture[R]()
	p.pending.Add(1)
	p.wg.Add(1)
	go func() {
		var (
			value R
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				value, err = zero, fmt.Errorf("%v", r)
			}
			f.resolve(value, err)
			<-p.limiter
			p.pending.Add(-1)
			p.wg.Done()
		}()
		value, err = p.fn(ctx, t)
	}()
	return f
}

func (p *boundGroup[T, R]) Pending() int {
	return int(p.pending.Load())
}

func (p *boundGroup[T, R]) Close() error {
	p.once.Do(p.cancel)
	p.wg.Wait()
	return nil
}

// Bound returns a Group that processes input by spawning a new go routine
// over fn for each input up to limit. A panic in fn resolves the Future
// with an error.
func Bound[T, R any](limit uint32, fn func(context.Context, T) (R, error)) Group[T, R] {
	if limit == 0 {
		limit = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &boundGroup[T, R]{
		limiter: make(chan struct{}, limit),
		fn:      fn,
		ctx:     ctx,
		cancel:  cancel,
	}
}
