package workgroup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func add(i *atomic.Int32) func(context.Context, int32) (int32, error) {
	return func(_ context.Context, j int32) (int32, error) {
		return i.Add(j), nil
	}
}

func TestBoundWorkGroupPushToClosedPool(t *testing.T) {
	var i atomic.Int32

	ctx := context.Background()

	p := Bound(2, add(&i))

	f1 := p.Push(ctx, 1)
	require.NoError(t, p.Close())
	f2 := p.Push(ctx, 2)

	v, err := f1.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), v)

	_, err = f2.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(1), i.Load())
}

func TestBoundWorkGroupPushToCanceledContext(t *testing.T) {
	var i atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())

	p := Bound(2, add(&i))
	defer p.Close()

	f1 := p.Push(ctx, 1)
	_, err := f1.Wait(context.Background())
	require.NoError(t, err)
	cancel()
	f2 := p.Push(ctx, 2)

	_, err = f2.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(1), i.Load())
}

func TestBoundWorkGroupBlocking(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})

	p := Bound(1, func(_ context.Context, j int32) (int32, error) {
		<-release
		return j, nil
	})
	defer p.Close()

	f1 := p.Push(ctx, 1)
	require.Equal(t, 1, p.Pending())

	pushed := make(chan *Future[int32])
	go func() {
		pushed <- p.Push(ctx, 2)
	}()

	select {
	case <-pushed:
		t.Fatal("push must block while the only worker is busy")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	f2 := <-pushed

	v1, err := f1.Wait(ctx)
	require.NoError(t, err)
	v2, err := f2.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2}, []int32{v1, v2})

	require.Eventually(t, func() bool { return p.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestBoundWorkGroupPanic(t *testing.T) {
	ctx := context.Background()

	p := Bound(2, func(context.Context, int32) (int32, error) {
		panic("boom")
	})
	defer p.Close()

	_, err := p.Push(ctx, 1).Wait(ctx)
	require.EqualError(t, err, "boom")
}

func TestFutureWaitCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFuture[int]()
	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	v, err := Resolved(3, nil).Wait(ctx)
	// a resolved future may still lose the race against ctx
	if err == nil {
		require.Equal(t, 3, v)
	}
}
