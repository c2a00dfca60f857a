package concurrency

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrySendThroughChannel(t *testing.T) {
	t.Run("ctx_cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		channel := make(chan int)
		require.False(t, TrySendThroughChannel(ctx, 1, channel))
	})

	t.Run("sent", func(t *testing.T) {
		channel := make(chan int, 1)
		require.True(t, TrySendThroughChannel(context.Background(), 7, channel))
		require.Equal(t, 7, <-channel)
	})
}

func TestNewPoolFirstError(t *testing.T) {
	p := NewPool(context.Background(), 2)
	p.Go(func(ctx context.Context) error {
		return context.DeadlineExceeded
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, p.Wait(), context.DeadlineExceeded)
}
