package concurrency

import (
	"context"
	"sync"
)

// Drain calls drain for every value received on ch in a new goroutine. The
// returned WaitGroup is done once ch is closed and every value handled.
func Drain[T any](ch <-chan T, drain func(T)) *sync.WaitGroup {
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range ch {
			drain(msg)
		}
	}()
	return wg
}

// FanInChannels merges chans into one channel that is closed once every
// input is closed. Values from one input keep their relative order. Once
// ctx is done, values still arriving are handed to onFail instead; inputs
// are always read to the end so their writers never block.
func FanInChannels[T any](ctx context.Context, chans []<-chan T, onFail func(T)) <-chan T {
	limit := len(chans)

	out := make(chan T, limit)

	if limit == 0 {
		close(out)
		return out
	}

	pool := NewPool(ctx, limit)

	for _, c := range chans {
		pool.Go(func(ctx context.Context) error {
			for v := range c {
				if !TrySendThroughChannel(ctx, v, out) && onFail != nil {
					onFail(v)
				}
			}
			return nil
		})
	}

	go func() {
		// NOTE: the consumer of this channel will block waiting for it to close
		_ = pool.Wait()
		close(out)
	}()

	return out
}
