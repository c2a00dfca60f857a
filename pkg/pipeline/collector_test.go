package pipeline

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iacexport/iacexport/internal/errors"
	"github.com/iacexport/iacexport/pkg/logger"
	"github.com/iacexport/iacexport/pkg/model"
)

func sharedLedger(vars ...model.Variable) *model.Ledger {
	l := model.NewLedger(&model.Object{RawID: "x", Record: model.Record{}})
	l.Commit(model.Record{}, nil, vars)
	return l
}

func TestCollectorOfferFilter(t *testing.T) {
	c := NewCollector(nil)

	require.False(t, c.Offer(sharedLedger()))

	failed := sharedLedger(model.NewVariable("a", "a"))
	failed.AddError(errors.New("boom"))
	require.False(t, c.Offer(failed))

	require.True(t, c.Offer(sharedLedger(model.NewVariable("a", "a"))))
}

func TestCollectorFlushUnionsDistinctLists(t *testing.T) {
	c := NewCollector(nil)

	a := model.NewVariable("_123", "123")
	b := model.NewVariable("us_east", "us-east")
	d := model.NewVariable("dbfs_init", "dbfs:/init.sh")

	require.True(t, c.Offer(sharedLedger(a, b)))
	require.True(t, c.Offer(sharedLedger(b, a)))
	require.True(t, c.Offer(sharedLedger(a)))
	require.True(t, c.Offer(sharedLedger(b, d)))

	got, err := c.Flush()
	require.NoError(t, err)
	require.Equal(t, []model.Variable{a, d, b}, got)
}

func TestCollectorFlush(t *testing.T) {
	log, logs := logger.NewObserverLogger("warn")
	c := NewCollector(log)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				c.Offer(sharedLedger(model.NewVariable("us_east", "us-east"), model.NewVariable("_123", "123")))
			} else {
				c.Offer(sharedLedger(model.NewVariable("_123", "123")))
			}
		}()
	}
	wg.Wait()
	c.Offer(sharedLedger(model.NewVariable("us_east", "us east")))

	vars, err := c.Flush()
	require.NoError(t, err)
	require.Equal(t, []model.Variable{
		model.NewVariable("_123", "123"),
		model.NewVariable("us_east", "us east"),
	}, vars)
	require.Equal(t, 1, logs.FilterMessage("shared variable defined with different defaults").Len())

	_, err = c.Flush()
	require.ErrorIs(t, err, ErrAlreadyFlushed)
}

func TestWaitForPending(t *testing.T) {
	ctx := t.Context()
	retry := RetryConfig{Interval: time.Millisecond, MaxAttempts: 50, MaxElapsed: time.Second}

	var remaining atomic.Int32
	remaining.Store(3)
	err := waitForPending(ctx, func() int {
		return int(remaining.Add(-1))
	}, retry)
	require.NoError(t, err)

	err = waitForPending(ctx, func() int { return 1 }, RetryConfig{Interval: time.Millisecond, MaxAttempts: 3})
	require.ErrorIs(t, err, errors.ErrPendingTimeout)
	require.ErrorContains(t, err, "1 units still pending")

	err = waitForPending(ctx, func() int { return 1 }, RetryConfig{Interval: 5 * time.Millisecond, MaxAttempts: 1000, MaxElapsed: 20 * time.Millisecond})
	require.ErrorIs(t, err, errors.ErrPendingTimeout)
}

func TestKindName(t *testing.T) {
	require.Equal(t, "addressing", KindName(errors.With(errors.New("x"), errors.ErrAddressing)))
	require.Equal(t, "fetch", KindName(errors.With(errors.New("x"), errors.ErrFetch)))
	require.Equal(t, "object", KindName(errors.New("x")))
}
