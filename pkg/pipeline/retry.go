package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iacexport/iacexport/internal/errors"
)

// waitForPending polls pending until it reports zero, within the bounds of
// retry. Exhausting the budget fails with errors.ErrPendingTimeout.
func waitForPending(ctx context.Context, pending func() int, retry RetryConfig) error {
	var policy backoff.BackOff = backoff.NewConstantBackOff(retry.Interval)
	policy = backoff.WithMaxRetries(policy, uint64(retry.MaxAttempts))
	policy = backoff.WithContext(policy, ctx)

	start := time.Now()
	err := backoff.Retry(func() error {
		n := pending()
		if n == 0 {
			return nil
		}
		err := fmt.Errorf("%d units still pending", n)
		if retry.MaxElapsed > 0 && time.Since(start) >= retry.MaxElapsed {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.With(fmt.Errorf("waited %s: %w", time.Since(start).Round(time.Millisecond), err), errors.ErrPendingTimeout)
}
