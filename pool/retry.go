package pool

import (
	"context"

	backoff "github.com/cenkalti/backoff/v5"

	"github.com/e-sites/ObjectPool/errs"
)

// AcquireWithRetry keeps retrying Acquire with exponential backoff while the
// pool reports the drained error, until the context is done or the retry
// options give up. Any other failure is permanent and returned immediately.
// This is the recommended caller strategy for treating a drained static pool
// as a backpressure signal.
func AcquireWithRetry[T any](ctx context.Context, p *Pool[T], opts ...backoff.RetryOption) (*Item[T], error) {
	operation := func() (*Item[T], error) {
		it, err := p.Acquire()
		if err != nil {
			if errs.IsDrained(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return it, nil
	}
	return backoff.Retry(ctx, operation, opts...)
}
