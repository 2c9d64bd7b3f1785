package app

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"slack-upload/internal/logging"
	"slack-upload/internal/slack"
)

const (
	defaultRetryInitialInterval = 500 * time.Millisecond
	retryMaxInterval            = 10 * time.Second
)

// withRetry runs op once, or with exponential backoff when retries are
// enabled. Only network failures are retried; anything Slack answered is
// final.
func withRetry[T any](ctx context.Context, o *Orchestrator, stage string, op func() (T, error)) (T, error) {
	if o.opts.Retries <= 0 {
		return op()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = o.opts.RetryInitialInterval
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = defaultRetryInitialInterval
	}
	policy.MaxInterval = retryMaxInterval
	policy.Reset()

	return backoff.Retry(ctx, func() (T, error) {
		value, err := op()
		if err != nil && !slack.IsNetworkError(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(o.opts.Retries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			o.logger.Warn("retrying after network failure",
				logging.Field("stage", stage),
				logging.Field("error", err),
				logging.Field("next_retry", next.String()),
			)
		}),
	)
}
