package retry

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// Classifier decides whether an error returned by an operation is worth retrying.
type Classifier func(error) bool

// Always retries every non-nil error.
func Always(err error) bool { return err != nil }

// Do runs fn until it succeeds, the policy's retry budget is exhausted, the
// classifier rejects the error, or ctx is done. The last error is returned.
// op names the operation in log output.
func Do(ctx context.Context, p Policy, op string, retryable Classifier, fn func(ctx context.Context) error) error {
	if retryable == nil {
		retryable = Always
	}
	var err error
	for attempt := 0; ; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = fn(ctx)
		if err == nil {
			if attempt > 0 {
				slog.Debug("Operation succeeded after retry", logfields.Operation(op), logfields.Attempt(attempt+1))
			}
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			return err
		}
		delay := p.Delay(attempt + 1)
		slog.Warn("Operation failed; retrying",
			logfields.Operation(op),
			logfields.Attempt(attempt+1),
			slog.Duration("delay", delay),
			logfields.Error(err))
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
