// Package retry implements the bounded-attempt backoff policy shared by
// query generation and session recovery.
package retry

import (
	"context"
	"time"

	"searchagent/internal/timing"
)

// Policy bounds an operation to a fixed number of attempts with exponential
// backoff between them: BaseDelay after the first failure, doubling per
// attempt.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

// Do runs fn until it succeeds or the attempt budget is spent. The backoff
// sleeps go through the sleeper, so cancellation during a wait aborts the
// loop with the context error. Returns nil on success, otherwise the last
// error seen.
func (p Policy) Do(ctx context.Context, sleeper timing.Sleeper, fn func(attempt int) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts-1 || p.BaseDelay <= 0 {
			continue
		}
		if serr := sleeper.Sleep(ctx, p.BaseDelay<<attempt); serr != nil {
			return serr
		}
	}
	return err
}
