// Package retry runs read-modify-write closures under the optimistic
// concurrency policy shared by every mutating event operation.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

const (
	// DefaultMaxAttempts bounds the number of times a closure runs.
	DefaultMaxAttempts = 25
	// DefaultStep is the linear backoff increment between attempts.
	DefaultStep = 250 * time.Millisecond
)

// Policy retries a closure with linear backoff while Retriable accepts the
// error it returned. Once attempts are exhausted the last error is returned
// as is.
type Policy struct {
	MaxAttempts int
	Step        time.Duration
	Retriable   func(error) bool
}

// New returns the default policy for the given error predicate.
func New(retriable func(error) bool) Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Step:        DefaultStep,
		Retriable:   retriable,
	}
}

// Do runs fn until it succeeds, returns a non-retriable error, or the
// policy runs out of attempts. Every attempt starts from scratch, so fn must
// re-read whatever state it validates.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := goretry.WithMaxRetries(uint64(attempts-1), linearBackoff(p.Step))

	return goretry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil && p.Retriable != nil && p.Retriable(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
}

// linearBackoff waits step, 2*step, 3*step, ... between attempts.
func linearBackoff(step time.Duration) goretry.Backoff {
	var n int64
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return time.Duration(n) * step, false
	})
}
