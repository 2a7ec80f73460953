package retry

// Retries transient remote failures (429 and 5xx) with full-jitter exponential
// backoff. A 429 carrying a retry-after delay waits for that delay instead.

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// APIError is a failed remote call with its status code.
type APIError struct {
	Code       int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("api error (%d)", e.Code)
	}
	return fmt.Sprintf("api error (%d): %s", e.Code, e.Message)
}

// transient reports the APIError behind err when its code is worth retrying.
func transient(err error) (*APIError, bool) {
	var ae *APIError
	if !errors.As(err, &ae) {
		return nil, false
	}
	switch ae.Code {
	case 429, 500, 502, 503, 504:
		return ae, true
	}
	return ae, false
}

// delay is the wait before retry number attempt+1.
func (o Options) delay(attempt int, ae *APIError) time.Duration {
	if ae != nil && ae.Code == 429 && ae.RetryAfter > 0 {
		return o.capped(ae.RetryAfter)
	}
	ceiling := o.capped(o.BaseDelay << min(attempt, 30))
	if ceiling <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}

func (o Options) capped(d time.Duration) time.Duration {
	if o.MaxDelay > 0 && d > o.MaxDelay {
		return o.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns a non-transient error, or runs out of attempts.
func Do(ctx context.Context, opts Options, fn func() error) error {
	opts.MaxRetries = max(opts.MaxRetries, 0)
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 300 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		ae, ok := transient(err)
		if !ok || attempt == opts.MaxRetries {
			return err
		}

		t := time.NewTimer(opts.delay(attempt, ae))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
