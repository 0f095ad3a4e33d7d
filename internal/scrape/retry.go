package scrape

import (
	"context"
	"time"

	"github.com/ffm-services/sperrmuell-kalender/internal/fes"
)

// RetryPolicy retries a single operation on rate-limit failures, sleeping a
// fixed backoff between attempts. It knows nothing about the pass loop; the
// orchestrator aggregates the outcomes.
type RetryPolicy struct {
	MaxRetries int           // additional attempts after the first
	Backoff    time.Duration // wait before each retry

	// Sleep is injectable for tests; nil means time.Sleep.
	Sleep func(time.Duration)
	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error)
}

// Do runs fn, retrying only rate-limited failures up to MaxRetries times.
// Any other result, success or failure, is returned immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !fes.IsRateLimited(err) {
			return err
		}
		if attempt >= p.MaxRetries {
			return err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, err)
		}
		sleep(p.Backoff)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
