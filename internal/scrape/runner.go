package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Runner owns the scrape cadence: one pass at startup, then one per
// interval. All passes run in a single goroutine, so two passes can never
// overlap; manual triggers queue into the same loop.
type Runner struct {
	scraper  *Scraper
	interval time.Duration
	logger   zerolog.Logger
	trigger  chan struct{}

	mu   sync.RWMutex
	last *Summary
}

// NewRunner constructs a Runner for the given pass interval.
func NewRunner(scraper *Scraper, interval time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		scraper:  scraper,
		interval: interval,
		logger:   logger.With().Str("component", "scrape-runner").Logger(),
		trigger:  make(chan struct{}, 1),
	}
}

// Trigger requests an extra pass. It reports false when a manual pass is
// already queued.
func (r *Runner) Trigger() bool {
	select {
	case r.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// LastSummary returns the most recent pass summary, or nil before the
// first pass completed.
func (r *Runner) LastSummary() *Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Run executes the startup pass and then loops until the context is
// cancelled. An in-flight pass is abandoned on shutdown; the store stays
// consistent because every upsert is atomic.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("scrape runner started")
	r.runPass(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("scrape runner stopped")
			return ctx.Err()
		case <-ticker.C:
			r.runPass(ctx)
		case <-r.trigger:
			r.logger.Info().Msg("manual scrape pass triggered")
			r.runPass(ctx)
		}
	}
}

func (r *Runner) runPass(ctx context.Context) {
	summary := r.scraper.Run(ctx)
	r.mu.Lock()
	r.last = &summary
	r.mu.Unlock()
}
