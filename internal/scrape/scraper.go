package scrape

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/ffm-services/sperrmuell-kalender/internal/config"
	"github.com/ffm-services/sperrmuell-kalender/internal/dates"
	"github.com/ffm-services/sperrmuell-kalender/internal/fes"
	"github.com/ffm-services/sperrmuell-kalender/internal/store"
	"github.com/ffm-services/sperrmuell-kalender/internal/telemetry"
)

// Outcome is the terminal state of one address sample within a pass.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNoSchedule
	OutcomeRateLimited
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoSchedule:
		return "no_schedule"
	case OutcomeRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// maxSkipSamples bounds the diagnostic list in a pass summary.
const maxSkipSamples = 15

// SkipReason records why a district's sample produced no schedule.
type SkipReason struct {
	District string `json:"stadtteil"`
	Reason   string `json:"reason"`
}

// Summary aggregates one full pass over the address sample list.
type Summary struct {
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Total       int          `json:"total"`
	Success     int          `json:"success"`
	NoSchedule  int          `json:"no_schedule"`
	RateLimited int          `json:"rate_limited"`
	Failed      int          `json:"failed"`
	Skipped     []SkipReason `json:"skipped,omitempty"`
}

func (s *Summary) recordSkip(district, reason string) {
	if len(s.Skipped) < maxSkipSamples {
		s.Skipped = append(s.Skipped, SkipReason{District: district, Reason: reason})
	}
}

// LookupClient is the slice of the FES client the orchestrator needs.
type LookupClient interface {
	LookupSchedule(ctx context.Context, street, housenumber string) (*fes.Recurrence, error)
}

// ScheduleStore is the slice of the schedule store the orchestrator needs.
type ScheduleStore interface {
	Upsert(entry *store.ScheduleEntry) error
}

// Scraper drives one full pass over all address samples, strictly
// sequentially. The jittered pause between samples is the primary defense
// against the provider's rate limiting; the retry policy handles the 429s
// that slip through anyway.
type Scraper struct {
	client      LookupClient
	store       ScheduleStore
	samplesPath string
	baseDelay   time.Duration
	retry       RetryPolicy
	logger      zerolog.Logger

	// injectable for tests
	sleep     func(time.Duration)
	now       func() time.Time
	randFloat func() float64
}

// New constructs a Scraper from process configuration.
func New(client LookupClient, st ScheduleStore, cfg *config.Config, logger zerolog.Logger) *Scraper {
	return &Scraper{
		client:      client,
		store:       st,
		samplesPath: cfg.AddressesPath(),
		baseDelay:   cfg.ScrapeDelay,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries429,
			Backoff:    cfg.RetryAfter429,
		},
		logger:    logger.With().Str("component", "scrape").Logger(),
		sleep:     time.Sleep,
		now:       time.Now,
		randFloat: rand.Float64,
	}
}

// Run executes one full scrape pass. Per-sample failures are recorded in
// the summary and never abort the loop. Re-running a pass against the same
// external data reproduces the same stored state.
func (s *Scraper) Run(ctx context.Context) Summary {
	summary := Summary{StartedAt: s.now()}

	samples, err := LoadSamples(s.samplesPath)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.samplesPath).Msg("cannot load address samples")
		summary.FinishedAt = s.now()
		return summary
	}
	if len(samples) == 0 {
		s.logger.Warn().Str("path", s.samplesPath).Msg("no address samples configured")
		summary.FinishedAt = s.now()
		return summary
	}

	summary.Total = len(samples)
	for i, sample := range samples {
		if ctx.Err() != nil {
			s.logger.Warn().Int("processed", i).Msg("scrape pass abandoned")
			break
		}

		outcome := s.processSample(ctx, i, len(samples), sample, &summary)
		telemetry.ScrapeSamplesTotal.WithLabelValues(outcome.String()).Inc()

		s.pause()
	}

	summary.FinishedAt = s.now()
	telemetry.ScrapePassesTotal.Inc()

	s.logger.Info().
		Int("success", summary.Success).
		Int("no_schedule", summary.NoSchedule).
		Int("rate_limited", summary.RateLimited).
		Int("failed", summary.Failed).
		Msg("scrape pass finished")
	if len(summary.Skipped) > 0 {
		s.logger.Info().Interface("skipped", summary.Skipped).Msg("districts without result (sample)")
	}

	return summary
}

func (s *Scraper) processSample(ctx context.Context, idx, total int, sample AddressSample, summary *Summary) Outcome {
	if sample.District == "" || sample.Street == "" || sample.Housenumber == "" {
		summary.Failed++
		summary.recordSkip(sample.District, "unvollständige Adresse")
		s.logger.Warn().Int("index", idx+1).Msg("skipping incomplete address sample")
		return OutcomeFailed
	}

	retry := s.retry
	retry.Sleep = s.sleep
	retry.OnRetry = func(attempt int, err error) {
		s.logger.Warn().
			Str("street", sample.Street).
			Str("number", sample.Housenumber).
			Dur("wait", retry.Backoff).
			Msgf("rate limited (429), retry %d/%d", attempt, retry.MaxRetries)
	}

	var rec *fes.Recurrence
	err := retry.Do(ctx, func() error {
		var lookupErr error
		rec, lookupErr = s.client.LookupSchedule(ctx, sample.Street, sample.Housenumber)
		return lookupErr
	})

	switch {
	case err == nil && rec != nil:
		entry := &store.ScheduleEntry{
			District:    sample.District,
			Street:      sample.Street,
			Housenumber: sample.Housenumber,
			Weekday:     rec.Weekday,
			FixedDate:   rec.FixedDate,
			ZipCode:     rec.ZipCode,
			ScrapedAt:   s.now(),
		}
		if upsertErr := s.store.Upsert(entry); upsertErr != nil {
			summary.Failed++
			summary.recordSkip(sample.District, truncateReason(upsertErr.Error()))
			s.logger.Error().Err(upsertErr).Str("stadtteil", sample.District).Msg("failed to store schedule")
			return OutcomeFailed
		}
		summary.Success++
		suffix := ""
		if rec.IsFixedSlot() {
			suffix = " (Siedlungsabfuhr)"
		}
		s.logger.Info().Msgf("[%d/%d] %s %s %s -> %s%s",
			idx+1, total, sample.District, sample.Street, sample.Housenumber,
			dates.ShortWeekdayNames[rec.Weekday], suffix)
		return OutcomeSuccess

	case err == nil:
		summary.NoSchedule++
		summary.recordSkip(sample.District, "Keine Termine")
		s.logger.Info().Msgf("[%d/%d] %s %s %s -> keine Termine",
			idx+1, total, sample.District, sample.Street, sample.Housenumber)
		return OutcomeNoSchedule

	case fes.IsRateLimited(err):
		summary.RateLimited++
		summary.recordSkip(sample.District, "429 Zu viele Anfragen")
		s.logger.Info().Msgf("[%d/%d] %s %s %s -> übersprungen (429)",
			idx+1, total, sample.District, sample.Street, sample.Housenumber)
		return OutcomeRateLimited

	default:
		summary.Failed++
		var statusErr *fes.StatusError
		if errors.As(err, &statusErr) {
			summary.recordSkip(sample.District, strconv.Itoa(statusErr.StatusCode))
		} else {
			summary.recordSkip(sample.District, truncateReason(err.Error()))
		}
		s.logger.Warn().Err(err).Msgf("[%d/%d] %s %s %s -> Fehler",
			idx+1, total, sample.District, sample.Street, sample.Housenumber)
		return OutcomeFailed
	}
}

// pause waits the base inter-request delay plus 12.5–37.5% jitter. This
// pacing between samples, not the retry backoff, is what keeps a pass under
// the provider's rate limit.
func (s *Scraper) pause() {
	jitter := time.Duration(float64(s.baseDelay) * 0.25 * (0.5 + s.randFloat()))
	s.sleep(s.baseDelay + jitter)
}

func truncateReason(reason string) string {
	if len(reason) > 50 {
		return reason[:50]
	}
	return reason
}
