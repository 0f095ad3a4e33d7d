package fes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ffm-services/sperrmuell-kalender/internal/config"
	"github.com/ffm-services/sperrmuell-kalender/internal/dates"
	"github.com/ffm-services/sperrmuell-kalender/internal/telemetry"
)

// Form field names of the FES booking plugin. The step/submit pair selects
// the operation; data fields carry the address.
const (
	fieldStep        = "tx_fesbulkywaste_booking[step]"
	fieldSubmit      = "tx_fesbulkywaste_booking[submit]"
	fieldStreet      = "tx_fesbulkywaste_booking[data][street]"
	fieldHousenumber = "tx_fesbulkywaste_booking[data][housenumber]"

	stepSearchStreet      = "searchStreet"
	stepGetHousenumbers   = "getHousenumbers"
	stepGetAvailableDates = "getAvailableDates"
)

// The FES endpoint rejects requests that do not look like its own form
// submissions, so every request carries this fixed header set.
var requestHeaders = map[string]string{
	"Accept":           "application/json",
	"Content-Type":     "application/x-www-form-urlencoded",
	"X-Requested-With": "XMLHttpRequest",
	"Referer":          "https://www.fes-frankfurt.de/services/sperrmuell",
	"User-Agent":       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Recurrence describes the collection schedule found for one address.
// FixedDate is only set for Siedlungsabfuhr (fixed slot every 28 days);
// Weekday is always set, derived from the first available date or the
// fixed date itself.
type Recurrence struct {
	Weekday   int
	FixedDate string
	ZipCode   string
}

// IsFixedSlot reports whether the schedule recurs from a fixed anchor date
// instead of weekly.
func (r *Recurrence) IsFixedSlot() bool {
	return r.FixedDate != ""
}

// Client issues address lookups against the FES bulky waste booking API.
// A shared rate limiter paces scripted scraping and interactive lookups
// against the same request budget.
type Client struct {
	apiURL         string
	bookingPageURL string
	suggestClient  *http.Client
	lookupClient   *http.Client
	limiter        *rate.Limiter
	logger         zerolog.Logger
}

// New constructs a Client from process configuration.
func New(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		apiURL:         cfg.APIURL,
		bookingPageURL: cfg.BookingPageURL,
		suggestClient:  &http.Client{Timeout: 15 * time.Second},
		lookupClient:   &http.Client{Timeout: 20 * time.Second},
		limiter:        rate.NewLimiter(rate.Every(cfg.ScrapeDelay), 1),
		logger:         logger.With().Str("component", "fes").Logger(),
	}
}

// bookingResponse is the loosely typed JSON envelope the API answers with.
// fixedDate is a string for Siedlungsabfuhr addresses and the literal false
// otherwise, so it is decoded as any and inspected once here.
type bookingResponse struct {
	Result         []string `json:"result"`
	Zip            string   `json:"zip"`
	FixedDate      any      `json:"fixedDate"`
	AvailableDates []any    `json:"availableDates"`
}

// SuggestStreets returns the provider's street name suggestions for a query
// prefix. Queries shorter than two characters return no results without
// contacting the API.
func (c *Client) SuggestStreets(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return []string{}, nil
	}

	form := url.Values{}
	form.Set(fieldStep, stepSearchStreet)
	form.Set(fieldSubmit, stepSearchStreet)
	form.Set(fieldStreet, query)

	resp, err := c.postForm(ctx, c.suggestClient, stepSearchStreet, form)
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return []string{}, nil
	}
	return resp.Result, nil
}

// SuggestHousenumbers returns the known housenumbers for a street.
// A blank street returns no results without contacting the API.
func (c *Client) SuggestHousenumbers(ctx context.Context, street string) ([]string, error) {
	street = strings.TrimSpace(street)
	if street == "" {
		return []string{}, nil
	}

	form := url.Values{}
	form.Set(fieldStep, stepGetHousenumbers)
	form.Set(fieldSubmit, stepGetHousenumbers)
	form.Set(fieldStreet, street)

	resp, err := c.postForm(ctx, c.suggestClient, stepGetHousenumbers, form)
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return []string{}, nil
	}
	return resp.Result, nil
}

// LookupSchedule queries the available collection dates for an address and
// normalizes the answer into a Recurrence. A nil Recurrence with nil error
// means the provider knows no schedule for the address.
func (c *Client) LookupSchedule(ctx context.Context, street, housenumber string) (*Recurrence, error) {
	form := url.Values{}
	form.Set(fieldStep, stepGetAvailableDates)
	form.Set(fieldSubmit, stepGetAvailableDates)
	form.Set(fieldStreet, street)
	form.Set(fieldHousenumber, housenumber)

	resp, err := c.postForm(ctx, c.lookupClient, stepGetAvailableDates, form)
	if err != nil {
		return nil, err
	}

	fixedDate := ""
	var fixedTime time.Time
	if s, ok := resp.FixedDate.(string); ok {
		if t, err := parseISODateTime(s); err == nil {
			fixedDate = s
			fixedTime = t
		}
	}

	// Regular case: the provider lists bookable dates. The weekday comes
	// from the first listed date; later dates are deliberately not checked
	// for weekday agreement.
	if len(resp.AvailableDates) > 0 {
		weekday := 0
		if s, ok := resp.AvailableDates[0].(string); ok {
			t, err := parseISODateTime(s)
			if err != nil {
				return nil, fmt.Errorf("fes: unparseable available date %q: %w", s, err)
			}
			weekday = dates.WeekdayIndex(t)
		}
		return &Recurrence{Weekday: weekday, FixedDate: fixedDate, ZipCode: resp.Zip}, nil
	}

	// Siedlungsabfuhr: only a fixed anchor date, no individual dates.
	if fixedDate != "" {
		return &Recurrence{Weekday: dates.WeekdayIndex(fixedTime), FixedDate: fixedDate, ZipCode: resp.Zip}, nil
	}

	return nil, nil
}

func (c *Client) postForm(ctx context.Context, httpClient *http.Client, step string, form url.Values) (*bookingResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("fes: build request: %w", err)
	}
	for k, v := range requestHeaders {
		req.Header.Set(k, v)
	}

	telemetry.FESRequestsTotal.WithLabelValues(step).Inc()

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fes: %s request failed: %w", step, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var decoded bookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("fes: decode %s response: %w", step, err)
	}
	return &decoded, nil
}

// parseISODateTime accepts the date formats the provider is known to emit:
// RFC 3339, zoneless date-time, and bare date.
func parseISODateTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
