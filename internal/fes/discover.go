package fes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverBookingParams fetches the public booking page and extracts the
// action URL of the bulky waste form. The URL carries the cid and cHash
// query parameters the API validates, which change when FES rebuilds the
// page; rediscovery avoids hardcoding a stale cHash.
func (c *Client) DiscoverBookingParams(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bookingPageURL, nil)
	if err != nil {
		return "", fmt.Errorf("fes: build discovery request: %w", err)
	}
	req.Header.Set("User-Agent", requestHeaders["User-Agent"])

	resp, err := c.suggestClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fes: fetch booking page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fes: parse booking page: %w", err)
	}

	var action string
	doc.Find("form").EachWithBreak(func(_ int, form *goquery.Selection) bool {
		a, ok := form.Attr("action")
		if !ok {
			return true
		}
		if strings.Contains(a, "tx_fesbulkywaste_booking") {
			action = a
			return false
		}
		// Fallback: a form whose inputs belong to the booking plugin.
		if form.Find(`input[name^="tx_fesbulkywaste_booking"]`).Length() > 0 {
			action = a
			return false
		}
		return true
	})

	if action == "" {
		return "", fmt.Errorf("fes: no booking form found on %s", c.bookingPageURL)
	}

	base, err := url.Parse(c.bookingPageURL)
	if err != nil {
		return "", fmt.Errorf("fes: parse booking page url: %w", err)
	}
	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("fes: parse form action %q: %w", action, err)
	}

	resolved := base.ResolveReference(ref).String()
	c.logger.Info().Str("url", resolved).Msg("discovered booking form action")
	return resolved, nil
}

// SetAPIURL replaces the configured API endpoint, typically with a freshly
// discovered form action.
func (c *Client) SetAPIURL(u string) {
	c.apiURL = u
}
