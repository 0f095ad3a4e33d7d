package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScrapePassesTotal counts completed scrape passes.
	ScrapePassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sperrmuell_scrape_passes_total",
		Help: "Completed scrape passes over the address sample list.",
	})

	// ScrapeSamplesTotal counts processed address samples by outcome.
	ScrapeSamplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sperrmuell_scrape_samples_total",
		Help: "Processed address samples by terminal outcome.",
	}, []string{"outcome"})

	// FESRequestsTotal counts outbound requests to the FES API by step.
	FESRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sperrmuell_fes_requests_total",
		Help: "Outbound requests to the FES booking API by operation.",
	}, []string{"step"})

	// HTTPRequestsTotal counts handled HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sperrmuell_http_requests_total",
		Help: "Handled HTTP requests.",
	}, []string{"method", "endpoint", "status"})

	// HTTPRequestDuration observes request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sperrmuell_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
