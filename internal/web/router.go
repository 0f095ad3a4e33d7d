package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ffm-services/sperrmuell-kalender/internal/telemetry"
)

// Routes assembles the HTTP routing table.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.MetricsMiddleware)

	r.Get("/", h.Index)
	r.Get("/termine", h.Termine)

	r.Get("/api/streets", h.Streets)
	r.Get("/api/housenumbers", h.Housenumbers)
	r.Get("/api/config", h.Config)
	r.Get("/api/status", h.Status)
	r.Get("/api/download", h.Download)
	r.Get("/api/subscribe/{district}", h.Subscribe)

	r.With(h.auth.RequireAuth).Post("/api/scrape", h.TriggerScrape)

	r.Handle("/metrics", telemetry.Handler())

	return r
}
