package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ffm-services/sperrmuell-kalender/internal/config"
	"github.com/ffm-services/sperrmuell-kalender/internal/dates"
	"github.com/ffm-services/sperrmuell-kalender/internal/fes"
	"github.com/ffm-services/sperrmuell-kalender/internal/scrape"
	"github.com/ffm-services/sperrmuell-kalender/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// User-facing lookup errors, deliberately distinct so visitors know whether
// to fix their input, wait, or come back later.
const (
	msgNotFound = "Für diese Adresse wurden keine Sperrmüll-Termine gefunden. " +
		"Bitte Schreibweise prüfen (z.B. „Str.“ statt „Strasse“) oder eine andere Hausnummer versuchen."
	msgRateLimited = "Die Abfrage ist derzeit zu oft genutzt. Bitte in einer Minute erneut versuchen."
	msgUpstream    = "Die Abfrage konnte nicht durchgeführt werden. Bitte später erneut versuchen."
	msgTransport   = "Ein Fehler ist aufgetreten. Bitte Schreibweise der Straße prüfen " +
		"(z.B. „Str.“ statt „Strasse“) und es erneut versuchen."
)

// ScheduleReader is the read side of the schedule store.
type ScheduleReader interface {
	ListByDistrict(district string) ([]store.ScheduleEntry, error)
	ListFixedSlotEntries(district string) ([]store.ScheduleEntry, error)
	ListDistrictsWithData() ([]string, error)
	GroupByWeekday() (map[int][]store.ScheduleEntry, error)
	Stats() (*store.Stats, error)
}

// AddressClient answers live address queries against the FES API.
type AddressClient interface {
	SuggestStreets(ctx context.Context, query string) ([]string, error)
	SuggestHousenumbers(ctx context.Context, street string) ([]string, error)
	LookupSchedule(ctx context.Context, street, housenumber string) (*fes.Recurrence, error)
}

// PassController exposes the scrape runner to the admin endpoint.
type PassController interface {
	Trigger() bool
	LastSummary() *scrape.Summary
}

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	store  ScheduleReader
	client AddressClient
	runner PassController
	auth   *Auth
	cfg    *config.Config
	logger zerolog.Logger

	now func() time.Time
}

// NewHandler wires the HTTP layer.
func NewHandler(st ScheduleReader, client AddressClient, runner PassController, auth *Auth, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  st,
		client: client,
		runner: runner,
		auth:   auth,
		cfg:    cfg,
		logger: logger.With().Str("component", "web").Logger(),
		now:    time.Now,
	}
}

// lookupView is the rendered result of a live address lookup.
type lookupView struct {
	Street      string
	Housenumber string
	WeekdayName string
	ZipCode     string
	Siedlung    bool
	FixedDate   string
	NextDates   []string
}

type indexData struct {
	Districts         []string
	DistrictsWithData []string
	BookingPageURL    string
	Street            string
	Housenumber       string
	Result            *lookupView
	Error             string
}

// Index serves the lookup page. With street and housenumber query parameters
// it performs a live schedule lookup against the FES API.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Districts:      store.FrankfurtDistricts,
		BookingPageURL: h.cfg.BookingPageURL,
		Street:         r.URL.Query().Get("street"),
		Housenumber:    r.URL.Query().Get("housenumber"),
	}

	if withData, err := h.store.ListDistrictsWithData(); err == nil {
		data.DistrictsWithData = withData
	}

	if data.Street != "" && data.Housenumber != "" {
		data.Result, data.Error = h.lookup(r.Context(), data.Street, data.Housenumber)
	}

	h.render(w, "index.html", data)
}

func (h *Handler) lookup(ctx context.Context, street, housenumber string) (*lookupView, string) {
	rec, err := h.client.LookupSchedule(ctx, street, housenumber)
	if err != nil {
		h.logger.Warn().Err(err).Str("street", street).Msg("lookup failed")
		if fes.IsRateLimited(err) {
			return nil, msgRateLimited
		}
		var statusErr *fes.StatusError
		if errors.As(err, &statusErr) {
			return nil, msgUpstream
		}
		return nil, msgTransport
	}
	if rec == nil {
		return nil, msgNotFound
	}

	view := &lookupView{
		Street:      street,
		Housenumber: housenumber,
		WeekdayName: dates.WeekdayName(rec.Weekday),
		ZipCode:     rec.ZipCode,
		Siedlung:    rec.IsFixedSlot(),
		FixedDate:   rec.FixedDate,
	}
	if view.Siedlung {
		view.NextDates = dates.ProjectFixedSlotFrom(h.now(), rec.FixedDate, projectionHorizon)
	} else {
		view.NextDates = dates.ProjectWeeklyFrom(h.now(), rec.Weekday, projectionHorizon)
	}
	return view, ""
}

// entryView decorates a stored schedule with its projected dates.
type entryView struct {
	store.ScheduleEntry
	WeekdayName string
	Siedlung    bool
	NextDate    string
}

type weekdayGroup struct {
	Name    string
	Entries []entryView
}

type termineData struct {
	District  string
	Districts []string
	Groups    []weekdayGroup
	Entries   []entryView
	Siedlung  []entryView
}

// Termine shows the stored schedules, either grouped by weekday across all
// districts or as a flat list for one district.
func (h *Handler) Termine(w http.ResponseWriter, r *http.Request) {
	district := r.URL.Query().Get("stadtteil")

	data := termineData{District: district}
	withData, err := h.store.ListDistrictsWithData()
	if err != nil {
		h.serverError(w, err, "list districts")
		return
	}
	data.Districts = withData

	if district == "" {
		byWeekday, err := h.store.GroupByWeekday()
		if err != nil {
			h.serverError(w, err, "group by weekday")
			return
		}
		for wd := 0; wd < 7; wd++ {
			entries, ok := byWeekday[wd]
			if !ok {
				continue
			}
			group := weekdayGroup{Name: dates.WeekdayName(wd)}
			for _, e := range entries {
				group.Entries = append(group.Entries, h.decorate(e))
			}
			data.Groups = append(data.Groups, group)
		}
	} else {
		entries, err := h.store.ListByDistrict(district)
		if err != nil {
			h.serverError(w, err, "list district")
			return
		}
		for _, e := range entries {
			data.Entries = append(data.Entries, h.decorate(e))
		}
		fixed, err := h.store.ListFixedSlotEntries(district)
		if err != nil {
			h.serverError(w, err, "list fixed slots")
			return
		}
		for _, e := range fixed {
			data.Siedlung = append(data.Siedlung, h.decorate(e))
		}
	}

	h.render(w, "termine.html", data)
}

func (h *Handler) decorate(e store.ScheduleEntry) entryView {
	view := entryView{
		ScheduleEntry: e,
		WeekdayName:   dates.WeekdayName(e.Weekday),
		Siedlung:      e.IsFixedSlot(),
	}
	var next []string
	if view.Siedlung {
		next = dates.ProjectFixedSlotFrom(h.now(), e.FixedDate, 1)
	} else {
		next = dates.ProjectWeeklyFrom(h.now(), e.Weekday, 1)
	}
	if len(next) > 0 {
		view.NextDate = next[0]
	}
	return view
}

// Streets proxies street name autocompletion. Failures degrade to an empty
// list so the form keeps working without suggestions.
func (h *Handler) Streets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	streets, err := h.client.SuggestStreets(r.Context(), query)
	if err != nil {
		h.logger.Warn().Err(err).Msg("street suggestion failed")
		h.writeJSONStatus(w, http.StatusInternalServerError, map[string]interface{}{"streets": []string{}})
		return
	}
	h.writeJSON(w, map[string]interface{}{"streets": streets})
}

// Housenumbers proxies house number autocompletion for a street.
func (h *Handler) Housenumbers(w http.ResponseWriter, r *http.Request) {
	street := r.URL.Query().Get("street")
	numbers, err := h.client.SuggestHousenumbers(r.Context(), street)
	if err != nil {
		h.logger.Warn().Err(err).Msg("house number suggestion failed")
		h.writeJSONStatus(w, http.StatusInternalServerError, map[string]interface{}{"housenumbers": []string{}})
		return
	}
	h.writeJSON(w, map[string]interface{}{"housenumbers": numbers})
}

// Config returns static application configuration for the frontend.
func (h *Handler) Config(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	h.writeJSON(w, map[string]interface{}{
		"stadtteile":     store.FrankfurtDistricts,
		"weekdays":       dates.WeekdayNames,
		"holidays":       dates.HesseHolidays(year),
		"bookingPageUrl": h.cfg.BookingPageURL,
	})
}

// Status reports store contents and the last scrape pass.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		h.serverError(w, err, "stats")
		return
	}
	h.writeJSON(w, map[string]interface{}{
		"store":     stats,
		"last_pass": h.runner.LastSummary(),
	})
}

// Download exports the projected collection dates of one district as ICS,
// CSV or JSON.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	district := r.URL.Query().Get("district")
	format := r.URL.Query().Get("format")

	if district == "" {
		http.Error(w, "Parameter district fehlt", http.StatusBadRequest)
		return
	}

	entries, err := h.store.ListByDistrict(district)
	if err != nil {
		h.serverError(w, err, "list district")
		return
	}
	if len(entries) == 0 {
		http.Error(w, "Keine Daten für diesen Stadtteil", http.StatusNotFound)
		return
	}

	events := BuildDistrictEvents(entries, h.now())

	switch format {
	case "ics":
		GenerateICS(w, r, district, events)
	case "csv":
		GenerateCSV(w, district, events)
	case "json":
		GenerateJSON(w, district, events)
	default:
		http.Error(w, "Ungültiges Format (ics, csv oder json)", http.StatusBadRequest)
	}
}

// Subscribe serves the ICS subscription feed for one district.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	district := chi.URLParam(r, "district")

	entries, err := h.store.ListByDistrict(district)
	if err != nil {
		h.serverError(w, err, "list district")
		return
	}
	if len(entries) == 0 {
		http.Error(w, "Keine Daten für diesen Stadtteil", http.StatusNotFound)
		return
	}

	GenerateSubscriptionICS(w, district, BuildDistrictEvents(entries, h.now()))
}

// TriggerScrape queues a manual scrape pass.
func (h *Handler) TriggerScrape(w http.ResponseWriter, r *http.Request) {
	if h.runner.Trigger() {
		h.writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}
	h.writeJSONStatus(w, http.StatusConflict, map[string]string{"status": "already_queued"})
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("template rendering failed")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) serverError(w http.ResponseWriter, err error, op string) {
	h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	http.Error(w, "Interner Fehler", http.StatusInternalServerError)
}
