package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ffm-services/sperrmuell-kalender/internal/dates"
	"github.com/ffm-services/sperrmuell-kalender/internal/store"
)

const (
	ICSProductID = "-//ffm-services//Sperrmuell-Kalender//DE"
	ICSTimezone  = "Europe/Berlin"
	icsDomain    = "sperrmuell-kalender.ffm-services.de"

	// projectionHorizon is how many future dates each schedule contributes
	// to exports and feeds.
	projectionHorizon = 8
)

// Event is one projected collection date, flattened for export.
type Event struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// BuildDistrictEvents projects the next collection dates for every schedule
// entry and flattens them into a date-sorted event list.
func BuildDistrictEvents(entries []store.ScheduleEntry, today time.Time) []Event {
	var events []Event
	for _, e := range entries {
		var dateList []string
		eventType := "sperrmuell"
		label := "Sperrmüll"
		if e.IsFixedSlot() {
			dateList = dates.ProjectFixedSlotFrom(today, e.FixedDate, projectionHorizon)
			eventType = "siedlungsabfuhr"
			label = "Sperrmüll (Siedlungsabfuhr)"
		} else {
			dateList = dates.ProjectWeeklyFrom(today, e.Weekday, projectionHorizon)
		}
		for _, d := range dateList {
			events = append(events, Event{
				Date:        d,
				Type:        eventType,
				Description: fmt.Sprintf("%s: %s %s", label, e.Street, e.Housenumber),
			})
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Description < events[j].Description
	})
	return events
}

// GenerateICS writes an iCalendar (ICS) download with optional reminders.
func GenerateICS(w http.ResponseWriter, r *http.Request, district string, events []Event) {
	// Parse reminder settings
	reminder2Days := r.URL.Query().Get("reminder2Days") == "true"
	reminder1Day := r.URL.Query().Get("reminder1Day") == "true"
	reminderSameDay := r.URL.Query().Get("reminderSameDay") == "true"
	time2Days := r.URL.Query().Get("time2Days")
	time1Day := r.URL.Query().Get("time1Day")
	timeSameDay := r.URL.Query().Get("timeSameDay")

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sperrmuellkalender_%s.ics", district))

	// ICS header
	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintf(w, "X-WR-CALNAME:Sperrmüllkalender %s\n", district)
	fmt.Fprintf(w, "X-WR-TIMEZONE:%s\n", ICSTimezone)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")

	for _, event := range events {
		eventDate, err := time.Parse("2006-01-02", event.Date)
		if err != nil {
			continue
		}

		writeEvent(w, district, event, eventDate)

		if reminder2Days && time2Days != "" {
			AddAlarm(w, eventDate, 2, time2Days, event.Description)
		}
		if reminder1Day && time1Day != "" {
			AddAlarm(w, eventDate, 1, time1Day, event.Description)
		}
		if reminderSameDay && timeSameDay != "" {
			AddAlarm(w, eventDate, 0, timeSameDay, event.Description)
		}

		fmt.Fprintln(w, "END:VEVENT")
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}

// writeEvent writes one all-day VEVENT block, leaving it open so the caller
// can append VALARM blocks before END:VEVENT.
func writeEvent(w io.Writer, district string, event Event, eventDate time.Time) {
	// UID must be stable for proper calendar updates
	uid := fmt.Sprintf("%s-%s-%s@%s", event.Date, event.Type, sanitizeUIDPart(event.Description), icsDomain)

	fmt.Fprintln(w, "BEGIN:VEVENT")
	fmt.Fprintf(w, "UID:%s\n", uid)
	fmt.Fprintf(w, "DTSTAMP:%s\n", time.Now().UTC().Format("20060102T150405Z"))
	fmt.Fprintf(w, "DTSTART;VALUE=DATE:%s\n", eventDate.Format("20060102"))
	fmt.Fprintf(w, "DTEND;VALUE=DATE:%s\n", eventDate.AddDate(0, 0, 1).Format("20060102"))
	fmt.Fprintf(w, "SUMMARY:%s\n", event.Description)
	fmt.Fprintf(w, "DESCRIPTION:%s in %s\n", event.Description, district)
	fmt.Fprintf(w, "LOCATION:%s\n", district)
}

func sanitizeUIDPart(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, s)
}

// AddAlarm adds an alarm/reminder to an ICS event
func AddAlarm(w io.Writer, eventDate time.Time, daysBefore int, alarmTime string, description string) {
	// Parse alarm time (HH:MM format)
	parts := strings.Split(alarmTime, ":")
	if len(parts) != 2 {
		return
	}

	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return
	}

	// Event is at 00:00 on eventDate, alarm fires at alarmTime on
	// (eventDate - daysBefore); the trigger is relative to event start.
	alarmDate := eventDate.AddDate(0, 0, -daysBefore)
	alarmDateTime := time.Date(alarmDate.Year(), alarmDate.Month(), alarmDate.Day(), hour, minute, 0, 0, time.UTC)

	eventStart := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, time.UTC)
	duration := alarmDateTime.Sub(eventStart)

	totalMinutes := int(duration.Minutes())
	isNegative := totalMinutes < 0
	if isNegative {
		totalMinutes = -totalMinutes
	}

	days := totalMinutes / (24 * 60)
	remainingMinutes := totalMinutes % (24 * 60)
	hours := remainingMinutes / 60
	minutes := remainingMinutes % 60

	var trigger string
	if isNegative {
		trigger = fmt.Sprintf("-P%dDT%dH%dM", days, hours, minutes)
	} else {
		trigger = fmt.Sprintf("P%dDT%dH%dM", days, hours, minutes)
	}

	fmt.Fprintln(w, "BEGIN:VALARM")
	fmt.Fprintln(w, "ACTION:DISPLAY")
	fmt.Fprintf(w, "DESCRIPTION:Erinnerung: %s\n", description)
	fmt.Fprintf(w, "TRIGGER:%s\n", trigger)
	fmt.Fprintln(w, "END:VALARM")
}

// GenerateCSV writes the projected collection dates as a CSV download.
func GenerateCSV(w http.ResponseWriter, district string, events []Event) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sperrmuellkalender_%s.csv", district))

	fmt.Fprintln(w, "Datum,Typ,Beschreibung")
	for _, event := range events {
		fmt.Fprintf(w, "%s,%s,%q\n", event.Date, event.Type, event.Description)
	}
}

// GenerateJSON writes the projected collection dates as a JSON download.
func GenerateJSON(w http.ResponseWriter, district string, events []Event) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=sperrmuellkalender_%s.json", district))

	data := map[string]interface{}{
		"stadtteil": district,
		"events":    events,
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Export fehlgeschlagen", http.StatusInternalServerError)
	}
}

// GenerateSubscriptionICS writes an iCalendar (ICS) subscription feed.
// Unlike GenerateICS, this is designed for calendar subscriptions:
// - No Content-Disposition attachment header (inline content)
// - No VALARM blocks (most calendar apps ignore them in subscriptions)
// - Includes METHOD:PUBLISH and a refresh interval hint
func GenerateSubscriptionICS(w http.ResponseWriter, district string, events []Event) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ICSProductID)
	fmt.Fprintln(w, "METHOD:PUBLISH")
	fmt.Fprintf(w, "X-WR-CALNAME:Sperrmüllkalender %s\n", district)
	fmt.Fprintf(w, "X-WR-TIMEZONE:%s\n", ICSTimezone)
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")
	// Schedules change at most once per daily scrape pass
	fmt.Fprintln(w, "X-PUBLISHED-TTL:PT12H")

	for _, event := range events {
		eventDate, err := time.Parse("2006-01-02", event.Date)
		if err != nil {
			continue
		}
		writeEvent(w, district, event, eventDate)
		fmt.Fprintln(w, "END:VEVENT")
	}

	fmt.Fprintln(w, "END:VCALENDAR")
}
