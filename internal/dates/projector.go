package dates

import "time"

// German weekday names, Monday first. Weekday indices throughout the project
// use this convention: 0 = Montag ... 6 = Sonntag.
var WeekdayNames = []string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag", "Sonntag"}

// ShortWeekdayNames are the two-letter abbreviations used in log output.
var ShortWeekdayNames = []string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

const fixedSlotInterval = 28 // Siedlungsabfuhr recurs every four weeks

// WeekdayIndex converts a time.Time weekday to the Monday-based index.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekdayName returns the German name for a Monday-based weekday index,
// or "?" when out of range.
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday > 6 {
		return "?"
	}
	return WeekdayNames[weekday]
}

// ProjectWeekly returns the next count collection dates for a weekly schedule
// on the given weekday, starting strictly after today.
func ProjectWeekly(weekday, count int) []string {
	return ProjectWeeklyFrom(time.Now(), weekday, count)
}

// ProjectWeeklyFrom is ProjectWeekly with an explicit reference date.
// If today falls on the target weekday, the first result is a week out.
func ProjectWeeklyFrom(today time.Time, weekday, count int) []string {
	if weekday < 0 || weekday > 6 || count <= 0 {
		return []string{}
	}
	today = truncateToDate(today)

	daysAhead := (weekday - WeekdayIndex(today) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}

	result := make([]string, 0, count)
	d := today.AddDate(0, 0, daysAhead)
	for i := 0; i < count; i++ {
		result = append(result, d.Format("2006-01-02"))
		d = d.AddDate(0, 0, 7)
	}
	return result
}

// ProjectFixedSlot returns the next count collection dates for a fixed-slot
// (Siedlungsabfuhr) schedule anchored at anchorISO, recurring every 28 days.
func ProjectFixedSlot(anchorISO string, count int) []string {
	return ProjectFixedSlotFrom(time.Now(), anchorISO, count)
}

// ProjectFixedSlotFrom is ProjectFixedSlot with an explicit reference date.
// The first result is the earliest date >= today on the 28-day progression;
// the anchor itself is eligible. A missing or unparseable anchor yields an
// empty slice, never an error.
func ProjectFixedSlotFrom(today time.Time, anchorISO string, count int) []string {
	if anchorISO == "" || count <= 0 {
		return []string{}
	}
	if len(anchorISO) < 10 {
		return []string{}
	}
	d, err := time.Parse("2006-01-02", anchorISO[:10])
	if err != nil {
		return []string{}
	}
	today = truncateToDate(today)

	for d.Before(today) {
		d = d.AddDate(0, 0, fixedSlotInterval)
	}

	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, d.Format("2006-01-02"))
		d = d.AddDate(0, 0, fixedSlotInterval)
	}
	return result
}

// truncateToDate drops the time-of-day component, keeping date comparisons
// independent of the wall clock.
func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
