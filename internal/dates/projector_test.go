package dates

import (
	"testing"
	"time"
)

func TestProjectWeeklyFrom(t *testing.T) {
	// 2025-03-12 is a Wednesday (weekday index 2)
	today := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		weekday   int
		count     int
		wantFirst string
	}{
		{name: "later this week", weekday: 4, count: 3, wantFirst: "2025-03-14"},
		{name: "earlier in week wraps", weekday: 0, count: 3, wantFirst: "2025-03-17"},
		{name: "today itself pushed a week out", weekday: 2, count: 3, wantFirst: "2025-03-19"},
		{name: "sunday", weekday: 6, count: 2, wantFirst: "2025-03-16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectWeeklyFrom(today, tt.weekday, tt.count)
			if len(got) != tt.count {
				t.Fatalf("expected %d dates, got %d", tt.count, len(got))
			}
			if got[0] != tt.wantFirst {
				t.Errorf("first date: expected %s, got %s", tt.wantFirst, got[0])
			}
			for i := 1; i < len(got); i++ {
				prev, _ := time.Parse("2006-01-02", got[i-1])
				cur, _ := time.Parse("2006-01-02", got[i])
				if cur.Sub(prev) != 7*24*time.Hour {
					t.Errorf("dates %s and %s are not 7 days apart", got[i-1], got[i])
				}
			}
		})
	}
}

func TestProjectWeeklyFromAllWeekdaysStrictlyAfterToday(t *testing.T) {
	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) // a Monday

	for weekday := 0; weekday <= 6; weekday++ {
		got := ProjectWeeklyFrom(today, weekday, 4)
		if len(got) != 4 {
			t.Fatalf("weekday %d: expected 4 dates, got %d", weekday, len(got))
		}
		first, err := time.Parse("2006-01-02", got[0])
		if err != nil {
			t.Fatalf("weekday %d: unparseable first date %q", weekday, got[0])
		}
		if !first.After(today) {
			t.Errorf("weekday %d: first date %s is not strictly after today", weekday, got[0])
		}
		if WeekdayIndex(first) != weekday {
			t.Errorf("weekday %d: first date %s falls on index %d", weekday, got[0], WeekdayIndex(first))
		}
	}
}

func TestProjectWeeklyInvalidInput(t *testing.T) {
	today := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	if got := ProjectWeeklyFrom(today, 7, 3); len(got) != 0 {
		t.Errorf("weekday out of range should yield empty slice, got %v", got)
	}
	if got := ProjectWeeklyFrom(today, -1, 3); len(got) != 0 {
		t.Errorf("negative weekday should yield empty slice, got %v", got)
	}
	if got := ProjectWeeklyFrom(today, 2, 0); len(got) != 0 {
		t.Errorf("zero count should yield empty slice, got %v", got)
	}
}

func TestProjectFixedSlotFrom(t *testing.T) {
	today := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		anchor    string
		count     int
		wantFirst string
	}{
		{name: "anchor in past advances to next slot", anchor: "2025-02-14", count: 3, wantFirst: "2025-03-14"},
		{name: "anchor in future used directly", anchor: "2025-04-01", count: 2, wantFirst: "2025-04-01"},
		{name: "anchor equals today", anchor: "2025-03-12", count: 2, wantFirst: "2025-03-12"},
		{name: "anchor with time component", anchor: "2025-02-14T00:00:00Z", count: 2, wantFirst: "2025-03-14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectFixedSlotFrom(today, tt.anchor, tt.count)
			if len(got) != tt.count {
				t.Fatalf("expected %d dates, got %d", tt.count, len(got))
			}
			if got[0] != tt.wantFirst {
				t.Errorf("first date: expected %s, got %s", tt.wantFirst, got[0])
			}
			for i := 1; i < len(got); i++ {
				prev, _ := time.Parse("2006-01-02", got[i-1])
				cur, _ := time.Parse("2006-01-02", got[i])
				if cur.Sub(prev) != 28*24*time.Hour {
					t.Errorf("dates %s and %s are not 28 days apart", got[i-1], got[i])
				}
			}
		})
	}
}

func TestProjectFixedSlotFailsClosed(t *testing.T) {
	today := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	for _, anchor := range []string{"", "garbage", "2025-13-99", "25-01"} {
		if got := ProjectFixedSlotFrom(today, anchor, 5); len(got) != 0 {
			t.Errorf("anchor %q should yield empty slice, got %v", anchor, got)
		}
	}
}

func TestWeekdayName(t *testing.T) {
	if got := WeekdayName(0); got != "Montag" {
		t.Errorf("expected Montag, got %s", got)
	}
	if got := WeekdayName(6); got != "Sonntag" {
		t.Errorf("expected Sonntag, got %s", got)
	}
	if got := WeekdayName(7); got != "?" {
		t.Errorf("out of range weekday should be ?, got %s", got)
	}
}

func TestHesseHolidays(t *testing.T) {
	holidays := HesseHolidays(2025)

	// Easter Sunday 2025 is April 20
	expected := map[string]string{
		"2025-01-01": "Neujahr",
		"2025-04-18": "Karfreitag",
		"2025-04-21": "Ostermontag",
		"2025-05-29": "Christi Himmelfahrt",
		"2025-06-09": "Pfingstmontag",
		"2025-06-19": "Fronleichnam",
		"2025-10-03": "Tag der Deutschen Einheit",
		"2025-12-25": "1. Weihnachtstag",
	}

	for date, name := range expected {
		if got := holidays[date]; got != name {
			t.Errorf("expected %s on %s, got %q", name, date, got)
		}
	}

	// Allerheiligen is NRW, not Hesse
	if _, ok := holidays["2025-11-01"]; ok {
		t.Error("Allerheiligen should not be a Hessian holiday")
	}
}
