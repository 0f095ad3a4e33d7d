package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func TestUpsertReplacesExistingKey(t *testing.T) {
	s := openTestStore(t)

	first := &ScheduleEntry{
		District:    "Bockenheim",
		Street:      "Leipziger Str.",
		Housenumber: "10",
		Weekday:     1,
		ZipCode:     "60487",
		ScrapedAt:   time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := s.Upsert(first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := &ScheduleEntry{
		District:    "Bockenheim",
		Street:      "Leipziger Str.",
		Housenumber: "10",
		Weekday:     4,
		FixedDate:   "2025-03-14",
		ZipCode:     "60487",
		ScrapedAt:   time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	if err := s.Upsert(second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	entries, err := s.ListByDistrict("Bockenheim")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry after double upsert, got %d", len(entries))
	}
	got := entries[0]
	if got.Weekday != 4 {
		t.Errorf("expected weekday 4 after overwrite, got %d", got.Weekday)
	}
	if got.FixedDate != "2025-03-14" {
		t.Errorf("expected fixed date to be overwritten, got %q", got.FixedDate)
	}
	if !got.ScrapedAt.Equal(second.ScrapedAt) {
		t.Errorf("expected scraped_at %v, got %v", second.ScrapedAt, got.ScrapedAt)
	}
}

func TestUpsertDifferentKeysDoNotConflict(t *testing.T) {
	s := openTestStore(t)

	entries := []*ScheduleEntry{
		{District: "Bornheim", Street: "Berger Str.", Housenumber: "1", Weekday: 0, ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Berger Str.", Housenumber: "2", Weekday: 0, ScrapedAt: time.Now()},
		{District: "Ostend", Street: "Hanauer Landstr.", Housenumber: "1", Weekday: 3, ScrapedAt: time.Now()},
	}
	for _, e := range entries {
		if err := s.Upsert(e); err != nil {
			t.Fatalf("upsert %s %s failed: %v", e.Street, e.Housenumber, err)
		}
	}

	all, err := s.ListByDistrict("")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 entries, got %d", len(all))
	}
}

func TestListByDistrictOrdering(t *testing.T) {
	s := openTestStore(t)

	seed := []*ScheduleEntry{
		{District: "Ostend", Street: "Zobelstr.", Housenumber: "5", Weekday: 2, ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Berger Str.", Housenumber: "100", Weekday: 4, ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Arnsburger Str.", Housenumber: "3", Weekday: 4, ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Wiesenstr.", Housenumber: "9", Weekday: 1, ScrapedAt: time.Now()},
	}
	for _, e := range seed {
		if err := s.Upsert(e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	all, err := s.ListByDistrict("")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	wantOrder := []string{"Wiesenstr.", "Arnsburger Str.", "Berger Str.", "Zobelstr."}
	for i, want := range wantOrder {
		if all[i].Street != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].Street)
		}
	}

	bornheim, err := s.ListByDistrict("Bornheim")
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(bornheim) != 3 {
		t.Fatalf("expected 3 Bornheim entries, got %d", len(bornheim))
	}
	if bornheim[0].Street != "Wiesenstr." || bornheim[1].Street != "Arnsburger Str." {
		t.Errorf("filtered ordering wrong: %s, %s", bornheim[0].Street, bornheim[1].Street)
	}
}

func TestListFixedSlotEntries(t *testing.T) {
	s := openTestStore(t)

	seed := []*ScheduleEntry{
		{District: "Harheim", Street: "Alt Harheim", Housenumber: "1", Weekday: 4, FixedDate: "2025-03-14", ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Berger Str.", Housenumber: "1", Weekday: 0, ScrapedAt: time.Now()},
	}
	for _, e := range seed {
		if err := s.Upsert(e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	fixed, err := s.ListFixedSlotEntries("")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(fixed) != 1 {
		t.Fatalf("expected 1 fixed-slot entry, got %d", len(fixed))
	}
	if fixed[0].District != "Harheim" {
		t.Errorf("expected Harheim, got %s", fixed[0].District)
	}

	none, err := s.ListFixedSlotEntries("Bornheim")
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no fixed-slot entries for Bornheim, got %d", len(none))
	}
}

func TestListDistrictsWithData(t *testing.T) {
	s := openTestStore(t)

	seed := []*ScheduleEntry{
		{District: "Ostend", Street: "Zobelstr.", Housenumber: "5", Weekday: 2, ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Berger Str.", Housenumber: "1", Weekday: 0, ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Wiesenstr.", Housenumber: "9", Weekday: 1, ScrapedAt: time.Now()},
	}
	for _, e := range seed {
		if err := s.Upsert(e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	districts, err := s.ListDistrictsWithData()
	if err != nil {
		t.Fatalf("list districts failed: %v", err)
	}
	if len(districts) != 2 || districts[0] != "Bornheim" || districts[1] != "Ostend" {
		t.Errorf("expected [Bornheim Ostend], got %v", districts)
	}
}

func TestGroupByWeekday(t *testing.T) {
	s := openTestStore(t)

	seed := []*ScheduleEntry{
		{District: "Bornheim", Street: "Berger Str.", Housenumber: "1", Weekday: 0, ScrapedAt: time.Now()},
		{District: "Ostend", Street: "Zobelstr.", Housenumber: "5", Weekday: 0, ScrapedAt: time.Now()},
		{District: "Harheim", Street: "Alt Harheim", Housenumber: "1", Weekday: 3, ScrapedAt: time.Now()},
	}
	for _, e := range seed {
		if err := s.Upsert(e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	byWeekday, err := s.GroupByWeekday()
	if err != nil {
		t.Fatalf("group failed: %v", err)
	}
	if len(byWeekday) != 2 {
		t.Fatalf("expected 2 weekday buckets, got %d", len(byWeekday))
	}
	if len(byWeekday[0]) != 2 {
		t.Errorf("expected 2 entries on weekday 0, got %d", len(byWeekday[0]))
	}
	if len(byWeekday[3]) != 1 {
		t.Errorf("expected 1 entry on weekday 3, got %d", len(byWeekday[3]))
	}
}

func TestStats(t *testing.T) {
	s := openTestStore(t)

	seed := []*ScheduleEntry{
		{District: "Bornheim", Street: "Berger Str.", Housenumber: "1", Weekday: 0, ScrapedAt: time.Now()},
		{District: "Bornheim", Street: "Wiesenstr.", Housenumber: "9", Weekday: 2, ScrapedAt: time.Now()},
		{District: "Ostend", Street: "Zobelstr.", Housenumber: "5", Weekday: 0, ScrapedAt: time.Now()},
	}
	for _, e := range seed {
		if err := s.Upsert(e); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalEntries != 3 {
		t.Errorf("expected 3 total entries, got %d", stats.TotalEntries)
	}
	if stats.Districts != 2 {
		t.Errorf("expected 2 districts, got %d", stats.Districts)
	}
	if stats.ByWeekday[0] != 2 || stats.ByWeekday[2] != 1 {
		t.Errorf("unexpected weekday counts: %v", stats.ByWeekday)
	}
}
