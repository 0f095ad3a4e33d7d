package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store is the durable keyed table of scraped collection schedules.
// One writer (the scrape pass) and any number of readers; sqlite's row
// level atomicity is the only locking needed.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path, creating parent directories
// and migrating the schema as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create data directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("store: enable WAL: %w", err)
	}

	if err := db.AutoMigrate(&ScheduleEntry{}); err != nil {
		return nil, fmt.Errorf("store: migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Upsert inserts the entry or, when its address key already exists, replaces
// weekday, fixed date, zip code and scrape timestamp in place.
func (s *Store) Upsert(entry *ScheduleEntry) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "stadtteil"}, {Name: "street"}, {Name: "housenumber"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"weekday", "fixed_date", "zip_code", "scraped_at"}),
	}).Create(entry).Error
}

// ListByDistrict returns all entries, optionally filtered to one district.
// Unfiltered results are ordered by (district, weekday, street), filtered
// ones by (weekday, street).
func (s *Store) ListByDistrict(district string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	q := s.db.Model(&ScheduleEntry{})
	if district != "" {
		q = q.Where("stadtteil = ?", district).Order("weekday, street")
	} else {
		q = q.Order("stadtteil, weekday, street")
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListFixedSlotEntries returns the Siedlungsabfuhr subset (entries with a
// fixed anchor date), optionally filtered to one district.
func (s *Store) ListFixedSlotEntries(district string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	q := s.db.Model(&ScheduleEntry{}).Where("fixed_date <> ''")
	if district != "" {
		q = q.Where("stadtteil = ?", district)
	}
	if err := q.Order("stadtteil, street").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListDistrictsWithData returns the distinct districts present in the store,
// ascending.
func (s *Store) ListDistrictsWithData() ([]string, error) {
	var districts []string
	err := s.db.Model(&ScheduleEntry{}).
		Distinct("stadtteil").
		Order("stadtteil").
		Pluck("stadtteil", &districts).Error
	if err != nil {
		return nil, err
	}
	return districts, nil
}

// GroupByWeekday partitions all entries by weekday index.
func (s *Store) GroupByWeekday() (map[int][]ScheduleEntry, error) {
	entries, err := s.ListByDistrict("")
	if err != nil {
		return nil, err
	}
	byWeekday := make(map[int][]ScheduleEntry)
	for _, e := range entries {
		byWeekday[e.Weekday] = append(byWeekday[e.Weekday], e)
	}
	return byWeekday, nil
}

// Stats summarizes store contents for the status endpoint.
type Stats struct {
	TotalEntries int64         `json:"total_entries"`
	Districts    int64         `json:"stadtteile"`
	ByWeekday    map[int]int64 `json:"by_weekday"`
}

// Stats counts entries overall, per district and per weekday.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{ByWeekday: make(map[int]int64)}

	if err := s.db.Model(&ScheduleEntry{}).Count(&stats.TotalEntries).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&ScheduleEntry{}).Distinct("stadtteil").Count(&stats.Districts).Error; err != nil {
		return nil, err
	}

	type weekdayCount struct {
		Weekday int
		N       int64
	}
	var counts []weekdayCount
	err := s.db.Model(&ScheduleEntry{}).
		Select("weekday, count(*) as n").
		Group("weekday").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		stats.ByWeekday[c.Weekday] = c.N
	}
	return stats, nil
}
