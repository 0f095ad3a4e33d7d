package store

import "time"

// ScheduleEntry is one scraped collection schedule for a sample address.
// At most one entry exists per (district, street, housenumber); a repeated
// scrape overwrites the schedule fields in place.
type ScheduleEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	District    string    `gorm:"column:stadtteil;not null;uniqueIndex:uniq_schedule_address;index:idx_schedule_stadtteil" json:"stadtteil"`
	Street      string    `gorm:"not null;uniqueIndex:uniq_schedule_address" json:"street"`
	Housenumber string    `gorm:"not null;uniqueIndex:uniq_schedule_address" json:"housenumber"`
	Weekday     int       `gorm:"not null;index:idx_schedule_weekday" json:"weekday"`
	FixedDate   string    `gorm:"column:fixed_date" json:"fixed_date,omitempty"`
	ZipCode     string    `gorm:"column:zip_code" json:"zip_code,omitempty"`
	ScrapedAt   time.Time `gorm:"column:scraped_at;not null" json:"scraped_at"`
}

// TableName keeps the table name from the original schema.
func (ScheduleEntry) TableName() string {
	return "sperrmuell_schedule"
}

// IsFixedSlot reports whether the entry follows the 28-day Siedlungsabfuhr
// pattern instead of a weekly schedule.
func (e *ScheduleEntry) IsFixedSlot() bool {
	return e.FixedDate != ""
}

// FrankfurtDistricts lists all Stadtteile covered by the service.
var FrankfurtDistricts = []string{
	"Altstadt", "Bahnhofsviertel", "Bergen-Enkheim", "Berkersheim",
	"Bockenheim", "Bonames", "Bornheim", "Dornbusch", "Eckenheim",
	"Eschersheim", "Fechenheim", "Frankfurter Berg", "Gallus",
	"Ginnheim", "Griesheim", "Gutleutviertel", "Harheim", "Hausen",
	"Heddernheim", "Höchst", "Innenstadt", "Kalbach-Riedberg",
	"Nied", "Nieder-Erlenbach", "Nieder-Eschbach", "Niederrad",
	"Niederursel", "Nordend-Ost", "Nordend-West", "Nordweststadt",
	"Oberrad", "Ostend", "Praunheim", "Preungesheim", "Riederwald",
	"Rödelheim", "Sachsenhausen-Nord", "Sachsenhausen-Süd",
	"Schwanheim", "Seckbach", "Sindlingen", "Sossenheim",
	"Unterliederbach", "Westend-Nord", "Westend-Süd", "Zeilsheim",
}
