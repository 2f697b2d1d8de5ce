package models

import "time"

// PassSequence holds the last allocated pass number sequence for a year.
type PassSequence struct {
	Year      int       `gorm:"column:year;primaryKey;autoIncrement:false"`
	LastValue int64     `gorm:"column:last_value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}
