package models

import "time"

// ProductionStep is a tenant-scoped operation a product can pass through
// (cutting, sewing, QC and so on).
type ProductionStep struct {
	ID          uint   `gorm:"primaryKey"`
	OwnerID     string `gorm:"size:64;not null;uniqueIndex:idx_steps_owner_code,priority:1"`
	Code        string `gorm:"size:50;not null;uniqueIndex:idx_steps_owner_code,priority:2"`
	Name        string `gorm:"size:200;not null"`
	SequenceTag string `gorm:"size:50"`  // Free-form ordering hint, e.g. "10", "20a"
	StepGroup   string `gorm:"size:100"` // Department or line grouping
	Notes       string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
