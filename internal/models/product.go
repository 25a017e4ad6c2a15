package models

import "time"

// Product is a tenant-scoped manufactured article. Code is the business
// identifier shown on spreadsheets and travel cards.
type Product struct {
	ID        uint   `gorm:"primaryKey"`
	OwnerID   string `gorm:"size:64;not null;uniqueIndex:idx_products_owner_code,priority:1"`
	Code      string `gorm:"size:50;not null;uniqueIndex:idx_products_owner_code,priority:2"`
	Name      string `gorm:"size:200;not null"`
	Category  string `gorm:"size:100"`
	Notes     string `gorm:"size:500"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
