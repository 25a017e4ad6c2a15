package models

import "time"

type Organization struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null"`
	JoinCode  string `gorm:"size:20;not null;unique"` // Short code members use to join
	CreatedAt time.Time
	UpdatedAt time.Time
}
