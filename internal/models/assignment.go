package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment links a product to one of its production steps. The composite
// unique index is the storage-level guarantee that a step attaches to a
// product at most once per tenant; the bulk executor relies on it as the
// final word when concurrent writers race.
type Assignment struct {
	ID               uint   `gorm:"primaryKey"`
	OwnerID          string `gorm:"size:64;not null;uniqueIndex:idx_assignments_owner_pair,priority:1"`
	ProductID        uint   `gorm:"not null;uniqueIndex:idx_assignments_owner_pair,priority:2"`
	Product          *Product
	ProductionStepID uint `gorm:"not null;uniqueIndex:idx_assignments_owner_pair,priority:3"`
	ProductionStep   *ProductionStep
	SequenceNumber   int              `gorm:"not null"` // Position within the product's workflow, >= 1
	FactoryPrice     *decimal.Decimal `gorm:"type:numeric(14,4)"`
	CalculatedPrice  *decimal.Decimal `gorm:"type:numeric(14,4)"`
	QuantityLimit1   *int
	QuantityLimit2   *int
	IsFinalStep      bool `gorm:"not null;default:false"`
	IsVtStep         bool `gorm:"not null;default:false"`
	IsParkingStep    bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
