package models

import "time"

type AuditAction string

const (
	AuditActionCreate     AuditAction = "create"
	AuditActionUpdate     AuditAction = "update"
	AuditActionDelete     AuditAction = "delete"
	AuditActionBulkCreate AuditAction = "bulk_create"
	AuditActionBulkDelete AuditAction = "bulk_delete"
	AuditActionImport     AuditAction = "import"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Tenant the action happened in
	OwnerID string `gorm:"size:64;index" json:"owner_id"`

	UserID   uint   `json:"user_id"`
	UserName string `gorm:"size:100" json:"user_name"` // Denormalized for display

	// e.g. "product", "production_step", "assignment"
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   uint   `gorm:"index" json:"entity_id"` // 0 for bulk actions

	Action AuditAction `gorm:"size:20" json:"action"`

	Description string `gorm:"size:255" json:"description"`

	// Action payload, e.g. a bulk run summary (JSON)
	Details string `gorm:"type:jsonb" json:"details"`
}
