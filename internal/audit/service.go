package audit

import (
	"encoding/json"
	"fmt"

	"prodflow-backend/internal/database"
	"prodflow-backend/internal/models"
)

type LogOptions struct {
	OwnerID     string
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Details     any
}

func WriteLog(opts LogOptions) error {
	// jsonb columns want "null", not an empty string
	detailsStr := "null"
	if opts.Details != nil {
		if b, err := json.Marshal(opts.Details); err == nil {
			detailsStr = string(b)
		}
	}

	entry := models.AuditLog{
		OwnerID:     opts.OwnerID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		Details:     detailsStr,
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("could not write audit log: %w", err)
	}

	return nil
}
