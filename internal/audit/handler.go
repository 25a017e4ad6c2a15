package audit

import (
	"prodflow-backend/internal/auth"
	"prodflow-backend/internal/database"
	"prodflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=assignment&page=1&page_size=50
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		dbq := database.DB.Model(&models.AuditLog{}).Where("owner_id = ?", ownerID)

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}

		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		pageSize := c.QueryInt("page_size", 50)
		if pageSize < 1 || pageSize > 200 {
			pageSize = 50
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count audit logs")
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at desc").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		return c.JSON(fiber.Map{
			"items":     logs,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	}
}
