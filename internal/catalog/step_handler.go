package catalog

import (
	"strings"

	"prodflow-backend/internal/audit"
	"prodflow-backend/internal/auth"
	"prodflow-backend/internal/database"
	"prodflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductionStepResponse struct {
	ID          uint   `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	SequenceTag string `json:"sequence_tag,omitempty"`
	StepGroup   string `json:"step_group,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type CreateProductionStepRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	SequenceTag string `json:"sequence_tag"`
	StepGroup   string `json:"step_group"`
	Notes       string `json:"notes"`
}

type UpdateProductionStepRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	SequenceTag *string `json:"sequence_tag"`
	StepGroup   *string `json:"step_group"`
	Notes       *string `json:"notes"`
}

var stepQuerySpec = QuerySpec{
	SearchColumns: []string{"code", "name", "step_group"},
	SortColumns: map[string]string{
		"code":         "code",
		"name":         "name",
		"sequence_tag": "sequence_tag",
		"step_group":   "step_group",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	},
	DefaultSort: "code",
}

func stepToResponse(s models.ProductionStep) ProductionStepResponse {
	return ProductionStepResponse{
		ID:          s.ID,
		Code:        s.Code,
		Name:        s.Name,
		SequenceTag: s.SequenceTag,
		StepGroup:   s.StepGroup,
		Notes:       s.Notes,
	}
}

// GET /api/production-steps?search=&sort_by=&sort_dir=&page=&page_size=
func ListProductionStepsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		params := ParseListParams(c)

		countQ := database.DB.Model(&models.ProductionStep{}).Where("owner_id = ?", ownerID)
		var total int64
		if err := stepQuerySpec.ApplySearch(countQ, params).Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count production steps")
		}

		listQ := database.DB.Model(&models.ProductionStep{}).Where("owner_id = ?", ownerID)
		var steps []models.ProductionStep
		if err := stepQuerySpec.Apply(listQ, params).Find(&steps).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list production steps")
		}

		items := make([]ProductionStepResponse, 0, len(steps))
		for _, s := range steps {
			items = append(items, stepToResponse(s))
		}
		return c.JSON(fiber.Map{
			"items":     items,
			"total":     total,
			"page":      params.Page,
			"page_size": params.PageSize,
		})
	}
}

// GET /api/production-steps/:id
func GetProductionStepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var s models.ProductionStep
		if err := database.DB.Where("owner_id = ?", ownerID).First(&s, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Production step not found")
		}
		return c.JSON(stepToResponse(s))
	}
}

// POST /api/production-steps
func CreateProductionStepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var body CreateProductionStepRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Code = strings.TrimSpace(body.Code)
		body.Name = strings.TrimSpace(body.Name)

		if body.Code == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Code and name are required")
		}

		var existing models.ProductionStep
		if err := database.DB.Where("owner_id = ? AND code = ?", ownerID, body.Code).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "This step code is already in use")
		}

		s := models.ProductionStep{
			OwnerID:     ownerID,
			Code:        body.Code,
			Name:        body.Name,
			SequenceTag: strings.TrimSpace(body.SequenceTag),
			StepGroup:   strings.TrimSpace(body.StepGroup),
			Notes:       strings.TrimSpace(body.Notes),
		}

		if err := database.DB.Create(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create production step")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "production_step",
			EntityID:    s.ID,
			Action:      models.AuditActionCreate,
			Description: "Production step created: " + s.Code,
		})

		return c.Status(fiber.StatusCreated).JSON(stepToResponse(s))
	}
}

// PUT /api/production-steps/:id
func UpdateProductionStepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var s models.ProductionStep
		if err := database.DB.Where("owner_id = ?", ownerID).First(&s, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Production step not found")
		}

		var body UpdateProductionStepRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Code != nil {
			code := strings.TrimSpace(*body.Code)
			if code == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Code cannot be empty")
			}
			if code != s.Code {
				var existing models.ProductionStep
				if err := database.DB.Where("owner_id = ? AND code = ?", ownerID, code).First(&existing).Error; err == nil {
					return fiber.NewError(fiber.StatusBadRequest, "This step code is already in use")
				}
			}
			s.Code = code
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name cannot be empty")
			}
			s.Name = name
		}
		if body.SequenceTag != nil {
			s.SequenceTag = strings.TrimSpace(*body.SequenceTag)
		}
		if body.StepGroup != nil {
			s.StepGroup = strings.TrimSpace(*body.StepGroup)
		}
		if body.Notes != nil {
			s.Notes = strings.TrimSpace(*body.Notes)
		}

		if err := database.DB.Save(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update production step")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "production_step",
			EntityID:    s.ID,
			Action:      models.AuditActionUpdate,
			Description: "Production step updated: " + s.Code,
		})

		return c.JSON(stepToResponse(s))
	}
}

// DELETE /api/production-steps/:id
// Removes the step together with the assignments pointing at it.
func DeleteProductionStepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var s models.ProductionStep
		if err := database.DB.Where("owner_id = ?", ownerID).First(&s, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Production step not found")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("owner_id = ? AND production_step_id = ?", ownerID, s.ID).Delete(&models.Assignment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&s).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete production step")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "production_step",
			EntityID:    s.ID,
			Action:      models.AuditActionDelete,
			Description: "Production step deleted: " + s.Code,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
