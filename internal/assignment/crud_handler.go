package assignment

import (
	"errors"
	"fmt"

	"prodflow-backend/internal/audit"
	"prodflow-backend/internal/auth"
	"prodflow-backend/internal/database"
	"prodflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AssignmentResponse struct {
	ID               uint    `json:"id"`
	ProductID        uint    `json:"product_id"`
	ProductCode      string  `json:"product_code,omitempty"`
	ProductName      string  `json:"product_name,omitempty"`
	ProductionStepID uint    `json:"production_step_id"`
	StepCode         string  `json:"step_code,omitempty"`
	StepName         string  `json:"step_name,omitempty"`
	SequenceNumber   int     `json:"sequence_number"`
	FactoryPrice     *string `json:"factory_price,omitempty"`
	CalculatedPrice  *string `json:"calculated_price,omitempty"`
	QuantityLimit1   *int    `json:"quantity_limit1,omitempty"`
	QuantityLimit2   *int    `json:"quantity_limit2,omitempty"`
	IsFinalStep      bool    `json:"is_final_step"`
	IsVtStep         bool    `json:"is_vt_step"`
	IsParkingStep    bool    `json:"is_parking_step"`
}

type CreateAssignmentRequest struct {
	ProductID        uint        `json:"productId"`
	ProductionStepID uint        `json:"productionStepId"`
	SequenceNumber   int         `json:"sequenceNumber"`
	Values           RawDefaults `json:"values"`
}

type UpdateAssignmentRequest struct {
	SequenceNumber *int        `json:"sequenceNumber"`
	Values         RawDefaults `json:"values"`
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func assignmentToResponse(a models.Assignment) AssignmentResponse {
	res := AssignmentResponse{
		ID:               a.ID,
		ProductID:        a.ProductID,
		ProductionStepID: a.ProductionStepID,
		SequenceNumber:   a.SequenceNumber,
		FactoryPrice:     decimalString(a.FactoryPrice),
		CalculatedPrice:  decimalString(a.CalculatedPrice),
		QuantityLimit1:   a.QuantityLimit1,
		QuantityLimit2:   a.QuantityLimit2,
		IsFinalStep:      a.IsFinalStep,
		IsVtStep:         a.IsVtStep,
		IsParkingStep:    a.IsParkingStep,
	}
	if a.Product != nil {
		res.ProductCode = a.Product.Code
		res.ProductName = a.Product.Name
	}
	if a.ProductionStep != nil {
		res.StepCode = a.ProductionStep.Code
		res.StepName = a.ProductionStep.Name
	}
	return res
}

// GET /api/assignments?product_id=&production_step_id=&page=&page_size=
func ListAssignmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		pageSize := c.QueryInt("page_size", 50)
		if pageSize < 1 || pageSize > 500 {
			pageSize = 50
		}

		filter := func() *gorm.DB {
			dbq := database.DB.Model(&models.Assignment{}).Where("owner_id = ?", ownerID)
			if productID := c.QueryInt("product_id", 0); productID > 0 {
				dbq = dbq.Where("product_id = ?", productID)
			}
			if stepID := c.QueryInt("production_step_id", 0); stepID > 0 {
				dbq = dbq.Where("production_step_id = ?", stepID)
			}
			return dbq
		}

		var total int64
		if err := filter().Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count assignments")
		}

		var assignments []models.Assignment
		if err := filter().
			Preload("Product").
			Preload("ProductionStep").
			Order("product_id asc, sequence_number asc").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&assignments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list assignments")
		}

		items := make([]AssignmentResponse, 0, len(assignments))
		for _, a := range assignments {
			items = append(items, assignmentToResponse(a))
		}
		return c.JSON(fiber.Map{
			"items":     items,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		})
	}
}

// POST /api/assignments
func CreateAssignmentHandler() fiber.Handler {
	store := DefaultStore()

	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var body CreateAssignmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.ProductID == 0 || body.ProductionStepID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "productId and productionStepId are required")
		}
		if body.SequenceNumber < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "sequenceNumber must be at least 1")
		}

		values, err := NormalizeDefaults(body.Values)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var product models.Product
		if err := database.DB.Where("owner_id = ?", ownerID).First(&product, body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		var step models.ProductionStep
		if err := database.DB.Where("owner_id = ?", ownerID).First(&step, body.ProductionStepID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Production step not found")
		}

		a := models.Assignment{
			OwnerID:          ownerID,
			ProductID:        body.ProductID,
			ProductionStepID: body.ProductionStepID,
			SequenceNumber:   body.SequenceNumber,
			FactoryPrice:     values.FactoryPrice,
			CalculatedPrice:  values.CalculatedPrice,
			QuantityLimit1:   values.QuantityLimit1,
			QuantityLimit2:   values.QuantityLimit2,
			IsFinalStep:      values.IsFinalStep,
			IsVtStep:         values.IsVtStep,
			IsParkingStep:    values.IsParkingStep,
		}

		if err := store.CreateAssignment(&a); err != nil {
			if errors.Is(err, ErrDuplicatePair) {
				return fiber.NewError(fiber.StatusBadRequest, "This step is already assigned to the product")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create assignment")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "assignment",
			EntityID:    a.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Assignment created: %s -> %s", product.Code, step.Code),
		})

		a.Product = &product
		a.ProductionStep = &step
		return c.Status(fiber.StatusCreated).JSON(assignmentToResponse(a))
	}
}

// PUT /api/assignments/:id
// The linked pair is immutable; only sequencing and business attributes
// change in place.
func UpdateAssignmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var a models.Assignment
		if err := database.DB.Where("owner_id = ?", ownerID).First(&a, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Assignment not found")
		}

		var body UpdateAssignmentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.SequenceNumber != nil {
			if *body.SequenceNumber < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "sequenceNumber must be at least 1")
			}
			a.SequenceNumber = *body.SequenceNumber
		}

		values, err := NormalizeDefaults(body.Values)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if values.FactoryPrice != nil {
			a.FactoryPrice = values.FactoryPrice
		}
		if values.CalculatedPrice != nil {
			a.CalculatedPrice = values.CalculatedPrice
		}
		if values.QuantityLimit1 != nil {
			a.QuantityLimit1 = values.QuantityLimit1
		}
		if values.QuantityLimit2 != nil {
			a.QuantityLimit2 = values.QuantityLimit2
		}
		// Flags only change when the request carries them; an absent flag is
		// not a reset to false here, unlike in bulk creation.
		if body.Values.IsFinalStep != nil {
			a.IsFinalStep = *body.Values.IsFinalStep
		}
		if body.Values.IsVtStep != nil {
			a.IsVtStep = *body.Values.IsVtStep
		}
		if body.Values.IsParkingStep != nil {
			a.IsParkingStep = *body.Values.IsParkingStep
		}

		if err := database.DB.Save(&a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update assignment")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "assignment",
			EntityID:    a.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Assignment %d updated", a.ID),
		})

		return c.JSON(assignmentToResponse(a))
	}
}

// DELETE /api/assignments/:id
func DeleteAssignmentHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var a models.Assignment
		if err := database.DB.Where("owner_id = ?", ownerID).First(&a, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Assignment not found")
		}

		if err := database.DB.Delete(&a).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete assignment")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "assignment",
			EntityID:    a.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Assignment %d deleted", a.ID),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/assignments/bulk-delete
func BulkDeleteAssignmentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var body BulkDeleteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.IDs) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "At least one id is required")
		}

		result := database.DB.Where("owner_id = ? AND id IN ?", ownerID, body.IDs).Delete(&models.Assignment{})
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete assignments")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "assignment",
			Action:      models.AuditActionBulkDelete,
			Description: fmt.Sprintf("Bulk delete: %d of %d assignments removed", result.RowsAffected, len(body.IDs)),
		})

		return c.JSON(fiber.Map{
			"success": true,
			"deleted": result.RowsAffected,
		})
	}
}
