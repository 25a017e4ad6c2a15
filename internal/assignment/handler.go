package assignment

import (
	"errors"
	"log"

	"prodflow-backend/internal/audit"
	"prodflow-backend/internal/auth"
	"prodflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Error codes of the bulk-assignment envelope.
const (
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeValidationError = "VALIDATION_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

type BulkAssignRequest struct {
	ProductIDs        []uint      `json:"productIds"`
	ProductionStepIDs []uint      `json:"productionStepIds"`
	DefaultValues     RawDefaults `json:"defaultValues"`
}

type ConflictCheckRequest struct {
	ProductIDs        []uint `json:"productIds"`
	ProductionStepIDs []uint `json:"productionStepIds"`
}

func errorEnvelope(c *fiber.Ctx, status int, code, message string, fields []FieldError) error {
	body := fiber.Map{
		"success": false,
		"error":   message,
		"code":    code,
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return c.Status(status).JSON(body)
}

// POST /api/assignments/bulk
// Expands the product x step cross product into assignment rows. Existing
// pairs are skipped, row failures are counted, and the summary always adds
// up to totalRequested.
func BulkAssignHandler(registry *ProgressRegistry) fiber.Handler {
	executor := NewExecutor(DefaultStore())

	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return errorEnvelope(c, fiber.StatusUnauthorized, CodeUnauthorized, "Could not resolve user identity", nil)
		}

		var body BulkAssignRequest
		if err := c.BodyParser(&body); err != nil {
			return errorEnvelope(c, fiber.StatusBadRequest, CodeValidationError, "Invalid request body", nil)
		}

		tracker := registry.For(ownerID)
		total := len(body.ProductIDs) * len(body.ProductionStepIDs)
		if err := tracker.Begin(total); err != nil {
			return errorEnvelope(c, fiber.StatusConflict, CodeValidationError, err.Error(), nil)
		}

		defaults, err := NormalizeDefaults(body.DefaultValues)
		if err != nil {
			tracker.Fail(err.Error())
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				return errorEnvelope(c, fiber.StatusBadRequest, CodeValidationError, "Invalid default values", vErr.Fields)
			}
			return errorEnvelope(c, fiber.StatusBadRequest, CodeValidationError, err.Error(), nil)
		}

		summary, err := executor.Execute(Request{
			OwnerID:           ownerID,
			ProductIDs:        body.ProductIDs,
			ProductionStepIDs: body.ProductionStepIDs,
			Defaults:          defaults,
		})
		if err != nil {
			tracker.Fail(err.Error())
			switch {
			case errors.Is(err, ErrMissingOwner):
				return errorEnvelope(c, fiber.StatusUnauthorized, CodeUnauthorized, "Could not resolve user identity", nil)
			default:
				var vErr *ValidationError
				if errors.As(err, &vErr) {
					return errorEnvelope(c, fiber.StatusBadRequest, CodeValidationError, "Invalid selection", vErr.Fields)
				}
				log.Printf("bulk assignment failed (owner=%s): %v", ownerID, err)
				return errorEnvelope(c, fiber.StatusInternalServerError, CodeInternalError, "Bulk assignment failed", nil)
			}
		}

		tracker.Complete(summary)

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "assignment",
			Action:      models.AuditActionBulkCreate,
			Description: "Bulk assignment run",
			Details:     summary,
		})

		return c.JSON(fiber.Map{
			"success": true,
			"summary": summary,
		})
	}
}

// POST /api/assignments/conflict-check
// Advisory pre-submit check. The result can be stale relative to the
// authoritative check at write time; the executor re-filters regardless.
func ConflictCheckHandler() fiber.Handler {
	store := DefaultStore()

	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var body ConflictCheckRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		existing, err := store.ExistingPairs(ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load existing assignments")
		}

		return c.JSON(DetectConflicts(body.ProductIDs, body.ProductionStepIDs, existing))
	}
}

// GET /api/assignments/bulk/progress
func BulkProgressHandler(registry *ProgressRegistry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}
		return c.JSON(registry.For(ownerID).Snapshot())
	}
}

// POST /api/assignments/bulk/progress/reset
// Clears the recorded outcome. Nothing is cancelled: an in-flight run keeps
// going and reset is refused until it settles.
func BulkProgressResetHandler(registry *ProgressRegistry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}
		if err := registry.For(ownerID).Reset(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(registry.For(ownerID).Snapshot())
	}
}
