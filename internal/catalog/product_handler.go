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

type ProductResponse struct {
	ID       uint   `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type CreateProductRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

type UpdateProductRequest struct {
	Code     *string `json:"code"`
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Notes    *string `json:"notes"`
}

var productQuerySpec = QuerySpec{
	SearchColumns: []string{"code", "name", "category"},
	SortColumns: map[string]string{
		"code":       "code",
		"name":       "name",
		"category":   "category",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	DefaultSort: "code",
}

func productToResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:       p.ID,
		Code:     p.Code,
		Name:     p.Name,
		Category: p.Category,
		Notes:    p.Notes,
	}
}

// GET /api/products?search=&sort_by=&sort_dir=&page=&page_size=
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		params := ParseListParams(c)

		countQ := database.DB.Model(&models.Product{}).Where("owner_id = ?", ownerID)
		var total int64
		if err := productQuerySpec.ApplySearch(countQ, params).Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not count products")
		}

		listQ := database.DB.Model(&models.Product{}).Where("owner_id = ?", ownerID)
		var products []models.Product
		if err := productQuerySpec.Apply(listQ, params).Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list products")
		}

		items := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			items = append(items, productToResponse(p))
		}
		return c.JSON(fiber.Map{
			"items":     items,
			"total":     total,
			"page":      params.Page,
			"page_size": params.PageSize,
		})
	}
}

// GET /api/products/:id
func GetProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.Where("owner_id = ?", ownerID).First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}
		return c.JSON(productToResponse(p))
	}
}

// POST /api/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Code = strings.TrimSpace(body.Code)
		body.Name = strings.TrimSpace(body.Name)

		if body.Code == "" || body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Code and name are required")
		}

		var existing models.Product
		if err := database.DB.Where("owner_id = ? AND code = ?", ownerID, body.Code).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "This product code is already in use")
		}

		p := models.Product{
			OwnerID:  ownerID,
			Code:     body.Code,
			Name:     body.Name,
			Category: strings.TrimSpace(body.Category),
			Notes:    strings.TrimSpace(body.Notes),
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: "Product created: " + p.Code,
		})

		return c.Status(fiber.StatusCreated).JSON(productToResponse(p))
	}
}

// PUT /api/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.Where("owner_id = ?", ownerID).First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		if body.Code != nil {
			code := strings.TrimSpace(*body.Code)
			if code == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Code cannot be empty")
			}
			if code != p.Code {
				var existing models.Product
				if err := database.DB.Where("owner_id = ? AND code = ?", ownerID, code).First(&existing).Error; err == nil {
					return fiber.NewError(fiber.StatusBadRequest, "This product code is already in use")
				}
			}
			p.Code = code
		}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "Name cannot be empty")
			}
			p.Name = name
		}
		if body.Category != nil {
			p.Category = strings.TrimSpace(*body.Category)
		}
		if body.Notes != nil {
			p.Notes = strings.TrimSpace(*body.Notes)
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: "Product updated: " + p.Code,
		})

		return c.JSON(productToResponse(p))
	}
}

// DELETE /api/products/:id
// Removes the product together with its workflow assignments.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.Where("owner_id = ?", ownerID).First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Product not found")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("owner_id = ? AND product_id = ?", ownerID, p.ID).Delete(&models.Assignment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&p).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete product")
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "product",
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: "Product deleted: " + p.Code,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
