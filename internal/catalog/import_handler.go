package catalog

import (
	"fmt"
	"log"
	"strings"

	"prodflow-backend/internal/audit"
	"prodflow-backend/internal/auth"
	"prodflow-backend/internal/database"
	"prodflow-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// readImportSheet opens the uploaded XLSX and returns the first sheet's rows.
func readImportSheet(c *fiber.Ctx) ([][]string, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Could not read uploaded file: "+err.Error())
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files can be imported")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Could not open file: "+err.Error())
	}
	defer file.Close()

	excelFile, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Could not read Excel file: "+err.Error())
	}
	defer excelFile.Close()

	sheetList := excelFile.GetSheetList()
	if len(sheetList) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Excel file has no sheets")
	}

	rows, err := excelFile.GetRows(sheetList[0])
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Could not read sheet: "+err.Error())
	}
	if len(rows) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Excel file is empty")
	}
	return rows, nil
}

// POST /api/products/import
func ImportProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		rows, err := readImportSheet(c)
		if err != nil {
			return err
		}

		data, _ := cleanImportRows(rows)

		imported := 0
		skipped := 0
		rowErrors := make([]string, 0)

		for i, row := range data {
			code := cell(row, 0)
			name := cell(row, 1)
			if code == "" || name == "" {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d: code and name are required", i+1))
				continue
			}

			var existing models.Product
			if err := database.DB.Where("owner_id = ? AND code = ?", ownerID, code).First(&existing).Error; err == nil {
				skipped++
				continue
			}

			p := models.Product{
				OwnerID:  ownerID,
				Code:     code,
				Name:     name,
				Category: cell(row, 2),
				Notes:    cell(row, 3),
			}
			if err := database.DB.Create(&p).Error; err != nil {
				log.Printf("product import row failed (code=%s): %v", code, err)
				rowErrors = append(rowErrors, fmt.Sprintf("row %d: database error", i+1))
				continue
			}
			imported++
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "product",
			Action:      models.AuditActionImport,
			Description: fmt.Sprintf("Product import: %d imported, %d skipped", imported, skipped),
		})

		return c.JSON(fiber.Map{
			"success":  true,
			"imported": imported,
			"skipped":  skipped,
			"errors":   rowErrors,
		})
	}
}

// POST /api/production-steps/import
func ImportProductionStepsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, err := auth.ResolveOwnerFromContext(c)
		if err != nil {
			return err
		}

		rows, err := readImportSheet(c)
		if err != nil {
			return err
		}

		data, _ := cleanImportRows(rows)

		imported := 0
		skipped := 0
		rowErrors := make([]string, 0)

		for i, row := range data {
			code := cell(row, 0)
			name := cell(row, 1)
			if code == "" || name == "" {
				rowErrors = append(rowErrors, fmt.Sprintf("row %d: code and name are required", i+1))
				continue
			}

			var existing models.ProductionStep
			if err := database.DB.Where("owner_id = ? AND code = ?", ownerID, code).First(&existing).Error; err == nil {
				skipped++
				continue
			}

			s := models.ProductionStep{
				OwnerID:     ownerID,
				Code:        code,
				Name:        name,
				SequenceTag: cell(row, 2),
				StepGroup:   cell(row, 3),
				Notes:       cell(row, 4),
			}
			if err := database.DB.Create(&s).Error; err != nil {
				log.Printf("production step import row failed (code=%s): %v", code, err)
				rowErrors = append(rowErrors, fmt.Sprintf("row %d: database error", i+1))
				continue
			}
			imported++
		}

		_ = audit.WriteLog(audit.LogOptions{
			OwnerID:     ownerID,
			UserID:      auth.CurrentUserID(c),
			EntityType:  "production_step",
			Action:      models.AuditActionImport,
			Description: fmt.Sprintf("Production step import: %d imported, %d skipped", imported, skipped),
		})

		return c.JSON(fiber.Map{
			"success":  true,
			"imported": imported,
			"skipped":  skipped,
			"errors":   rowErrors,
		})
	}
}
