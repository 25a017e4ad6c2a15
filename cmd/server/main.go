package main

import (
	"log"
	"strings"

	"prodflow-backend/internal/assignment"
	"prodflow-backend/internal/audit"
	"prodflow-backend/internal/auth"
	"prodflow-backend/internal/catalog"
	"prodflow-backend/internal/config"
	"prodflow-backend/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Organization membership (owner key switches from usr-* to org-*)
	protected.Post("/organizations", auth.CreateOrganizationHandler())
	protected.Post("/organizations/join", auth.JoinOrganizationHandler())

	// Product catalog
	protected.Get("/products", catalog.ListProductsHandler())
	protected.Post("/products", catalog.CreateProductHandler())
	protected.Post("/products/import", catalog.ImportProductsHandler())
	protected.Get("/products/:id", catalog.GetProductHandler())
	protected.Put("/products/:id", catalog.UpdateProductHandler())
	protected.Delete("/products/:id", catalog.DeleteProductHandler())

	// Production steps
	protected.Get("/production-steps", catalog.ListProductionStepsHandler())
	protected.Post("/production-steps", catalog.CreateProductionStepHandler())
	protected.Post("/production-steps/import", catalog.ImportProductionStepsHandler())
	protected.Get("/production-steps/:id", catalog.GetProductionStepHandler())
	protected.Put("/production-steps/:id", catalog.UpdateProductionStepHandler())
	protected.Delete("/production-steps/:id", catalog.DeleteProductionStepHandler())

	// Workflow assignments
	progress := assignment.NewProgressRegistry()
	protected.Get("/assignments", assignment.ListAssignmentsHandler())
	protected.Post("/assignments", assignment.CreateAssignmentHandler())
	protected.Post("/assignments/bulk", assignment.BulkAssignHandler(progress))
	protected.Post("/assignments/bulk-delete", assignment.BulkDeleteAssignmentsHandler())
	protected.Post("/assignments/conflict-check", assignment.ConflictCheckHandler())
	protected.Get("/assignments/bulk/progress", assignment.BulkProgressHandler(progress))
	protected.Post("/assignments/bulk/progress/reset", assignment.BulkProgressResetHandler(progress))
	protected.Put("/assignments/:id", assignment.UpdateAssignmentHandler())
	protected.Delete("/assignments/:id", assignment.DeleteAssignmentHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	log.Println("Server running on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
