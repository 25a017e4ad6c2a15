package database

import (
	"log"

	"prodflow-backend/internal/config"
	"prodflow-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	// TranslateError lets callers match gorm.ErrDuplicatedKey instead of
	// driver-specific unique-violation errors. The bulk executor depends on
	// that to tell a lost race (skipped) from a real failure.
	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Product{},
		&models.ProductionStep{},
		&models.Assignment{},
		&models.AuditLog{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate error: %v", err)
	}

	// AutoMigrate creates the composite index, but older databases may predate
	// the owner-scoped rename. Make sure the pair constraint really exists; it
	// is the final correctness guarantee for bulk assignment.
	DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_assignments_owner_pair ON assignments(owner_id, product_id, production_step_id)")

	log.Println("Database connection established. Migration complete.")
}
