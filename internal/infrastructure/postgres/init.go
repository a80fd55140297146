package postgres

import (
	"fmt"
	"log"

	"github.com/LavaJover/shvark-heist-service/internal/config"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-heist-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.HeistConfig) *gorm.DB {
	dsn := cfg.HeistDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	if cfg.HeistDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.HeistDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v\n", err)
		}
		return db
	}

	if err := AutoMigrate(db); err != nil {
		log.Fatalf("failed to automigrate: %v\n", err)
	}

	return db
}

// AutoMigrate creates the schema from the gorm models. Used when no SQL
// migrations directory is configured and by tests.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
