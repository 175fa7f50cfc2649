package db

import (
	"fmt"

	"github.com/Vrisan-Services/B2b-Server/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Lead{},
		&models.SubscriptionRecord{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if IsSQLite(conn) {
		return nil
	}

	// Partial indexes keep the sweeper scans cheap on PostgreSQL; SQLite
	// dev databases stay small enough not to need them.
	if errIdx := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_users_subscribed
		ON users (id) WHERE is_subscribed = true
	`).Error; errIdx != nil {
		return fmt.Errorf("db: create subscribed index: %w", errIdx)
	}
	if errIdx := conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_users_crm_subscribed
		ON users (id) WHERE is_crm_subscribed = true
	`).Error; errIdx != nil {
		return fmt.Errorf("db: create crm subscribed index: %w", errIdx)
	}

	return nil
}
