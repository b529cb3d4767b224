package database

import (
	"fmt"
	"log"

	"usta_backend/internal/config"
	"usta_backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var gormDB *gorm.DB

// ConnectGorm инициализирует GORM с URL из конфигурации.
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate выполняет миграцию всех моделей.
func AutoMigrate() error {
	db, err := ConnectGorm()
	if err != nil {
		return err
	}
	return Migrate(db)
}

// Migrate мигрирует схему на переданном соединении.
// uuid_generate_v4 требует расширение uuid-ossp.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to create uuid-ossp extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},

		// справочник
		&models.Occupation{},
		&models.Specialization{},
		&models.Service{},
		&models.Feature{},
		&models.FeatureOption{},

		// исполнители
		&models.Performer{},
		&models.PerformerOccupation{},
		&models.PerformerSpecialization{},
		&models.PerformerService{},
		&models.PerformerServiceAttachment{},
		&models.PerformerSpecializationFeatureValue{},
		&models.PerformerReview{},
		&models.PerformerReviewAttachment{},
		&models.PerformerComplaint{},

		// заказы
		&models.Order{},
		&models.OrderAttachment{},
		&models.Reaction{},
		&models.OrderComplaint{},

		// чат
		&models.Dialog{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	// Полнотекстовый индекс каталога. AutoMigrate выражения не умеет.
	err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_performers_search_text
		ON performers USING GIN (to_tsvector('simple', search_text))`).Error
	if err != nil {
		return fmt.Errorf("failed to create FTS index: %w", err)
	}

	log.Println("AutoMigrate завершен")
	return nil
}
