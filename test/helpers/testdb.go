package helpers

import (
	"os"
	"sync"
	"testing"

	"usta_backend/database"
	"usta_backend/internal/config"
	"usta_backend/internal/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	sharedDB   *gorm.DB
	sharedErr  error
	sharedOnce sync.Once
)

// SharedDB открывает соединение с тестовой БД и гоняет миграции один раз
// на весь пакет. Без DATABASE_URL интеграционные тесты пропускаются.
func SharedDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL is not set, skipping integration test")
	}

	sharedOnce.Do(func() {
		if os.Getenv("JWT_SECRET") == "" {
			os.Setenv("JWT_SECRET", "integration-test-secret")
		}
		os.Setenv("SERVER_ENV", "test")

		config.LoadConfig()
		logger.Init("test")

		db, err := gorm.Open(postgres.Open(config.GetConfig().Database.DSN), &gorm.Config{})
		if err != nil {
			sharedErr = err
			return
		}
		if err := database.Migrate(db); err != nil {
			sharedErr = err
			return
		}
		sharedDB = db
	})

	if sharedErr != nil {
		t.Fatalf("не удалось подготовить тестовую БД: %v", sharedErr)
	}
	return sharedDB
}
