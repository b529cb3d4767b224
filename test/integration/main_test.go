package integration_test

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
)

// Интеграционные тесты ходят в реальный Postgres (DATABASE_URL) и
// выполняются каждый в своей транзакции, см. test/helpers.

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
