package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"usta_backend/internal/app"
	"usta_backend/internal/queue"
	"usta_backend/internal/services"

	"gorm.io/gorm"
)

// TestServer поднимает httptest-сервер поверх открытой транзакции:
// каждый тест получает изолированную БД и откатывает всё за собой.
// Очереди в тестах in-memory, воркеры не запускаются - задачи
// прогоняются синхронно там, где тест этого хочет.
type TestServer struct {
	Server      *httptest.Server
	DB          *gorm.DB // открытая транзакция
	ModerationQ *queue.MemoryQueue
	SearchQ     *queue.MemoryQueue
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	db := SharedDB(t)
	tx := db.Begin()
	if tx.Error != nil {
		t.Fatalf("не удалось открыть транзакцию: %v", tx.Error)
	}

	moderationQ := queue.NewMemoryQueue()
	searchQ := queue.NewMemoryQueue()

	factory := &services.Factory{
		ModerationQ: moderationQ,
		SearchQ:     searchQ,
	}

	router := app.SetupRouter(tx, factory)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:      server,
		DB:          tx,
		ModerationQ: moderationQ,
		SearchQ:     searchQ,
	}
	t.Cleanup(ts.Close)
	return ts
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.DB.Rollback()
}

// Factory пересобирает фабрику сервисов теста (для синхронного вызова
// сервисов и воркеров поверх той же транзакции).
func (ts *TestServer) Factory() *services.Factory {
	return &services.Factory{
		ModerationQ: ts.ModerationQ,
		SearchQ:     ts.SearchQ,
	}
}

// EnqueueModeration кладет задачу в тестовую очередь модерации.
func (ts *TestServer) EnqueueModeration(t *testing.T, entityType queue.EntityType, entityID string) {
	t.Helper()
	if err := ts.ModerationQ.Enqueue(context.Background(), queue.Job{EntityType: entityType, EntityID: entityID}); err != nil {
		t.Fatalf("не удалось поставить задачу в очередь: %v", err)
	}
}

func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	url := ts.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка кодирования JSON для запроса: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("Ошибка создания HTTP-запроса: %v", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("Ошибка отправки HTTP-запроса: %v", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("Ошибка чтения тела ответа: %v", err)
	}

	return res, string(resBodyBytes)
}
