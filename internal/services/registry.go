package services

import (
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"

	"gorm.io/gorm"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService      AuthService
	CatalogService   CatalogService
	PerformerService PerformerService
	OrderService     OrderService
	ReviewService    ReviewService
	ChatService      ChatService
}

// Factory собирает контейнер сервисов поверх переданного *gorm.DB.
// Хендлеры зовут Build на каждый запрос: в обычном режиме это пул
// соединений, в интеграционных тестах - открытая транзакция.
type Factory struct {
	ModerationQ queue.Queue
	SearchQ     queue.Queue
}

func (f *Factory) Build(db *gorm.DB) *ServiceContainer {
	userRepo := repositories.NewUserRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	performerRepo := repositories.NewPerformerRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	chatRepo := repositories.NewChatRepository(db)
	complaintRepo := repositories.NewComplaintRepository(db)

	return &ServiceContainer{
		AuthService:      NewAuthService(userRepo),
		CatalogService:   NewCatalogService(catalogRepo),
		PerformerService: NewPerformerService(performerRepo, catalogRepo, complaintRepo, f.ModerationQ, f.SearchQ),
		OrderService:     NewOrderService(orderRepo, performerRepo, complaintRepo, f.ModerationQ),
		ReviewService:    NewReviewService(reviewRepo, performerRepo, userRepo, f.ModerationQ),
		ChatService:      NewChatService(chatRepo, orderRepo, performerRepo),
	}
}
