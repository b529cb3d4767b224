package handlers

import (
	"usta_backend/internal/services"
	"usta_backend/internal/validator"

	"github.com/gin-gonic/gin"
)

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler      *AuthHandler
	CatalogHandler   *CatalogHandler
	PerformerHandler *PerformerHandler
	OrderHandler     *OrderHandler
	ReviewHandler    *ReviewHandler
	ChatHandler      *ChatHandler
}

func NewAppHandlers(factory *services.Factory, v *validator.Validator) *AppHandlers {
	base := NewBaseHandler(v)
	return &AppHandlers{
		AuthHandler:      &AuthHandler{BaseHandler: base, factory: factory},
		CatalogHandler:   &CatalogHandler{BaseHandler: base, factory: factory},
		PerformerHandler: &PerformerHandler{BaseHandler: base, factory: factory},
		OrderHandler:     &OrderHandler{BaseHandler: base, factory: factory},
		ReviewHandler:    &ReviewHandler{BaseHandler: base, factory: factory},
		ChatHandler:      &ChatHandler{BaseHandler: base, factory: factory},
	}
}

// services собирает контейнер сервисов поверх *gorm.DB из контекста запроса.
func (h *BaseHandler) services(c *gin.Context, factory *services.Factory) *services.ServiceContainer {
	return factory.Build(h.GetDB(c))
}
