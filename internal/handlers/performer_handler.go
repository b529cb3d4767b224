package handlers

import (
	"net/http"

	"usta_backend/internal/middleware"
	"usta_backend/internal/services"
	"usta_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PerformerHandler struct {
	*BaseHandler
	factory *services.Factory
}

// RegisterRoutes регистрирует маршруты профилей исполнителей.
// Поиск и просмотр публичны, все мутации требуют аутентификации.
func (h *PerformerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	performers := rg.Group("/performers")
	{
		performers.POST("/search", h.Search)
		performers.GET("/:id", h.GetByUID)
	}

	authed := rg.Group("/performers")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.POST("", h.Create)
		authed.PATCH("/:id", h.Update)
		authed.POST("/:id/specializations", h.AddSpecialization)
		authed.POST("/:id/services", h.AddService)
		authed.PUT("/:id/specializations/:specID/features", h.SetFeatureValue)
		authed.POST("/:id/complaints", h.CreateComplaint)
	}
}

// Search - выдача каталога. Параметры фильтрации приходят в теле POST:
// карта features слишком развесиста для query string.
func (h *PerformerHandler) Search(c *gin.Context) {
	var req dto.SearchPerformersRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).PerformerService.SearchPerformers(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetByUID отдает публичный профиль по короткому uid.
func (h *PerformerHandler) GetByUID(c *gin.Context) {
	response, err := h.services(c, h.factory).PerformerService.GetPerformerByUID(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *PerformerHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePerformerRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).PerformerService.CreatePerformer(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *PerformerHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePerformerRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).PerformerService.UpdatePerformer(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated and sent to moderation"})
}

func (h *PerformerHandler) AddSpecialization(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AddSpecializationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).PerformerService.AddSpecialization(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Specialization added"})
}

func (h *PerformerHandler) AddService(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AddServiceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).PerformerService.AddService(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *PerformerHandler) SetFeatureValue(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SetFeatureValueRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).PerformerService.SetFeatureValue(userID, c.Param("id"), c.Param("specID"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Feature value saved"})
}

func (h *PerformerHandler) CreateComplaint(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateComplaintRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).PerformerService.CreateComplaint(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Complaint submitted"})
}
