package handlers

import (
	"net/http"

	"usta_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	*BaseHandler
	factory *services.Factory
}

// RegisterRoutes регистрирует публичные маршруты справочника.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	catalog := rg.Group("/catalog")
	{
		catalog.GET("/occupations", h.ListOccupations)
		catalog.GET("/specializations", h.ListSpecializations)
		catalog.GET("/specializations/:id/services", h.ListServices)
		catalog.GET("/specializations/:id/features", h.ListFeatures)
	}
}

func (h *CatalogHandler) ListOccupations(c *gin.Context) {
	occupations, err := h.services(c, h.factory).CatalogService.ListOccupations()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"occupations": occupations})
}

func (h *CatalogHandler) ListSpecializations(c *gin.Context) {
	var occupationID *uint
	if raw := ParseQueryInt(c, "occupation_id", 0); raw > 0 {
		id := uint(raw)
		occupationID = &id
	}

	specializations, err := h.services(c, h.factory).CatalogService.ListSpecializations(occupationID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"specializations": specializations})
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	specializationID, err := ParseParamInt(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	services, err := h.services(c, h.factory).CatalogService.ListServices(uint(specializationID))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (h *CatalogHandler) ListFeatures(c *gin.Context) {
	specializationID, err := ParseParamInt(c, "id")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	features, err := h.services(c, h.factory).CatalogService.ListFeatures(uint(specializationID))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"features": features})
}
