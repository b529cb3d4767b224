package handlers

import (
	"net/http"

	"usta_backend/internal/middleware"
	"usta_backend/internal/models"
	"usta_backend/internal/services"
	"usta_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	*BaseHandler
	factory *services.Factory
}

// RegisterRoutes регистрирует маршруты отзывов. Чтение публично,
// создание и правка требуют аутентификации.
func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	performers := rg.Group("/performers")
	{
		performers.GET("/:id/reviews", h.ListForPerformer)
		performers.GET("/:id/rating", h.GetRating)
	}

	reviews := rg.Group("/reviews")
	{
		reviews.GET("/:id", h.Get)
	}

	authed := rg.Group("/reviews")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.POST("", h.Create)
		authed.PATCH("/:id", h.Update)
		authed.DELETE("/:id", h.Delete)
	}
}

func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).ReviewService.CreateReview(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	response, err := h.services(c, h.factory).ReviewService.GetReview(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ReviewHandler) ListForPerformer(c *gin.Context) {
	page := ParseQueryInt(c, "page", 1)

	response, err := h.services(c, h.factory).ReviewService.GetPerformerReviews(c.Param("id"), page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ReviewHandler) GetRating(c *gin.Context) {
	response, err := h.services(c, h.factory).ReviewService.GetPerformerRating(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateReviewRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).ReviewService.UpdateReview(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review updated and sent to moderation"})
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	role := models.UserRole(c.GetString("role"))

	err := h.services(c, h.factory).ReviewService.DeleteReview(userID, role, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
}
