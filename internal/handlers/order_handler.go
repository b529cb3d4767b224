package handlers

import (
	"net/http"

	"usta_backend/internal/middleware"
	"usta_backend/internal/services"
	"usta_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	*BaseHandler
	factory *services.Factory
}

// RegisterRoutes регистрирует маршруты заказов и откликов.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware())
	{
		orders.POST("", h.Create)
		orders.GET("/my", h.ListMy)
		orders.GET("/open", h.ListOpen)
		orders.GET("/:id", h.Get)
		orders.PATCH("/:id", h.Update)

		orders.POST("/:id/reactions", h.CreateReaction)
		orders.DELETE("/:id/reactions/:reactionID", h.DeleteReaction)

		orders.POST("/:id/select", h.SelectReaction)
		orders.POST("/:id/deselect", h.DeselectReaction)
		orders.POST("/:id/complete", h.Complete)
		orders.POST("/:id/cancel", h.Cancel)

		orders.POST("/:id/complaints", h.CreateComplaint)
	}
}

func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).OrderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *OrderHandler) Get(c *gin.Context) {
	response, err := h.services(c, h.factory).OrderService.GetOrder(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *OrderHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).OrderService.UpdateOrder(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order updated and sent to moderation"})
}

func (h *OrderHandler) ListMy(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ListOrdersRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).OrderService.ListMyOrders(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListOpen - лента открытых заказов для исполнителей: только
// search_performer и только прошедшие модерацию.
func (h *OrderHandler) ListOpen(c *gin.Context) {
	var req dto.ListOrdersRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).OrderService.ListOpenOrders(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *OrderHandler) CreateReaction(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateReactionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).OrderService.CreateReaction(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *OrderHandler) DeleteReaction(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	err := h.services(c, h.factory).OrderService.DeleteReaction(userID, c.Param("id"), c.Param("reactionID"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reaction removed"})
}

func (h *OrderHandler) SelectReaction(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SelectReactionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).OrderService.SelectReaction(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Performer selected"})
}

func (h *OrderHandler) DeselectReaction(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	err := h.services(c, h.factory).OrderService.DeselectReaction(userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Performer deselected, order reopened"})
}

func (h *OrderHandler) Complete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CompleteOrderRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).OrderService.CompleteOrder(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order completed"})
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	err := h.services(c, h.factory).OrderService.CancelOrder(userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
}

func (h *OrderHandler) CreateComplaint(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateComplaintRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	err := h.services(c, h.factory).OrderService.CreateComplaint(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Complaint submitted"})
}
