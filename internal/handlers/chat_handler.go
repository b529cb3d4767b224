package handlers

import (
	"net/http"
	"time"

	"usta_backend/internal/middleware"
	"usta_backend/internal/services"
	"usta_backend/internal/services/dto"
	"usta_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	*BaseHandler
	factory *services.Factory
}

// RegisterRoutes регистрирует маршруты чата. Все требуют аутентификации.
func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup) {
	dialogs := rg.Group("/dialogs")
	dialogs.Use(middleware.AuthMiddleware())
	{
		dialogs.POST("", h.StartDialog)
		dialogs.GET("", h.ListDialogs)
		dialogs.GET("/:id/messages", h.ListMessages)
		dialogs.POST("/:id/messages", h.SendMessage)
		dialogs.POST("/:id/read", h.MarkRead)
	}
}

func (h *ChatHandler) StartDialog(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.StartDialogRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).ChatService.StartDialog(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *ChatHandler) ListDialogs(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	dialogs, err := h.services(c, h.factory).ChatService.ListDialogs(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dialogs": dialogs})
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	response, err := h.services(c, h.factory).ChatService.SendMessage(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListMessages отдает страницу сообщений. Курсор - параметр before
// (RFC3339): вернутся сообщения строго старше него.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	limit := ParseQueryInt(c, "limit", 50)

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid 'before' timestamp, expected RFC3339"))
			return
		}
		before = &parsed
	}

	messages, err := h.services(c, h.factory).ChatService.ListMessages(userID, c.Param("id"), limit, before)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.services(c, h.factory).ChatService.MarkRead(userID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read"})
}
