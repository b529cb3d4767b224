package services

import (
	"time"

	"usta_backend/internal/models"
	"usta_backend/internal/repositories"
	"usta_backend/internal/services/dto"
	"usta_backend/pkg/apperrors"
)

type ChatService interface {
	StartDialog(userID string, req *dto.StartDialogRequest) (*dto.DialogResponse, error)
	ListDialogs(userID string) ([]*dto.DialogResponse, error)
	SendMessage(userID, dialogID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	ListMessages(userID, dialogID string, limit int, before *time.Time) ([]*dto.MessageResponse, error)
	MarkRead(userID, dialogID string) error
}

type chatService struct {
	chatRepo      repositories.ChatRepository
	orderRepo     repositories.OrderRepository
	performerRepo repositories.PerformerRepository
}

func NewChatService(
	chatRepo repositories.ChatRepository,
	orderRepo repositories.OrderRepository,
	performerRepo repositories.PerformerRepository,
) ChatService {
	return &chatService{
		chatRepo:      chatRepo,
		orderRepo:     orderRepo,
		performerRepo: performerRepo,
	}
}

// StartDialog открывает (или возвращает существующий) диалог по заказу.
// Начать может владелец заказа или откликнувшийся исполнитель.
func (s *chatService) StartDialog(userID string, req *dto.StartDialogRequest) (*dto.DialogResponse, error) {
	order, err := s.orderRepo.FindByID(req.OrderID)
	if err != nil {
		if err == repositories.ErrOrderNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	performer, err := s.performerRepo.FindByID(req.PerformerID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	isOwner := order.UserID == userID
	isPerformer := performer.UserID != nil && *performer.UserID == userID
	if !isOwner && !isPerformer {
		return nil, apperrors.ErrDialogAccessDenied
	}

	dialog, err := s.chatRepo.GetOrCreateDialog(order.ID, performer.ID, order.UserID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildDialogResponse(dialog), nil
}

func (s *chatService) ListDialogs(userID string) ([]*dto.DialogResponse, error) {
	dialogs, err := s.chatRepo.ListDialogsByUser(userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.DialogResponse, 0, len(dialogs))
	for i := range dialogs {
		responses = append(responses, buildDialogResponse(&dialogs[i]))
	}
	return responses, nil
}

func (s *chatService) SendMessage(userID, dialogID string, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	dialog, err := s.authorizeDialog(userID, dialogID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		DialogID: dialog.ID,
		SenderID: userID,
		Content:  req.Content,
	}
	if err := s.chatRepo.CreateMessage(message); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return buildMessageResponse(message), nil
}

func (s *chatService) ListMessages(userID, dialogID string, limit int, before *time.Time) ([]*dto.MessageResponse, error) {
	if _, err := s.authorizeDialog(userID, dialogID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.chatRepo.ListMessages(dialogID, limit, before)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.MessageResponse, 0, len(messages))
	for i := range messages {
		responses = append(responses, buildMessageResponse(&messages[i]))
	}
	return responses, nil
}

func (s *chatService) MarkRead(userID, dialogID string) error {
	if _, err := s.authorizeDialog(userID, dialogID); err != nil {
		return err
	}
	if err := s.chatRepo.MarkRead(dialogID, userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *chatService) authorizeDialog(userID, dialogID string) (*models.Dialog, error) {
	dialog, err := s.chatRepo.FindDialogByID(dialogID)
	if err != nil {
		if err == repositories.ErrDialogNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if dialog.CustomerID == userID {
		return dialog, nil
	}
	performer, err := s.performerRepo.FindByID(dialog.PerformerID)
	if err == nil && performer.UserID != nil && *performer.UserID == userID {
		return dialog, nil
	}
	return nil, apperrors.ErrDialogAccessDenied
}

// ---------------- Helper Methods ----------------

func buildDialogResponse(dialog *models.Dialog) *dto.DialogResponse {
	resp := &dto.DialogResponse{
		ID:          dialog.ID,
		OrderID:     dialog.OrderID,
		PerformerID: dialog.PerformerID,
		CustomerID:  dialog.CustomerID,
		CreatedAt:   dialog.CreatedAt,
	}
	if dialog.LastMessage != nil {
		resp.LastMessage = buildMessageResponse(dialog.LastMessage)
	}
	return resp
}

func buildMessageResponse(message *models.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		ID:        message.ID,
		DialogID:  message.DialogID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		ReadAt:    message.ReadAt,
		CreatedAt: message.CreatedAt,
	}
}
