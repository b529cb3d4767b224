package repositories

import (
	"errors"
	"time"

	"usta_backend/internal/models"

	"gorm.io/gorm"
)

var ErrDialogNotFound = errors.New("dialog not found")

type ChatRepository interface {
	// GetOrCreateDialog находит диалог пары (order, performer) или создает его.
	GetOrCreateDialog(orderID, performerID, customerID string) (*models.Dialog, error)
	FindDialogByID(id string) (*models.Dialog, error)
	ListDialogsByUser(userID string) ([]models.Dialog, error)

	CreateMessage(message *models.Message) error
	ListMessages(dialogID string, limit int, before *time.Time) ([]models.Message, error)
	MarkRead(dialogID, readerID string) error
}

type ChatRepositoryImpl struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &ChatRepositoryImpl{db: db}
}

func (r *ChatRepositoryImpl) GetOrCreateDialog(orderID, performerID, customerID string) (*models.Dialog, error) {
	var dialog models.Dialog
	err := r.db.Where("order_id = ? AND performer_id = ?", orderID, performerID).
		First(&dialog).Error
	if err == nil {
		return &dialog, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dialog = models.Dialog{
		OrderID:     orderID,
		PerformerID: performerID,
		CustomerID:  customerID,
	}
	if err := r.db.Create(&dialog).Error; err != nil {
		return nil, err
	}
	return &dialog, nil
}

func (r *ChatRepositoryImpl) FindDialogByID(id string) (*models.Dialog, error) {
	var dialog models.Dialog
	err := r.db.Preload("LastMessage").First(&dialog, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDialogNotFound
		}
		return nil, err
	}
	return &dialog, nil
}

func (r *ChatRepositoryImpl) ListDialogsByUser(userID string) ([]models.Dialog, error) {
	var dialogs []models.Dialog
	err := r.db.Preload("LastMessage").Preload("Performer").
		Where("customer_id = ? OR performer_id IN (SELECT id FROM performers WHERE user_id = ?)", userID, userID).
		Order("updated_at DESC").
		Find(&dialogs).Error
	return dialogs, err
}

func (r *ChatRepositoryImpl) CreateMessage(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Dialog{}).Where("id = ?", message.DialogID).
			Update("last_message_id", message.ID).Error
	})
}

func (r *ChatRepositoryImpl) ListMessages(dialogID string, limit int, before *time.Time) ([]models.Message, error) {
	query := r.db.Where("dialog_id = ?", dialogID)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	var messages []models.Message
	err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (r *ChatRepositoryImpl) MarkRead(dialogID, readerID string) error {
	now := time.Now()
	return r.db.Model(&models.Message{}).
		Where("dialog_id = ? AND sender_id <> ? AND read_at IS NULL", dialogID, readerID).
		Update("read_at", now).Error
}
