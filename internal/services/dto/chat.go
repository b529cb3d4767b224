package dto

import "time"

type StartDialogRequest struct {
	OrderID     string `json:"order_id" binding:"required,uuid"`
	PerformerID string `json:"performer_id" binding:"required,uuid"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

type DialogResponse struct {
	ID          string           `json:"id"`
	OrderID     string           `json:"order_id"`
	PerformerID string           `json:"performer_id"`
	CustomerID  string           `json:"customer_id"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type MessageResponse struct {
	ID        string     `json:"id"`
	DialogID  string     `json:"dialog_id"`
	SenderID  string     `json:"sender_id"`
	Content   string     `json:"content"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
