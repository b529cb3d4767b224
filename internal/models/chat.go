package models

import "time"

// Dialog - диалог покупателя и исполнителя, привязан к заказу.
// Один диалог на пару (order, performer), создаётся при первом сообщении.
type Dialog struct {
	BaseModel
	OrderID       string  `gorm:"type:uuid;not null;uniqueIndex:idx_dialog_order_performer"`
	PerformerID   string  `gorm:"type:uuid;not null;uniqueIndex:idx_dialog_order_performer"`
	CustomerID    string  `gorm:"type:uuid;not null;index"`
	LastMessageID *string `gorm:"type:uuid"`

	Order       *Order     `gorm:"foreignKey:OrderID"`
	Performer   *Performer `gorm:"foreignKey:PerformerID"`
	LastMessage *Message   `gorm:"foreignKey:LastMessageID"`
	Messages    []Message  `gorm:"foreignKey:DialogID"`
}

type Message struct {
	BaseModel
	DialogID string `gorm:"type:uuid;not null;index"`
	SenderID string `gorm:"type:uuid;not null;index"`
	Content  string `gorm:"type:text;not null"`
	ReadAt   *time.Time
}
