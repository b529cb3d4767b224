package models

import "time"

// Order - заказ покупателя. Жизненный цикл:
// search_performer -> performer_selected -> completed,
// плюс терминальные rejected (модерация) и cancelled (владелец).
type Order struct {
	BaseModel
	UserID           string `gorm:"type:uuid;not null;index"`
	SpecializationID *uint  `gorm:"index"`
	ServiceID        *uint  `gorm:"index"`
	CityID           *uint  `gorm:"index"`
	Title            string `gorm:"not null"`
	Description      string
	PriceFrom        *float64
	PriceTo          *float64
	DesiredAt        *time.Time

	Status OrderStatus `gorm:"type:varchar(32);not null;default:'search_performer';index"`

	ModerationStatus ModerationStatus `gorm:"type:varchar(16);default:'pending';index"`
	StatusReasonCode string

	// Выбранный отклик. Заполнен только в performer_selected и completed.
	ReactionID *string  `gorm:"type:uuid"`
	FinalPrice *float64

	User        *User             `gorm:"foreignKey:UserID"`
	Reaction    *Reaction         `gorm:"foreignKey:ReactionID"`
	Reactions   []Reaction        `gorm:"foreignKey:OrderID"`
	Attachments []OrderAttachment `gorm:"foreignKey:OrderID"`
}

type OrderAttachment struct {
	BaseModel
	OrderID    *string `gorm:"type:uuid;index"`
	Image      string  `gorm:"not null"`
	ImageSmall string

	Status           ModerationStatus `gorm:"default:'pending'"`
	StatusReasonCode string
}

// OrderComplaint - жалоба исполнителя на заказ.
type OrderComplaint struct {
	BaseModel
	UserID      string `gorm:"type:uuid;not null;index"`
	OrderID     string `gorm:"type:uuid;not null;index"`
	Title       string
	Description string
	Viewed      bool `gorm:"default:false"`
}

// Reaction - отклик исполнителя на заказ. Один исполнитель - один отклик на заказ.
type Reaction struct {
	BaseModel
	OrderID     string `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_order_performer"`
	PerformerID string `gorm:"type:uuid;not null;uniqueIndex:idx_reaction_order_performer"`
	Comment     string
	Price       *float64

	Performer *Performer `gorm:"foreignKey:PerformerID"`
}
