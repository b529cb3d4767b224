package models

import (
	"gorm.io/datatypes"
)

// Performer - публичный профиль исполнителя, отдельный от User-аккаунта.
type Performer struct {
	BaseModel
	UID              string      `gorm:"uniqueIndex;not null"`
	UserID           *string     `gorm:"type:uuid;index"`
	AccountType      AccountType `gorm:"not null;default:'person'"`
	OrganizationName string
	Description      string
	CityID           *uint `gorm:"index"`
	Verified         bool  `gorm:"default:false"`
	Active           bool  `gorm:"default:true"`

	Status           ModerationStatus `gorm:"default:'pending'"`
	StatusReasonCode string

	// Производные поля: пересчитываются из approved-отзывов, не инкрементально.
	Rating      float64 `gorm:"default:0;index"`
	ReviewCount int     `gorm:"default:0"`

	// Денормализованный текст для полнотекстового поиска,
	// собирается воркером из названий специализаций, услуг и описаний.
	SearchText string

	User            *User                    `gorm:"foreignKey:UserID"`
	Occupations     []PerformerOccupation    `gorm:"foreignKey:PerformerID;constraint:OnDelete:CASCADE"`
	Specializations []PerformerSpecialization `gorm:"foreignKey:PerformerID;constraint:OnDelete:CASCADE"`
	Services        []PerformerService       `gorm:"foreignKey:PerformerID;constraint:OnDelete:CASCADE"`
	Reviews         []PerformerReview        `gorm:"foreignKey:PerformerID"`
}

type PerformerOccupation struct {
	BaseModel
	PerformerID  string `gorm:"type:uuid;not null;index"`
	OccupationID uint   `gorm:"not null;index"`

	Occupation Occupation `gorm:"foreignKey:OccupationID"`
}

type PerformerSpecialization struct {
	BaseModel
	PerformerID      string `gorm:"type:uuid;not null;index"`
	OccupationID     string `gorm:"type:uuid"`
	SpecializationID uint   `gorm:"not null;index"`

	Specialization Specialization                         `gorm:"foreignKey:SpecializationID"`
	Services       []PerformerService                     `gorm:"foreignKey:PerformerSpecializationID"`
	FeatureValues  []PerformerSpecializationFeatureValue  `gorm:"foreignKey:PerformerSpecializationID;constraint:OnDelete:CASCADE"`
}

// PerformerService - услуга исполнителя, проходит модерацию отдельно.
type PerformerService struct {
	BaseModel
	PerformerID               string  `gorm:"type:uuid;not null;index"`
	PerformerSpecializationID *string `gorm:"type:uuid;index"`
	ServiceID                 uint    `gorm:"not null;index"`
	Description               string
	Price                     *float64

	Status           ModerationStatus `gorm:"default:'pending';index"`
	StatusReasonCode string

	Service     Service                      `gorm:"foreignKey:ServiceID"`
	Attachments []PerformerServiceAttachment `gorm:"foreignKey:PerformerServiceID"`
}

type PerformerServiceAttachment struct {
	BaseModel
	PerformerServiceID *string `gorm:"type:uuid;index"`
	Image              string  `gorm:"not null"`
	ImageSmall         string

	Status           ModerationStatus `gorm:"default:'pending'"`
	StatusReasonCode string
}

// PerformerSpecializationFeatureValue - ответ исполнителя на Feature специализации.
// Инвариант: FeatureID обязан принадлежать специализации, к которой привязано значение;
// проверяется при записи в CatalogRepository.
type PerformerSpecializationFeatureValue struct {
	BaseModel
	PerformerSpecializationID string `gorm:"type:uuid;not null;index"`
	FeatureID                 uint   `gorm:"not null;index"`

	ValueBoolean   *bool
	ValueOptionIDs datatypes.JSON `gorm:"type:jsonb"` // []uint для multi_option

	Feature Feature `gorm:"foreignKey:FeatureID"`
}

type PerformerReview struct {
	BaseModel
	UserID      string `gorm:"type:uuid;not null;index"`
	PerformerID string `gorm:"type:uuid;not null;index"`
	Rating      int    `gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Description string

	Status           ModerationStatus `gorm:"default:'pending';index"`
	StatusReasonCode string

	User        *User                       `gorm:"foreignKey:UserID"`
	Performer   *Performer                  `gorm:"foreignKey:PerformerID"`
	Attachments []PerformerReviewAttachment `gorm:"foreignKey:ReviewID"`
}

type PerformerReviewAttachment struct {
	BaseModel
	ReviewID   *string `gorm:"type:uuid;index"`
	Image      string  `gorm:"not null"`
	ImageSmall string

	Status           ModerationStatus `gorm:"default:'pending'"`
	StatusReasonCode string
}

// PerformerComplaint - жалоба пользователя на исполнителя.
type PerformerComplaint struct {
	BaseModel
	UserID      string `gorm:"type:uuid;not null;index"`
	PerformerID string `gorm:"type:uuid;not null;index"`
	Title       string
	Description string
	Viewed      bool `gorm:"default:false"`
}
