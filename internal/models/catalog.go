package models

import (
	"time"

	"gorm.io/datatypes"
)

// Каталог: occupation -> specialization -> service / feature.
// Справочные таблицы с целочисленными ключами, заполняются сидером.

type Occupation struct {
	ID        uint   `gorm:"primaryKey"`
	Slug      string `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"not null"`
	Rank      int    `gorm:"default:0;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Specializations []Specialization `gorm:"foreignKey:OccupationID"`
}

type Specialization struct {
	ID             uint   `gorm:"primaryKey"`
	OccupationID   uint   `gorm:"not null;index"`
	Slug           string `gorm:"uniqueIndex;not null"`
	Name           string `gorm:"not null"`
	Rank           int    `gorm:"default:0;index"`
	SearchSynonyms datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Occupation Occupation `gorm:"foreignKey:OccupationID"`
	Services   []Service  `gorm:"foreignKey:SpecializationID"`
	Features   []Feature  `gorm:"foreignKey:SpecializationID"`
}

type Service struct {
	ID               uint   `gorm:"primaryKey"`
	SpecializationID uint   `gorm:"not null;index"`
	Slug             string `gorm:"uniqueIndex;not null"`
	Name             string `gorm:"not null"`
	IsDefault        bool   `gorm:"default:false"`
	SearchSynonyms   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Specialization Specialization `gorm:"foreignKey:SpecializationID"`
}

// Feature - динамический атрибут специализации (например "есть свой инструмент": boolean).
// Code используется как ключ фильтра в поисковых запросах.
type Feature struct {
	ID               uint        `gorm:"primaryKey"`
	SpecializationID uint        `gorm:"not null;index"`
	Code             string      `gorm:"not null;index"`
	Name             string      `gorm:"not null"`
	Type             FeatureType `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Options []FeatureOption `gorm:"foreignKey:FeatureID"`
}

type FeatureOption struct {
	ID        uint   `gorm:"primaryKey"`
	FeatureID uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
}
