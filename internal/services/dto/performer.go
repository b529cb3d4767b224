package dto

import (
	"time"

	"usta_backend/internal/models"
)

// ======================
// Request DTOs
// ======================

type CreatePerformerRequest struct {
	AccountType      models.AccountType `json:"account_type" binding:"required,oneof=person organization"`
	OrganizationName string             `json:"organization_name,omitempty" binding:"required_if=AccountType organization"`
	Description      string             `json:"description" binding:"omitempty,max=4000"`
	CityID           *uint              `json:"city_id,omitempty"`
}

type UpdatePerformerRequest struct {
	OrganizationName *string `json:"organization_name,omitempty"`
	Description      *string `json:"description,omitempty" binding:"omitempty,max=4000"`
	CityID           *uint   `json:"city_id,omitempty"`
	Active           *bool   `json:"active,omitempty"`
}

type AddSpecializationRequest struct {
	SpecializationID uint `json:"specialization_id" binding:"required"`
}

type AddServiceRequest struct {
	ServiceID                 uint     `json:"service_id" binding:"required"`
	PerformerSpecializationID *string  `json:"performer_specialization_id,omitempty"`
	Description               string   `json:"description" binding:"omitempty,max=4000"`
	Price                     *float64 `json:"price,omitempty" binding:"omitempty,min=0"`
}

type SetFeatureValueRequest struct {
	FeatureID      uint   `json:"feature_id" binding:"required"`
	ValueBoolean   *bool  `json:"value_boolean,omitempty"`
	ValueOptionIDs []uint `json:"value_option_ids,omitempty"`
}

// SearchPerformersRequest - поисковый запрос каталога.
// Features - сырые пары code -> value из клиента: boolean фичи ожидают true,
// multi_option - список id опций. Разбор и валидация значений в сервисе.
type SearchPerformersRequest struct {
	Query            string `json:"query"`
	OccupationID     *uint  `json:"occupation_id,omitempty"`
	SpecializationID *uint  `json:"specialization_id,omitempty"`
	ServiceID        *uint  `json:"service_id,omitempty"`

	// Слаги - альтернатива id: неизвестный слаг дает пустую выдачу, не ошибку.
	OccupationSlug     string `json:"occupation_slug,omitempty"`
	SpecializationSlug string `json:"specialization_slug,omitempty"`
	ServiceSlug        string `json:"service_slug,omitempty"`

	CityID      *uint               `json:"city_id,omitempty"`
	AccountType *models.AccountType `json:"account_type,omitempty" binding:"omitempty,oneof=person organization"`
	Verified    *bool               `json:"verified,omitempty"`

	Features map[string]interface{} `json:"features,omitempty"`
	Page     int                    `json:"page" binding:"omitempty,min=1"`
}

type CreateComplaintRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"omitempty,max=4000"`
}

// ======================
// Response DTOs
// ======================

type PerformerResponse struct {
	ID               string                  `json:"id"`
	UID              string                  `json:"uid"`
	AccountType      models.AccountType      `json:"account_type"`
	OrganizationName string                  `json:"organization_name,omitempty"`
	Description      string                  `json:"description,omitempty"`
	CityID           *uint                   `json:"city_id,omitempty"`
	Verified         bool                    `json:"verified"`
	Status           models.ModerationStatus `json:"status"`
	Rating           float64                 `json:"rating"`
	ReviewCount      int                     `json:"review_count"`
	Specializations  []SpecializationInfo    `json:"specializations,omitempty"`
	Services         []PerformerServiceInfo  `json:"services,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

type SpecializationInfo struct {
	ID   uint   `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type PerformerServiceInfo struct {
	ID          string   `json:"id"`
	ServiceID   uint     `json:"service_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

type PerformerListResponse struct {
	Performers []*PerformerResponse `json:"performers"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}
