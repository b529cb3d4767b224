package dto

import (
	"time"

	"usta_backend/internal/models"
)

// ======================
// Request DTOs
// ======================

type CreateOrderRequest struct {
	Title            string     `json:"title" binding:"required,max=200"`
	Description      string     `json:"description" binding:"omitempty,max=4000"`
	SpecializationID *uint      `json:"specialization_id,omitempty"`
	ServiceID        *uint      `json:"service_id,omitempty"`
	CityID           *uint      `json:"city_id,omitempty"`
	PriceFrom        *float64   `json:"price_from,omitempty" binding:"omitempty,min=0"`
	PriceTo          *float64   `json:"price_to,omitempty" binding:"omitempty,min=0"`
	DesiredAt        *time.Time `json:"desired_at,omitempty"`
}

type UpdateOrderRequest struct {
	Title       *string    `json:"title,omitempty" binding:"omitempty,max=200"`
	Description *string    `json:"description,omitempty" binding:"omitempty,max=4000"`
	CityID      *uint      `json:"city_id,omitempty"`
	PriceFrom   *float64   `json:"price_from,omitempty" binding:"omitempty,min=0"`
	PriceTo     *float64   `json:"price_to,omitempty" binding:"omitempty,min=0"`
	DesiredAt   *time.Time `json:"desired_at,omitempty"`
}

type CreateReactionRequest struct {
	Comment string   `json:"comment" binding:"omitempty,max=2000"`
	Price   *float64 `json:"price,omitempty" binding:"omitempty,min=0"`
}

type SelectReactionRequest struct {
	ReactionID string `json:"reaction_id" binding:"required,uuid"`
}

type CompleteOrderRequest struct {
	FinalPrice *float64 `json:"final_price,omitempty"`
}

type ListOrdersRequest struct {
	Status           *models.OrderStatus `form:"status" binding:"omitempty,is-order-status"`
	SpecializationID *uint               `form:"specialization_id"`
	CityID           *uint               `form:"city_id"`
	Page             int                 `form:"page" binding:"omitempty,min=1"`
}

// ======================
// Response DTOs
// ======================

type OrderResponse struct {
	ID               string                  `json:"id"`
	UserID           string                  `json:"user_id"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description,omitempty"`
	SpecializationID *uint                   `json:"specialization_id,omitempty"`
	ServiceID        *uint                   `json:"service_id,omitempty"`
	CityID           *uint                   `json:"city_id,omitempty"`
	PriceFrom        *float64                `json:"price_from,omitempty"`
	PriceTo          *float64                `json:"price_to,omitempty"`
	DesiredAt        *time.Time              `json:"desired_at,omitempty"`
	Status           models.OrderStatus      `json:"status"`
	ModerationStatus models.ModerationStatus `json:"moderation_status"`
	ReactionID       *string                 `json:"reaction_id,omitempty"`
	FinalPrice       *float64                `json:"final_price,omitempty"`

	// Живой счетчик: считается из таблицы откликов при каждом чтении.
	ReactionsCount int64 `json:"reactions_count"`

	Reactions []*ReactionResponse `json:"reactions,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type ReactionResponse struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	PerformerID string     `json:"performer_id"`
	Comment     string     `json:"comment,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Performer   *PerformerResponse `json:"performer,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type OrderListResponse struct {
	Orders     []*OrderResponse `json:"orders"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}
