package dto

import (
	"time"

	"usta_backend/internal/models"
)

// ======================
// Request DTOs
// ======================

type CreateReviewRequest struct {
	PerformerID string   `json:"performer_id" binding:"required,uuid"`
	Rating      int      `json:"rating" binding:"required,min=1,max=5"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
	Attachments []string `json:"attachments,omitempty" binding:"omitempty,max=10"`
}

type UpdateReviewRequest struct {
	Rating      *int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
}

// ======================
// Response DTOs
// ======================

type ReviewResponse struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"user_id"`
	PerformerID string                  `json:"performer_id"`
	Rating      int                     `json:"rating"`
	Description string                  `json:"description,omitempty"`
	Status      models.ModerationStatus `json:"status"`
	UserName    string                  `json:"user_name,omitempty"`
	Attachments []ReviewAttachmentInfo  `json:"attachments,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

type ReviewAttachmentInfo struct {
	ID         string                  `json:"id"`
	Image      string                  `json:"image"`
	ImageSmall string                  `json:"image_small,omitempty"`
	Status     models.ModerationStatus `json:"status"`
}

type ReviewListResponse struct {
	Reviews    []*ReviewResponse `json:"reviews"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

type RatingResponse struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}
