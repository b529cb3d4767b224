package services

import (
	"context"

	"usta_backend/internal/config"
	"usta_backend/internal/models"
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"
	"usta_backend/internal/services/dto"
	"usta_backend/pkg/apperrors"
)

type ReviewService interface {
	// CreateReview создает отзыв в pending и ставит его в очередь модерации.
	// Один пользователь - один отзыв на исполнителя.
	CreateReview(ctx context.Context, userID string, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	GetReview(reviewID string) (*dto.ReviewResponse, error)
	// GetPerformerReviews отдает только approved-отзывы.
	GetPerformerReviews(performerID string, page int) (*dto.ReviewListResponse, error)
	// UpdateReview редактирует отзыв автором: статус сбрасывается в pending,
	// отзыв уходит на повторную модерацию, рейтинг пересчитывается.
	UpdateReview(ctx context.Context, userID, reviewID string, req *dto.UpdateReviewRequest) error
	DeleteReview(userID string, userRole models.UserRole, reviewID string) error
	GetPerformerRating(performerID string) (*dto.RatingResponse, error)
}

type reviewService struct {
	reviewRepo    repositories.ReviewRepository
	performerRepo repositories.PerformerRepository
	userRepo      repositories.UserRepository
	moderationQ   queue.Queue
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	performerRepo repositories.PerformerRepository,
	userRepo repositories.UserRepository,
	moderationQ queue.Queue,
) ReviewService {
	return &reviewService{
		reviewRepo:    reviewRepo,
		performerRepo: performerRepo,
		userRepo:      userRepo,
		moderationQ:   moderationQ,
	}
}

func (s *reviewService) CreateReview(ctx context.Context, userID string, req *dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	performer, err := s.performerRepo.FindByID(req.PerformerID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if performer.UserID != nil && *performer.UserID == userID {
		return nil, apperrors.ErrSelfReview
	}

	if _, err := s.reviewRepo.FindByUserAndPerformer(userID, req.PerformerID); err == nil {
		return nil, apperrors.ErrAlreadyExists(nil).WithDetails(
			map[string]string{"performer_id": "review already exists, edit it instead"},
		)
	} else if err != repositories.ErrReviewNotFound {
		return nil, apperrors.InternalError(err)
	}

	review := &models.PerformerReview{
		UserID:      userID,
		PerformerID: req.PerformerID,
		Rating:      req.Rating,
		Description: req.Description,
		Status:      models.ModerationStatusPending,
	}
	for _, image := range req.Attachments {
		review.Attachments = append(review.Attachments, models.PerformerReviewAttachment{
			Image:  image,
			Status: models.ModerationStatusPending,
		})
	}

	if err := s.reviewRepo.Create(review); err != nil {
		return nil, apperrors.InternalError(err)
	}

	_ = s.moderationQ.Enqueue(ctx, queue.Job{EntityType: queue.EntityReview, EntityID: review.ID})

	return buildReviewResponse(review), nil
}

func (s *reviewService) GetReview(reviewID string) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return buildReviewResponse(review), nil
}

func (s *reviewService) GetPerformerReviews(performerID string, page int) (*dto.ReviewListResponse, error) {
	if page < 1 {
		page = 1
	}
	pageSize := config.GetConfig().Search.PageSize

	reviews, total, err := s.reviewRepo.ListApproved(performerID, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, buildReviewResponse(&reviews[i]))
	}

	return &dto.ReviewListResponse{
		Reviews:    responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calculateTotalPages(total, pageSize),
	}, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, userID, reviewID string, req *dto.UpdateReviewRequest) error {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if review.UserID != userID {
		return apperrors.ErrNotReviewAuthor
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Description != nil {
		review.Description = *req.Description
	}
	review.Status = models.ModerationStatusPending
	review.StatusReasonCode = ""

	if err := s.reviewRepo.Update(review); err != nil {
		return apperrors.InternalError(err)
	}

	// Отзыв вышел из approved, рейтинг надо пересчитать сразу,
	// не дожидаясь результата повторной модерации.
	if err := s.performerRepo.RecalculateRating(review.PerformerID); err != nil {
		return apperrors.InternalError(err)
	}

	_ = s.moderationQ.Enqueue(ctx, queue.Job{EntityType: queue.EntityReview, EntityID: review.ID})
	return nil
}

func (s *reviewService) DeleteReview(userID string, userRole models.UserRole, reviewID string) error {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if err == repositories.ErrReviewNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if review.UserID != userID && userRole != models.UserRoleAdmin {
		return apperrors.ErrNotReviewAuthor
	}

	if err := s.reviewRepo.Delete(reviewID); err != nil {
		return apperrors.InternalError(err)
	}

	return s.recalculate(review.PerformerID)
}

func (s *reviewService) GetPerformerRating(performerID string) (*dto.RatingResponse, error) {
	performer, err := s.performerRepo.FindByID(performerID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return &dto.RatingResponse{
		Rating:      performer.Rating,
		ReviewCount: performer.ReviewCount,
	}, nil
}

func (s *reviewService) recalculate(performerID string) error {
	if err := s.performerRepo.RecalculateRating(performerID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ---------------- Helper Methods ----------------

func buildReviewResponse(review *models.PerformerReview) *dto.ReviewResponse {
	resp := &dto.ReviewResponse{
		ID:          review.ID,
		UserID:      review.UserID,
		PerformerID: review.PerformerID,
		Rating:      review.Rating,
		Description: review.Description,
		Status:      review.Status,
		CreatedAt:   review.CreatedAt,
		UpdatedAt:   review.UpdatedAt,
	}
	if review.User != nil {
		resp.UserName = review.User.Name
	}
	for _, attachment := range review.Attachments {
		resp.Attachments = append(resp.Attachments, dto.ReviewAttachmentInfo{
			ID:         attachment.ID,
			Image:      attachment.Image,
			ImageSmall: attachment.ImageSmall,
			Status:     attachment.Status,
		})
	}
	return resp
}
