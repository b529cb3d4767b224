package repositories

import (
	"errors"

	"usta_backend/internal/models"

	"gorm.io/gorm"
)

var ErrReviewNotFound = errors.New("review not found")

type ReviewRepository interface {
	Create(review *models.PerformerReview) error
	FindByID(id string) (*models.PerformerReview, error)
	FindByUserAndPerformer(userID, performerID string) (*models.PerformerReview, error)
	Update(review *models.PerformerReview) error
	SetModerationStatus(reviewID string, status models.ModerationStatus, reasonCode string) error

	// ApplyModerationVerdict применяет вердикт, только если отзыв все еще
	// pending. false означает, что отзыв успели изменить, пока шла
	// классификация, и вердикт устарел.
	ApplyModerationVerdict(reviewID string, status models.ModerationStatus, reasonCode string) (bool, error)
	SetAttachmentStatus(attachmentID string, status models.ModerationStatus, reasonCode string) error
	Delete(id string) error

	// ListApproved отдает только прошедшие модерацию отзывы: они единственные
	// видимы публично и единственные участвуют в рейтинге.
	ListApproved(performerID string, page, pageSize int) ([]models.PerformerReview, int64, error)
}

type ReviewRepositoryImpl struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &ReviewRepositoryImpl{db: db}
}

func (r *ReviewRepositoryImpl) Create(review *models.PerformerReview) error {
	return r.db.Create(review).Error
}

func (r *ReviewRepositoryImpl) FindByID(id string) (*models.PerformerReview, error) {
	var review models.PerformerReview
	err := r.db.Preload("Attachments").First(&review, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) FindByUserAndPerformer(userID, performerID string) (*models.PerformerReview, error) {
	var review models.PerformerReview
	err := r.db.Preload("Attachments").
		Where("user_id = ? AND performer_id = ?", userID, performerID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepositoryImpl) Update(review *models.PerformerReview) error {
	result := r.db.Model(review).Updates(map[string]interface{}{
		"rating":             review.Rating,
		"description":        review.Description,
		"status":             review.Status,
		"status_reason_code": review.StatusReasonCode,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepositoryImpl) SetModerationStatus(reviewID string, status models.ModerationStatus, reasonCode string) error {
	result := r.db.Model(&models.PerformerReview{}).Where("id = ?", reviewID).
		Updates(map[string]interface{}{
			"status":             status,
			"status_reason_code": reasonCode,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepositoryImpl) ApplyModerationVerdict(reviewID string, status models.ModerationStatus, reasonCode string) (bool, error) {
	result := r.db.Model(&models.PerformerReview{}).
		Where("id = ? AND status = ?", reviewID, models.ModerationStatusPending).
		Updates(map[string]interface{}{
			"status":             status,
			"status_reason_code": reasonCode,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReviewRepositoryImpl) SetAttachmentStatus(attachmentID string, status models.ModerationStatus, reasonCode string) error {
	return r.db.Model(&models.PerformerReviewAttachment{}).
		Where("id = ? AND status = ?", attachmentID, models.ModerationStatusPending).
		Updates(map[string]interface{}{
			"status":             status,
			"status_reason_code": reasonCode,
		}).Error
}

func (r *ReviewRepositoryImpl) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.PerformerReview{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepositoryImpl) ListApproved(performerID string, page, pageSize int) ([]models.PerformerReview, int64, error) {
	query := r.db.Model(&models.PerformerReview{}).
		Where("performer_id = ? AND status = ?", performerID, models.ModerationStatusApproved)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.PerformerReview
	offset := (page - 1) * pageSize
	err := query.Preload("User").Preload("Attachments").
		Order("created_at DESC").
		Limit(pageSize).Offset(offset).
		Find(&reviews).Error
	return reviews, total, err
}
