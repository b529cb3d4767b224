package repositories

import (
	"errors"

	"usta_backend/internal/models"

	"gorm.io/gorm"
)

var ErrComplaintNotFound = errors.New("complaint not found")

type ComplaintRepository interface {
	Create(complaint *models.PerformerComplaint) error
	CreateOrderComplaint(complaint *models.OrderComplaint) error
	FindByID(id string) (*models.PerformerComplaint, error)
	ListUnviewed(limit int) ([]models.PerformerComplaint, error)
	MarkViewed(id string) error
}

type ComplaintRepositoryImpl struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) ComplaintRepository {
	return &ComplaintRepositoryImpl{db: db}
}

func (r *ComplaintRepositoryImpl) Create(complaint *models.PerformerComplaint) error {
	return r.db.Create(complaint).Error
}

func (r *ComplaintRepositoryImpl) CreateOrderComplaint(complaint *models.OrderComplaint) error {
	return r.db.Create(complaint).Error
}

func (r *ComplaintRepositoryImpl) FindByID(id string) (*models.PerformerComplaint, error) {
	var complaint models.PerformerComplaint
	err := r.db.First(&complaint, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComplaintNotFound
		}
		return nil, err
	}
	return &complaint, nil
}

func (r *ComplaintRepositoryImpl) ListUnviewed(limit int) ([]models.PerformerComplaint, error) {
	var complaints []models.PerformerComplaint
	err := r.db.Where("viewed = ?", false).
		Order("created_at ASC").Limit(limit).
		Find(&complaints).Error
	return complaints, err
}

func (r *ComplaintRepositoryImpl) MarkViewed(id string) error {
	result := r.db.Model(&models.PerformerComplaint{}).Where("id = ?", id).
		Update("viewed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrComplaintNotFound
	}
	return nil
}
