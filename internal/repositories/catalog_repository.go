package repositories

import (
	"errors"

	"usta_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOccupationNotFound     = errors.New("occupation not found")
	ErrSpecializationNotFound = errors.New("specialization not found")
	ErrServiceNotFound        = errors.New("service not found")
	ErrFeatureNotFound        = errors.New("feature not found")
)

type CatalogRepository interface {
	ListOccupations() ([]models.Occupation, error)
	FindOccupationByID(id uint) (*models.Occupation, error)
	FindOccupationBySlug(slug string) (*models.Occupation, error)

	ListSpecializations(occupationID *uint) ([]models.Specialization, error)
	FindSpecializationByID(id uint) (*models.Specialization, error)
	FindSpecializationBySlug(slug string) (*models.Specialization, error)

	ListServices(specializationID uint) ([]models.Service, error)
	FindServiceByID(id uint) (*models.Service, error)
	FindServiceBySlug(slug string) (*models.Service, error)

	// Фичи специализации вместе с опциями; ключ карты - Feature.Code.
	FeaturesBySpecialization(specializationID uint) (map[string]models.Feature, error)
}

type CatalogRepositoryImpl struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &CatalogRepositoryImpl{db: db}
}

func (r *CatalogRepositoryImpl) ListOccupations() ([]models.Occupation, error) {
	var occupations []models.Occupation
	err := r.db.Order("rank ASC, id ASC").Find(&occupations).Error
	return occupations, err
}

func (r *CatalogRepositoryImpl) FindOccupationByID(id uint) (*models.Occupation, error) {
	var occupation models.Occupation
	err := r.db.Preload("Specializations").First(&occupation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOccupationNotFound
		}
		return nil, err
	}
	return &occupation, nil
}

func (r *CatalogRepositoryImpl) FindOccupationBySlug(slug string) (*models.Occupation, error) {
	var occupation models.Occupation
	err := r.db.Preload("Specializations").First(&occupation, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOccupationNotFound
		}
		return nil, err
	}
	return &occupation, nil
}

func (r *CatalogRepositoryImpl) ListSpecializations(occupationID *uint) ([]models.Specialization, error) {
	var specializations []models.Specialization
	query := r.db.Order("rank ASC, id ASC")
	if occupationID != nil {
		query = query.Where("occupation_id = ?", *occupationID)
	}
	err := query.Find(&specializations).Error
	return specializations, err
}

func (r *CatalogRepositoryImpl) FindSpecializationByID(id uint) (*models.Specialization, error) {
	var specialization models.Specialization
	err := r.db.Preload("Services").First(&specialization, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecializationNotFound
		}
		return nil, err
	}
	return &specialization, nil
}

func (r *CatalogRepositoryImpl) FindSpecializationBySlug(slug string) (*models.Specialization, error) {
	var specialization models.Specialization
	err := r.db.First(&specialization, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSpecializationNotFound
		}
		return nil, err
	}
	return &specialization, nil
}

func (r *CatalogRepositoryImpl) ListServices(specializationID uint) ([]models.Service, error) {
	var services []models.Service
	err := r.db.Where("specialization_id = ?", specializationID).
		Order("id ASC").Find(&services).Error
	return services, err
}

func (r *CatalogRepositoryImpl) FindServiceByID(id uint) (*models.Service, error) {
	var service models.Service
	err := r.db.First(&service, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (r *CatalogRepositoryImpl) FindServiceBySlug(slug string) (*models.Service, error) {
	var service models.Service
	err := r.db.First(&service, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (r *CatalogRepositoryImpl) FeaturesBySpecialization(specializationID uint) (map[string]models.Feature, error) {
	var features []models.Feature
	err := r.db.Preload("Options").
		Where("specialization_id = ?", specializationID).
		Find(&features).Error
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]models.Feature, len(features))
	for _, f := range features {
		byCode[f.Code] = f
	}
	return byCode, nil
}
