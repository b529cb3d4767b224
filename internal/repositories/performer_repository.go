package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"usta_backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrPerformerNotFound = errors.New("performer not found")
	ErrPerformerExists   = errors.New("performer already exists for this user")
)

type PerformerRepository interface {
	Create(performer *models.Performer) error
	FindByID(id string) (*models.Performer, error)
	FindByUID(uid string) (*models.Performer, error)
	FindByUserID(userID string) (*models.Performer, error)
	Update(performer *models.Performer) error
	SetModerationStatus(performerID string, status models.ModerationStatus, reasonCode string) error

	// ApplyModerationVerdict применяет вердикт, только если профиль все еще
	// pending. false - профиль успели изменить, вердикт устарел.
	ApplyModerationVerdict(performerID string, status models.ModerationStatus, reasonCode string) (bool, error)
	Delete(id string) error

	FilterPerformers(criteria PerformerFilterCriteria) ([]models.Performer, int64, error)

	// RecalculateRating пересчитывает rating и review_count исполнителя
	// из approved-отзывов под блокировкой строки. Конкурентные пересчеты
	// одного исполнителя сериализуются на уровне БД.
	RecalculateRating(performerID string) error

	// RebuildSearchText собирает денормализованный search_text исполнителя
	// из названий и синонимов его специализаций и услуг плюс описание.
	RebuildSearchText(performerID string) error

	CreateSpecialization(spec *models.PerformerSpecialization) error
	CreateService(service *models.PerformerService) error
	FindServiceByID(id string) (*models.PerformerService, error)
	UpsertFeatureValue(value *models.PerformerSpecializationFeatureValue) error
}

type PerformerRepositoryImpl struct {
	db *gorm.DB
}

// FeaturePredicate - уже разрешенный фильтр по фиче. Сервисный слой
// преобразует сырые code -> value пары запроса в типизированные предикаты.
type FeaturePredicate struct {
	FeatureID uint
	Type      models.FeatureType
	// multi_option: исполнитель подходит, если выбрал хотя бы одну из опций.
	OptionIDs []uint
}

type PerformerFilterCriteria struct {
	Query            string
	OccupationID     *uint
	SpecializationID *uint
	ServiceID        *uint
	CityID           *uint
	AccountType      *models.AccountType
	Verified         *bool
	Features         []FeaturePredicate
	Page             int
	PageSize         int
}

func NewPerformerRepository(db *gorm.DB) PerformerRepository {
	return &PerformerRepositoryImpl{db: db}
}

func (r *PerformerRepositoryImpl) Create(performer *models.Performer) error {
	if performer.UserID != nil {
		var existing models.Performer
		if err := r.db.Where("user_id = ?", *performer.UserID).First(&existing).Error; err == nil {
			return ErrPerformerExists
		}
	}
	return r.db.Create(performer).Error
}

func (r *PerformerRepositoryImpl) FindByID(id string) (*models.Performer, error) {
	var performer models.Performer
	err := r.db.
		Preload("Specializations.Specialization").
		Preload("Specializations.FeatureValues.Feature").
		Preload("Services.Service").
		First(&performer, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPerformerNotFound
		}
		return nil, err
	}
	return &performer, nil
}

func (r *PerformerRepositoryImpl) FindByUID(uid string) (*models.Performer, error) {
	var performer models.Performer
	err := r.db.
		Preload("Specializations.Specialization").
		Preload("Services.Service").
		First(&performer, "uid = ?", uid).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPerformerNotFound
		}
		return nil, err
	}
	return &performer, nil
}

func (r *PerformerRepositoryImpl) FindByUserID(userID string) (*models.Performer, error) {
	var performer models.Performer
	err := r.db.Where("user_id = ?", userID).First(&performer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPerformerNotFound
		}
		return nil, err
	}
	return &performer, nil
}

func (r *PerformerRepositoryImpl) Update(performer *models.Performer) error {
	result := r.db.Model(performer).Updates(map[string]interface{}{
		"account_type":      performer.AccountType,
		"organization_name": performer.OrganizationName,
		"description":       performer.Description,
		"city_id":           performer.CityID,
		"active":            performer.Active,
		"status":            performer.Status,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPerformerNotFound
	}
	return nil
}

func (r *PerformerRepositoryImpl) SetModerationStatus(performerID string, status models.ModerationStatus, reasonCode string) error {
	result := r.db.Model(&models.Performer{}).Where("id = ?", performerID).
		Updates(map[string]interface{}{
			"status":             status,
			"status_reason_code": reasonCode,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPerformerNotFound
	}
	return nil
}

func (r *PerformerRepositoryImpl) ApplyModerationVerdict(performerID string, status models.ModerationStatus, reasonCode string) (bool, error) {
	result := r.db.Model(&models.Performer{}).
		Where("id = ? AND status = ?", performerID, models.ModerationStatusPending).
		Updates(map[string]interface{}{
			"status":             status,
			"status_reason_code": reasonCode,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PerformerRepositoryImpl) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Performer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPerformerNotFound
	}
	return nil
}

// FilterPerformers - основной поисковый запрос каталога.
//
// Таксономия применяется по самому узкому заданному уровню:
// service > specialization > occupation, уровни взаимоисключающие.
// Текстовый запрос идет через полнотекстовый индекс по search_text.
// Предикаты фич комбинируются через AND, опции внутри multi_option через OR.
func (r *PerformerRepositoryImpl) FilterPerformers(criteria PerformerFilterCriteria) ([]models.Performer, int64, error) {
	var performers []models.Performer

	query := r.db.Model(&models.Performer{}).
		Where("performers.active = ?", true).
		Where("performers.status = ?", models.ModerationStatusApproved)

	switch {
	case criteria.ServiceID != nil:
		query = query.Where(
			"EXISTS (SELECT 1 FROM performer_services psv WHERE psv.performer_id = performers.id AND psv.service_id = ? AND psv.status = ?)",
			*criteria.ServiceID, models.ModerationStatusApproved,
		)
	case criteria.SpecializationID != nil:
		query = query.Where(
			"EXISTS (SELECT 1 FROM performer_specializations ps WHERE ps.performer_id = performers.id AND ps.specialization_id = ?)",
			*criteria.SpecializationID,
		)
	case criteria.OccupationID != nil:
		query = query.Where(
			"EXISTS (SELECT 1 FROM performer_occupations po WHERE po.performer_id = performers.id AND po.occupation_id = ?)",
			*criteria.OccupationID,
		)
	}

	if criteria.CityID != nil {
		query = query.Where("performers.city_id = ?", *criteria.CityID)
	}
	if criteria.AccountType != nil {
		query = query.Where("performers.account_type = ?", *criteria.AccountType)
	}
	if criteria.Verified != nil {
		query = query.Where("performers.verified = ?", *criteria.Verified)
	}

	if criteria.Query != "" {
		query = query.Where(
			"to_tsvector('simple', coalesce(performers.search_text, '')) @@ plainto_tsquery('simple', ?)",
			criteria.Query,
		)
	}

	for _, pred := range criteria.Features {
		switch pred.Type {
		case models.FeatureTypeBoolean:
			query = query.Where(
				`EXISTS (
					SELECT 1 FROM performer_specialization_feature_values fv
					JOIN performer_specializations ps ON ps.id = fv.performer_specialization_id
					WHERE ps.performer_id = performers.id
					  AND fv.feature_id = ?
					  AND fv.value_boolean = true
				)`, pred.FeatureID,
			)
		case models.FeatureTypeMultiOption:
			if len(pred.OptionIDs) == 0 {
				continue
			}
			conditions := make([]string, 0, len(pred.OptionIDs))
			args := []interface{}{pred.FeatureID}
			for _, optionID := range pred.OptionIDs {
				conditions = append(conditions, "fv.value_option_ids @> ?")
				optionJSON, _ := json.Marshal([]uint{optionID})
				args = append(args, datatypes.JSON(optionJSON))
			}
			query = query.Where(fmt.Sprintf(
				`EXISTS (
					SELECT 1 FROM performer_specialization_feature_values fv
					JOIN performer_specializations ps ON ps.id = fv.performer_specialization_id
					WHERE ps.performer_id = performers.id
					  AND fv.feature_id = ?
					  AND (%s)
				)`, strings.Join(conditions, " OR ")), args...,
			)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (criteria.Page - 1) * criteria.PageSize
	err := query.
		Preload("Specializations.Specialization").
		Preload("Services.Service").
		Order("performers.rating DESC, performers.id ASC").
		Limit(criteria.PageSize).Offset(offset).
		Find(&performers).Error

	return performers, total, err
}

func (r *PerformerRepositoryImpl) RecalculateRating(performerID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var performer models.Performer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&performer, "id = ?", performerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPerformerNotFound
			}
			return err
		}

		var stats struct {
			Avg   float64
			Count int64
		}
		err := tx.Model(&models.PerformerReview{}).
			Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
			Where("performer_id = ? AND status = ?", performerID, models.ModerationStatusApproved).
			Scan(&stats).Error
		if err != nil {
			return err
		}

		return tx.Model(&models.Performer{}).Where("id = ?", performerID).
			Updates(map[string]interface{}{
				"rating":       stats.Avg,
				"review_count": stats.Count,
			}).Error
	})
}

func (r *PerformerRepositoryImpl) RebuildSearchText(performerID string) error {
	var performer models.Performer
	err := r.db.
		Preload("Specializations.Specialization").
		Preload("Services.Service").
		First(&performer, "id = ?", performerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPerformerNotFound
		}
		return err
	}

	seen := make(map[string]bool)
	var parts []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			return
		}
		seen[strings.ToLower(s)] = true
		parts = append(parts, s)
	}

	add(performer.OrganizationName)
	add(performer.Description)
	for _, ps := range performer.Specializations {
		add(ps.Specialization.Name)
		for _, synonym := range decodeSynonyms(ps.Specialization.SearchSynonyms) {
			add(synonym)
		}
	}
	for _, service := range performer.Services {
		if service.Status != models.ModerationStatusApproved {
			continue
		}
		add(service.Service.Name)
		add(service.Description)
		for _, synonym := range decodeSynonyms(service.Service.SearchSynonyms) {
			add(synonym)
		}
	}

	return r.db.Model(&models.Performer{}).Where("id = ?", performerID).
		Update("search_text", strings.Join(parts, " ")).Error
}

func (r *PerformerRepositoryImpl) CreateSpecialization(spec *models.PerformerSpecialization) error {
	return r.db.Create(spec).Error
}

func (r *PerformerRepositoryImpl) CreateService(service *models.PerformerService) error {
	return r.db.Create(service).Error
}

func (r *PerformerRepositoryImpl) FindServiceByID(id string) (*models.PerformerService, error) {
	var service models.PerformerService
	err := r.db.Preload("Attachments").First(&service, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &service, nil
}

func (r *PerformerRepositoryImpl) UpsertFeatureValue(value *models.PerformerSpecializationFeatureValue) error {
	var existing models.PerformerSpecializationFeatureValue
	err := r.db.Where(
		"performer_specialization_id = ? AND feature_id = ?",
		value.PerformerSpecializationID, value.FeatureID,
	).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(value).Error
	}
	if err != nil {
		return err
	}

	return r.db.Model(&existing).Updates(map[string]interface{}{
		"value_boolean":    value.ValueBoolean,
		"value_option_ids": value.ValueOptionIDs,
	}).Error
}

func decodeSynonyms(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var synonyms []string
	if err := json.Unmarshal(raw, &synonyms); err != nil {
		return nil
	}
	return synonyms
}
