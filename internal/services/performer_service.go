package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"usta_backend/internal/config"
	"usta_backend/internal/models"
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"
	"usta_backend/internal/services/dto"
	"usta_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

type PerformerService interface {
	CreatePerformer(ctx context.Context, userID string, req *dto.CreatePerformerRequest) (*dto.PerformerResponse, error)
	GetPerformerByUID(uid string) (*dto.PerformerResponse, error)
	UpdatePerformer(ctx context.Context, userID, performerID string, req *dto.UpdatePerformerRequest) error
	AddSpecialization(userID, performerID string, req *dto.AddSpecializationRequest) error
	AddService(ctx context.Context, userID, performerID string, req *dto.AddServiceRequest) (*dto.PerformerServiceInfo, error)
	SetFeatureValue(userID, performerID, performerSpecializationID string, req *dto.SetFeatureValueRequest) error

	// SearchPerformers - выдача каталога: только активные approved-профили,
	// отсортированные по рейтингу.
	SearchPerformers(req *dto.SearchPerformersRequest) (*dto.PerformerListResponse, error)

	CreateComplaint(userID, performerID string, req *dto.CreateComplaintRequest) error
}

type performerService struct {
	performerRepo repositories.PerformerRepository
	catalogRepo   repositories.CatalogRepository
	complaintRepo repositories.ComplaintRepository
	moderationQ   queue.Queue
	searchQ       queue.Queue
}

func NewPerformerService(
	performerRepo repositories.PerformerRepository,
	catalogRepo repositories.CatalogRepository,
	complaintRepo repositories.ComplaintRepository,
	moderationQ queue.Queue,
	searchQ queue.Queue,
) PerformerService {
	return &performerService{
		performerRepo: performerRepo,
		catalogRepo:   catalogRepo,
		complaintRepo: complaintRepo,
		moderationQ:   moderationQ,
		searchQ:       searchQ,
	}
}

func (s *performerService) CreatePerformer(ctx context.Context, userID string, req *dto.CreatePerformerRequest) (*dto.PerformerResponse, error) {
	performer := &models.Performer{
		UID:              models.NewUID(),
		UserID:           &userID,
		AccountType:      req.AccountType,
		OrganizationName: req.OrganizationName,
		Description:      req.Description,
		CityID:           req.CityID,
		Active:           true,
		Status:           models.ModerationStatusPending,
	}

	if err := s.performerRepo.Create(performer); err != nil {
		if err == repositories.ErrPerformerExists {
			return nil, apperrors.ErrAlreadyExists(err)
		}
		return nil, apperrors.InternalError(err)
	}

	s.enqueueModeration(ctx, queue.EntityPerformer, performer.ID)

	return buildPerformerResponse(performer), nil
}

func (s *performerService) GetPerformerByUID(uid string) (*dto.PerformerResponse, error) {
	performer, err := s.performerRepo.FindByUID(uid)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return buildPerformerResponse(performer), nil
}

// UpdatePerformer редактирует профиль владельцем. Любое изменение
// возвращает профиль в pending и ставит его в очередь модерации заново.
func (s *performerService) UpdatePerformer(ctx context.Context, userID, performerID string, req *dto.UpdatePerformerRequest) error {
	performer, err := s.performerRepo.FindByID(performerID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if performer.UserID == nil || *performer.UserID != userID {
		return apperrors.ErrInsufficientPermissions
	}

	if req.OrganizationName != nil {
		performer.OrganizationName = *req.OrganizationName
	}
	if req.Description != nil {
		performer.Description = *req.Description
	}
	if req.CityID != nil {
		performer.CityID = req.CityID
	}
	if req.Active != nil {
		performer.Active = *req.Active
	}
	performer.Status = models.ModerationStatusPending

	if err := s.performerRepo.Update(performer); err != nil {
		return apperrors.InternalError(err)
	}

	s.enqueueModeration(ctx, queue.EntityPerformer, performer.ID)
	s.enqueueSearchRebuild(ctx, performer.ID)
	return nil
}

func (s *performerService) AddSpecialization(userID, performerID string, req *dto.AddSpecializationRequest) error {
	performer, err := s.performerRepo.FindByID(performerID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if performer.UserID == nil || *performer.UserID != userID {
		return apperrors.ErrInsufficientPermissions
	}

	spec, err := s.catalogRepo.FindSpecializationByID(req.SpecializationID)
	if err != nil {
		if err == repositories.ErrSpecializationNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	entry := &models.PerformerSpecialization{
		PerformerID:      performer.ID,
		SpecializationID: spec.ID,
	}
	if err := s.performerRepo.CreateSpecialization(entry); err != nil {
		return apperrors.InternalError(err)
	}

	s.enqueueSearchRebuild(context.Background(), performer.ID)
	return nil
}

func (s *performerService) AddService(ctx context.Context, userID, performerID string, req *dto.AddServiceRequest) (*dto.PerformerServiceInfo, error) {
	performer, err := s.performerRepo.FindByID(performerID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if performer.UserID == nil || *performer.UserID != userID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	service, err := s.catalogRepo.FindServiceByID(req.ServiceID)
	if err != nil {
		if err == repositories.ErrServiceNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	entry := &models.PerformerService{
		PerformerID:               performer.ID,
		PerformerSpecializationID: req.PerformerSpecializationID,
		ServiceID:                 service.ID,
		Description:               req.Description,
		Price:                     req.Price,
		Status:                    models.ModerationStatusPending,
	}
	if err := s.performerRepo.CreateService(entry); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.enqueueModeration(ctx, queue.EntityService, entry.ID)

	return &dto.PerformerServiceInfo{
		ID:          entry.ID,
		ServiceID:   service.ID,
		Name:        service.Name,
		Description: entry.Description,
		Price:       entry.Price,
	}, nil
}

func (s *performerService) SetFeatureValue(userID, performerID, performerSpecializationID string, req *dto.SetFeatureValueRequest) error {
	performer, err := s.performerRepo.FindByID(performerID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if performer.UserID == nil || *performer.UserID != userID {
		return apperrors.ErrInsufficientPermissions
	}

	var owned *models.PerformerSpecialization
	for i := range performer.Specializations {
		if performer.Specializations[i].ID == performerSpecializationID {
			owned = &performer.Specializations[i]
			break
		}
	}
	if owned == nil {
		return apperrors.ErrNotFound(repositories.ErrSpecializationNotFound)
	}

	// Фича обязана принадлежать специализации, на которую отвечает исполнитель.
	features, err := s.catalogRepo.FeaturesBySpecialization(owned.SpecializationID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	var feature *models.Feature
	for code := range features {
		f := features[code]
		if f.ID == req.FeatureID {
			feature = &f
			break
		}
	}
	if feature == nil {
		return apperrors.ValidationError(map[string]string{
			"feature_id": "feature does not belong to this specialization",
		})
	}

	value := &models.PerformerSpecializationFeatureValue{
		PerformerSpecializationID: performerSpecializationID,
		FeatureID:                 feature.ID,
	}
	switch feature.Type {
	case models.FeatureTypeBoolean:
		if req.ValueBoolean == nil {
			return apperrors.ValidationError(map[string]string{"value_boolean": "required for boolean feature"})
		}
		value.ValueBoolean = req.ValueBoolean
	case models.FeatureTypeMultiOption:
		if len(req.ValueOptionIDs) == 0 {
			return apperrors.ValidationError(map[string]string{"value_option_ids": "required for multi_option feature"})
		}
		valid := make(map[uint]bool, len(feature.Options))
		for _, opt := range feature.Options {
			valid[opt.ID] = true
		}
		for _, id := range req.ValueOptionIDs {
			if !valid[id] {
				return apperrors.ValidationError(map[string]string{
					"value_option_ids": fmt.Sprintf("option %d does not belong to feature %d", id, feature.ID),
				})
			}
		}
		raw, _ := json.Marshal(req.ValueOptionIDs)
		value.ValueOptionIDs = datatypes.JSON(raw)
	}

	if err := s.performerRepo.UpsertFeatureValue(value); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *performerService) SearchPerformers(req *dto.SearchPerformersRequest) (*dto.PerformerListResponse, error) {
	cfg := config.GetConfig()
	if req.Query != "" && cfg.Database.DisableFullTextSearch {
		// Подстрочного fallback нет намеренно: он дал бы другую выдачу.
		return nil, apperrors.ErrConfiguration("search", "full-text search is disabled")
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := cfg.Search.PageSize

	criteria := repositories.PerformerFilterCriteria{
		Query:            req.Query,
		OccupationID:     req.OccupationID,
		SpecializationID: req.SpecializationID,
		ServiceID:        req.ServiceID,
		CityID:           req.CityID,
		AccountType:      req.AccountType,
		Verified:         req.Verified,
		Page:             page,
		PageSize:         pageSize,
	}

	resolved, err := s.resolveTaxonomySlugs(req, &criteria)
	if err != nil {
		return nil, err
	}
	if !resolved {
		return &dto.PerformerListResponse{
			Performers: []*dto.PerformerResponse{},
			Page:       page,
			PageSize:   pageSize,
		}, nil
	}

	predicates, err := s.resolveFeaturePredicates(req.Features, criteria.SpecializationID, criteria.ServiceID)
	if err != nil {
		return nil, err
	}
	criteria.Features = predicates

	performers, total, err := s.performerRepo.FilterPerformers(criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.PerformerResponse, 0, len(performers))
	for i := range performers {
		responses = append(responses, buildPerformerResponse(&performers[i]))
	}

	return &dto.PerformerListResponse{
		Performers: responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calculateTotalPages(total, pageSize),
	}, nil
}

// resolveTaxonomySlugs доводит слаги таксономии до id в критериях.
// Возвращает false, если какой-то слаг не существует: по контракту это
// пустая выдача, а не ошибка.
func (s *performerService) resolveTaxonomySlugs(req *dto.SearchPerformersRequest, criteria *repositories.PerformerFilterCriteria) (bool, error) {
	if req.ServiceSlug != "" && criteria.ServiceID == nil {
		service, err := s.catalogRepo.FindServiceBySlug(req.ServiceSlug)
		if err != nil {
			if err == repositories.ErrServiceNotFound {
				return false, nil
			}
			return false, apperrors.InternalError(err)
		}
		criteria.ServiceID = &service.ID
	}
	if req.SpecializationSlug != "" && criteria.SpecializationID == nil {
		spec, err := s.catalogRepo.FindSpecializationBySlug(req.SpecializationSlug)
		if err != nil {
			if err == repositories.ErrSpecializationNotFound {
				return false, nil
			}
			return false, apperrors.InternalError(err)
		}
		criteria.SpecializationID = &spec.ID
	}
	if req.OccupationSlug != "" && criteria.OccupationID == nil {
		occupation, err := s.catalogRepo.FindOccupationBySlug(req.OccupationSlug)
		if err != nil {
			if err == repositories.ErrOccupationNotFound {
				return false, nil
			}
			return false, apperrors.InternalError(err)
		}
		criteria.OccupationID = &occupation.ID
	}
	return true, nil
}

// resolveFeaturePredicates превращает сырые code -> value пары в типизированные
// предикаты. Контекст специализации обязателен: без него фильтры по фичам
// молча игнорируются. Неизвестный код и falsy-значение boolean тоже
// пропускаются молча; нечисловой id опции - ошибка валидации.
func (s *performerService) resolveFeaturePredicates(rawFeatures map[string]interface{}, specializationID, serviceID *uint) ([]repositories.FeaturePredicate, error) {
	if len(rawFeatures) == 0 {
		return nil, nil
	}

	if specializationID == nil && serviceID != nil {
		service, err := s.catalogRepo.FindServiceByID(*serviceID)
		if err != nil {
			if err == repositories.ErrServiceNotFound {
				return nil, apperrors.ErrNotFound(err)
			}
			return nil, apperrors.InternalError(err)
		}
		specializationID = &service.SpecializationID
	}
	if specializationID == nil {
		return nil, nil
	}

	features, err := s.catalogRepo.FeaturesBySpecialization(*specializationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	var predicates []repositories.FeaturePredicate
	for code, rawValue := range rawFeatures {
		feature, ok := features[code]
		if !ok {
			continue
		}

		switch feature.Type {
		case models.FeatureTypeBoolean:
			if enabled, ok := rawValue.(bool); ok && enabled {
				predicates = append(predicates, repositories.FeaturePredicate{
					FeatureID: feature.ID,
					Type:      models.FeatureTypeBoolean,
				})
			}
		case models.FeatureTypeMultiOption:
			optionIDs, err := parseOptionIDs(code, rawValue)
			if err != nil {
				return nil, err
			}
			if len(optionIDs) == 0 {
				continue
			}
			predicates = append(predicates, repositories.FeaturePredicate{
				FeatureID: feature.ID,
				Type:      models.FeatureTypeMultiOption,
				OptionIDs: optionIDs,
			})
		}
	}
	return predicates, nil
}

func parseOptionIDs(code string, rawValue interface{}) ([]uint, error) {
	list, ok := rawValue.([]interface{})
	if !ok {
		return nil, nil
	}

	ids := make([]uint, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case float64:
			if v != math.Trunc(v) || v < 0 {
				return nil, apperrors.ValidationError(map[string]string{
					code: fmt.Sprintf("option id %v is not an integer", v),
				})
			}
			ids = append(ids, uint(v))
		case string:
			parsed, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, apperrors.ValidationError(map[string]string{
					code: fmt.Sprintf("option id %q is not an integer", v),
				})
			}
			ids = append(ids, uint(parsed))
		default:
			return nil, apperrors.ValidationError(map[string]string{
				code: "option id is not an integer",
			})
		}
	}
	return ids, nil
}

func (s *performerService) CreateComplaint(userID, performerID string, req *dto.CreateComplaintRequest) error {
	if _, err := s.performerRepo.FindByID(performerID); err != nil {
		if err == repositories.ErrPerformerNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	complaint := &models.PerformerComplaint{
		UserID:      userID,
		PerformerID: performerID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.complaintRepo.Create(complaint); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *performerService) enqueueModeration(ctx context.Context, entityType queue.EntityType, entityID string) {
	_ = s.moderationQ.Enqueue(ctx, queue.Job{EntityType: entityType, EntityID: entityID})
}

func (s *performerService) enqueueSearchRebuild(ctx context.Context, performerID string) {
	_ = s.searchQ.Enqueue(ctx, queue.Job{EntityType: queue.EntitySearchRebuild, EntityID: performerID})
}

// ---------------- Helper Methods ----------------

func buildPerformerResponse(performer *models.Performer) *dto.PerformerResponse {
	resp := &dto.PerformerResponse{
		ID:               performer.ID,
		UID:              performer.UID,
		AccountType:      performer.AccountType,
		OrganizationName: performer.OrganizationName,
		Description:      performer.Description,
		CityID:           performer.CityID,
		Verified:         performer.Verified,
		Status:           performer.Status,
		Rating:           performer.Rating,
		ReviewCount:      performer.ReviewCount,
		CreatedAt:        performer.CreatedAt,
	}

	for _, ps := range performer.Specializations {
		if ps.Specialization.ID == 0 {
			continue
		}
		resp.Specializations = append(resp.Specializations, dto.SpecializationInfo{
			ID:   ps.Specialization.ID,
			Slug: ps.Specialization.Slug,
			Name: ps.Specialization.Name,
		})
	}
	for _, svc := range performer.Services {
		if svc.Status != models.ModerationStatusApproved {
			continue
		}
		resp.Services = append(resp.Services, dto.PerformerServiceInfo{
			ID:          svc.ID,
			ServiceID:   svc.ServiceID,
			Name:        svc.Service.Name,
			Description: svc.Description,
			Price:       svc.Price,
		})
	}
	return resp
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
