package services

import (
	"usta_backend/internal/repositories"
	"usta_backend/internal/services/dto"
	"usta_backend/pkg/apperrors"
)

type CatalogService interface {
	ListOccupations() ([]*dto.OccupationResponse, error)
	ListSpecializations(occupationID *uint) ([]*dto.SpecializationResponse, error)
	ListServices(specializationID uint) ([]*dto.ServiceResponse, error)
	ListFeatures(specializationID uint) ([]*dto.FeatureResponse, error)
}

type catalogService struct {
	catalogRepo repositories.CatalogRepository
}

func NewCatalogService(catalogRepo repositories.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

func (s *catalogService) ListOccupations() ([]*dto.OccupationResponse, error) {
	occupations, err := s.catalogRepo.ListOccupations()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.OccupationResponse, 0, len(occupations))
	for _, occupation := range occupations {
		responses = append(responses, &dto.OccupationResponse{
			ID:   occupation.ID,
			Slug: occupation.Slug,
			Name: occupation.Name,
		})
	}
	return responses, nil
}

func (s *catalogService) ListSpecializations(occupationID *uint) ([]*dto.SpecializationResponse, error) {
	specializations, err := s.catalogRepo.ListSpecializations(occupationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.SpecializationResponse, 0, len(specializations))
	for _, spec := range specializations {
		responses = append(responses, &dto.SpecializationResponse{
			ID:           spec.ID,
			OccupationID: spec.OccupationID,
			Slug:         spec.Slug,
			Name:         spec.Name,
		})
	}
	return responses, nil
}

func (s *catalogService) ListServices(specializationID uint) ([]*dto.ServiceResponse, error) {
	services, err := s.catalogRepo.ListServices(specializationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.ServiceResponse, 0, len(services))
	for _, service := range services {
		responses = append(responses, &dto.ServiceResponse{
			ID:               service.ID,
			SpecializationID: service.SpecializationID,
			Slug:             service.Slug,
			Name:             service.Name,
			IsDefault:        service.IsDefault,
		})
	}
	return responses, nil
}

func (s *catalogService) ListFeatures(specializationID uint) ([]*dto.FeatureResponse, error) {
	features, err := s.catalogRepo.FeaturesBySpecialization(specializationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.FeatureResponse, 0, len(features))
	for _, feature := range features {
		resp := &dto.FeatureResponse{
			ID:   feature.ID,
			Code: feature.Code,
			Name: feature.Name,
			Type: feature.Type,
		}
		for _, option := range feature.Options {
			resp.Options = append(resp.Options, dto.FeatureOptionInfo{
				ID:   option.ID,
				Name: option.Name,
			})
		}
		responses = append(responses, resp)
	}
	return responses, nil
}
