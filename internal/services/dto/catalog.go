package dto

import "usta_backend/internal/models"

type OccupationResponse struct {
	ID              uint                     `json:"id"`
	Slug            string                   `json:"slug"`
	Name            string                   `json:"name"`
	Specializations []SpecializationResponse `json:"specializations,omitempty"`
}

type SpecializationResponse struct {
	ID           uint   `json:"id"`
	OccupationID uint   `json:"occupation_id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
}

type ServiceResponse struct {
	ID               uint   `json:"id"`
	SpecializationID uint   `json:"specialization_id"`
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	IsDefault        bool   `json:"is_default"`
}

type FeatureResponse struct {
	ID      uint                  `json:"id"`
	Code    string                `json:"code"`
	Name    string                `json:"name"`
	Type    models.FeatureType    `json:"type"`
	Options []FeatureOptionInfo   `json:"options,omitempty"`
}

type FeatureOptionInfo struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}
