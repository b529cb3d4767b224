package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"usta_backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UniqueSlug генерирует уникальный slug: параллельные тесты работают
// в несвязанных транзакциях, и одинаковые ключи ловят друг друга
// на уникальных индексах.
func UniqueSlug(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// RegisterAndLogin регистрирует пользователя через API и возвращает
// access-токен и id.
func RegisterAndLogin(t *testing.T, ts *TestServer, name string, role models.UserRole) (string, string) {
	t.Helper()

	email := fmt.Sprintf("%s@test.local", UniqueSlug("user"))
	body := map[string]interface{}{
		"name":     name,
		"email":    email,
		"password": "super_password123",
		"role":     string(role),
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, res.StatusCode, "регистрация должна проходить. Ответ: "+bodyStr)

	var response struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &response))
	require.NotEmpty(t, response.AccessToken)

	return response.AccessToken, response.User.ID
}

func CreateOccupation(t *testing.T, tx *gorm.DB, name string) models.Occupation {
	t.Helper()
	occupation := models.Occupation{Slug: UniqueSlug("occ"), Name: name}
	require.NoError(t, tx.Create(&occupation).Error)
	return occupation
}

func CreateSpecialization(t *testing.T, tx *gorm.DB, occupationID uint, name string, synonyms ...string) models.Specialization {
	t.Helper()
	spec := models.Specialization{
		OccupationID: occupationID,
		Slug:         UniqueSlug("spec"),
		Name:         name,
	}
	if len(synonyms) > 0 {
		raw, err := json.Marshal(synonyms)
		require.NoError(t, err)
		spec.SearchSynonyms = datatypes.JSON(raw)
	}
	require.NoError(t, tx.Create(&spec).Error)
	return spec
}

func CreateService(t *testing.T, tx *gorm.DB, specializationID uint, name string) models.Service {
	t.Helper()
	service := models.Service{
		SpecializationID: specializationID,
		Slug:             UniqueSlug("svc"),
		Name:             name,
	}
	require.NoError(t, tx.Create(&service).Error)
	return service
}

func CreateBooleanFeature(t *testing.T, tx *gorm.DB, specializationID uint, code, name string) models.Feature {
	t.Helper()
	feature := models.Feature{
		SpecializationID: specializationID,
		Code:             code,
		Name:             name,
		Type:             models.FeatureTypeBoolean,
	}
	require.NoError(t, tx.Create(&feature).Error)
	return feature
}

func CreateMultiOptionFeature(t *testing.T, tx *gorm.DB, specializationID uint, code, name string, optionNames ...string) (models.Feature, []models.FeatureOption) {
	t.Helper()
	feature := models.Feature{
		SpecializationID: specializationID,
		Code:             code,
		Name:             name,
		Type:             models.FeatureTypeMultiOption,
	}
	require.NoError(t, tx.Create(&feature).Error)

	options := make([]models.FeatureOption, 0, len(optionNames))
	for _, optionName := range optionNames {
		option := models.FeatureOption{FeatureID: feature.ID, Name: optionName}
		require.NoError(t, tx.Create(&option).Error)
		options = append(options, option)
	}
	return feature, options
}

// CreateApprovedPerformer создает активного approved-исполнителя
// напрямую в БД, минуя модерацию.
func CreateApprovedPerformer(t *testing.T, tx *gorm.DB, userID *string, name string) models.Performer {
	t.Helper()
	performer := models.Performer{
		UID:              models.NewUID(),
		UserID:           userID,
		AccountType:      models.AccountTypeOrganization,
		OrganizationName: name,
		Active:           true,
		Status:           models.ModerationStatusApproved,
		SearchText:       name,
	}
	require.NoError(t, tx.Create(&performer).Error)
	return performer
}

func LinkSpecialization(t *testing.T, tx *gorm.DB, performerID string, specializationID uint) models.PerformerSpecialization {
	t.Helper()
	link := models.PerformerSpecialization{
		PerformerID:      performerID,
		SpecializationID: specializationID,
	}
	require.NoError(t, tx.Create(&link).Error)
	return link
}

func AddApprovedService(t *testing.T, tx *gorm.DB, performerID string, performerSpecializationID *string, serviceID uint) models.PerformerService {
	t.Helper()
	service := models.PerformerService{
		PerformerID:               performerID,
		PerformerSpecializationID: performerSpecializationID,
		ServiceID:                 serviceID,
		Status:                    models.ModerationStatusApproved,
	}
	require.NoError(t, tx.Create(&service).Error)
	return service
}

func SetBooleanFeatureValue(t *testing.T, tx *gorm.DB, performerSpecializationID string, featureID uint, value bool) {
	t.Helper()
	fv := models.PerformerSpecializationFeatureValue{
		PerformerSpecializationID: performerSpecializationID,
		FeatureID:                 featureID,
		ValueBoolean:              &value,
	}
	require.NoError(t, tx.Create(&fv).Error)
}

func SetOptionFeatureValue(t *testing.T, tx *gorm.DB, performerSpecializationID string, featureID uint, optionIDs []uint) {
	t.Helper()
	raw, err := json.Marshal(optionIDs)
	require.NoError(t, err)
	fv := models.PerformerSpecializationFeatureValue{
		PerformerSpecializationID: performerSpecializationID,
		FeatureID:                 featureID,
		ValueOptionIDs:            datatypes.JSON(raw),
	}
	require.NoError(t, tx.Create(&fv).Error)
}

// CreateOpenOrder создает открытый approved-заказ от имени пользователя.
func CreateOpenOrder(t *testing.T, tx *gorm.DB, userID, title string) models.Order {
	t.Helper()
	order := models.Order{
		UserID:           userID,
		Title:            title,
		Status:           models.OrderStatusSearchPerformer,
		ModerationStatus: models.ModerationStatusApproved,
	}
	require.NoError(t, tx.Create(&order).Error)
	return order
}

func CreateApprovedReview(t *testing.T, tx *gorm.DB, userID, performerID string, rating int) models.PerformerReview {
	t.Helper()
	review := models.PerformerReview{
		UserID:      userID,
		PerformerID: performerID,
		Rating:      rating,
		Status:      models.ModerationStatusApproved,
	}
	require.NoError(t, tx.Create(&review).Error)
	return review
}
