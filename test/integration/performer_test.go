package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"usta_backend/internal/models"
	"usta_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformerProfileFlow(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	token, _ := helpers.RegisterAndLogin(t, ts, "Будущий мастер", models.UserRolePerformer)

	occupation := helpers.CreateOccupation(t, ts.DB, "Ремонт")
	spec := helpers.CreateSpecialization(t, ts.DB, occupation.ID, "Электрик")
	catalogService := helpers.CreateService(t, ts.DB, spec.ID, "Замена проводки")
	boolFeat := helpers.CreateBooleanFeature(t, ts.DB, spec.ID, "own_tools", "Свой инструмент")

	// Создание профиля: уходит в pending и в очередь модерации
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/performers", token, map[string]interface{}{
		"account_type":      "organization",
		"organization_name": "ИП Светлый",
		"description":       "электромонтаж любой сложности",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID     string                  `json:"id"`
		UID    string                  `json:"uid"`
		Status models.ModerationStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &created))
	assert.Equal(t, models.ModerationStatusPending, created.Status)
	assert.Equal(t, 1, ts.ModerationQ.Len(), "профиль должен встать в очередь модерации")

	// Публичный профиль доступен по uid
	res, bodyStr = ts.SendRequest(t, http.MethodGet, "/api/v1/performers/"+created.UID, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, "ИП Светлый")

	// Специализация
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/performers/"+created.ID+"/specializations", token,
		map[string]interface{}{"specialization_id": spec.ID},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var ps models.PerformerSpecialization
	require.NoError(t, ts.DB.First(&ps, "performer_id = ?", created.ID).Error)

	// Услуга: отдельная единица модерации
	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/performers/"+created.ID+"/services", token,
		map[string]interface{}{
			"service_id":                  catalogService.ID,
			"performer_specialization_id": ps.ID,
			"description":                 "замена алюминия на медь",
			"price":                       15000,
		},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	// Значение фичи
	res, bodyStr = ts.SendRequest(t, http.MethodPut,
		"/api/v1/performers/"+created.ID+"/specializations/"+ps.ID+"/features", token,
		map[string]interface{}{"feature_id": boolFeat.ID, "value_boolean": true},
	)
	require.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var fv models.PerformerSpecializationFeatureValue
	require.NoError(t, ts.DB.First(&fv, "performer_specialization_id = ?", ps.ID).Error)
	require.NotNil(t, fv.ValueBoolean)
	assert.True(t, *fv.ValueBoolean)
}

func TestUpdatePerformer_ResetsModeration(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	token, userID := helpers.RegisterAndLogin(t, ts, "Мастер", models.UserRolePerformer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, &userID, "Старое имя")

	res, bodyStr := ts.SendRequest(t, http.MethodPatch, "/api/v1/performers/"+performer.ID, token,
		map[string]interface{}{"description": "новое описание"},
	)
	require.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var updated models.Performer
	require.NoError(t, ts.DB.First(&updated, "id = ?", performer.ID).Error)
	assert.Equal(t, models.ModerationStatusPending, updated.Status, "правка возвращает профиль на модерацию")
	assert.Equal(t, "новое описание", updated.Description)
}

func TestUpdatePerformer_OnlyOwner(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, ownerID := helpers.RegisterAndLogin(t, ts, "Владелец", models.UserRolePerformer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, &ownerID, "Чужой профиль")

	outsiderToken, _ := helpers.RegisterAndLogin(t, ts, "Посторонний", models.UserRolePerformer)

	res, _ := ts.SendRequest(t, http.MethodPatch, "/api/v1/performers/"+performer.ID, outsiderToken,
		map[string]interface{}{"description": "взлом"},
	)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestSetFeatureValue_WrongSpecialization(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	token, userID := helpers.RegisterAndLogin(t, ts, "Мастер", models.UserRolePerformer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, &userID, "Мастер")

	occupation := helpers.CreateOccupation(t, ts.DB, "Ремонт")
	specA := helpers.CreateSpecialization(t, ts.DB, occupation.ID, "Электрик")
	specB := helpers.CreateSpecialization(t, ts.DB, occupation.ID, "Сантехник")
	foreignFeat := helpers.CreateBooleanFeature(t, ts.DB, specB.ID, "own_tools", "Свой инструмент")

	ps := helpers.LinkSpecialization(t, ts.DB, performer.ID, specA.ID)

	// Фича чужой специализации отклоняется
	res, _ := ts.SendRequest(t, http.MethodPut,
		"/api/v1/performers/"+performer.ID+"/specializations/"+ps.ID+"/features", token,
		map[string]interface{}{"feature_id": foreignFeat.ID, "value_boolean": true},
	)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateComplaint(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	token, _ := helpers.RegisterAndLogin(t, ts, "Недовольный", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/performers/"+performer.ID+"/complaints", token,
		map[string]interface{}{"title": "Не пришел", "description": "ждали весь день"},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var count int64
	require.NoError(t, ts.DB.Model(&models.PerformerComplaint{}).
		Where("performer_id = ?", performer.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
