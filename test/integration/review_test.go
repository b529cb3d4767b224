package integration_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"usta_backend/internal/auth"
	"usta_backend/internal/models"
	"usta_backend/internal/repositories"
	"usta_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewRecalc(ts *helpers.TestServer, performerID string) error {
	return repositories.NewPerformerRepository(ts.DB).RecalculateRating(performerID)
}

// makeAdminToken создает админа напрямую в БД и выписывает ему токен.
func makeAdminToken(t *testing.T, ts *helpers.TestServer) string {
	t.Helper()

	hash, err := auth.HashPassword("admin_password123")
	require.NoError(t, err)

	admin := models.User{
		Email:        helpers.UniqueSlug("admin") + "@test.local",
		Name:         "Админ",
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, ts.DB.Create(&admin).Error)

	token, err := auth.GenerateToken(admin.ID, models.UserRoleAdmin)
	require.NoError(t, err)
	return token
}

func TestCreateReview_OnePerUserPerPerformer(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	token, _ := helpers.RegisterAndLogin(t, ts, "Заказчик", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	body := map[string]interface{}{
		"performer_id": performer.ID,
		"rating":       5,
		"description":  "отличная работа",
	}

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/reviews", token, body)
	require.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var created struct {
		ID     string                  `json:"id"`
		Status models.ModerationStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &created))
	assert.Equal(t, models.ModerationStatusPending, created.Status, "новый отзыв ждет модерацию")

	// Второй отзыв на того же исполнителя - конфликт
	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/reviews", token, body)
	assert.Equal(t, http.StatusConflict, res.StatusCode, "Ответ: "+bodyStr)
}

func TestCreateReview_SelfReviewForbidden(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	token, userID := helpers.RegisterAndLogin(t, ts, "Мастер", models.UserRolePerformer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, &userID, "Мой профиль")

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/reviews", token, map[string]interface{}{
		"performer_id": performer.ID,
		"rating":       5,
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestPerformerReviews_OnlyApprovedVisible(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, userA := helpers.RegisterAndLogin(t, ts, "Первый", models.UserRoleCustomer)
	_, userB := helpers.RegisterAndLogin(t, ts, "Второй", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	helpers.CreateApprovedReview(t, ts.DB, userA, performer.ID, 5)
	pending := models.PerformerReview{
		UserID:      userB,
		PerformerID: performer.ID,
		Rating:      1,
		Status:      models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&pending).Error)

	res, bodyStr := ts.SendRequest(t, http.MethodGet, "/api/v1/performers/"+performer.ID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var list struct {
		Reviews []struct {
			ID string `json:"id"`
		} `json:"reviews"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &list))
	assert.Equal(t, int64(1), list.Total, "pending-отзывы не видны в выдаче")
}

func TestRating_RecalculatedFromApprovedReviews(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, userA := helpers.RegisterAndLogin(t, ts, "Первый", models.UserRoleCustomer)
	_, userB := helpers.RegisterAndLogin(t, ts, "Второй", models.UserRoleCustomer)
	_, userC := helpers.RegisterAndLogin(t, ts, "Третий", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	helpers.CreateApprovedReview(t, ts.DB, userA, performer.ID, 5)
	helpers.CreateApprovedReview(t, ts.DB, userB, performer.ID, 4)
	helpers.CreateApprovedReview(t, ts.DB, userC, performer.ID, 3)

	// Пересчет дергается воркером после вердикта; здесь напрямую через репозиторий.
	require.NoError(t, reviewRecalc(ts, performer.ID))

	res, bodyStr := ts.SendRequest(t, http.MethodGet, "/api/v1/performers/"+performer.ID+"/rating", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var rating struct {
		Rating      float64 `json:"rating"`
		ReviewCount int     `json:"review_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &rating))
	assert.InDelta(t, 4.0, rating.Rating, 0.001)
	assert.Equal(t, 3, rating.ReviewCount)
}

func TestUpdateReview_ResetsModerationAndRating(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	token, userID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := helpers.CreateApprovedReview(t, ts.DB, userID, performer.ID, 5)
	require.NoError(t, reviewRecalc(ts, performer.ID))

	res, bodyStr := ts.SendRequest(t, http.MethodPatch, "/api/v1/reviews/"+review.ID, token,
		map[string]interface{}{"rating": 2, "description": "передумал"},
	)
	require.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusPending, updated.Status)
	assert.Equal(t, 2, updated.Rating)

	// Отзыв вышел из approved: рейтинг пересчитан без него, не дожидаясь модерации
	var updatedPerformer models.Performer
	require.NoError(t, ts.DB.First(&updatedPerformer, "id = ?", performer.ID).Error)
	assert.Zero(t, updatedPerformer.Rating)
	assert.Zero(t, updatedPerformer.ReviewCount)
}

func TestDeleteReview_AuthorOrAdmin(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	outsiderToken, _ := helpers.RegisterAndLogin(t, ts, "Посторонний", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := helpers.CreateApprovedReview(t, ts.DB, authorID, performer.ID, 4)

	res, _ := ts.SendRequest(t, http.MethodDelete, "/api/v1/reviews/"+review.ID, outsiderToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode, "чужой отзыв удалить нельзя")

	adminToken := makeAdminToken(t, ts)
	res, _ = ts.SendRequest(t, http.MethodDelete, "/api/v1/reviews/"+review.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "админ может удалить любой отзыв")
}
