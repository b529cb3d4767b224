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

type orderActors struct {
	customerToken  string
	customerID     string
	performerToken string
	performer      models.Performer
	order          models.Order
}

func setupOrderActors(t *testing.T, ts *helpers.TestServer) orderActors {
	t.Helper()

	customerToken, customerID := helpers.RegisterAndLogin(t, ts, "Заказчик", models.UserRoleCustomer)
	performerToken, performerUserID := helpers.RegisterAndLogin(t, ts, "Исполнитель", models.UserRolePerformer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, &performerUserID, "Мастер на час")
	order := helpers.CreateOpenOrder(t, ts.DB, customerID, "Починить кран")

	return orderActors{
		customerToken:  customerToken,
		customerID:     customerID,
		performerToken: performerToken,
		performer:      performer,
		order:          order,
	}
}

func (a *orderActors) react(t *testing.T, ts *helpers.TestServer) string {
	t.Helper()
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+a.order.ID+"/reactions", a.performerToken,
		map[string]interface{}{"comment": "Сделаю завтра", "price": 5000},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var reaction struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &reaction))
	return reaction.ID
}

func (a *orderActors) orderStatus(t *testing.T, ts *helpers.TestServer) (models.OrderStatus, int64) {
	t.Helper()
	res, bodyStr := ts.SendRequest(t, http.MethodGet, "/api/v1/orders/"+a.order.ID, a.customerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	var order struct {
		Status         models.OrderStatus `json:"status"`
		ReactionsCount int64              `json:"reactions_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &order))
	return order.Status, order.ReactionsCount
}

func TestOrderLifecycle_SelectDeselectComplete(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)
	reactionID := actors.react(t, ts)

	_, count := actors.orderStatus(t, ts)
	assert.Equal(t, int64(1), count, "счетчик откликов считается из таблицы")

	// Выбор исполнителя: search_performer -> performer_selected
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/select", actors.customerToken,
		map[string]interface{}{"reaction_id": reactionID},
	)
	require.Equal(t, http.StatusOK, res.StatusCode, "Ответ: "+bodyStr)

	status, _ := actors.orderStatus(t, ts)
	assert.Equal(t, models.OrderStatusPerformerSelected, status)

	// Отмена выбора возвращает заказ в поиск
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/deselect", actors.customerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	status, _ = actors.orderStatus(t, ts)
	assert.Equal(t, models.OrderStatusSearchPerformer, status)

	// Завершить можно только из performer_selected
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/complete", actors.customerToken,
		map[string]interface{}{"final_price": 4500},
	)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// Выбираем снова и завершаем
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/select", actors.customerToken,
		map[string]interface{}{"reaction_id": reactionID},
	)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/complete", actors.customerToken,
		map[string]interface{}{"final_price": 4500},
	)
	require.Equal(t, http.StatusOK, res.StatusCode)

	status, _ = actors.orderStatus(t, ts)
	assert.Equal(t, models.OrderStatusCompleted, status)

	// Завершенный заказ закрыт для переходов
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/cancel", actors.customerToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestCompleteOrder_NegativeFinalPrice(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)
	reactionID := actors.react(t, ts)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/select", actors.customerToken,
		map[string]interface{}{"reaction_id": reactionID},
	)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/complete", actors.customerToken,
		map[string]interface{}{"final_price": -100},
	)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "Ответ: "+bodyStr)
}

func TestCreateReaction_Duplicate(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)
	actors.react(t, ts)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/reactions", actors.performerToken,
		map[string]interface{}{"comment": "еще раз"},
	)
	assert.Equal(t, http.StatusConflict, res.StatusCode, "Ответ: "+bodyStr)
}

func TestCreateReaction_RequiresApprovedPerformer(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)

	require.NoError(t, ts.DB.Model(&models.Performer{}).Where("id = ?", actors.performer.ID).
		Update("status", models.ModerationStatusPending).Error)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/reactions", actors.performerToken,
		map[string]interface{}{"comment": "хочу"},
	)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestSelectReaction_OnlyOwner(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)
	reactionID := actors.react(t, ts)

	outsiderToken, _ := helpers.RegisterAndLogin(t, ts, "Посторонний", models.UserRoleCustomer)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/select", outsiderToken,
		map[string]interface{}{"reaction_id": reactionID},
	)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestDeleteSelectedReaction_Forbidden(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)
	reactionID := actors.react(t, ts)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/select", actors.customerToken,
		map[string]interface{}{"reaction_id": reactionID},
	)
	require.Equal(t, http.StatusOK, res.StatusCode)

	// Выбранный отклик снять нельзя, пока владелец не отменит выбор
	res, _ = ts.SendRequest(t, http.MethodDelete, "/api/v1/orders/"+actors.order.ID+"/reactions/"+reactionID, actors.performerToken, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestCancelOrder(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/cancel", actors.customerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	status, _ := actors.orderStatus(t, ts)
	assert.Equal(t, models.OrderStatusCancelled, status)

	// По закрытому заказу нельзя откликнуться
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/reactions", actors.performerToken,
		map[string]interface{}{"comment": "поздно"},
	)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestCreateOrderComplaint(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupOrderActors(t, ts)

	res, _ := ts.SendRequest(t, http.MethodPost, "/api/v1/orders/"+actors.order.ID+"/complaints", actors.performerToken,
		map[string]interface{}{"title": "Спам", "description": "заказ не настоящий"},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var count int64
	require.NoError(t, ts.DB.Model(&models.OrderComplaint{}).
		Where("order_id = ?", actors.order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
