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

type chatActors struct {
	customerToken  string
	performerToken string
	performer      models.Performer
	order          models.Order
}

func setupChatActors(t *testing.T, ts *helpers.TestServer) chatActors {
	t.Helper()

	customerToken, customerID := helpers.RegisterAndLogin(t, ts, "Заказчик", models.UserRoleCustomer)
	performerToken, performerUserID := helpers.RegisterAndLogin(t, ts, "Исполнитель", models.UserRolePerformer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, &performerUserID, "Мастер")
	order := helpers.CreateOpenOrder(t, ts.DB, customerID, "Собрать шкаф")

	return chatActors{
		customerToken:  customerToken,
		performerToken: performerToken,
		performer:      performer,
		order:          order,
	}
}

func TestChatFlow(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupChatActors(t, ts)

	// Заказчик открывает диалог
	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs", actors.customerToken,
		map[string]interface{}{"order_id": actors.order.ID, "performer_id": actors.performer.ID},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode, "Ответ: "+bodyStr)

	var dialog struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &dialog))

	// Повторное открытие возвращает тот же диалог
	res, bodyStr = ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs", actors.performerToken,
		map[string]interface{}{"order_id": actors.order.ID, "performer_id": actors.performer.ID},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var sameDialog struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &sameDialog))
	assert.Equal(t, dialog.ID, sameDialog.ID, "диалог уникален для пары (заказ, исполнитель)")

	// Обмен сообщениями
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs/"+dialog.ID+"/messages", actors.customerToken,
		map[string]interface{}{"content": "Когда сможете приехать?"},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs/"+dialog.ID+"/messages", actors.performerToken,
		map[string]interface{}{"content": "Завтра после обеда"},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// История сообщений доступна обоим участникам
	res, bodyStr = ts.SendRequest(t, http.MethodGet, "/api/v1/dialogs/"+dialog.ID+"/messages", actors.performerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var history struct {
		Messages []struct {
			Content string      `json:"content"`
			ReadAt  interface{} `json:"read_at"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &history))
	assert.Len(t, history.Messages, 2)

	// Список диалогов
	res, bodyStr = ts.SendRequest(t, http.MethodGet, "/api/v1/dialogs", actors.customerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, bodyStr, dialog.ID)

	// Отметка о прочтении
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs/"+dialog.ID+"/read", actors.performerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var unread int64
	require.NoError(t, ts.DB.Model(&models.Message{}).
		Where("dialog_id = ? AND read_at IS NULL AND sender_id <> ?", dialog.ID, actors.performer.UserID).
		Count(&unread).Error)
	assert.Zero(t, unread, "чужие сообщения отмечены прочитанными")
}

func TestChat_OutsiderDenied(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	actors := setupChatActors(t, ts)

	res, bodyStr := ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs", actors.customerToken,
		map[string]interface{}{"order_id": actors.order.ID, "performer_id": actors.performer.ID},
	)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var dialog struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(bodyStr), &dialog))

	outsiderToken, _ := helpers.RegisterAndLogin(t, ts, "Посторонний", models.UserRoleCustomer)

	// Посторонний не может ни открыть диалог по чужому заказу, ни читать его
	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs", outsiderToken,
		map[string]interface{}{"order_id": actors.order.ID, "performer_id": actors.performer.ID},
	)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodGet, "/api/v1/dialogs/"+dialog.ID+"/messages", outsiderToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = ts.SendRequest(t, http.MethodPost, "/api/v1/dialogs/"+dialog.ID+"/messages", outsiderToken,
		map[string]interface{}{"content": "впустите"},
	)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}
