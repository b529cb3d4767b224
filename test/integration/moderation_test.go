package integration_test

import (
	"context"
	"strings"
	"testing"

	"usta_backend/internal/models"
	"usta_backend/internal/moderation"
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"
	"usta_backend/internal/workers"
	"usta_backend/pkg/apperrors"
	"usta_backend/test/helpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Фейковые классификаторы: вердикты задаются в тесте, воркер
// прогоняет очередь синхронно через Process.

type textModeratorFunc func(ctx context.Context, text string) (*moderation.Result, error)

func (f textModeratorFunc) ModerateText(ctx context.Context, text string) (*moderation.Result, error) {
	return f(ctx, text)
}

type imageModeratorFunc func(ctx context.Context, imageURL string) (*moderation.Result, error)

func (f imageModeratorFunc) ModerateImage(ctx context.Context, imageURL string) (*moderation.Result, error) {
	return f(ctx, imageURL)
}

func cleanResult() *moderation.Result {
	return &moderation.Result{}
}

func flaggedResult(categories ...string) *moderation.Result {
	result := &moderation.Result{Flagged: true, Categories: map[string]bool{}}
	for _, category := range categories {
		result.Categories[category] = true
	}
	return result
}

func approveAllText(context.Context, string) (*moderation.Result, error) { return cleanResult(), nil }

func approveAllImage(context.Context, string) (*moderation.Result, error) { return cleanResult(), nil }

func newWorker(ts *helpers.TestServer, text moderation.TextModerator, image moderation.ImageModerator, maxRetries int) *workers.ModerationWorker {
	return workers.NewModerationWorker(
		ts.DB,
		ts.ModerationQ,
		text,
		image,
		repositories.NewPerformerRepository(ts.DB),
		repositories.NewOrderRepository(ts.DB),
		repositories.NewReviewRepository(ts.DB),
		1,
		maxRetries,
	)
}

// drainQueue синхронно обрабатывает все задачи очереди модерации.
func drainQueue(t *testing.T, ts *helpers.TestServer, w *workers.ModerationWorker) []error {
	t.Helper()
	var errs []error
	for ts.ModerationQ.Len() > 0 {
		job, err := ts.ModerationQ.Dequeue(context.Background())
		require.NoError(t, err)
		if err := w.Process(context.Background(), job); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func TestReviewModeration_FlaggedText(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      1,
		Description: "угрозы и оскорбления",
		Status:      models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	// Сработали сразу две категории: в причину идет первая по фиксированному
	// порядку (harassment раньше violence).
	text := textModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		return flaggedResult("violence", "harassment"), nil
	})

	worker := newWorker(ts, text, imageModeratorFunc(approveAllImage), 2)
	require.Empty(t, drainQueue(t, ts, worker))

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusRejected, updated.Status)
	assert.Equal(t, "harassment", updated.StatusReasonCode)
}

func TestReviewModeration_EmptyTextApprovedWithoutProvider(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      5,
		Description: "   ",
		Status:      models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	calls := 0
	text := textModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		calls++
		return cleanResult(), nil
	})

	worker := newWorker(ts, text, imageModeratorFunc(approveAllImage), 2)
	require.Empty(t, drainQueue(t, ts, worker))

	assert.Zero(t, calls, "пустой текст не должен ходить в классификатор")

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusApproved, updated.Status)

	// Approved-отзыв сразу входит в рейтинг
	var updatedPerformer models.Performer
	require.NoError(t, ts.DB.First(&updatedPerformer, "id = ?", performer.ID).Error)
	assert.Equal(t, 5.0, updatedPerformer.Rating)
	assert.Equal(t, 1, updatedPerformer.ReviewCount)
}

func TestReviewModeration_RejectedAttachment(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      4,
		Description: "нормальный текст",
		Status:      models.ModerationStatusPending,
		Attachments: []models.PerformerReviewAttachment{
			{Image: "https://cdn.test/ok.jpg", Status: models.ModerationStatusPending},
			{Image: "https://cdn.test/bad.jpg", Status: models.ModerationStatusPending},
		},
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	image := imageModeratorFunc(func(_ context.Context, imageURL string) (*moderation.Result, error) {
		if strings.Contains(imageURL, "bad") {
			return flaggedResult("violence_graphic"), nil
		}
		return cleanResult(), nil
	})

	worker := newWorker(ts, textModeratorFunc(approveAllText), image, 2)
	require.Empty(t, drainQueue(t, ts, worker))

	// Вложения модерируются независимо
	var attachments []models.PerformerReviewAttachment
	require.NoError(t, ts.DB.Where("review_id = ?", review.ID).Order("image").Find(&attachments).Error)
	require.Len(t, attachments, 2)
	assert.Equal(t, models.ModerationStatusRejected, attachments[0].Status) // bad.jpg
	assert.Equal(t, "violence_graphic", attachments[0].StatusReasonCode)
	assert.Equal(t, models.ModerationStatusApproved, attachments[1].Status) // ok.jpg

	// Отзыв с чистым текстом, но отклоненным вложением - rejected
	// с обобщенной причиной.
	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusRejected, updated.Status)
	assert.Equal(t, models.ReasonInappropriateContent, updated.StatusReasonCode)
}

func TestReviewModeration_StaleVerdictNotApplied(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      2,
		Description: "исходный текст",
		Status:      models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	// Пока задача ждет ответа классификатора, отзыв успевает пройти
	// модерацию другим путем. Вердикт задачи к этому моменту устарел
	// и не должен перетереть свежий статус.
	text := textModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		err := ts.DB.Model(&models.PerformerReview{}).Where("id = ?", review.ID).
			Updates(map[string]interface{}{
				"status":             models.ModerationStatusApproved,
				"status_reason_code": "",
			}).Error
		require.NoError(t, err)
		return flaggedResult("hate"), nil
	})

	worker := newWorker(ts, text, imageModeratorFunc(approveAllImage), 2)
	require.Empty(t, drainQueue(t, ts, worker))

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusApproved, updated.Status)
	assert.Empty(t, updated.StatusReasonCode)
}

func TestReviewModeration_ProcessedReviewNotReclassified(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      3,
		Description: "уже проверенный текст",
		Status:      models.ModerationStatusApproved,
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	calls := 0
	text := textModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		calls++
		return flaggedResult("hate"), nil
	})

	worker := newWorker(ts, text, imageModeratorFunc(approveAllImage), 2)
	require.Empty(t, drainQueue(t, ts, worker))

	assert.Zero(t, calls, "обработанный отзыв не должен ходить в классификатор")

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusApproved, updated.Status)
}

func TestReviewModeration_SkipsModeratedAttachments(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      4,
		Description: "нормальный текст",
		Status:      models.ModerationStatusPending,
		Attachments: []models.PerformerReviewAttachment{
			{Image: "https://cdn.test/done.jpg", Status: models.ModerationStatusApproved},
			{Image: "https://cdn.test/new.jpg", Status: models.ModerationStatusPending},
		},
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	var classified []string
	image := imageModeratorFunc(func(_ context.Context, imageURL string) (*moderation.Result, error) {
		classified = append(classified, imageURL)
		return cleanResult(), nil
	})

	worker := newWorker(ts, textModeratorFunc(approveAllText), image, 2)
	require.Empty(t, drainQueue(t, ts, worker))

	// Классифицируется только pending-вложение
	assert.Equal(t, []string{"https://cdn.test/new.jpg"}, classified)

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusApproved, updated.Status)
}

func TestReviewModeration_RejectedAttachmentCountsOnRequeue(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	// Отзыв повторно в pending после правки текста; вложение уже отклонено
	// прошлым проходом и повторно не классифицируется, но тянет итог вниз.
	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      2,
		Description: "исправленный текст",
		Status:      models.ModerationStatusPending,
		Attachments: []models.PerformerReviewAttachment{
			{
				Image:            "https://cdn.test/bad.jpg",
				Status:           models.ModerationStatusRejected,
				StatusReasonCode: "violence_graphic",
			},
		},
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	imageCalls := 0
	image := imageModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		imageCalls++
		return cleanResult(), nil
	})

	worker := newWorker(ts, textModeratorFunc(approveAllText), image, 2)
	require.Empty(t, drainQueue(t, ts, worker))

	assert.Zero(t, imageCalls, "отклоненное вложение не классифицируется повторно")

	var attachment models.PerformerReviewAttachment
	require.NoError(t, ts.DB.First(&attachment, "review_id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusRejected, attachment.Status)
	assert.Equal(t, "violence_graphic", attachment.StatusReasonCode)

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusRejected, updated.Status)
	assert.Equal(t, models.ReasonInappropriateContent, updated.StatusReasonCode)
}

func TestModeration_RetryThenSuccess(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      5,
		Description: "все отлично",
		Status:      models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	calls := 0
	text := textModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		calls++
		if calls < 3 {
			return nil, apperrors.ErrExternalService(nil, "moderation", "temporarily unavailable")
		}
		return cleanResult(), nil
	})

	worker := newWorker(ts, text, imageModeratorFunc(approveAllImage), 5)
	require.Empty(t, drainQueue(t, ts, worker))

	assert.Equal(t, 3, calls)

	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusApproved, updated.Status)
}

func TestModeration_ExhaustedRetriesFlagManualReview(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, authorID := helpers.RegisterAndLogin(t, ts, "Автор", models.UserRoleCustomer)
	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")

	review := models.PerformerReview{
		UserID:      authorID,
		PerformerID: performer.ID,
		Rating:      5,
		Description: "текст",
		Status:      models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&review).Error)
	ts.EnqueueModeration(t, queue.EntityReview, review.ID)

	text := textModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		return nil, apperrors.ErrExternalService(nil, "moderation", "down")
	})

	worker := newWorker(ts, text, imageModeratorFunc(approveAllImage), 1)
	errs := drainQueue(t, ts, worker)
	assert.NotEmpty(t, errs, "исчерпание ретраев всплывает как ошибка задачи")

	// Автоматика не решает вслепую: статус остается pending,
	// причина - ручная модерация.
	var updated models.PerformerReview
	require.NoError(t, ts.DB.First(&updated, "id = ?", review.ID).Error)
	assert.Equal(t, models.ModerationStatusPending, updated.Status)
	assert.Equal(t, models.ReasonManualReview, updated.StatusReasonCode)
}

func TestOrderModeration_RejectedOrderIsClosed(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, customerID := helpers.RegisterAndLogin(t, ts, "Заказчик", models.UserRoleCustomer)

	order := models.Order{
		UserID:           customerID,
		Title:            "подозрительный заказ",
		Description:      "запрещенный контент",
		Status:           models.OrderStatusSearchPerformer,
		ModerationStatus: models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&order).Error)
	ts.EnqueueModeration(t, queue.EntityOrder, order.ID)

	text := textModeratorFunc(func(_ context.Context, _ string) (*moderation.Result, error) {
		return flaggedResult("hate"), nil
	})

	worker := newWorker(ts, text, imageModeratorFunc(approveAllImage), 2)
	require.Empty(t, drainQueue(t, ts, worker))

	var updated models.Order
	require.NoError(t, ts.DB.First(&updated, "id = ?", order.ID).Error)
	assert.Equal(t, models.ModerationStatusRejected, updated.ModerationStatus)
	assert.Equal(t, "hate", updated.StatusReasonCode)
	assert.Equal(t, models.OrderStatusRejected, updated.Status, "отклоненный заказ закрывается")
}

func TestPerformerModeration_Approved(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)
	_, userID := helpers.RegisterAndLogin(t, ts, "Исполнитель", models.UserRolePerformer)

	performer := models.Performer{
		UID:              models.NewUID(),
		UserID:           &userID,
		AccountType:      models.AccountTypePerson,
		Description:      "делаю ремонт",
		Active:           true,
		Status:           models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&performer).Error)
	ts.EnqueueModeration(t, queue.EntityPerformer, performer.ID)

	worker := newWorker(ts, textModeratorFunc(approveAllText), imageModeratorFunc(approveAllImage), 2)
	require.Empty(t, drainQueue(t, ts, worker))

	var updated models.Performer
	require.NoError(t, ts.DB.First(&updated, "id = ?", performer.ID).Error)
	assert.Equal(t, models.ModerationStatusApproved, updated.Status)
}

func TestServiceModeration_ApprovedServiceRebuildsSearchText(t *testing.T) {
	t.Parallel()

	ts := helpers.NewTestServer(t)

	occupation := helpers.CreateOccupation(t, ts.DB, "Ремонт")
	spec := helpers.CreateSpecialization(t, ts.DB, occupation.ID, "Сантехник")
	catalogService := helpers.CreateService(t, ts.DB, spec.ID, "Установка смесителя")

	performer := helpers.CreateApprovedPerformer(t, ts.DB, nil, "Мастер")
	ps := helpers.LinkSpecialization(t, ts.DB, performer.ID, spec.ID)

	service := models.PerformerService{
		PerformerID:               performer.ID,
		PerformerSpecializationID: &ps.ID,
		ServiceID:                 catalogService.ID,
		Description:               "быстро и аккуратно",
		Status:                    models.ModerationStatusPending,
	}
	require.NoError(t, ts.DB.Create(&service).Error)
	ts.EnqueueModeration(t, queue.EntityService, service.ID)

	worker := newWorker(ts, textModeratorFunc(approveAllText), imageModeratorFunc(approveAllImage), 2)
	require.Empty(t, drainQueue(t, ts, worker))

	var updatedService models.PerformerService
	require.NoError(t, ts.DB.First(&updatedService, "id = ?", service.ID).Error)
	assert.Equal(t, models.ModerationStatusApproved, updatedService.Status)

	// Одобренная услуга попадает в поисковый текст профиля
	var updatedPerformer models.Performer
	require.NoError(t, ts.DB.First(&updatedPerformer, "id = ?", performer.ID).Error)
	assert.Contains(t, updatedPerformer.SearchText, "Установка смесителя")
	assert.Contains(t, updatedPerformer.SearchText, "Сантехник")
}
