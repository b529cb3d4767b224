package workers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"usta_backend/internal/logger"
	"usta_backend/internal/models"
	"usta_backend/internal/moderation"
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"
	"usta_backend/pkg/apperrors"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"
)

// ModerationWorker разбирает очередь модерации: дергает классификатор,
// применяет вердикты и пересчитывает производные поля.
//
// Ошибки провайдера ретраятся с экспоненциальной задержкой. После
// исчерпания попыток сущность остается в pending с пометкой manual_review:
// автоматика никогда не одобряет и не отклоняет контент вслепую.
type ModerationWorker struct {
	db            *gorm.DB
	q             queue.Queue
	text          moderation.TextModerator
	image         moderation.ImageModerator
	performerRepo repositories.PerformerRepository
	orderRepo     repositories.OrderRepository
	reviewRepo    repositories.ReviewRepository

	workers    int
	maxRetries uint64
}

func NewModerationWorker(
	db *gorm.DB,
	q queue.Queue,
	text moderation.TextModerator,
	image moderation.ImageModerator,
	performerRepo repositories.PerformerRepository,
	orderRepo repositories.OrderRepository,
	reviewRepo repositories.ReviewRepository,
	workers int,
	maxRetries int,
) *ModerationWorker {
	if workers < 1 {
		workers = 1
	}
	return &ModerationWorker{
		db:            db,
		q:             q,
		text:          text,
		image:         image,
		performerRepo: performerRepo,
		orderRepo:     orderRepo,
		reviewRepo:    reviewRepo,
		workers:       workers,
		maxRetries:    uint64(maxRetries),
	}
}

// Start запускает воркеров; каждый блокируется на очереди до отмены контекста.
func (w *ModerationWorker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		go w.run(ctx, i)
	}
}

func (w *ModerationWorker) run(ctx context.Context, id int) {
	log := logger.With("worker", "moderation", "worker_id", id)
	log.Info("moderation worker started")

	for {
		job, err := w.q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("moderation worker stopped")
				return
			}
			log.Error("dequeue failed", "error", err.Error())
			time.Sleep(time.Second)
			continue
		}

		if err := w.Process(ctx, job); err != nil {
			log.Error("moderation job failed",
				"entity_type", string(job.EntityType),
				"entity_id", job.EntityID,
				"error", err.Error(),
			)
		}
	}
}

// Process обрабатывает одну задачу. Выделен отдельно, чтобы задачи можно
// было прогонять синхронно.
func (w *ModerationWorker) Process(ctx context.Context, job *queue.Job) error {
	switch job.EntityType {
	case queue.EntityReview:
		return w.moderateReview(ctx, job.EntityID)
	case queue.EntityOrder:
		return w.moderateOrder(ctx, job.EntityID)
	case queue.EntityService:
		return w.moderateService(ctx, job.EntityID)
	case queue.EntityPerformer:
		return w.moderatePerformer(ctx, job.EntityID)
	default:
		return fmt.Errorf("unknown moderation entity type %q", job.EntityType)
	}
}

// verdict - принятое решение по одному фрагменту контента.
type verdict struct {
	status models.ModerationStatus
	reason string
}

func approvedVerdict() verdict {
	return verdict{status: models.ModerationStatusApproved}
}

func (w *ModerationWorker) moderateReview(ctx context.Context, reviewID string) error {
	review, err := w.reviewRepo.FindByID(reviewID)
	if err != nil {
		return err
	}
	// Задача могла устареть: отзыв уже обработан другой задачей или удален
	// из pending иным путем. Классификатор в таком случае не дергаем.
	if review.Status != models.ModerationStatusPending {
		return nil
	}

	textVerdict := approvedVerdict()
	if strings.TrimSpace(review.Description) != "" {
		textVerdict, err = w.classifyText(ctx, review.Description)
		if err != nil {
			return w.flagManualReview(ctx, err, func() error {
				return w.reviewRepo.SetModerationStatus(reviewID, models.ModerationStatusPending, models.ReasonManualReview)
			})
		}
	}

	// Вложения модерируются независимо, каждое получает свой статус.
	// Уже обработанные не классифицируются повторно, но rejected по-прежнему
	// учитываются в итоговом вердикте.
	anyAttachmentRejected := false
	for _, attachment := range review.Attachments {
		if attachment.Status != models.ModerationStatusPending {
			if attachment.Status == models.ModerationStatusRejected {
				anyAttachmentRejected = true
			}
			continue
		}
		attVerdict, err := w.classifyImage(ctx, attachment.Image)
		if err != nil {
			return w.flagManualReview(ctx, err, func() error {
				return w.reviewRepo.SetModerationStatus(reviewID, models.ModerationStatusPending, models.ReasonManualReview)
			})
		}
		if err := w.reviewRepo.SetAttachmentStatus(attachment.ID, attVerdict.status, attVerdict.reason); err != nil {
			return err
		}
		if attVerdict.status == models.ModerationStatusRejected {
			anyAttachmentRejected = true
		}
	}

	final := textVerdict
	if final.status == models.ModerationStatusApproved && anyAttachmentRejected {
		final = verdict{status: models.ModerationStatusRejected, reason: models.ReasonInappropriateContent}
	}

	// Вердикт применяется только к pending-строке: если автор успел изменить
	// отзыв, пока шла классификация, наш вердикт устарел и его применит
	// свежая задача.
	applied, err := w.reviewRepo.ApplyModerationVerdict(reviewID, final.status, final.reason)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	// Рейтинг пересчитывается после каждого вердикта: approved-отзыв
	// входит в среднее, rejected из него выпадает.
	return w.performerRepo.RecalculateRating(review.PerformerID)
}

func (w *ModerationWorker) moderateOrder(ctx context.Context, orderID string) error {
	order, err := w.orderRepo.FindByID(orderID)
	if err != nil {
		return err
	}
	if order.ModerationStatus != models.ModerationStatusPending {
		return nil
	}

	textVerdict, err := w.classifyText(ctx, order.Title+"\n"+order.Description)
	if err != nil {
		return w.flagManualReview(ctx, err, func() error {
			return w.orderRepo.SetModerationStatus(orderID, models.ModerationStatusPending, models.ReasonManualReview)
		})
	}

	anyAttachmentRejected := false
	for _, attachment := range order.Attachments {
		if attachment.Status != models.ModerationStatusPending {
			if attachment.Status == models.ModerationStatusRejected {
				anyAttachmentRejected = true
			}
			continue
		}
		attVerdict, err := w.classifyImage(ctx, attachment.Image)
		if err != nil {
			return w.flagManualReview(ctx, err, func() error {
				return w.orderRepo.SetModerationStatus(orderID, models.ModerationStatusPending, models.ReasonManualReview)
			})
		}
		err = w.db.Model(&models.OrderAttachment{}).
			Where("id = ? AND status = ?", attachment.ID, models.ModerationStatusPending).
			Updates(map[string]interface{}{
				"status":             attVerdict.status,
				"status_reason_code": attVerdict.reason,
			}).Error
		if err != nil {
			return err
		}
		if attVerdict.status == models.ModerationStatusRejected {
			anyAttachmentRejected = true
		}
	}

	final := textVerdict
	if final.status == models.ModerationStatusApproved && anyAttachmentRejected {
		final = verdict{status: models.ModerationStatusRejected, reason: models.ReasonInappropriateContent}
	}

	applied, err := w.orderRepo.ApplyModerationVerdict(orderID, final.status, final.reason)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	// Отклоненный модерацией заказ закрывается навсегда.
	if final.status == models.ModerationStatusRejected && order.Status == models.OrderStatusSearchPerformer {
		err := w.orderRepo.Transition(orderID, models.OrderStatusSearchPerformer, models.OrderStatusRejected, nil)
		if err != nil && err != repositories.ErrStaleOrderStatus {
			return err
		}
	}
	return nil
}

func (w *ModerationWorker) moderateService(ctx context.Context, serviceID string) error {
	service, err := w.performerRepo.FindServiceByID(serviceID)
	if err != nil {
		return err
	}
	if service.Status != models.ModerationStatusPending {
		return nil
	}

	// setStatus - безусловная пометка, используется только для manual_review.
	// Финальный вердикт идет через applyVerdict с проверкой pending.
	setStatus := func(v verdict) error {
		return w.db.Model(&models.PerformerService{}).Where("id = ?", serviceID).
			Updates(map[string]interface{}{
				"status":             v.status,
				"status_reason_code": v.reason,
			}).Error
	}
	applyVerdict := func(v verdict) (bool, error) {
		result := w.db.Model(&models.PerformerService{}).
			Where("id = ? AND status = ?", serviceID, models.ModerationStatusPending).
			Updates(map[string]interface{}{
				"status":             v.status,
				"status_reason_code": v.reason,
			})
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected > 0, nil
	}

	textVerdict := approvedVerdict()
	if strings.TrimSpace(service.Description) != "" {
		textVerdict, err = w.classifyText(ctx, service.Description)
		if err != nil {
			return w.flagManualReview(ctx, err, func() error {
				return setStatus(verdict{status: models.ModerationStatusPending, reason: models.ReasonManualReview})
			})
		}
	}

	anyAttachmentRejected := false
	for _, attachment := range service.Attachments {
		if attachment.Status != models.ModerationStatusPending {
			if attachment.Status == models.ModerationStatusRejected {
				anyAttachmentRejected = true
			}
			continue
		}
		attVerdict, err := w.classifyImage(ctx, attachment.Image)
		if err != nil {
			return w.flagManualReview(ctx, err, func() error {
				return setStatus(verdict{status: models.ModerationStatusPending, reason: models.ReasonManualReview})
			})
		}
		err = w.db.Model(&models.PerformerServiceAttachment{}).
			Where("id = ? AND status = ?", attachment.ID, models.ModerationStatusPending).
			Updates(map[string]interface{}{
				"status":             attVerdict.status,
				"status_reason_code": attVerdict.reason,
			}).Error
		if err != nil {
			return err
		}
		if attVerdict.status == models.ModerationStatusRejected {
			anyAttachmentRejected = true
		}
	}

	final := textVerdict
	if final.status == models.ModerationStatusApproved && anyAttachmentRejected {
		final = verdict{status: models.ModerationStatusRejected, reason: models.ReasonInappropriateContent}
	}
	applied, err := applyVerdict(final)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	// Одобренная услуга пополняет search_text исполнителя.
	if final.status == models.ModerationStatusApproved {
		return w.performerRepo.RebuildSearchText(service.PerformerID)
	}
	return nil
}

func (w *ModerationWorker) moderatePerformer(ctx context.Context, performerID string) error {
	performer, err := w.performerRepo.FindByID(performerID)
	if err != nil {
		return err
	}
	if performer.Status != models.ModerationStatusPending {
		return nil
	}

	text := strings.TrimSpace(performer.OrganizationName + "\n" + performer.Description)
	final := approvedVerdict()
	if text != "" {
		final, err = w.classifyText(ctx, text)
		if err != nil {
			return w.flagManualReview(ctx, err, func() error {
				return w.performerRepo.SetModerationStatus(performerID, models.ModerationStatusPending, models.ReasonManualReview)
			})
		}
	}

	_, err = w.performerRepo.ApplyModerationVerdict(performerID, final.status, final.reason)
	return err
}

// classifyText зовет провайдера с ретраями и сводит результат к вердикту.
// Причина отклонения - первая сработавшая категория в фиксированном порядке.
func (w *ModerationWorker) classifyText(ctx context.Context, text string) (verdict, error) {
	result, err := w.withRetry(ctx, func() (*moderation.Result, error) {
		return w.text.ModerateText(ctx, text)
	})
	if err != nil {
		return verdict{}, err
	}
	if category := moderation.FirstCategory(result, moderation.TextCategories); category != "" {
		return verdict{status: models.ModerationStatusRejected, reason: category}, nil
	}
	return approvedVerdict(), nil
}

func (w *ModerationWorker) classifyImage(ctx context.Context, imageURL string) (verdict, error) {
	result, err := w.withRetry(ctx, func() (*moderation.Result, error) {
		return w.image.ModerateImage(ctx, imageURL)
	})
	if err != nil {
		return verdict{}, err
	}
	if category := moderation.FirstCategory(result, moderation.ImageCategories); category != "" {
		return verdict{status: models.ModerationStatusRejected, reason: category}, nil
	}
	return approvedVerdict(), nil
}

func (w *ModerationWorker) withRetry(ctx context.Context, call func() (*moderation.Result, error)) (*moderation.Result, error) {
	var result *moderation.Result

	operation := func() error {
		var err error
		result, err = call()
		if err == nil {
			return nil
		}
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeExternalServiceError {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), w.maxRetries), ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return result, nil
}

// flagManualReview помечает сущность на ручную модерацию после того,
// как ретраи провайдера исчерпаны. Статус остается pending.
func (w *ModerationWorker) flagManualReview(ctx context.Context, cause error, mark func() error) error {
	logger.FromContext(ctx).Error("ALERT: moderation provider exhausted retries, flagging for manual review",
		"error", cause.Error(),
	)
	if err := mark(); err != nil {
		return err
	}
	return cause
}
