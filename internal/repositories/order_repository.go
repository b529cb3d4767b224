package repositories

import (
	"errors"

	"usta_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrReactionNotFound = errors.New("reaction not found")
	ErrReactionExists   = errors.New("reaction already exists for this performer and order")
	ErrStaleOrderStatus = errors.New("order status changed concurrently")
)

type OrderRepository interface {
	Create(order *models.Order) error
	FindByID(id string) (*models.Order, error)
	Update(order *models.Order) error
	SetModerationStatus(orderID string, status models.ModerationStatus, reasonCode string) error

	// ApplyModerationVerdict применяет вердикт, только если заказ все еще
	// на модерации. false - заказ успели изменить, вердикт устарел.
	ApplyModerationVerdict(orderID string, status models.ModerationStatus, reasonCode string) (bool, error)
	ListByUser(userID string, criteria OrderListCriteria) ([]models.Order, int64, error)
	ListOpen(criteria OrderListCriteria) ([]models.Order, int64, error)

	// ReactionCounts возвращает живое число откликов по каждому заказу.
	// Счетчик не хранится: производная величина всегда считается из таблицы.
	ReactionCounts(orderIDs []string) (map[string]int64, error)

	CreateReaction(reaction *models.Reaction) error
	FindReactionByID(id string) (*models.Reaction, error)
	ListReactions(orderID string) ([]models.Reaction, error)
	DeleteReaction(id string) error

	// Transition атомарно переводит заказ из fromStatus, обновляя поля из updates.
	// Возвращает ErrStaleOrderStatus, если заказ уже не в fromStatus:
	// проверка статуса входит в WHERE, гонки двух переходов разрешает БД.
	Transition(orderID string, fromStatus, toStatus models.OrderStatus, updates map[string]interface{}) error
}

type OrderRepositoryImpl struct {
	db *gorm.DB
}

type OrderListCriteria struct {
	Status           *models.OrderStatus
	SpecializationID *uint
	CityID           *uint
	Page             int
	PageSize         int
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

func (r *OrderRepositoryImpl) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *OrderRepositoryImpl) FindByID(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.
		Preload("Reactions.Performer").
		Preload("Attachments").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) Update(order *models.Order) error {
	result := r.db.Model(order).Updates(map[string]interface{}{
		"title":             order.Title,
		"description":       order.Description,
		"specialization_id": order.SpecializationID,
		"service_id":        order.ServiceID,
		"city_id":           order.CityID,
		"price_from":        order.PriceFrom,
		"price_to":          order.PriceTo,
		"desired_at":        order.DesiredAt,
		"moderation_status": order.ModerationStatus,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepositoryImpl) SetModerationStatus(orderID string, status models.ModerationStatus, reasonCode string) error {
	result := r.db.Model(&models.Order{}).Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"moderation_status":  status,
			"status_reason_code": reasonCode,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepositoryImpl) ApplyModerationVerdict(orderID string, status models.ModerationStatus, reasonCode string) (bool, error) {
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND moderation_status = ?", orderID, models.ModerationStatusPending).
		Updates(map[string]interface{}{
			"moderation_status":  status,
			"status_reason_code": reasonCode,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *OrderRepositoryImpl) ListByUser(userID string, criteria OrderListCriteria) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", userID)
	return r.list(query, criteria)
}

func (r *OrderRepositoryImpl) ListOpen(criteria OrderListCriteria) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).
		Where("status = ?", models.OrderStatusSearchPerformer).
		Where("moderation_status = ?", models.ModerationStatusApproved)
	return r.list(query, criteria)
}

func (r *OrderRepositoryImpl) list(query *gorm.DB, criteria OrderListCriteria) ([]models.Order, int64, error) {
	if criteria.Status != nil {
		query = query.Where("status = ?", *criteria.Status)
	}
	if criteria.SpecializationID != nil {
		query = query.Where("specialization_id = ?", *criteria.SpecializationID)
	}
	if criteria.CityID != nil {
		query = query.Where("city_id = ?", *criteria.CityID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	offset := (criteria.Page - 1) * criteria.PageSize
	err := query.Order("created_at DESC, id ASC").
		Limit(criteria.PageSize).Offset(offset).
		Find(&orders).Error
	return orders, total, err
}

func (r *OrderRepositoryImpl) ReactionCounts(orderIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(orderIDs))
	if len(orderIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		OrderID string
		Count   int64
	}
	err := r.db.Model(&models.Reaction{}).
		Select("order_id, COUNT(*) AS count").
		Where("order_id IN ?", orderIDs).
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.OrderID] = row.Count
	}
	return counts, nil
}

func (r *OrderRepositoryImpl) CreateReaction(reaction *models.Reaction) error {
	var existing models.Reaction
	err := r.db.Where("order_id = ? AND performer_id = ?", reaction.OrderID, reaction.PerformerID).
		First(&existing).Error
	if err == nil {
		return ErrReactionExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(reaction).Error
}

func (r *OrderRepositoryImpl) FindReactionByID(id string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.Preload("Performer").First(&reaction, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReactionNotFound
		}
		return nil, err
	}
	return &reaction, nil
}

func (r *OrderRepositoryImpl) ListReactions(orderID string) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.Preload("Performer").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}

func (r *OrderRepositoryImpl) DeleteReaction(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Reaction{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReactionNotFound
	}
	return nil
}

func (r *OrderRepositoryImpl) Transition(orderID string, fromStatus, toStatus models.OrderStatus, updates map[string]interface{}) error {
	fields := map[string]interface{}{"status": toStatus}
	for k, v := range updates {
		fields[k] = v
	}

	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, fromStatus).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var exists int64
		if err := r.db.Model(&models.Order{}).Where("id = ?", orderID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return ErrOrderNotFound
		}
		return ErrStaleOrderStatus
	}
	return nil
}
