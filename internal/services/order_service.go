package services

import (
	"context"

	"usta_backend/internal/config"
	"usta_backend/internal/models"
	"usta_backend/internal/queue"
	"usta_backend/internal/repositories"
	"usta_backend/internal/services/dto"
	"usta_backend/pkg/apperrors"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error)
	GetOrder(orderID string) (*dto.OrderResponse, error)
	UpdateOrder(ctx context.Context, userID, orderID string, req *dto.UpdateOrderRequest) error
	ListMyOrders(userID string, req *dto.ListOrdersRequest) (*dto.OrderListResponse, error)
	ListOpenOrders(req *dto.ListOrdersRequest) (*dto.OrderListResponse, error)

	CreateReaction(userID, orderID string, req *dto.CreateReactionRequest) (*dto.ReactionResponse, error)
	DeleteReaction(userID, orderID, reactionID string) error

	// Переходы статусной машины заказа. Все проверяют владельца.
	SelectReaction(userID, orderID string, req *dto.SelectReactionRequest) error
	DeselectReaction(userID, orderID string) error
	CompleteOrder(userID, orderID string, req *dto.CompleteOrderRequest) error
	CancelOrder(userID, orderID string) error

	CreateComplaint(userID, orderID string, req *dto.CreateComplaintRequest) error
}

type orderService struct {
	orderRepo     repositories.OrderRepository
	performerRepo repositories.PerformerRepository
	complaintRepo repositories.ComplaintRepository
	moderationQ   queue.Queue
}

func NewOrderService(
	orderRepo repositories.OrderRepository,
	performerRepo repositories.PerformerRepository,
	complaintRepo repositories.ComplaintRepository,
	moderationQ queue.Queue,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		performerRepo: performerRepo,
		complaintRepo: complaintRepo,
		moderationQ:   moderationQ,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	order := &models.Order{
		UserID:           userID,
		Title:            req.Title,
		Description:      req.Description,
		SpecializationID: req.SpecializationID,
		ServiceID:        req.ServiceID,
		CityID:           req.CityID,
		PriceFrom:        req.PriceFrom,
		PriceTo:          req.PriceTo,
		DesiredAt:        req.DesiredAt,
		Status:           models.OrderStatusSearchPerformer,
		ModerationStatus: models.ModerationStatusPending,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, apperrors.InternalError(err)
	}

	_ = s.moderationQ.Enqueue(ctx, queue.Job{EntityType: queue.EntityOrder, EntityID: order.ID})

	return s.buildOrderResponse(order, 0, false), nil
}

func (s *orderService) GetOrder(orderID string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if err == repositories.ErrOrderNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	counts, err := s.orderRepo.ReactionCounts([]string{order.ID})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return s.buildOrderResponse(order, counts[order.ID], true), nil
}

// UpdateOrder разрешен только владельцу и только пока заказ открыт.
// Изменение контента сбрасывает модерацию в pending.
func (s *orderService) UpdateOrder(ctx context.Context, userID, orderID string, req *dto.UpdateOrderRequest) error {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return err
	}
	if isClosedStatus(order.Status) {
		return apperrors.ErrOrderClosed
	}

	if req.Title != nil {
		order.Title = *req.Title
	}
	if req.Description != nil {
		order.Description = *req.Description
	}
	if req.CityID != nil {
		order.CityID = req.CityID
	}
	if req.PriceFrom != nil {
		order.PriceFrom = req.PriceFrom
	}
	if req.PriceTo != nil {
		order.PriceTo = req.PriceTo
	}
	if req.DesiredAt != nil {
		order.DesiredAt = req.DesiredAt
	}
	order.ModerationStatus = models.ModerationStatusPending

	if err := s.orderRepo.Update(order); err != nil {
		return apperrors.InternalError(err)
	}

	_ = s.moderationQ.Enqueue(ctx, queue.Job{EntityType: queue.EntityOrder, EntityID: order.ID})
	return nil
}

func (s *orderService) ListMyOrders(userID string, req *dto.ListOrdersRequest) (*dto.OrderListResponse, error) {
	criteria := listCriteria(req)
	orders, total, err := s.orderRepo.ListByUser(userID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.buildOrderListResponse(orders, total, criteria)
}

func (s *orderService) ListOpenOrders(req *dto.ListOrdersRequest) (*dto.OrderListResponse, error) {
	criteria := listCriteria(req)
	criteria.Status = nil
	orders, total, err := s.orderRepo.ListOpen(criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return s.buildOrderListResponse(orders, total, criteria)
}

func (s *orderService) CreateReaction(userID, orderID string, req *dto.CreateReactionRequest) (*dto.ReactionResponse, error) {
	performer, err := s.performerRepo.FindByUserID(userID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if performer.Status != models.ModerationStatusApproved {
		return nil, apperrors.ErrPerformerNotApproved
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if err == repositories.ErrOrderNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if order.Status != models.OrderStatusSearchPerformer {
		return nil, apperrors.ErrOrderClosed
	}
	if order.UserID == userID {
		return nil, apperrors.ErrInvalidOperation("order", "cannot react to your own order")
	}

	reaction := &models.Reaction{
		OrderID:     order.ID,
		PerformerID: performer.ID,
		Comment:     req.Comment,
		Price:       req.Price,
	}
	if err := s.orderRepo.CreateReaction(reaction); err != nil {
		if err == repositories.ErrReactionExists {
			return nil, apperrors.ErrReactionAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	return buildReactionResponse(reaction), nil
}

// DeleteReaction снимает отклик исполнителя, пока он не выбран.
func (s *orderService) DeleteReaction(userID, orderID, reactionID string) error {
	performer, err := s.performerRepo.FindByUserID(userID)
	if err != nil {
		if err == repositories.ErrPerformerNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	reaction, err := s.orderRepo.FindReactionByID(reactionID)
	if err != nil {
		if err == repositories.ErrReactionNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if reaction.OrderID != orderID {
		return apperrors.ErrReactionMismatch
	}
	if reaction.PerformerID != performer.ID {
		return apperrors.ErrInsufficientPermissions
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return apperrors.InternalError(err)
	}
	if order.ReactionID != nil && *order.ReactionID == reactionID {
		return apperrors.ErrInvalidOrderTransition
	}

	if err := s.orderRepo.DeleteReaction(reactionID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// SelectReaction: search_performer -> performer_selected.
// Отклик обязан принадлежать этому заказу.
func (s *orderService) SelectReaction(userID, orderID string, req *dto.SelectReactionRequest) error {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return err
	}

	reaction, err := s.orderRepo.FindReactionByID(req.ReactionID)
	if err != nil {
		if err == repositories.ErrReactionNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}
	if reaction.OrderID != order.ID {
		return apperrors.ErrReactionMismatch
	}

	err = s.orderRepo.Transition(order.ID,
		models.OrderStatusSearchPerformer, models.OrderStatusPerformerSelected,
		map[string]interface{}{"reaction_id": reaction.ID},
	)
	return s.mapTransitionError(err)
}

// DeselectReaction: performer_selected -> search_performer, выбор сбрасывается.
func (s *orderService) DeselectReaction(userID, orderID string) error {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return err
	}

	err = s.orderRepo.Transition(order.ID,
		models.OrderStatusPerformerSelected, models.OrderStatusSearchPerformer,
		map[string]interface{}{"reaction_id": nil},
	)
	return s.mapTransitionError(err)
}

// CompleteOrder: performer_selected -> completed. Терминальный переход,
// итоговая цена, если задана, не может быть отрицательной.
func (s *orderService) CompleteOrder(userID, orderID string, req *dto.CompleteOrderRequest) error {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return err
	}
	if req.FinalPrice != nil && *req.FinalPrice < 0 {
		return apperrors.ErrNegativeFinalPrice
	}

	err = s.orderRepo.Transition(order.ID,
		models.OrderStatusPerformerSelected, models.OrderStatusCompleted,
		map[string]interface{}{"final_price": req.FinalPrice},
	)
	return s.mapTransitionError(err)
}

// CancelOrder: владелец закрывает открытый заказ. Терминальный переход.
func (s *orderService) CancelOrder(userID, orderID string) error {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return err
	}

	err = s.orderRepo.Transition(order.ID,
		models.OrderStatusSearchPerformer, models.OrderStatusCancelled, nil,
	)
	return s.mapTransitionError(err)
}

func (s *orderService) CreateComplaint(userID, orderID string, req *dto.CreateComplaintRequest) error {
	if _, err := s.orderRepo.FindByID(orderID); err != nil {
		if err == repositories.ErrOrderNotFound {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	complaint := &models.OrderComplaint{
		UserID:      userID,
		OrderID:     orderID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.complaintRepo.CreateOrderComplaint(complaint); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// ---------------- Helper Methods ----------------

func (s *orderService) findOwnedOrder(userID, orderID string) (*models.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if err == repositories.ErrOrderNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	if order.UserID != userID {
		return nil, apperrors.ErrNotOrderOwner
	}
	return order, nil
}

func (s *orderService) mapTransitionError(err error) error {
	switch err {
	case nil:
		return nil
	case repositories.ErrOrderNotFound:
		return apperrors.ErrNotFound(err)
	case repositories.ErrStaleOrderStatus:
		return apperrors.ErrInvalidOrderTransition
	default:
		return apperrors.InternalError(err)
	}
}

func isClosedStatus(status models.OrderStatus) bool {
	switch status {
	case models.OrderStatusCompleted, models.OrderStatusRejected, models.OrderStatusCancelled:
		return true
	}
	return false
}

func listCriteria(req *dto.ListOrdersRequest) repositories.OrderListCriteria {
	page := req.Page
	if page < 1 {
		page = 1
	}
	return repositories.OrderListCriteria{
		Status:           req.Status,
		SpecializationID: req.SpecializationID,
		CityID:           req.CityID,
		Page:             page,
		PageSize:         config.GetConfig().Search.PageSize,
	}
}

func (s *orderService) buildOrderListResponse(orders []models.Order, total int64, criteria repositories.OrderListCriteria) (*dto.OrderListResponse, error) {
	ids := make([]string, 0, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
	}
	counts, err := s.orderRepo.ReactionCounts(ids)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	responses := make([]*dto.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, s.buildOrderResponse(&orders[i], counts[orders[i].ID], false))
	}

	return &dto.OrderListResponse{
		Orders:     responses,
		Total:      total,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
		TotalPages: calculateTotalPages(total, criteria.PageSize),
	}, nil
}

func (s *orderService) buildOrderResponse(order *models.Order, reactionsCount int64, withReactions bool) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:               order.ID,
		UserID:           order.UserID,
		Title:            order.Title,
		Description:      order.Description,
		SpecializationID: order.SpecializationID,
		ServiceID:        order.ServiceID,
		CityID:           order.CityID,
		PriceFrom:        order.PriceFrom,
		PriceTo:          order.PriceTo,
		DesiredAt:        order.DesiredAt,
		Status:           order.Status,
		ModerationStatus: order.ModerationStatus,
		ReactionID:       order.ReactionID,
		FinalPrice:       order.FinalPrice,
		ReactionsCount:   reactionsCount,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}

	if withReactions {
		for i := range order.Reactions {
			resp.Reactions = append(resp.Reactions, buildReactionResponse(&order.Reactions[i]))
		}
	}
	return resp
}

func buildReactionResponse(reaction *models.Reaction) *dto.ReactionResponse {
	resp := &dto.ReactionResponse{
		ID:          reaction.ID,
		OrderID:     reaction.OrderID,
		PerformerID: reaction.PerformerID,
		Comment:     reaction.Comment,
		Price:       reaction.Price,
		CreatedAt:   reaction.CreatedAt,
	}
	if reaction.Performer != nil {
		resp.Performer = buildPerformerResponse(reaction.Performer)
	}
	return resp
}
