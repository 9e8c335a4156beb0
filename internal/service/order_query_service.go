package service

import (
	"context"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/domain/model/event"
	"github.com/hango1705/bongland-backend/internal/infra/producer"
	"github.com/hango1705/bongland-backend/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
)

type IOrderQueryService interface {
	GetAllOrderDetails(ctx context.Context, userID string) ([]model.Order, error)
	GetDetailsOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetAllOrder(ctx context.Context) ([]model.Order, error)
	DeleteManyOrder(ctx context.Context, ids []string) (int64, error)
	GetOrderOwner(ctx context.Context, orderID string) (string, error)
}

type OrderQueryService struct {
	store     db.UnifiedDB
	publisher producer.IOrderEventPublisher
}

func NewOrderQueryService(store db.UnifiedDB, publisher producer.IOrderEventPublisher) *OrderQueryService {
	if store == nil {
		panic("NewOrderQueryService store is nil")
	}
	if publisher == nil {
		publisher = producer.NoopPublisher{}
	}
	return &OrderQueryService{store: store, publisher: publisher}
}

// GetAllOrderDetails 沒有訂單時回傳空列表
func (s *OrderQueryService) GetAllOrderDetails(ctx context.Context, userID string) ([]model.Order, error) {
	if userID == "" {
		return nil, newValidationError("The userId is required")
	}
	orders, err := s.store.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, translateErr(err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

func (s *OrderQueryService) GetDetailsOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if orderID == "" {
		return nil, newValidationError("The orderId is required")
	}
	order, err := s.store.GetOrderDetailsByID(ctx, orderID)
	if err != nil {
		return nil, translateErr(err)
	}
	return order, nil
}

func (s *OrderQueryService) GetAllOrder(ctx context.Context) ([]model.Order, error) {
	orders, err := s.store.GetAllOrders(ctx)
	if err != nil {
		return nil, translateErr(err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// DeleteManyOrder 硬刪除，不回補庫存
func (s *OrderQueryService) DeleteManyOrder(ctx context.Context, ids []string) (int64, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	if len(uniq) == 0 {
		return 0, newValidationError("The ids is required")
	}

	deleted, err := s.store.HardDeleteOrders(ctx, uniq)
	if err != nil {
		return 0, translateErr(err)
	}
	log.Info().Int("requested", len(uniq)).Int("deleted", len(deleted)).Msg("orders hard deleted")

	if len(deleted) > 0 {
		events := make([]event.Event, 0, len(deleted))
		for _, id := range deleted {
			events = append(events, event.NewOrderDeletedEvent(id))
		}
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, events...); err != nil {
			log.Warn().Err(err).Msg("publish order deleted events failed")
		}
	}
	return int64(len(deleted)), nil
}

func (s *OrderQueryService) GetOrderOwner(ctx context.Context, orderID string) (string, error) {
	if orderID == "" {
		return "", newValidationError("The orderId is required")
	}
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return "", translateErr(err)
	}
	return order.UserID, nil
}

var _ IOrderQueryService = (*OrderQueryService)(nil)
