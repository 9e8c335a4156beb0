package event

import (
	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/shopspring/decimal"
)

type OrderItemData struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Amount    uint            `json:"amount"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreatedEvent struct {
	BaseEvent
	UserID     string          `json:"user_id"`
	Items      []OrderItemData `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	ToState    string          `json:"to_state"`
}

// 狀態異動共用，EventType 區分付款/出貨/送達/取消
type OrderStateChangedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
}

type OrderDeletedEvent struct {
	BaseEvent
}

func NewOrderCreatedEvent(order *model.Order) *OrderCreatedEvent {
	items := make([]OrderItemData, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		items = append(items, OrderItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			Amount:    item.Amount,
			Price:     item.Price,
		})
	}
	return &OrderCreatedEvent{
		BaseEvent:  NewBaseEvent(OrderCreatedEventName, order.OrderID),
		UserID:     order.UserID,
		Items:      items,
		TotalPrice: order.TotalPrice,
		ToState:    order.Status.String(),
	}
}

func NewOrderStateChangedEvent(eventType EventType, order *model.Order, from model.OrderStatus) *OrderStateChangedEvent {
	return &OrderStateChangedEvent{
		BaseEvent: NewBaseEvent(eventType, order.OrderID),
		UserID:    order.UserID,
		FromState: from.String(),
		ToState:   order.Status.String(),
	}
}

func NewOrderDeletedEvent(orderID string) *OrderDeletedEvent {
	return &OrderDeletedEvent{
		BaseEvent: NewBaseEvent(OrderDeletedEventName, orderID),
	}
}
