package model

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

type OrderStatus uint

const (
	OrderStatusCreated   OrderStatus = 0 // 已建立
	OrderStatusPaid      OrderStatus = 1 // 已付款
	OrderStatusShipping  OrderStatus = 2 // 運送中
	OrderStatusDelivered OrderStatus = 3 // 已送達
	OrderStatusCancelled OrderStatus = 4 // 已取消
)

var orderStatusNames = map[OrderStatus]string{
	OrderStatusCreated:   "created",
	OrderStatusPaid:      "paid",
	OrderStatusShipping:  "shipping",
	OrderStatusDelivered: "delivered",
	OrderStatusCancelled: "cancelled",
}

// 狀態表
// Shipping -> Paid/Created 只給 UpdateOrderShipping(false) 使用
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:  {OrderStatusPaid, OrderStatusShipping, OrderStatusCancelled},
	OrderStatusPaid:     {OrderStatusShipping, OrderStatusCancelled},
	OrderStatusShipping: {OrderStatusDelivered, OrderStatusCancelled, OrderStatusPaid, OrderStatusCreated},
}

func (s OrderStatus) String() string {
	if name, ok := orderStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint(s))
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusNames[s]
	return ok
}

// IsTerminal 已送達與已取消不可再變動
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo 同狀態不算合法轉換，由呼叫端自行決定是否視為冪等
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	next, ok := orderStatusTransitions[s]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}

func (s OrderStatus) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("unknown order status %d", uint(s))
	}
	return []byte(s.String()), nil
}

func (s *OrderStatus) UnmarshalText(text []byte) error {
	status, ok := ParseOrderStatus(string(text))
	if !ok {
		return fmt.Errorf("unknown order status %q", string(text))
	}
	*s = status
	return nil
}

func ParseOrderStatus(name string) (OrderStatus, bool) {
	for status, n := range orderStatusNames {
		if n == name {
			return status, true
		}
	}
	return 0, false
}
