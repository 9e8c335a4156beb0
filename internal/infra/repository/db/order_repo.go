package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderStateChanged 條件式更新時狀態已被其他請求改變
	ErrOrderStateChanged = errors.New("order state changed concurrently")
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create - 創建訂單，OrderItems 一併寫入
func (s *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Omit("User").Create(order).Error
}

// Read - 根據ID查詢訂單
func (s *OrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").First(&order, "order_id = ?", id).Error
	if err != nil {
		return nil, translateOrderErr(err, id)
	}
	return &order, nil
}

// Read - 查詢並鎖定訂單列，需在交易內呼叫
func (s *OrderRepo) GetOrderByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "order_id = ?", id).Error
	if err != nil {
		return nil, translateOrderErr(err, id)
	}

	if err := s.db.WithContext(ctx).Where("order_id = ?", id).Order("product_id").Find(&order.OrderItems).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Read - 訂單明細，展開使用者與商品
func (s *OrderRepo) GetOrderDetailsByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("OrderItems.Product").
		First(&order, "order_id = ?", id).Error
	if err != nil {
		return nil, translateOrderErr(err, id)
	}
	return &order, nil
}

// Read - 根據用戶ID查詢訂單
func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// Read - 查詢所有訂單
func (s *OrderRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("OrderItems").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// Update - 以 from 為條件更新狀態與相關時間戳
// 錯誤:
//   - ErrOrderStateChanged: 狀態已不是 from
func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, order *model.Order, from model.OrderStatus) error {
	result := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status = ?", order.OrderID, from).
		Updates(map[string]any{
			"status":                order.Status,
			"paid_at":               order.PaidAt,
			"delivered_at":          order.DeliveredAt,
			"cancelled_at":          order.CancelledAt,
			"payment_id":            order.PaymentResult.ID,
			"payment_status":        order.PaymentResult.Status,
			"payment_update_time":   order.PaymentResult.UpdateTime,
			"payment_email_address": order.PaymentResult.EmailAddress,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", ErrOrderStateChanged, order.OrderID, from)
	}
	return nil
}

// Delete - 硬刪除訂單，不回補庫存
// 返回實際刪除的訂單ID
func (s *OrderRepo) HardDeleteOrders(ctx context.Context, ids []string) ([]string, error) {
	var deleted []string
	if len(ids) == 0 {
		return deleted, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Order{}).Unscoped().
			Where("order_id IN ?", ids).
			Pluck("order_id", &deleted).Error; err != nil {
			return err
		}
		if len(deleted) == 0 {
			return nil
		}
		if err := tx.Unscoped().Where("order_id IN ?", deleted).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("order_id IN ?", deleted).Delete(&model.Order{}).Error
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func translateOrderErr(err error, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: order with id %s not found", ErrOrderNotFound, id)
	}
	return err
}
