package db

import (
	"context"
	"fmt"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"gorm.io/gorm"
)

// 庫存欄位不可為負，條件式扣庫存與回補的最後一道防線
var productCheckConstraints = []string{
	"chk_products_count_in_stock",
	"chk_products_sold",
}

// 依外鍵相依順序，子表在前
var resetTables = []string{"order_items", "orders", "products", "users"}

type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// InitMigrate 建立 schema 並補上庫存 check constraint，可重複執行
// 正式環境使用 migrations，這裡給測試與本機開發
func (d *DbDao) InitMigrate() error {
	if err := d.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return d.ensureProductChecks()
}

func (d *DbDao) ensureProductChecks() error {
	m := d.Migrator()
	for _, name := range productCheckConstraints {
		if m.HasConstraint(&model.Product{}, name) {
			continue
		}
		if err := m.CreateConstraint(&model.Product{}, name); err != nil {
			return fmt.Errorf("create constraint %s: %w", name, err)
		}
	}
	return nil
}

// ResetOrderData 清空訂單、商品與使用者，只給測試使用
func (d *DbDao) ResetOrderData(ctx context.Context) error {
	return d.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range resetTables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		return nil
	})
}
