package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound 商品不存在
	ErrProductNotFound = errors.New("product not found")
)

/*
DB 為庫存唯一真相來源
扣庫存一律使用單一條件式 UPDATE，不在程式內 read-modify-write
*/
type ProductDBRepo struct {
	db *DbDao
}

func NewProductDBRepo(db *DbDao) *ProductDBRepo {
	return &ProductDBRepo{db: db}
}

func (s *ProductDBRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	return s.db.WithContext(ctx).Create(product).Error
}

// 錯誤:
//   - ErrProductNotFound: 商品不存在
//   - err: 其他錯誤
func (s *ProductDBRepo) GetProductByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).First(&product, "product_id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product with id %s not found", ErrProductNotFound, productID)
		}
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs 不存在的 id 不會出現在結果，由呼叫端比對
func (s *ProductDBRepo) GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error) {
	var products []model.Product
	if len(productIDs) == 0 {
		return products, nil
	}
	err := s.db.WithContext(ctx).Where("product_id IN ?", productIDs).Find(&products).Error
	return products, err
}

// 原子性扣減庫存
/*
	返回值:
		- true: 扣減成功 (count_in_stock -= quantity, sold += quantity)
		- false: 庫存不足，未異動
		- 錯誤:
			- ErrProductNotFound: 商品不存在
			- err: 其他錯誤
*/
func (s *ProductDBRepo) DebitProductStock(ctx context.Context, productID string, quantity uint) (bool, error) {
	result := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ? AND count_in_stock >= ?", productID, quantity).
		Updates(map[string]any{
			"count_in_stock": gorm.Expr("count_in_stock - ?", quantity),
			"sold":           gorm.Expr("sold + ?", quantity),
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	// 沒有異動，區分商品不存在與庫存不足
	if _, err := s.GetProductByID(ctx, productID); err != nil {
		return false, err
	}
	return false, nil
}

// 回補庫存 (count_in_stock += quantity, sold -= quantity)
// 錯誤:
//   - ErrProductNotFound: 商品不存在
//   - err: 其他錯誤，sold 不足時會違反 chk_products_sold
func (s *ProductDBRepo) CreditProductStock(ctx context.Context, productID string, quantity uint) error {
	result := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"count_in_stock": gorm.Expr("count_in_stock + ?", quantity),
			"sold":           gorm.Expr("sold - ?", quantity),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: product with id %s not found", ErrProductNotFound, productID)
	}
	return nil
}
