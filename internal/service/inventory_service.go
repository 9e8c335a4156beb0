package service

import (
	"context"
	"errors"

	"github.com/hango1705/bongland-backend/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
)

type IInventoryService interface {
	// DebitIfAvailable 庫存足夠才扣，不足回傳 false
	DebitIfAvailable(ctx context.Context, productID string, quantity uint) (bool, error)
	// Credit 歸還庫存並扣回銷量
	Credit(ctx context.Context, productID string, quantity uint) error
	// WithStore 綁定到交易內的 repository
	WithStore(store db.IProductRepository) IInventoryService
}

type InventoryService struct {
	productRepo db.IProductRepository
}

func NewInventoryService(productRepo db.IProductRepository) *InventoryService {
	if productRepo == nil {
		panic("NewInventoryService productRepo is nil")
	}
	return &InventoryService{productRepo: productRepo}
}

func (s *InventoryService) WithStore(store db.IProductRepository) IInventoryService {
	return NewInventoryService(store)
}

// 錯誤:
//   - ErrValidation: productID 為空或數量為 0
//   - ErrProductNotFound: 商品不存在
//   - ErrDownstream: 其他錯誤
func (s *InventoryService) DebitIfAvailable(ctx context.Context, productID string, quantity uint) (bool, error) {
	if err := validateStockChange(productID, quantity); err != nil {
		return false, err
	}

	ok, err := s.productRepo.DebitProductStock(ctx, productID, quantity)
	if err != nil {
		if !errors.Is(err, db.ErrProductNotFound) {
			log.Error().Err(err).Str("product_id", productID).Uint("quantity", quantity).Msg("debit product stock failed")
		}
		return false, translateErr(err)
	}
	return ok, nil
}

func (s *InventoryService) Credit(ctx context.Context, productID string, quantity uint) error {
	if err := validateStockChange(productID, quantity); err != nil {
		return err
	}

	if err := s.productRepo.CreditProductStock(ctx, productID, quantity); err != nil {
		if !errors.Is(err, db.ErrProductNotFound) {
			log.Error().Err(err).Str("product_id", productID).Uint("quantity", quantity).Msg("credit product stock failed")
		}
		return translateErr(err)
	}
	return nil
}

func validateStockChange(productID string, quantity uint) error {
	if productID == "" {
		return newValidationError("The productId is required")
	}
	if quantity == 0 {
		return newValidationError("quantity must be at least 1")
	}
	return nil
}

var _ IInventoryService = (*InventoryService)(nil)
