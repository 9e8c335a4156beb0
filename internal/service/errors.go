package service

import (
	"errors"
	"fmt"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/infra/repository/db"
)

// 錯誤分類，handler 以 errors.Is 對應 HTTP 狀態
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrDownstream   = errors.New("downstream failure")
	ErrNotification = errors.New("notification failed")
)

var (
	ErrOrderNotExist         = fmt.Errorf("%w: order is not exist", ErrNotFound)
	ErrProductNotFound       = fmt.Errorf("%w: product not found", ErrNotFound)
	ErrUserNotFound          = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrProductOutOfStock     = fmt.Errorf("%w: product out of stock", ErrConflict)
	ErrOrderDelivered        = fmt.Errorf("%w: order already delivered", ErrConflict)
	ErrOrderAlreadyCancelled = fmt.Errorf("%w: order already cancelled", ErrConflict)
	ErrInvalidTransition     = fmt.Errorf("%w: %w", ErrConflict, model.ErrInvalidTransition)
	ErrOrderStateChanged     = fmt.Errorf("%w: order state changed concurrently", ErrConflict)
	ErrDuplicateRequest      = fmt.Errorf("%w: duplicate request", ErrConflict)
)

func newValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// translateErr 把 repository 錯誤轉成服務層分類，已分類的錯誤原樣回傳
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrDownstream):
		return err
	case errors.Is(err, db.ErrOrderNotFound):
		return fmt.Errorf("%w: %w", ErrOrderNotExist, err)
	case errors.Is(err, db.ErrProductNotFound):
		return fmt.Errorf("%w: %w", ErrProductNotFound, err)
	case errors.Is(err, db.ErrUserNotFound):
		return fmt.Errorf("%w: %w", ErrUserNotFound, err)
	case errors.Is(err, db.ErrOrderStateChanged):
		return fmt.Errorf("%w: %w", ErrOrderStateChanged, err)
	case errors.Is(err, model.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	default:
		return fmt.Errorf("%w: %w", ErrDownstream, err)
	}
}
