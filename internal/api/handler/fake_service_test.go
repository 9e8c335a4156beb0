package handler

import (
	"context"
	"sync"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/infra/address"
	"github.com/hango1705/bongland-backend/internal/service"
)

// fakeOrderService 記錄最後一次呼叫的參數，回傳預先設定的結果
type fakeOrderService struct {
	mu sync.Mutex

	order *model.Order
	err   error

	lastParams   service.CreateOrderParams
	lastOrderID  string
	lastShipping bool
	lastPayment  model.PaymentResult
	calls        int
}

func (f *fakeOrderService) record(orderID string) (*model.Order, error) {
	f.calls++
	f.lastOrderID = orderID
	return f.order, f.err
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, params service.CreateOrderParams) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParams = params
	return f.record("")
}

func (f *fakeOrderService) CancelOrderDetails(ctx context.Context, orderID string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(orderID)
}

func (f *fakeOrderService) UpdateOrderShipping(ctx context.Context, orderID string, shipping bool) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastShipping = shipping
	return f.record(orderID)
}

func (f *fakeOrderService) MarkOrderPaid(ctx context.Context, orderID string, result model.PaymentResult) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPayment = result
	return f.record(orderID)
}

func (f *fakeOrderService) MarkOrderDelivered(ctx context.Context, orderID string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record(orderID)
}

type fakeQueryService struct {
	mu sync.Mutex

	orders  []model.Order
	order   *model.Order
	deleted int64
	owner   string
	err     error

	lastUserID string
	lastIDs    []string
}

func (f *fakeQueryService) GetAllOrderDetails(ctx context.Context, userID string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUserID = userID
	return f.orders, f.err
}

func (f *fakeQueryService) GetDetailsOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return f.order, f.err
}

func (f *fakeQueryService) GetAllOrder(ctx context.Context) ([]model.Order, error) {
	return f.orders, f.err
}

func (f *fakeQueryService) DeleteManyOrder(ctx context.Context, ids []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastIDs = ids
	return f.deleted, f.err
}

func (f *fakeQueryService) GetOrderOwner(ctx context.Context, orderID string) (string, error) {
	return f.owner, f.err
}

type fakeAddressService struct {
	divisions []address.Division
	full      *service.FullAddress
	err       error
	lastCodes service.AddressCodes
	lastCode  string
}

func (f *fakeAddressService) GetProvinces(ctx context.Context) ([]address.Division, error) {
	return f.divisions, f.err
}

func (f *fakeAddressService) GetDistricts(ctx context.Context, provinceCode string) ([]address.Division, error) {
	f.lastCode = provinceCode
	return f.divisions, f.err
}

func (f *fakeAddressService) GetWards(ctx context.Context, districtCode string) ([]address.Division, error) {
	f.lastCode = districtCode
	return f.divisions, f.err
}

func (f *fakeAddressService) GetFullAddress(ctx context.Context, codes service.AddressCodes) (*service.FullAddress, error) {
	f.lastCodes = codes
	return f.full, f.err
}

var (
	_ service.IOrderService      = (*fakeOrderService)(nil)
	_ service.IOrderQueryService = (*fakeQueryService)(nil)
	_ service.IAddressService    = (*fakeAddressService)(nil)
)
