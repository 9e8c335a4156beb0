package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/domain/model/event"
	"github.com/hango1705/bongland-backend/internal/infra/producer"
	"github.com/hango1705/bongland-backend/internal/infra/repository/db"
	"github.com/hango1705/bongland-backend/internal/infra/repository/redis_repo"
	"github.com/hango1705/bongland-backend/internal/platform/observability"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const publishTimeout = 5 * time.Second

type IOrderService interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*model.Order, error)
	CancelOrderDetails(ctx context.Context, orderID string) (*model.Order, error)
	UpdateOrderShipping(ctx context.Context, orderID string, shipping bool) (*model.Order, error)
	MarkOrderPaid(ctx context.Context, orderID string, result model.PaymentResult) (*model.Order, error)
	MarkOrderDelivered(ctx context.Context, orderID string) (*model.Order, error)
}

type CreateOrderItem struct {
	ProductID string
	Name      string
	Amount    uint
	Image     string
	Price     decimal.Decimal
}

type CreateOrderParams struct {
	UserID              string
	IdempotencyKey      string
	OrderItems          []CreateOrderItem
	ShippingAddress     model.ShippingAddress
	PaymentMethod       string
	DeliveryMethod      model.DeliveryMethod
	SpecialInstructions string
	Email               string
	ItemsPrice          decimal.Decimal
	ShippingPrice       decimal.Decimal
	TotalPrice          decimal.Decimal
}

type OrderService struct {
	store       db.UnifiedDB
	inventory   IInventoryService
	publisher   producer.IOrderEventPublisher
	dispatcher  INotificationDispatcher
	idempotency redis_repo.IIdempotencyRepo
	tracer      observability.Tracer
	now         func() time.Time
}

type OrderServiceOption func(*OrderService)

func WithEventPublisher(p producer.IOrderEventPublisher) OrderServiceOption {
	return func(s *OrderService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithNotificationDispatcher nil 代表不寄信
func WithNotificationDispatcher(d INotificationDispatcher) OrderServiceOption {
	return func(s *OrderService) {
		s.dispatcher = d
	}
}

// WithIdempotencyRepo nil 代表不做建單去重
func WithIdempotencyRepo(r redis_repo.IIdempotencyRepo) OrderServiceOption {
	return func(s *OrderService) {
		s.idempotency = r
	}
}

func WithTracer(t observability.Tracer) OrderServiceOption {
	return func(s *OrderService) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		s.now = now
	}
}

func NewOrderService(store db.UnifiedDB, inventory IInventoryService, opts ...OrderServiceOption) *OrderService {
	if store == nil {
		panic("NewOrderService store is nil")
	}
	if inventory == nil {
		panic("NewOrderService inventory is nil")
	}
	s := &OrderService{
		store:     store,
		inventory: inventory,
		publisher: producer.NoopPublisher{},
		tracer:    observability.GetTracer("order-service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

/*
建立訂單
1. 驗證參數
2. 冪等鍵
3. 先讀一次商品，快速擋掉不存在與庫存不足
4. 同一個交易內寫入訂單並逐項扣庫存，任一項失敗整筆 rollback
5. commit 後發事件與確認信，失敗不影響結果
*/
func (o *OrderService) CreateOrder(ctx context.Context, params CreateOrderParams) (order *model.Order, err error) {
	ctx, span := o.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(
			attribute.String("user.id", params.UserID),
			attribute.Int("order.item_count", len(params.OrderItems)),
		))
	defer func() { endSpan(span, err) }()

	if err := validateCreateOrder(&params); err != nil {
		return nil, err
	}

	if params.IdempotencyKey != "" && o.idempotency != nil {
		key := scopedIdempotencyKey(params.UserID, params.IdempotencyKey)
		ok, err := o.idempotency.Acquire(ctx, key, params.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDownstream, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: idempotency key %s already used", ErrDuplicateRequest, params.IdempotencyKey)
		}
		defer func() {
			if err != nil {
				if rErr := o.idempotency.Release(context.WithoutCancel(ctx), key); rErr != nil {
					log.Warn().Err(rErr).Str("key", key).Msg("release idempotency key failed")
				}
				return
			}
			if bErr := o.idempotency.Bind(context.WithoutCancel(ctx), key, order.OrderID); bErr != nil {
				log.Warn().Err(bErr).Str("key", key).Msg("bind idempotency key failed")
			}
		}()
	}

	user, err := o.store.GetUserByID(ctx, params.UserID)
	if err != nil {
		return nil, translateErr(err)
	}

	products, err := o.checkProducts(ctx, params.OrderItems)
	if err != nil {
		return nil, err
	}

	order = buildOrder(params, products)
	span.SetAttributes(attribute.String("order.id", order.OrderID))

	err = o.store.ExecTx(ctx, func(tx db.UnifiedDB) error {
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		ledger := o.inventory.WithStore(tx)
		var outOfStock []string
		for _, item := range inLockOrder(order.OrderItems) {
			ok, err := ledger.DebitIfAvailable(ctx, item.ProductID, item.Amount)
			if err != nil {
				return err
			}
			if !ok {
				outOfStock = append(outOfStock, item.ProductID)
			}
		}
		if len(outOfStock) > 0 {
			return fmt.Errorf("%w: %s", ErrProductOutOfStock, strings.Join(outOfStock, ","))
		}
		return nil
	})
	if err != nil {
		return nil, translateErr(err)
	}

	log.Info().Str("order_id", order.OrderID).Str("user_id", order.UserID).Str("total", order.TotalPrice.String()).Msg("order created")

	o.publish(ctx, event.NewOrderCreatedEvent(order))
	o.notify(order, user)

	return order, nil
}

// checkProducts 快速檢查，真正的庫存判斷在交易內的條件式扣庫存
func (o *OrderService) checkProducts(ctx context.Context, items []CreateOrderItem) (map[string]model.Product, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := o.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, translateErr(err)
	}
	productMap := make(map[string]model.Product, len(products))
	for _, p := range products {
		productMap[p.ProductID] = p
	}

	var missing, notEnough []string
	for _, item := range items {
		p, ok := productMap[item.ProductID]
		if !ok {
			missing = append(missing, item.ProductID)
			continue
		}
		if p.CountInStock < item.Amount {
			notEnough = append(notEnough, item.ProductID)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, strings.Join(missing, ","))
	}
	if len(notEnough) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrProductOutOfStock, strings.Join(notEnough, ","))
	}
	return productMap, nil
}

func buildOrder(params CreateOrderParams, products map[string]model.Product) *model.Order {
	orderID := uuid.New().String()
	items := make([]model.OrderItem, 0, len(params.OrderItems))
	for _, item := range params.OrderItems {
		p := products[item.ProductID]
		name := item.Name
		if name == "" {
			name = p.Name
		}
		image := item.Image
		if image == "" {
			image = p.Image
		}
		items = append(items, model.OrderItem{
			OrderID:   orderID,
			ProductID: item.ProductID,
			Name:      name,
			Amount:    item.Amount,
			Image:     image,
			Price:     item.Price,
		})
	}

	deliveryMethod := params.DeliveryMethod
	if deliveryMethod == "" {
		deliveryMethod = model.DeliveryMethodStandard
	}

	return &model.Order{
		OrderID:             orderID,
		UserID:              params.UserID,
		OrderItems:          items,
		ShippingAddress:     params.ShippingAddress,
		PaymentMethod:       params.PaymentMethod,
		DeliveryMethod:      deliveryMethod,
		SpecialInstructions: params.SpecialInstructions,
		Email:               params.Email,
		ItemsPrice:          params.ItemsPrice,
		ShippingPrice:       params.ShippingPrice,
		TotalPrice:          params.TotalPrice,
		Status:              model.OrderStatusCreated,
	}
}

func validateCreateOrder(params *CreateOrderParams) error {
	if params.UserID == "" {
		return newValidationError("The userId is required")
	}
	if len(params.OrderItems) == 0 {
		return newValidationError("Order must contain at least one item")
	}
	seen := make(map[string]struct{}, len(params.OrderItems))
	for _, item := range params.OrderItems {
		if item.ProductID == "" {
			return newValidationError("Each item requires a product id")
		}
		if item.Amount < 1 {
			return newValidationError(fmt.Sprintf("Invalid amount for product %s", item.ProductID))
		}
		if item.Price.IsNegative() {
			return newValidationError(fmt.Sprintf("Invalid price for product %s", item.ProductID))
		}
		if _, dup := seen[item.ProductID]; dup {
			return newValidationError(fmt.Sprintf("Duplicate product %s in order", item.ProductID))
		}
		seen[item.ProductID] = struct{}{}
	}
	if params.PaymentMethod == "" {
		return newValidationError("Payment method and shipping address are required")
	}
	addr := params.ShippingAddress
	if addr.FullName == "" || addr.Address == "" || addr.City == "" || addr.Phone == "" {
		return newValidationError("Missing required shipping information")
	}
	if params.ItemsPrice.IsNegative() || params.ShippingPrice.IsNegative() || params.TotalPrice.IsNegative() {
		return newValidationError("Invalid price values")
	}
	if !params.ItemsPrice.Add(params.ShippingPrice).Equal(params.TotalPrice) {
		return newValidationError("Total price must equal items price plus shipping price")
	}
	if params.DeliveryMethod != "" && !params.DeliveryMethod.IsValid() {
		return newValidationError(fmt.Sprintf("Invalid delivery method %s", params.DeliveryMethod))
	}
	return nil
}

/*
取消訂單，鎖住訂單列後條件式更新狀態並逐項歸還庫存
已取消與已送達不可取消
*/
func (o *OrderService) CancelOrderDetails(ctx context.Context, orderID string) (order *model.Order, err error) {
	ctx, span := o.tracer.Start(ctx, "OrderService.CancelOrderDetails",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	order, from, changed, err := o.mutateOrder(ctx, orderID, func(ctx context.Context, tx db.UnifiedDB, order *model.Order) (bool, error) {
		switch order.Status {
		case model.OrderStatusCancelled:
			return false, ErrOrderAlreadyCancelled
		case model.OrderStatusDelivered:
			return false, ErrOrderDelivered
		}
		if err := order.TransitionTo(model.OrderStatusCancelled, o.now()); err != nil {
			return false, err
		}

		ledger := o.inventory.WithStore(tx)
		for _, item := range inLockOrder(order.OrderItems) {
			if err := ledger.Credit(ctx, item.ProductID, item.Amount); err != nil {
				// 商品已從目錄移除時不擋取消
				if errors.Is(err, ErrProductNotFound) {
					log.Warn().Str("order_id", order.OrderID).Str("product_id", item.ProductID).Msg("restock skipped, product not found")
					continue
				}
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		log.Info().Str("order_id", orderID).Str("from", from.String()).Msg("order cancelled")
		o.publish(ctx, event.NewOrderStateChangedEvent(event.OrderCancelledEventName, order, from))
	}
	return order, nil
}

// UpdateOrderShipping 重複設定相同值為 no-op
func (o *OrderService) UpdateOrderShipping(ctx context.Context, orderID string, shipping bool) (order *model.Order, err error) {
	ctx, span := o.tracer.Start(ctx, "OrderService.UpdateOrderShipping",
		trace.WithAttributes(attribute.String("order.id", orderID), attribute.Bool("order.shipping", shipping)))
	defer func() { endSpan(span, err) }()

	order, from, changed, err := o.mutateOrder(ctx, orderID, func(_ context.Context, _ db.UnifiedDB, order *model.Order) (bool, error) {
		if order.IsShipping() == shipping {
			return false, nil
		}

		target := model.OrderStatusShipping
		if !shipping {
			target = model.OrderStatusCreated
			if order.IsPaid() {
				target = model.OrderStatusPaid
			}
		}
		if err := order.TransitionTo(target, o.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		o.publish(ctx, event.NewOrderStateChangedEvent(event.OrderShippingUpdatedEventName, order, from))
	}
	return order, nil
}

// MarkOrderPaid 運送中或已送達的訂單只補付款時間，不改狀態
func (o *OrderService) MarkOrderPaid(ctx context.Context, orderID string, result model.PaymentResult) (order *model.Order, err error) {
	ctx, span := o.tracer.Start(ctx, "OrderService.MarkOrderPaid",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	order, from, changed, err := o.mutateOrder(ctx, orderID, func(_ context.Context, _ db.UnifiedDB, order *model.Order) (bool, error) {
		if order.IsCancelled() {
			return false, ErrOrderAlreadyCancelled
		}
		if order.IsPaid() {
			return false, nil
		}

		order.PaymentResult = result
		if order.Status == model.OrderStatusCreated {
			return true, order.TransitionTo(model.OrderStatusPaid, o.now())
		}
		now := o.now()
		order.PaidAt = &now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		o.publish(ctx, event.NewOrderStateChangedEvent(event.OrderPaidEventName, order, from))
	}
	return order, nil
}

func (o *OrderService) MarkOrderDelivered(ctx context.Context, orderID string) (order *model.Order, err error) {
	ctx, span := o.tracer.Start(ctx, "OrderService.MarkOrderDelivered",
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { endSpan(span, err) }()

	order, from, changed, err := o.mutateOrder(ctx, orderID, func(_ context.Context, _ db.UnifiedDB, order *model.Order) (bool, error) {
		switch order.Status {
		case model.OrderStatusDelivered:
			return false, nil
		case model.OrderStatusCancelled:
			return false, ErrOrderAlreadyCancelled
		}
		if err := order.TransitionTo(model.OrderStatusDelivered, o.now()); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		o.publish(ctx, event.NewOrderStateChangedEvent(event.OrderDeliveredEventName, order, from))
	}
	return order, nil
}

// orderMutation 在交易內修改已鎖定的訂單，回傳是否需要寫回
type orderMutation func(ctx context.Context, tx db.UnifiedDB, order *model.Order) (bool, error)

// mutateOrder 鎖定訂單列 -> 修改 -> 以原狀態為條件寫回
func (o *OrderService) mutateOrder(ctx context.Context, orderID string, mutate orderMutation) (*model.Order, model.OrderStatus, bool, error) {
	if orderID == "" {
		return nil, 0, false, newValidationError("The orderId is required")
	}

	var (
		result  *model.Order
		from    model.OrderStatus
		changed bool
	)
	err := o.store.ExecTx(ctx, func(tx db.UnifiedDB) error {
		order, err := tx.GetOrderByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = order.Status

		changed, err = mutate(ctx, tx, order)
		if err != nil {
			return err
		}
		if changed {
			if err := tx.UpdateOrderStatus(ctx, order, from); err != nil {
				return err
			}
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, from, false, translateErr(err)
	}
	return result, from, changed, nil
}

func (o *OrderService) publish(ctx context.Context, events ...event.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, events...); err != nil {
		log.Warn().Err(err).Msg("publish order event failed")
	}
}

// notify email 以下單資料為主，沒有時用會員信箱
func (o *OrderService) notify(order *model.Order, user *model.User) {
	if o.dispatcher == nil {
		return
	}
	email := order.Email
	if email == "" && user != nil {
		email = user.Email
	}
	if email == "" {
		log.Warn().Str("order_id", order.OrderID).Msg("no email for order confirmation")
		return
	}
	o.dispatcher.Dispatch(NotificationJob{
		OrderID: order.OrderID,
		Email:   email,
		Items:   order.OrderItems,
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// scopedIdempotencyKey 每個 user 各自的 key 空間
func scopedIdempotencyKey(userID, key string) string {
	return userID + ":" + key
}

// inLockOrder 依 product_id 排序的副本，異動庫存一律照此順序取得列鎖
func inLockOrder(items []model.OrderItem) []model.OrderItem {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b model.OrderItem) int {
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return sorted
}

var _ IOrderService = (*OrderService)(nil)
