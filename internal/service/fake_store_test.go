package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/hango1705/bongland-backend/internal/domain/model"
	"github.com/hango1705/bongland-backend/internal/domain/model/event"
	"github.com/hango1705/bongland-backend/internal/infra/repository/db"
	"gorm.io/gorm"
)

// fakeStore 記憶體版 UnifiedDB
// 交易以 undo log 回滾，GetOrderByIDForUpdate 鎖住訂單直到交易結束
type fakeStore struct {
	mu       sync.Mutex
	products map[string]model.Product
	orders   map[string]model.Order
	users    map[string]model.User
	rowLocks map[string]*sync.Mutex
	calls    int

	// stockLog 依序記錄扣減與回補的 product id
	stockLog []string

	// beforeDebit 在扣庫存前呼叫，用來模擬併發下單
	beforeDebit func(productID string)
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: make(map[string]model.Product),
		orders:   make(map[string]model.Order),
		users:    make(map[string]model.User),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

func (f *fakeStore) GetDB() *gorm.DB    { return nil }
func (f *fakeStore) InitMigrate() error { return nil }

func (f *fakeStore) ExecTx(ctx context.Context, fn func(store db.UnifiedDB) error) error {
	tx := &fakeTx{fakeStore: f}
	defer tx.unlockRows()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (f *fakeStore) rowLock(orderID string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rowLocks[orderID]
	if !ok {
		l = &sync.Mutex{}
		f.rowLocks[orderID] = l
	}
	return l
}

// fakeTx 記錄每個寫入的反向操作，失敗時倒序執行
type fakeTx struct {
	*fakeStore
	undo   []func()
	locked []*sync.Mutex
}

func (t *fakeTx) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
}

func (t *fakeTx) unlockRows() {
	for _, l := range t.locked {
		l.Unlock()
	}
}

func (t *fakeTx) GetOrderByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	l := t.rowLock(id)
	l.Lock()
	t.locked = append(t.locked, l)
	return t.fakeStore.GetOrderByID(ctx, id)
}

func (t *fakeTx) DebitProductStock(ctx context.Context, productID string, quantity uint) (bool, error) {
	ok, err := t.fakeStore.DebitProductStock(ctx, productID, quantity)
	if ok {
		t.undo = append(t.undo, func() {
			p := t.products[productID]
			p.CountInStock += quantity
			p.Sold -= quantity
			t.products[productID] = p
		})
	}
	return ok, err
}

func (t *fakeTx) CreditProductStock(ctx context.Context, productID string, quantity uint) error {
	if err := t.fakeStore.CreditProductStock(ctx, productID, quantity); err != nil {
		return err
	}
	t.undo = append(t.undo, func() {
		p := t.products[productID]
		p.CountInStock -= quantity
		p.Sold += quantity
		t.products[productID] = p
	})
	return nil
}

func (t *fakeTx) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := t.fakeStore.CreateOrder(ctx, order); err != nil {
		return err
	}
	id := order.OrderID
	t.undo = append(t.undo, func() { delete(t.orders, id) })
	return nil
}

func (t *fakeTx) UpdateOrderStatus(ctx context.Context, order *model.Order, from model.OrderStatus) error {
	t.mu.Lock()
	prev, existed := t.orders[order.OrderID]
	prev = cloneOrder(prev)
	t.mu.Unlock()

	if err := t.fakeStore.UpdateOrderStatus(ctx, order, from); err != nil {
		return err
	}
	if existed {
		t.undo = append(t.undo, func() { t.orders[prev.OrderID] = prev })
	}
	return nil
}

var _ db.UnifiedDB = (*fakeTx)(nil)

func (f *fakeStore) touch() {
	f.calls++
}

func (f *fakeStore) CreateProduct(ctx context.Context, product *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.products[product.ProductID] = *product
	return nil
}

func (f *fakeStore) GetProductByID(ctx context.Context, productID string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	p, ok := f.products[productID]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeStore) GetProductsByIDs(ctx context.Context, productIDs []string) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	var res []model.Product
	for _, id := range productIDs {
		if p, ok := f.products[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

func (f *fakeStore) DebitProductStock(ctx context.Context, productID string, quantity uint) (bool, error) {
	if f.beforeDebit != nil {
		f.beforeDebit(productID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	p, ok := f.products[productID]
	if !ok {
		return false, db.ErrProductNotFound
	}
	f.stockLog = append(f.stockLog, productID)
	if p.CountInStock < quantity {
		return false, nil
	}
	p.CountInStock -= quantity
	p.Sold += quantity
	f.products[productID] = p
	return true, nil
}

func (f *fakeStore) CreditProductStock(ctx context.Context, productID string, quantity uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	p, ok := f.products[productID]
	if !ok {
		return db.ErrProductNotFound
	}
	f.stockLog = append(f.stockLog, productID)
	// 與 chk_products_sold 相同
	if p.Sold < quantity {
		return errSoldCheckViolation
	}
	p.CountInStock += quantity
	p.Sold -= quantity
	f.products[productID] = p
	return nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	f.orders[order.OrderID] = cloneOrder(*order)
	return nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	o, ok := f.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (f *fakeStore) GetOrderByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	return f.GetOrderByID(ctx, id)
}

func (f *fakeStore) GetOrderDetailsByID(ctx context.Context, id string) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	o, ok := f.orders[id]
	if !ok {
		return nil, db.ErrOrderNotFound
	}
	o = cloneOrder(o)
	if u, ok := f.users[o.UserID]; ok {
		o.User = &u
	}
	for i := range o.OrderItems {
		if p, ok := f.products[o.OrderItems[i].ProductID]; ok {
			o.OrderItems[i].Product = &p
		}
	}
	return &o, nil
}

func (f *fakeStore) GetOrdersByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	var res []model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			res = append(res, cloneOrder(o))
		}
	}
	sortOrders(res)
	return res, nil
}

func (f *fakeStore) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	var res []model.Order
	for _, o := range f.orders {
		res = append(res, cloneOrder(o))
	}
	sortOrders(res)
	return res, nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, order *model.Order, from model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	stored, ok := f.orders[order.OrderID]
	if !ok || stored.Status != from {
		return db.ErrOrderStateChanged
	}
	stored.Status = order.Status
	stored.PaidAt = order.PaidAt
	stored.DeliveredAt = order.DeliveredAt
	stored.CancelledAt = order.CancelledAt
	stored.PaymentResult = order.PaymentResult
	f.orders[order.OrderID] = stored
	return nil
}

func (f *fakeStore) HardDeleteOrders(ctx context.Context, ids []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	var deleted []string
	for _, id := range ids {
		if _, ok := f.orders[id]; ok {
			delete(f.orders, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	f.users[user.UserID] = *user
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touch()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeStore) product(id string) model.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id]
}

func (f *fakeStore) setStock(id string, stock uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.products[id]
	p.CountInStock = stock
	f.products[id] = p
}

func (f *fakeStore) stockOps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.stockLog)
}

func (f *fakeStore) orderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func cloneOrder(o model.Order) model.Order {
	items := make([]model.OrderItem, len(o.OrderItems))
	copy(items, o.OrderItems)
	o.OrderItems = items
	return o
}

func sortOrders(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

var (
	_ db.UnifiedDB = (*fakeStore)(nil)

	errSoldCheckViolation = errors.New(`new row for relation "products" violates check constraint "chk_products_sold"`)
)

// recordPublisher 記錄發出的事件
type recordPublisher struct {
	mu     sync.Mutex
	events []event.Event
	err    error
}

func (p *recordPublisher) Publish(ctx context.Context, events ...event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

func (p *recordPublisher) types() []event.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]event.EventType, 0, len(p.events))
	for _, e := range p.events {
		res = append(res, e.Type())
	}
	return res
}

type recordDispatcher struct {
	mu   sync.Mutex
	jobs []NotificationJob
}

func (d *recordDispatcher) Dispatch(job NotificationJob) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return true
}

type fakeIdempotencyRepo struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeIdempotencyRepo() *fakeIdempotencyRepo {
	return &fakeIdempotencyRepo{keys: make(map[string]string)}
}

func (r *fakeIdempotencyRepo) Acquire(ctx context.Context, key string, ownerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[key]; ok {
		return false, nil
	}
	r.keys[key] = "pending:" + ownerID
	return true, nil
}

func (r *fakeIdempotencyRepo) Bind(ctx context.Context, key string, orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key] = orderID
	return nil
}

func (r *fakeIdempotencyRepo) Release(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
	return nil
}

func (r *fakeIdempotencyRepo) Lookup(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys[key], nil
}
