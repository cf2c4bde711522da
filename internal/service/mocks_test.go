package service

import (
	"context"
	"sync"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/events"
	"github.com/fjod/go_shop/internal/notification"
	"github.com/fjod/go_shop/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCartRepo struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCartRepo) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	return m.cart, nil
}

func (m *mockCartRepo) UpsertCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cart = c
	return nil
}

func (m *mockCartRepo) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cart = nil
	return nil
}

func (m *mockCartRepo) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockProductRepo struct {
	m        sync.Mutex
	products map[string]*domain.Product
	err      error
}

func (m *mockProductRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepo) ListProducts(context.Context, string) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) DeductStock(_ context.Context, id string, qty int) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock -= qty
	if p.Stock < 0 {
		p.Stock = 0
	}
	p.Sold += qty
	return nil
}

func (m *mockProductRepo) RestoreStock(_ context.Context, id string, qty int) error {
	m.m.Lock()
	defer m.m.Unlock()
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Stock += qty
	p.Sold -= qty
	if p.Sold < 0 {
		p.Sold = 0
	}
	return nil
}

type mockCache struct {
	m    sync.RWMutex
	cart *domain.Cart
	err  error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockCouponApplier struct {
	result *CouponResult
	err    error
}

func (m *mockCouponApplier) Apply(context.Context, string, float64) (*CouponResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockOrderRepo struct {
	m      sync.Mutex
	orders map[string]*domain.Order
	err    error
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]*domain.Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	o.ID = primitive.NewObjectID()
	m.orders[o.ID.Hex()] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, m.err
}

func (m *mockOrderRepo) ListAll(context.Context) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, m.err
}

func (m *mockOrderRepo) SetCancelled(_ context.Context, id, reason string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	// Same conditional-write semantics as the Mongo filter.
	if !o.Status.CanCancel() {
		return nil, repository.ErrOrderNotCancellable
	}
	o.Status = domain.OrderCancelled
	o.CancelReason = reason
	return o, nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, id string, status domain.OrderStatus, tracking string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	if status == domain.OrderDelivered {
		o.IsDelivered = true
	}
	if tracking != "" {
		o.TrackingNumber = tracking
	}
	return o, nil
}

func (m *mockOrderRepo) SetPaid(_ context.Context, id string, result domain.PaymentResult) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.IsPaid = true
	o.PaymentResult = result
	return o, nil
}

type mockCouponConsumer struct {
	m     sync.Mutex
	calls []string
	err   error
}

func (m *mockCouponConsumer) Consume(_ context.Context, code string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls = append(m.calls, code)
	return m.err
}

type mockPublisher struct {
	m      sync.Mutex
	events []events.OrderEvent
}

func (m *mockPublisher) Publish(event events.OrderEvent) {
	m.m.Lock()
	defer m.m.Unlock()
	m.events = append(m.events, event)
}

func (m *mockPublisher) published() []events.OrderEvent {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]events.OrderEvent(nil), m.events...)
}

type mockNotifier struct {
	m      sync.Mutex
	emails []notification.Email
	err    error
}

func (m *mockNotifier) Send(_ context.Context, email notification.Email) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.emails = append(m.emails, email)
	return m.err
}

func (m *mockNotifier) sent() []notification.Email {
	m.m.Lock()
	defer m.m.Unlock()
	return append([]notification.Email(nil), m.emails...)
}
