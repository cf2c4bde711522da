package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrCartNotFound        = errors.New("cart not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrCouponExhausted     = errors.New("coupon usage limit reached")
	ErrOrderNotCancellable = errors.New("order is in a terminal status")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, category string) ([]*domain.Product, error)
	// DeductStock atomically applies stock = max(0, stock-qty), sold += qty.
	DeductStock(ctx context.Context, id string, qty int) error
	// RestoreStock atomically applies stock += qty, sold = max(0, sold-qty).
	RestoreStock(ctx context.Context, id string, qty int) error
}

type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Create(ctx context.Context, coupon *domain.Coupon) error
	List(ctx context.Context) ([]*domain.Coupon, error)
	Deactivate(ctx context.Context, code string) error
	// IncrementUsage bumps used_count by one, conditionally on the usage
	// limit still having headroom.
	IncrementUsage(ctx context.Context, code string) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	// SetCancelled flips a cancellable order to Cancelled. The status guard
	// lives in the update filter, so of two racing cancels only one wins;
	// the loser gets ErrOrderNotCancellable.
	SetCancelled(ctx context.Context, id, reason string) (*domain.Order, error)
	SetStatus(ctx context.Context, id string, status domain.OrderStatus, trackingNumber string) (*domain.Order, error)
	SetPaid(ctx context.Context, id string, result domain.PaymentResult) (*domain.Order, error)
}
