package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/events"
	"github.com/fjod/go_shop/internal/notification"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/google/uuid"
)

const RoleAdmin = "admin"

// Pricing is the breakdown the checkout stage computed for the cart. Create
// re-derives the items total from the snapshot and checks the sums agree
// before trusting the rest.
type Pricing struct {
	ItemsPrice     float64 `json:"items_price"`
	ShippingPrice  float64 `json:"shipping_price"`
	TaxPrice       float64 `json:"tax_price"`
	DiscountAmount float64 `json:"discount_amount"`
	CouponCode     string  `json:"coupon_code,omitempty"`
	TotalPrice     float64 `json:"total_price"`
}

type CouponConsumer interface {
	Consume(ctx context.Context, code string) error
}

type OrderEventPublisher interface {
	Publish(event events.OrderEvent)
}

type Notifier interface {
	Send(ctx context.Context, email notification.Email) error
}

type OrderService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	coupons   CouponConsumer
	publisher OrderEventPublisher
	notifier  Notifier
}

func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository, coupons CouponConsumer, publisher OrderEventPublisher, notifier Notifier) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		coupons:   coupons,
		publisher: publisher,
		notifier:  notifier,
	}
}

// Create assembles an immutable order from the cart snapshot and decrements
// stock per item. A product that vanished between cart and checkout is
// skipped for stock purposes; the order still records its snapshot line.
func (s *OrderService) Create(ctx context.Context, userID string, items []domain.OrderItem, address domain.ShippingAddress, method domain.PaymentMethod, pricing Pricing) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !method.IsKnown() {
		return nil, ErrUnknownPaymentMethod
	}
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}
	if err := checkPricing(items, pricing); err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		PaymentMethod:   method,
		ItemsPrice:      pricing.ItemsPrice,
		ShippingPrice:   pricing.ShippingPrice,
		TaxPrice:        pricing.TaxPrice,
		DiscountAmount:  pricing.DiscountAmount,
		CouponCode:      strings.ToUpper(pricing.CouponCode),
		TotalPrice:      pricing.TotalPrice,
		Status:          domain.OrderPending,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	// Per-item atomic adjustments; a missing product must not abort the order.
	for _, item := range items {
		if err := s.products.DeductStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("stock deduct skipped for product %s on order %s: %v", item.ProductID, order.ID.Hex(), err)
		}
	}

	if order.CouponCode != "" {
		if err := s.coupons.Consume(ctx, order.CouponCode); err != nil {
			log.Printf("coupon %s usage count not incremented for order %s: %v", order.CouponCode, order.ID.Hex(), err)
		}
	}

	s.publisher.Publish(events.OrderEvent{
		Type:       events.TypeOrderCreated,
		OrderID:    order.ID.Hex(),
		UserID:     userID,
		TotalPrice: order.TotalPrice,
	})
	s.notify(userID, "Order confirmed",
		fmt.Sprintf("Your order %s for ₹%.2f has been placed.", order.OrderNumber, order.TotalPrice))

	return order, nil
}

// checkPricing re-derives the items total from the snapshot and verifies the
// caller-supplied breakdown is internally consistent. The original system
// trusted the client here; we do not.
func checkPricing(items []domain.OrderItem, pricing Pricing) error {
	var itemsTotal float64
	for _, item := range items {
		itemsTotal += item.Price * float64(item.Quantity)
	}
	if !moneyEqual(itemsTotal, pricing.ItemsPrice) {
		return ErrPricingMismatch
	}

	expectedTotal := pricing.ItemsPrice + pricing.ShippingPrice + pricing.TaxPrice - pricing.DiscountAmount
	if !moneyEqual(expectedTotal, pricing.TotalPrice) {
		return ErrPricingMismatch
	}
	if pricing.DiscountAmount < 0 || pricing.DiscountAmount > pricing.ItemsPrice {
		return ErrPricingMismatch
	}

	return nil
}

func moneyEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

// Cancel moves the order to Cancelled and restores stock, the exact inverse
// of creation's adjustment.
func (s *OrderService) Cancel(ctx context.Context, orderID, actorID, actorRole, reason string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != actorID && actorRole != RoleAdmin {
		return nil, ErrForbidden
	}
	if !order.Status.CanCancel() {
		return nil, &CancelError{Status: order.Status}
	}

	if reason == "" {
		reason = "Cancelled by user"
	}

	// The repository re-checks the status inside the update filter. Losing
	// that race here means a concurrent request already moved the order to a
	// terminal status, and the stock restore below must not run again.
	cancelled, err := s.orders.SetCancelled(ctx, orderID, reason)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotCancellable) {
			current, getErr := s.getOrder(ctx, orderID)
			if getErr != nil {
				return nil, getErr
			}
			return nil, &CancelError{Status: current.Status}
		}
		return nil, err
	}

	for _, item := range cancelled.Items {
		if err := s.products.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("stock restore skipped for product %s on order %s: %v", item.ProductID, orderID, err)
		}
	}

	s.publisher.Publish(events.OrderEvent{
		Type:       events.TypeOrderCancelled,
		OrderID:    orderID,
		UserID:     cancelled.UserID,
		TotalPrice: cancelled.TotalPrice,
	})
	s.notify(cancelled.UserID, "Order cancelled",
		fmt.Sprintf("Your order %s has been cancelled: %s", cancelled.OrderNumber, reason))

	return cancelled, nil
}

// UpdateStatus lets an admin set any known status. Arbitrary overrides are
// intentional so support can correct a mislabelled order; only the cancel
// path enforces a guard.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, trackingNumber string) (*domain.Order, error) {
	if !status.IsKnown() {
		return nil, ErrUnknownStatus
	}

	order, err := s.orders.SetStatus(ctx, orderID, status, trackingNumber)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

func (s *OrderService) MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult) (*domain.Order, error) {
	order, err := s.orders.SetPaid(ctx, orderID, result)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID, actorID, actorRole string) (*domain.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != actorID && actorRole != RoleAdmin {
		return nil, ErrForbidden
	}

	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListAll(ctx)
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// notify is fire-and-forget: a dead notification gateway must never fail or
// block the primary operation.
func (s *OrderService) notify(recipient, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, notification.Email{
			Recipient: recipient,
			Subject:   subject,
			Body:      body,
		}); err != nil {
			log.Printf("notification send failed for %s: %v", recipient, err)
		}
	}()
}
