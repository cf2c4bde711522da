package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartSut(repo *mockCartRepo, products *mockProductRepo, coupons *mockCouponApplier, c *mockCache) *CartService {
	if products == nil {
		products = &mockProductRepo{products: map[string]*domain.Product{}}
	}
	if coupons == nil {
		coupons = &mockCouponApplier{}
	}
	if c == nil {
		c = &mockCache{}
	}
	return NewCartService(repo, products, coupons, c)
}

func TestGetCart_Success(t *testing.T) {
	cart := &domain.Cart{
		Items: []domain.CartItem{
			{ProductID: "p1", Price: 100, Quantity: 5},
			{ProductID: "p2", Price: 50, Quantity: 10},
		},
		UserID:    "u1",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	mockRepo := &mockCartRepo{cart: cart}
	mockC := &mockCache{}

	sut := newCartSut(mockRepo, nil, nil, mockC)
	ret, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, ret.Items, 2)
	assert.Equal(t, 1000.0, ret.Subtotal())
	assert.Equal(t, 15, ret.ItemCount())

	require.Eventually(t, func() bool {
		return mockC.getCart() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not set in cache")
}

func TestGetCart_CacheHit(t *testing.T) {
	cart := &domain.Cart{
		Items:  []domain.CartItem{{ProductID: "p1", Quantity: 3}},
		UserID: "u1",
	}
	mockRepo := &mockCartRepo{cart: nil} // repo should NOT be called
	mockC := &mockCache{cart: cart}

	sut := newCartSut(mockRepo, nil, nil, mockC)
	ret, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, ret.Items, 1)
}

func TestGetCart_CartNotFound_ReturnsEmptyCart(t *testing.T) {
	mockRepo := &mockCartRepo{}
	mockC := &mockCache{}

	sut := newCartSut(mockRepo, nil, nil, mockC)
	ret, err := sut.GetCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", ret.UserID)
	assert.Empty(t, ret.Items)
}

func TestGetCart_RepoError(t *testing.T) {
	mockRepo := &mockCartRepo{err: fmt.Errorf("database error")}
	mockC := &mockCache{}

	sut := newCartSut(mockRepo, nil, nil, mockC)
	ret, err := sut.GetCart(context.Background(), "u1")
	require.ErrorContains(t, err, "database error")
	assert.Nil(t, ret)
}

func TestAddItem_SnapshotsProduct(t *testing.T) {
	products := &mockProductRepo{products: map[string]*domain.Product{
		"p1": {Name: "Widget", Brand: "Acme", Image: "widget.jpg", Price: 99.5, Stock: 10},
	}}
	mockRepo := &mockCartRepo{}
	mockC := &mockCache{cart: &domain.Cart{}}

	sut := newCartSut(mockRepo, products, nil, mockC)
	cart, err := sut.AddItem(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	item := cart.Items[0]
	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, "Acme", item.Brand)
	assert.Equal(t, 99.5, item.Price)
	assert.Equal(t, 10, item.Stock)
	assert.Equal(t, 2, item.Quantity)

	// Cache invalidated after mutation
	require.Eventually(t, func() bool {
		return mockC.getCart() == nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestAddItem_ClampsToStock(t *testing.T) {
	products := &mockProductRepo{products: map[string]*domain.Product{
		"p1": {Name: "Widget", Price: 100, Stock: 5},
	}}
	sut := newCartSut(&mockCartRepo{}, products, nil, nil)

	cart, err := sut.AddItem(context.Background(), "u1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	// Adding 4 more would exceed stock 5; quantity clamps to stock
	cart, err = sut.AddItem(context.Background(), "u1", "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.LessOrEqual(t, cart.Items[0].Quantity, cart.Items[0].Stock)
}

func TestAddItem_UnknownStockCapsAt99(t *testing.T) {
	products := &mockProductRepo{products: map[string]*domain.Product{
		"p1": {Name: "Widget", Price: 100, Stock: 0},
	}}
	sut := newCartSut(&mockCartRepo{}, products, nil, nil)

	cart, err := sut.AddItem(context.Background(), "u1", "p1", 150)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxQuantity, cart.Items[0].Quantity)
}

func TestAddItem_ProductNotFound(t *testing.T) {
	sut := newCartSut(&mockCartRepo{}, nil, nil, nil)

	_, err := sut.AddItem(context.Background(), "u1", "missing", 1)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateQuantity_RejectsBelowOne(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items:  []domain.CartItem{{ProductID: "p1", Quantity: 3, Stock: 10}},
	}}
	sut := newCartSut(mockRepo, nil, nil, nil)

	_, err := sut.UpdateQuantity(context.Background(), "u1", "p1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	// cart unchanged
	assert.Equal(t, 3, mockRepo.getCart().Items[0].Quantity)
}

func TestUpdateQuantity_ClampsToItemStock(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items:  []domain.CartItem{{ProductID: "p1", Quantity: 3, Stock: 10}},
	}}
	sut := newCartSut(mockRepo, nil, nil, nil)

	cart, err := sut.UpdateQuantity(context.Background(), "u1", "p1", 25)
	require.NoError(t, err)
	assert.Equal(t, 10, cart.Items[0].Quantity)
}

func TestUpdateQuantity_ItemNotFound(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{UserID: "u1"}}
	sut := newCartSut(mockRepo, nil, nil, nil)

	_, err := sut.UpdateQuantity(context.Background(), "u1", "missing", 2)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItem_Idempotent(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items: []domain.CartItem{
			{ProductID: "p1", Quantity: 5},
			{ProductID: "p2", Quantity: 10},
		},
	}}
	sut := newCartSut(mockRepo, nil, nil, nil)

	cart, err := sut.RemoveItem(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)

	// absence is not an error
	cart, err = sut.RemoveItem(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestClear_ResetsCoupon(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID:         "u1",
		Items:          []domain.CartItem{{ProductID: "p1", Quantity: 5}},
		CouponCode:     "WELCOME10",
		DiscountAmount: 120,
	}}
	sut := newCartSut(mockRepo, nil, nil, nil)

	cart, err := sut.Clear(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Empty(t, cart.CouponCode)
	assert.Zero(t, cart.DiscountAmount)
}

func TestSync_SumsQuantities(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items:  []domain.CartItem{{ProductID: "p1", Price: 100, Quantity: 3, Stock: 4}},
	}}
	sut := newCartSut(mockRepo, nil, nil, nil)

	local := []domain.CartItem{
		{ProductID: "p1", Price: 100, Quantity: 2},
		{ProductID: "p9", Name: "Local thing", Price: 10, Quantity: 1},
	}
	cart, err := sut.Sync(context.Background(), "u1", local)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	// quantities sum, deliberately without clamping against stock
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, "Local thing", cart.Items[1].Name)
}

func TestSync_SkipsZeroQuantityLines(t *testing.T) {
	mockRepo := &mockCartRepo{}
	sut := newCartSut(mockRepo, nil, nil, nil)

	cart, err := sut.Sync(context.Background(), "u1", []domain.CartItem{{ProductID: "p1", Quantity: 0}})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestApplyCoupon_PersistsCodeAndDiscount(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items:  []domain.CartItem{{ProductID: "p1", Price: 600, Quantity: 2}},
	}}
	coupons := &mockCouponApplier{result: &CouponResult{
		Code:     "WELCOME10",
		Discount: 120,
		Message:  "You save ₹120.00",
	}}
	sut := newCartSut(mockRepo, nil, coupons, nil)

	cart, result, err := sut.ApplyCoupon(context.Background(), "u1", "welcome10")
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", cart.CouponCode)
	assert.Equal(t, 120.0, cart.DiscountAmount)
	assert.Equal(t, "You save ₹120.00", result.Message)
}

func TestApplyCoupon_ValidatorErrorLeavesCartAlone(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items:  []domain.CartItem{{ProductID: "p1", Price: 100, Quantity: 1}},
	}}
	coupons := &mockCouponApplier{err: &MinPurchaseError{Required: 500}}
	sut := newCartSut(mockRepo, nil, coupons, nil)

	_, _, err := sut.ApplyCoupon(context.Background(), "u1", "WELCOME10")

	var minErr *MinPurchaseError
	require.ErrorAs(t, err, &minErr)
	assert.Equal(t, 500.0, minErr.Required)
	assert.Empty(t, mockRepo.getCart().CouponCode)
}

func TestRemoveCoupon(t *testing.T) {
	mockRepo := &mockCartRepo{cart: &domain.Cart{
		UserID:         "u1",
		Items:          []domain.CartItem{{ProductID: "p1", Price: 100, Quantity: 1}},
		CouponCode:     "WELCOME10",
		DiscountAmount: 10,
	}}
	sut := newCartSut(mockRepo, nil, nil, nil)

	cart, err := sut.RemoveCoupon(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.CouponCode)
	assert.Zero(t, cart.DiscountAmount)
	assert.Len(t, cart.Items, 1)
}
