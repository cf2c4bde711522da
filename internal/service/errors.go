package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_shop/internal/domain"
)

var (
	ErrCouponNotFound       = errors.New("coupon not found")
	ErrCouponInvalid        = errors.New("coupon is expired or no longer valid")
	ErrProductNotFound      = errors.New("product not found")
	ErrItemNotFound         = errors.New("item not found in cart")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrEmptyOrder           = errors.New("order must contain at least one item")
	ErrOrderNotFound        = errors.New("order not found")
	ErrForbidden            = errors.New("not allowed to access this order")
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrPricingMismatch      = errors.New("order pricing does not add up")
)

// MinPurchaseError carries the required minimum so callers can render a
// user-facing shortfall message.
type MinPurchaseError struct {
	Required float64
}

func (e *MinPurchaseError) Error() string {
	return fmt.Sprintf("minimum purchase of ₹%.2f required to use this coupon", e.Required)
}

// CancelError reports an illegal cancel against a terminal order.
type CancelError struct {
	Status domain.OrderStatus
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("Cannot cancel a %s order", strings.ToLower(string(e.Status)))
}
