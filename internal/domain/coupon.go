package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"` // stored uppercased, unique
	DiscountType  DiscountType       `bson:"discount_type" json:"discount_type"`
	DiscountValue float64            `bson:"discount_value" json:"discount_value"`
	MinPurchase   float64            `bson:"min_purchase" json:"min_purchase"`
	MaxDiscount   float64            `bson:"max_discount" json:"max_discount"` // 0 = uncapped
	UsageLimit    int                `bson:"usage_limit" json:"usage_limit"`   // 0 = unlimited
	UsedCount     int                `bson:"used_count" json:"used_count"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	ExpiresAt     time.Time          `bson:"expires_at" json:"expires_at"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValid is a derived predicate, not a stored flag.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.After(c.ExpiresAt) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// DiscountFor computes the discount against a subtotal. The result is clamped
// so a coupon never discounts below zero net payable, and rounded to two
// decimal places for currency presentation.
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	var discount float64
	switch c.DiscountType {
	case DiscountPercentage:
		discount = subtotal * c.DiscountValue / 100
		if c.MaxDiscount > 0 && discount > c.MaxDiscount {
			discount = c.MaxDiscount
		}
	case DiscountFixed:
		discount = c.DiscountValue
	}
	if discount > subtotal {
		discount = subtotal
	}
	return math.Round(discount*100) / 100
}
