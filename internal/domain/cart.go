package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxQuantity caps a line's quantity when the product's stock is unknown.
const MaxQuantity = 99

type Cart struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         string             `bson:"user_id" json:"user_id"`
	Items          []CartItem         `bson:"items" json:"items"`
	CouponCode     string             `bson:"coupon_code,omitempty" json:"coupon_code,omitempty"`
	DiscountAmount float64            `bson:"discount_amount" json:"discount_amount"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// CartItem snapshots the product at the time it was added. Later product
// mutations do not rewrite existing lines.
type CartItem struct {
	ProductID string    `bson:"product_id" json:"product_id"`
	Name      string    `bson:"name" json:"name"`
	Price     float64   `bson:"price" json:"price"`
	Image     string    `bson:"image" json:"image"`
	Brand     string    `bson:"brand" json:"brand"`
	Stock     int       `bson:"stock" json:"stock"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// MaxAllowed is the quantity ceiling for this line: the stock recorded at the
// last mutation, or MaxQuantity when the stock was unknown.
func (i CartItem) MaxAllowed() int {
	if i.Stock > 0 {
		return i.Stock
	}
	return MaxQuantity
}

// Subtotal is computed on read, never stored.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) FindItem(productID string) (int, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i, true
		}
	}
	return -1, false
}
