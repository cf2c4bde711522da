package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCart_Subtotal(t *testing.T) {
	cart := &Cart{
		Items: []CartItem{
			{ProductID: "a", Price: 100, Quantity: 3},
			{ProductID: "b", Price: 49.50, Quantity: 2},
		},
	}

	assert.Equal(t, 399.0, cart.Subtotal())
	assert.Equal(t, 5, cart.ItemCount())
}

func TestCart_Subtotal_Empty(t *testing.T) {
	cart := &Cart{}

	assert.Equal(t, 0.0, cart.Subtotal())
	assert.Equal(t, 0, cart.ItemCount())
}

func TestCartItem_MaxAllowed(t *testing.T) {
	assert.Equal(t, 10, CartItem{Stock: 10}.MaxAllowed())
	assert.Equal(t, MaxQuantity, CartItem{Stock: 0}.MaxAllowed())
}
