package domain

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderConfirmed  OrderStatus = "Confirmed"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
	OrderReturned   OrderStatus = "Returned"
)

var orderStatuses = map[OrderStatus]bool{
	OrderPending:    true,
	OrderProcessing: true,
	OrderConfirmed:  true,
	OrderShipped:    true,
	OrderDelivered:  true,
	OrderCancelled:  true,
	OrderReturned:   true,
}

func (s OrderStatus) IsKnown() bool {
	return orderStatuses[s]
}

// CanCancel guards the cancel path. Admin status overrides go through
// UpdateStatus, which deliberately accepts any known status.
func (s OrderStatus) CanCancel() bool {
	return s != OrderDelivered && s != OrderCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
