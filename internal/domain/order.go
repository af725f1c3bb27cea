package domain

// OrderStatus is the lifecycle state of an order as reported by the backend.
type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "created"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsValid checks if the order status is known.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusPendingPayment, OrderStatusPaid, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusCreated:
		return next == OrderStatusPendingPayment || next == OrderStatusPaid || next == OrderStatusCancelled
	case OrderStatusPendingPayment:
		return next == OrderStatusPaid || next == OrderStatusCancelled
	default:
		return false
	}
}

// Cancellable reports whether an abandoned visit should still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusCreated || s == OrderStatusPendingPayment
}

type OrderItem struct {
	ProductID   string   `json:"productId"`
	ProductType ItemType `json:"productType"`
	Name        string   `json:"name,omitempty"`
	UnitPrice   int64    `json:"unitPrice"`
}

type Order struct {
	ID             string      `json:"id"`
	Items          []OrderItem `json:"items"`
	SubtotalAmount int64       `json:"subtotalAmount"`
	TotalAmount    int64       `json:"totalAmount"`
	OrderStatus    OrderStatus `json:"orderStatus"`
	CouponID       *string     `json:"couponId,omitempty"`
}

// OrderLine is the creation payload entry for one selected cart line.
type OrderLine struct {
	ProductID   string   `json:"productId"`
	ProductType ItemType `json:"productType"`
}
