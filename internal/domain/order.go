package domain

import "github.com/shopspring/decimal"

// OrderStatus is the payment/fulfillment state of an order.
//
//	PENDING -> PAID -> PROCESSING -> SHIPPED -> DELIVERED
//
// CANCELED exits from PENDING; REFUNDED exits from PAID, PROCESSING or
// SHIPPED. DELIVERED, CANCELED and REFUNDED are terminal.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusPaid       OrderStatus = "PAID"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCanceled   OrderStatus = "CANCELED"
	StatusRefunded   OrderStatus = "REFUNDED"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusPaid, StatusCanceled},
	StatusPaid:       {StatusProcessing, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusRefunded},
}

// CanTransition reports whether the state machine allows moving to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled || s == StatusRefunded
}

// AtLeastPaid reports whether settlement has already been applied. Used by
// reconciliation to make redelivered settlement events a no-op.
func (s OrderStatus) AtLeastPaid() bool {
	return s != StatusPending && s != StatusCanceled
}

// Customer is the buyer contact captured at checkout.
type Customer struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// ShippingAddress is the delivery address captured at checkout. The payment
// gateway may later refine it with the address it confirmed.
type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Order is the immutable record created at checkout. Only status,
// payment_reference, gateway-refined shipping fields and updated_at change
// after creation; orders are retained forever (cancellation is a status).
type Order struct {
	ID          string                `json:"id"`
	OrderNumber string                `json:"order_number"`
	CartID      string                `json:"cart_id,omitempty"`
	Status      OrderStatus           `json:"status"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
	Customer    Customer              `json:"customer"`
	Shipping    ShippingAddress       `json:"shipping_address"`
	Snapshot    ConfigurationSnapshot `json:"configuration_snapshot"`
	PaymentRef  string                `json:"payment_reference,omitempty"`
	CreatedAt   string                `json:"created_at"`
	UpdatedAt   string                `json:"updated_at"`
}
