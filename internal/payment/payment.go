// Package payment abstracts the external payment gateway behind a small
// capability set (create intent, verify-and-parse notifications) so that
// providers are swappable without touching cart or order logic.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Metadata keys attached to every intent so asynchronous callbacks can be
// correlated back to the order without relying on the gateway reference.
const (
	MetaOrderID     = "order_id"
	MetaOrderNumber = "order_number"
)

// Settlement event types recognized by reconciliation. The hosted-checkout
// and intent flows report settlement under different names.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventIntentSucceeded   = "payment_intent.succeeded"
)

// ErrBadSignature is returned by VerifyAndParse when the notification fails
// authenticity verification. It must stay at the transport layer; business
// logic never sees an unverified payload.
var ErrBadSignature = errors.New("payment: invalid webhook signature")

// GatewayError wraps a failed gateway call. All gateway errors are
// retryable from the caller's point of view: the checkout stays PENDING and
// intent creation may be attempted again.
type GatewayError struct {
	Op     string
	Status int // HTTP status, 0 for transport failures
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("payment: %s: gateway returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("payment: %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Request describes the intent to collect payment for one order.
type Request struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
	SuccessURL    string
	CancelURL     string
}

// MinorUnits converts the amount to the smallest currency unit (cents).
func (r Request) MinorUnits() int64 {
	return r.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// Intent is the gateway's handle for a created payment. Hosted checkout
// fills RedirectURL; the elements-style flow fills ClientSecret.
type Intent struct {
	Reference    string `json:"reference"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// ShippingInfo is gateway-confirmed shipping data carried on a settlement
// notification. Reconciliation uses it to refine the order's address.
type ShippingInfo struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Notification is a verified, parsed gateway event.
type Notification struct {
	EventID   string
	Type      string
	Reference string
	Metadata  map[string]string
	Shipping  *ShippingInfo
}

// Settlement reports whether the event confirms payment.
func (n Notification) Settlement() bool {
	return n.Type == EventCheckoutCompleted || n.Type == EventIntentSucceeded
}

// Gateway is the payment provider adapter. Implementations must bound their
// network calls with the context and a client timeout, and must verify
// notification authenticity before parsing.
type Gateway interface {
	CreateIntent(ctx context.Context, req Request) (Intent, error)
	VerifyAndParse(payload []byte, sigHeader string) (Notification, error)
}
