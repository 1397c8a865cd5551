package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"partforge/internal/domain"
	"partforge/internal/payment"
	"partforge/internal/repos"
)

const (
	orderNumberPrefix   = "ORD-"
	orderNumberLen      = 8
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberRetries  = 5
)

// CheckoutService turns carts into orders and drives payment and fulfillment
// status transitions.
type CheckoutService struct {
	Carts   *repos.CartRepo
	Orders  *repos.OrderRepo
	Builds  *repos.BuildRepo
	Gateway payment.Gateway

	Currency   string
	SuccessURL string
	CancelURL  string
}

func NewCheckoutService(carts *repos.CartRepo, orders *repos.OrderRepo, builds *repos.BuildRepo,
	gw payment.Gateway, currency, successURL, cancelURL string) *CheckoutService {
	return &CheckoutService{
		Carts: carts, Orders: orders, Builds: builds, Gateway: gw,
		Currency: currency, SuccessURL: successURL, CancelURL: cancelURL,
	}
}

// Checkout snapshots the owner's cart into a new PENDING order. The cart is
// deliberately not cleared here: it survives until payment settles, so a
// retried or abandoned checkout does not lose the build.
func (s *CheckoutService) Checkout(owner domain.Owner, customer domain.Customer, shipping domain.ShippingAddress) (domain.Order, error) {
	cart, err := s.Carts.GetOrCreate(owner)
	if err != nil {
		return domain.Order{}, err
	}

	qty := cart.Quantity
	if qty < 1 {
		qty = 1
	}
	total := cart.TotalPrice.Mul(decimal.NewFromInt(int64(qty)))
	if !total.IsPositive() {
		return domain.Order{}, ErrEmptyCart
	}

	snap, err := s.resolveSnapshot(cart)
	if err != nil {
		return domain.Order{}, err
	}

	number, err := s.newOrderNumber()
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		OrderNumber: number,
		CartID:      cart.ID,
		Status:      domain.StatusPending,
		TotalAmount: total,
		Customer:    customer,
		Shipping:    shipping,
		Snapshot:    snap,
	}
	if err := s.Orders.Create(order); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(order.ID)
}

// CheckEligibility enforces the checkout-entry boundary: the cart's
// configuration must fill every required category. Compatibility issues, by
// contrast, never block here.
func (s *CheckoutService) CheckEligibility(owner domain.Owner) error {
	cart, err := s.Carts.GetOrCreate(owner)
	if err != nil {
		return err
	}
	if cart.Empty() {
		return ErrEmptyCart
	}
	snap, err := s.resolveSnapshot(cart)
	if err != nil {
		return err
	}
	if missing := snap.Config.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrIncompleteConfiguration, missing)
	}
	return nil
}

// resolveSnapshot returns the cart's own snapshot, or derives one from the
// referenced saved build using the cart's price captured at set time. Orders
// always copy the snapshot; later cart mutation never reaches them.
func (s *CheckoutService) resolveSnapshot(cart domain.Cart) (domain.ConfigurationSnapshot, error) {
	if cart.Snapshot != nil {
		return domain.ConfigurationSnapshot{
			Config:     cart.Snapshot.Config.Clone(),
			TotalPrice: cart.Snapshot.TotalPrice,
			TakenAt:    cart.Snapshot.TakenAt,
		}, nil
	}
	if cart.BuildID != "" {
		build, err := s.Builds.Get(cart.BuildID)
		if err == sql.ErrNoRows {
			return domain.ConfigurationSnapshot{}, ErrBuildNotFound
		}
		if err != nil {
			return domain.ConfigurationSnapshot{}, err
		}
		return domain.ConfigurationSnapshot{
			Config:     build.Config.Clone(),
			TotalPrice: cart.TotalPrice,
			TakenAt:    time.Now().UTC(),
		}, nil
	}
	return domain.ConfigurationSnapshot{}, ErrEmptyCart
}

// newOrderNumber draws 8 crypto-random characters from a 36-symbol alphabet
// and verifies uniqueness against existing orders before accepting.
func (s *CheckoutService) newOrderNumber() (string, error) {
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		buf := make([]byte, orderNumberLen)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for i, b := range buf {
			buf[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
		}
		number := orderNumberPrefix + string(buf)

		exists, err := s.Orders.NumberExists(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique order number after %d attempts", orderNumberRetries)
}

// CreatePaymentIntent asks the gateway for a payment handle for a PENDING
// order and stores the returned reference. Calling it again for the same
// pending order creates a fresh intent and overwrites the reference; the
// orphaned intent is simply never settled. Gateway failures are retryable:
// the order stays PENDING.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, orderID string) (payment.Intent, error) {
	order, err := s.Orders.Get(orderID)
	if err == sql.ErrNoRows {
		return payment.Intent{}, ErrOrderNotFound
	}
	if err != nil {
		return payment.Intent{}, err
	}
	if order.Status != domain.StatusPending {
		return payment.Intent{}, ErrNotPayable
	}

	intent, err := s.Gateway.CreateIntent(ctx, payment.Request{
		Amount:        order.TotalAmount,
		Currency:      s.Currency,
		CustomerEmail: order.Customer.Email,
		Metadata: map[string]string{
			payment.MetaOrderID:     order.ID,
			payment.MetaOrderNumber: order.OrderNumber,
		},
		SuccessURL: s.SuccessURL,
		CancelURL:  s.CancelURL,
	})
	if err != nil {
		return payment.Intent{}, err
	}

	if err := s.Orders.SetPaymentRef(order.ID, intent.Reference); err != nil {
		return payment.Intent{}, err
	}
	return intent, nil
}

func (s *CheckoutService) Get(orderID string) (domain.Order, error) {
	order, err := s.Orders.Get(orderID)
	if err == sql.ErrNoRows {
		return domain.Order{}, ErrOrderNotFound
	}
	return order, err
}

// Cancel aborts an order before settlement.
func (s *CheckoutService) Cancel(orderID string) error {
	return s.transition(orderID, domain.StatusPending, domain.StatusCanceled)
}

// Fulfillment transitions, driven externally (warehouse, carrier).

func (s *CheckoutService) MarkProcessing(orderID string) error {
	return s.transition(orderID, domain.StatusPaid, domain.StatusProcessing)
}

func (s *CheckoutService) MarkShipped(orderID string) error {
	return s.transition(orderID, domain.StatusProcessing, domain.StatusShipped)
}

func (s *CheckoutService) MarkDelivered(orderID string) error {
	return s.transition(orderID, domain.StatusShipped, domain.StatusDelivered)
}

// Refund moves a settled order to REFUNDED from whichever fulfillment stage
// it is in.
func (s *CheckoutService) Refund(orderID string) error {
	order, err := s.Orders.Get(orderID)
	if err == sql.ErrNoRows {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if !order.Status.CanTransition(domain.StatusRefunded) {
		return fmt.Errorf("%w: cannot refund order in status %s", ErrConflict, order.Status)
	}
	return s.transition(orderID, order.Status, domain.StatusRefunded)
}

func (s *CheckoutService) transition(orderID string, from, to domain.OrderStatus) error {
	ok, err := s.Orders.CASStatus(orderID, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: order %s is no longer %s", ErrConflict, orderID, from)
	}
	return nil
}
