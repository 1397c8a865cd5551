package services

import (
	"context"
	"database/sql"
	"fmt"

	"partforge/internal/domain"
	applog "partforge/internal/log"
	"partforge/internal/payment"
	"partforge/internal/repos"
)

// ReconcileService applies gateway notifications to orders exactly once.
// Both delivery paths (the asynchronous webhook and the synchronous success
// redirect) converge here, so a settlement observed twice, or on both paths,
// still transitions the order and clears the cart a single time.
type ReconcileService struct {
	Orders *repos.OrderRepo
	Carts  *repos.CartRepo
}

func NewReconcileService(orders *repos.OrderRepo, carts *repos.CartRepo) *ReconcileService {
	return &ReconcileService{Orders: orders, Carts: carts}
}

// Reconcile handles one verified notification. Events that cannot be matched
// to an order are logged and dropped without error: the gateway must receive
// a success acknowledgment either way, or it will retry forever. Unknown
// event types are a forward-compatible no-op.
func (s *ReconcileService) Reconcile(ctx context.Context, n payment.Notification) error {
	if !n.Settlement() {
		applog.Info(nil, "reconcile.skip", map[string]any{"event_id": n.EventID, "type": n.Type})
		return nil
	}

	order, ok, err := s.resolve(n)
	if err != nil {
		return err
	}
	if !ok {
		applog.Warn(nil, "reconcile.unmatched", map[string]any{
			"event_id": n.EventID, "reference": n.Reference,
		})
		return nil
	}

	return s.settle(ctx, order, n)
}

// SettleByReference is the synchronous success-redirect path. It funnels
// into the same settlement logic as the webhook.
func (s *ReconcileService) SettleByReference(ctx context.Context, reference string) (domain.Order, error) {
	order, err := s.Orders.GetByPaymentRef(reference)
	if err == sql.ErrNoRows {
		return domain.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.settle(ctx, order, payment.Notification{
		EventID:   "redirect-" + reference,
		Type:      payment.EventCheckoutCompleted,
		Reference: reference,
	}); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(order.ID)
}

// resolve finds the order for a notification: first by the gateway-assigned
// reference, then by the correlation metadata we attached at intent time.
func (s *ReconcileService) resolve(n payment.Notification) (domain.Order, bool, error) {
	if n.Reference != "" {
		order, err := s.Orders.GetByPaymentRef(n.Reference)
		if err == nil {
			return order, true, nil
		}
		if err != sql.ErrNoRows {
			return domain.Order{}, false, err
		}
	}
	if id := n.Metadata[payment.MetaOrderID]; id != "" {
		order, err := s.Orders.Get(id)
		if err == nil {
			return order, true, nil
		}
		if err != sql.ErrNoRows {
			return domain.Order{}, false, err
		}
	}
	return domain.Order{}, false, nil
}

func (s *ReconcileService) settle(_ context.Context, order domain.Order, n payment.Notification) error {
	// Redelivery tolerance: a settlement for an already-settled order is a
	// no-op, and so is one for a canceled order (the money side of that
	// conflict is an operator concern, not a state regression).
	if order.Status.AtLeastPaid() || order.Status == domain.StatusCanceled {
		return nil
	}

	// Dedupe on the gateway event id and transition the order in one
	// transaction: a duplicate delivery is a no-op, and a delivery that
	// fails the status guard leaves no event row behind to block a retry.
	applied, duplicate, err := s.Orders.SettleOnce(
		n.EventID, order.ID, n.Type, domain.StatusPending, domain.StatusPaid)
	if err != nil {
		return err
	}
	if duplicate {
		return nil
	}
	if !applied {
		// Lost the race. If the winner also moved it to PAID we are done;
		// anything else is a genuine conflict for the caller to retry.
		current, err := s.Orders.Get(order.ID)
		if err != nil {
			return err
		}
		if current.Status.AtLeastPaid() {
			return nil
		}
		return fmt.Errorf("%w: order %s moved to %s during settlement", ErrConflict, order.ID, current.Status)
	}

	applog.Audit(nil, "order.paid", map[string]any{
		"order_number": order.OrderNumber, "event_id": n.EventID,
	})

	if n.Shipping != nil {
		s.enrichShipping(order, n.Shipping)
	}

	if order.CartID != "" {
		if err := s.Carts.Clear(order.CartID); err != nil {
			// The order is PAID; a failed cart clear is recoverable noise.
			applog.Warn(nil, "reconcile.cart_clear", map[string]any{
				"cart_id": order.CartID, "err": err.Error(),
			})
		}
	}
	return nil
}

// enrichShipping overlays gateway-confirmed shipping data onto the order.
// Best effort: enrichment failures never fail the settlement.
func (s *ReconcileService) enrichShipping(order domain.Order, info *payment.ShippingInfo) {
	customer := order.Customer
	shipping := order.Shipping

	if info.Name != "" {
		customer.FullName = info.Name
	}
	if info.Line1 != "" {
		shipping = domain.ShippingAddress{
			Line1:      info.Line1,
			Line2:      info.Line2,
			City:       info.City,
			State:      info.State,
			PostalCode: info.PostalCode,
			Country:    info.Country,
		}
	}

	if err := s.Orders.UpdateShipping(order.ID, customer, shipping); err != nil {
		applog.Warn(nil, "reconcile.enrich", map[string]any{
			"order_id": order.ID, "err": err.Error(),
		})
	}
}
