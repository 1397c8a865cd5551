package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"partforge/internal/domain"
	applog "partforge/internal/log"
	"partforge/internal/payment"
	"partforge/internal/services"
	"partforge/internal/validate"
)

type OrderHandler struct {
	Cart      *services.CartService
	Checkout  *services.CheckoutService
	Reconcile *services.ReconcileService
}

// Place is the checkout submission: it validates customer and shipping
// input, enforces the checkout-eligibility boundary (all eight component
// categories present) and creates a PENDING order.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	own := owner(c)

	customer, shipping, ok := h.parseCheckoutForm(c)
	if !ok {
		return nil // parseCheckoutForm already wrote the response
	}

	if err := h.Checkout.CheckEligibility(own); err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCart):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "your cart is empty"})
		case errors.Is(err, services.ErrIncompleteConfiguration):
			applog.Security(c, "checkout.incomplete", map[string]any{"detail": err.Error()})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return err
		}
	}

	order, err := h.Checkout.Checkout(own, customer, shipping)
	if errors.Is(err, services.ErrEmptyCart) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "your cart is empty"})
	}
	if err != nil {
		return err
	}

	applog.Audit(c, "order.place", map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalAmount.StringFixed(2),
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
		"total_amount": order.TotalAmount,
	})
}

// Pay creates (or re-creates) a payment intent for a pending order. Gateway
// failures are retryable; the order stays PENDING.
func (h *OrderHandler) Pay(c *fiber.Ctx) error {
	orderID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	intent, err := h.Checkout.CreatePaymentIntent(c.Context(), orderID)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	case errors.Is(err, services.ErrNotPayable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order is not awaiting payment"})
	case err != nil:
		var gerr *payment.GatewayError
		if errors.As(err, &gerr) {
			applog.Error(c, "payment.intent.fail", err, map[string]any{"order_id": orderID})
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "payment service unavailable, please try again",
			})
		}
		return err
	}

	applog.Audit(c, "payment.intent", map[string]any{"order_id": orderID, "reference": intent.Reference})
	return c.JSON(intent)
}

// Success is the synchronous redirect after hosted checkout. It converges
// with the webhook path: whichever arrives first settles the order.
func (h *OrderHandler) Success(c *fiber.Ctx) error {
	ref := c.Query("reference")
	if ref == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing payment reference"})
	}

	order, err := h.Reconcile.SettleByReference(c.Context(), ref)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "settlement in progress, retry shortly"})
	case err != nil:
		return err
	}

	applog.Audit(c, "payment.success", map[string]any{"order_number": order.OrderNumber})
	return c.JSON(fiber.Map{"order": order})
}

// Cancel is the gateway's cancel redirect: nothing settles, the order stays
// PENDING and payment can be retried.
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	applog.Info(c, "payment.cancel", nil)
	return c.JSON(fiber.Map{"message": "payment was canceled; your order has not been placed"})
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	orderID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	order, err := h.Checkout.Get(orderID)
	if errors.Is(err, services.ErrOrderNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err != nil {
		applog.Error(c, "order.load", err, map[string]any{"order_id": orderID})
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) parseCheckoutForm(c *fiber.Ctx) (domain.Customer, domain.ShippingAddress, bool) {
	fail := func(field string) (domain.Customer, domain.ShippingAddress, bool) {
		applog.Security(c, "validation.fail", map[string]any{"field": field})
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
		return domain.Customer{}, domain.ShippingAddress{}, false
	}

	fullName, ok := validate.FullName(c.FormValue("full_name"))
	if !ok {
		return fail("full_name")
	}
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return fail("email")
	}
	phone, ok := validate.Phone(c.FormValue("phone"))
	if !ok {
		return fail("phone")
	}
	line1, ok := validate.AddressLine(c.FormValue("address_line1"), true)
	if !ok {
		return fail("address_line1")
	}
	line2, ok := validate.AddressLine(c.FormValue("address_line2"), false)
	if !ok {
		return fail("address_line2")
	}
	city, ok := validate.City(c.FormValue("city"))
	if !ok {
		return fail("city")
	}
	state, ok := validate.State(c.FormValue("state"))
	if !ok {
		return fail("state")
	}
	postal, ok := validate.PostalCode(c.FormValue("postal_code"))
	if !ok {
		return fail("postal_code")
	}
	country, ok := validate.Country(c.FormValue("country"))
	if !ok {
		return fail("country")
	}

	return domain.Customer{FullName: fullName, Email: email, Phone: phone},
		domain.ShippingAddress{
			Line1: line1, Line2: line2, City: city, State: state,
			PostalCode: postal, Country: country,
		}, true
}
