package handlers

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"

	"partforge/internal/domain"
	applog "partforge/internal/log"
	"partforge/internal/repos"
	"partforge/internal/services"
	"partforge/internal/validate"
)

// FulfillmentHandler drives the back-office side of the order lifecycle.
type FulfillmentHandler struct {
	Checkout *services.CheckoutService
	Orders   *repos.OrderRepo
}

// RequireAdminToken gates fulfillment routes behind a shared secret. An
// empty configured token disables the routes entirely.
func RequireAdminToken(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get("X-Admin-Token")
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			applog.Security(c, "admin.token.fail", nil)
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		}
		return c.Next()
	}
}

func (h *FulfillmentHandler) List(c *fiber.Ctx) error {
	orders, err := h.Orders.ListLatest(50)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// UpdateStatus applies one lifecycle transition. Illegal jumps come back
// as 409 so the operator sees the current state instead of clobbering it.
func (h *FulfillmentHandler) UpdateStatus(c *fiber.Ctx) error {
	orderID, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	var err error
	status := c.FormValue("status")
	switch domain.OrderStatus(status) {
	case domain.StatusProcessing:
		err = h.Checkout.MarkProcessing(orderID)
	case domain.StatusShipped:
		err = h.Checkout.MarkShipped(orderID)
	case domain.StatusDelivered:
		err = h.Checkout.MarkDelivered(orderID)
	case domain.StatusCanceled:
		err = h.Checkout.Cancel(orderID)
	case domain.StatusRefunded:
		err = h.Checkout.Refund(orderID)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown status " + status})
	}

	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order is not in a state that allows " + status})
	case err != nil:
		return err
	}

	applog.Audit(c, "order.status", map[string]any{"order_id": orderID, "status": status})
	return c.JSON(fiber.Map{"ok": true, "status": status})
}
