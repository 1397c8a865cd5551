package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "partforge/internal/log"
	"partforge/internal/payment"
	"partforge/internal/services"
)

// SignatureHeader carries the gateway's HMAC signature on webhook deliveries.
const SignatureHeader = "Gateway-Signature"

type WebhookHandler struct {
	Gateway   payment.Gateway
	Reconcile *services.ReconcileService
}

// Handle receives gateway notifications. Authenticity fails closed with a
// 4xx so the gateway retries; business no-ops (unmatched order, duplicate
// delivery, unknown event type) are acknowledged with 200 so it stops.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	n, err := h.Gateway.VerifyAndParse(c.Body(), c.Get(SignatureHeader))
	if errors.Is(err, payment.ErrBadSignature) {
		applog.Security(c, "webhook.signature.fail", nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}
	if err != nil {
		applog.Error(c, "webhook.parse.fail", err, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	if err := h.Reconcile.Reconcile(c.Context(), n); err != nil {
		if errors.Is(err, services.ErrConflict) {
			// Let the gateway redeliver; the conflict resolves once the
			// racing transition lands.
			applog.Error(c, "webhook.reconcile.conflict", err, map[string]any{"event": n.EventID})
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "retry"})
		}
		applog.Error(c, "webhook.reconcile.fail", err, map[string]any{"event": n.EventID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal"})
	}

	return c.JSON(fiber.Map{"status": "success"})
}
