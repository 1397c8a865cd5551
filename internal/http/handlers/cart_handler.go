package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"partforge/internal/domain"
	applog "partforge/internal/log"
	"partforge/internal/services"
	"partforge/internal/validate"
)

type CartHandler struct {
	Cart    *services.CartService
	Builder *services.BuilderService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	view, err := h.Cart.View(owner(c))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Add prices a configuration into the cart: an explicit JSON body when one
// is posted, otherwise the builder's working configuration. The
// compatibility issues come back in the response but do not block:
// carting an incompatible build is allowed.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)

	cfg, ok, err := parseConfigBody(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed configuration"})
	}
	if !ok {
		cfg, err = h.Builder.Current(sid)
		if err != nil {
			return err
		}
	}

	issues, cart, err := h.Cart.SetConfiguration(owner(c), cfg)
	if errors.Is(err, services.ErrEmptyConfiguration) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "build a configuration before adding to cart",
		})
	}
	if err != nil {
		return err
	}
	if issues == nil {
		issues = []domain.CompatibilityIssue{}
	}
	applog.Info(c, "cart.add", map[string]any{"cart_id": cart.ID, "issues": len(issues)})
	return c.JSON(fiber.Map{"cart": cart, "issues": issues})
}

// parseConfigBody decodes a JSON {"config": {category: component_id}} body.
// ok=false when the request carries no JSON config at all.
func parseConfigBody(c *fiber.Ctx) (domain.Configuration, bool, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return nil, false, nil
	}
	var body struct {
		Config map[string]string `json:"config"`
	}
	if err := c.BodyParser(&body); err != nil {
		return nil, false, err
	}
	cfg := domain.Configuration{}
	for k, v := range body.Config {
		cat, ok := domain.ValidCategory(k)
		if !ok {
			return nil, false, fmt.Errorf("unknown category %q", k)
		}
		cfg[cat] = v
	}
	return cfg, true, nil
}

// AddBuild puts a saved build into the cart by reference.
func (h *CartHandler) AddBuild(c *fiber.Ctx) error {
	buildID, ok := validate.ID(c.FormValue("build_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid build id"})
	}
	cart, err := h.Cart.SetBuild(owner(c), buildID)
	switch {
	case errors.Is(err, services.ErrBuildNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "build not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	case err != nil:
		return err
	}
	return c.JSON(fiber.Map{"cart": cart})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	if err := h.Cart.Clear(owner(c)); err != nil {
		return err
	}
	applog.Info(c, "cart.remove", nil)
	return c.JSON(fiber.Map{"ok": true})
}

// Update changes the quantity; out-of-range values are clamped to [1, 10].
func (h *CartHandler) Update(c *fiber.Ctx) error {
	qty := validate.Qty(c.FormValue("quantity"))
	cart, err := h.Cart.SetQuantity(owner(c), qty)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"cart": cart})
}
