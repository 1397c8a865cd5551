package handlers

import (
	"github.com/gofiber/fiber/v2"

	"partforge/internal/domain"
	applog "partforge/internal/log"
	"partforge/internal/services"
	"partforge/internal/validate"
)

type BuilderHandler struct {
	Builder *services.BuilderService
	Builds  *services.BuildService
}

// Select sets (or clears) one category slot in the working configuration.
func (h *BuilderHandler) Select(c *fiber.Ctx) error {
	sid := ensureSID(c)

	cat, ok := domain.ValidCategory(c.FormValue("category"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "category"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
	}
	componentID := c.FormValue("component_id")
	if componentID != "" {
		if _, ok := validate.ID(componentID); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "component_id"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid component id"})
		}
	}

	cfg, err := h.Builder.Select(sid, cat, componentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"config": cfg, "missing": cfg.Missing()})
}

// Evaluate prices the working configuration and reports compatibility
// issues. Issues are advisory; the response never blocks further steps.
func (h *BuilderHandler) Evaluate(c *fiber.Ctx) error {
	issues, total, err := h.Builder.Evaluate(ensureSID(c))
	if err != nil {
		return err
	}
	if issues == nil {
		issues = []domain.CompatibilityIssue{}
	}
	return c.JSON(fiber.Map{"issues": issues, "total_price": total})
}

// Estimate reports projected performance for the working configuration. A
// selection without a scored CPU and GPU is not an error, just not ready.
func (h *BuilderHandler) Estimate(c *fiber.Ctx) error {
	summary, ok, err := h.Builder.Estimate(ensureSID(c))
	if err != nil {
		return err
	}
	if !ok {
		return c.JSON(fiber.Map{"ready": false})
	}
	return c.JSON(fiber.Map{"ready": true, "performance": summary})
}

func (h *BuilderHandler) Current(c *fiber.Ctx) error {
	cfg, err := h.Builder.Current(ensureSID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"config": cfg, "missing": cfg.Missing()})
}

func (h *BuilderHandler) Reset(c *fiber.Ctx) error {
	if err := h.Builder.Reset(ensureSID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}
