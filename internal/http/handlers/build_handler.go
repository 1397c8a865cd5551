package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"partforge/internal/domain"
	applog "partforge/internal/log"
	"partforge/internal/services"
	"partforge/internal/validate"
)

type BuildHandler struct {
	Builds  *services.BuildService
	Builder *services.BuilderService
}

// Save snapshots the working configuration as a named build. Pricing is
// fixed at save time.
func (h *BuildHandler) Save(c *fiber.Ctx) error {
	sid := ensureSID(c)

	name, ok := validate.BuildName(c.FormValue("name"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "build name must be 3-100 characters"})
	}
	description, ok := validate.Description(c.FormValue("description"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "description"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description too long"})
	}
	public := c.FormValue("public") == "true" || c.FormValue("public") == "on"

	cfg, err := h.Builder.Current(sid)
	if err != nil {
		return err
	}
	if len(cfg) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nothing selected to save"})
	}

	build, err := h.Builds.Save(requester(c), name, description, public, cfg)
	if err != nil {
		return err
	}
	applog.Audit(c, "build.save", map[string]any{"build_id": build.ID, "public": public})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"build": build})
}

// List returns the requester's builds plus any public ones, alongside the
// shop's prebuilt tiers.
func (h *BuildHandler) List(c *fiber.Ctx) error {
	builds, err := h.Builds.List(requester(c))
	if err != nil {
		return err
	}
	prebuilts, err := h.Builds.Prebuilts()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"builds": builds, "prebuilts": prebuilts})
}

func (h *BuildHandler) View(c *fiber.Ctx) error {
	build, err := h.Builds.Get(c.Params("id"), requester(c))
	switch {
	case errors.Is(err, services.ErrBuildNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "build not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	case err != nil:
		return err
	}
	return c.JSON(fiber.Map{"build": build})
}

func (h *BuildHandler) Delete(c *fiber.Ctx) error {
	err := h.Builds.Delete(c.Params("id"), requester(c))
	switch {
	case errors.Is(err, services.ErrBuildNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "build not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	case err != nil:
		return err
	}
	applog.Audit(c, "build.delete", map[string]any{"build_id": c.Params("id")})
	return c.JSON(fiber.Map{"ok": true})
}

// Load copies a saved build into the working configuration so it can be
// tweaked before carting.
func (h *BuildHandler) Load(c *fiber.Ctx) error {
	cfg, issues, err := h.Builds.LoadConfig(c.Params("id"), requester(c))
	switch {
	case errors.Is(err, services.ErrBuildNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "build not found"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not allowed"})
	case err != nil:
		return err
	}
	if err := h.Builder.Load(ensureSID(c), cfg); err != nil {
		return err
	}
	if issues == nil {
		issues = []domain.CompatibilityIssue{}
	}
	return c.JSON(fiber.Map{"config": cfg, "issues": issues})
}
