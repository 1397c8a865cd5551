package handlers

import (
	"github.com/gofiber/fiber/v2"

	"partforge/internal/domain"
	"partforge/internal/services"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// List returns the catalog entries for one category.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	cat, ok := domain.ValidCategory(c.Params("category"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
	}
	comps, err := h.Catalog.List(cat)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"category": cat, "components": comps})
}
