package handlers

import (
	"github.com/gofiber/fiber/v2"

	"farmfresh/internal/services"
	"farmfresh/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Params("id"))
	if !ok {
		return fail(c, badRequest("product.availability", "Invalid product id"))
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", avail, nil)
}
