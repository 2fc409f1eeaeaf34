package handlers

import (
	"math"

	"farmfresh/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartReq struct {
	ItemID   string   `json:"itemId"`
	Quantity *float64 `json:"quantity"`
}

func (h *CartHandler) body(c *fiber.Ctx, op string) (cartReq, error) {
	var req cartReq
	if err := c.BodyParser(&req); err != nil {
		return req, badRequest(op, "Invalid request body")
	}
	return req, nil
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	req, err := h.body(c, "cart.add")
	if err != nil {
		return fail(c, err)
	}
	cart, err := h.Cart.Add(c.UserContext(), principal(c), req.ItemID)
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "Added to cart", cart, nil)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	req, err := h.body(c, "cart.remove")
	if err != nil {
		return fail(c, err)
	}
	cart, err := h.Cart.Remove(c.UserContext(), principal(c), req.ItemID)
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "Removed from cart", cart, nil)
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	cart, err := h.Cart.Get(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", cart, nil)
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	req, err := h.body(c, "cart.update")
	if err != nil {
		return fail(c, err)
	}
	if req.Quantity == nil || *req.Quantity != math.Trunc(*req.Quantity) {
		return fail(c, badRequest("cart.update", "Valid item ID and quantity required"))
	}
	cart, err := h.Cart.SetQuantity(c.UserContext(), principal(c), req.ItemID, int(*req.Quantity))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "Cart updated", cart, nil)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), principal(c)); err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "Cart cleared", nil, nil)
}
