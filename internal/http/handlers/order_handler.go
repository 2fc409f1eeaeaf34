package handlers

import (
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"

	"farmfresh/internal/domain"
	applog "farmfresh/internal/log"
	"farmfresh/internal/services"
	"farmfresh/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

type orderReq struct {
	OrderID       string   `json:"orderId"`
	ProductID     string   `json:"productId"`
	Quantity      *float64 `json:"quantity"`
	PickupDate    string   `json:"pickupDate"`
	Notes         string   `json:"notes"`
	PaymentMethod string   `json:"paymentMethod"`
	Status        string   `json:"status"`
	Reason        string   `json:"reason"`
}

func parseOrderReq(c *fiber.Ctx, op string) (orderReq, error) {
	var req orderReq
	if err := c.BodyParser(&req); err != nil {
		return req, badRequest(op, "Invalid request body")
	}
	return req, nil
}

// terms turns the shared order fields into a NewOrder. Missing values are
// left zero for the service to report.
func (r orderReq) terms(op string) (domain.NewOrder, error) {
	in := domain.NewOrder{
		ProductID:     strings.TrimSpace(r.ProductID),
		Notes:         r.Notes,
		PaymentMethod: domain.PaymentMethod(strings.TrimSpace(r.PaymentMethod)),
	}
	if r.Quantity != nil {
		if *r.Quantity != math.Trunc(*r.Quantity) || *r.Quantity > math.MaxInt32 {
			return in, badRequest(op, "Quantity must be a positive whole number")
		}
		in.Quantity = int(*r.Quantity)
	}
	if strings.TrimSpace(r.PickupDate) != "" {
		d, ok := validate.PickupDate(r.PickupDate)
		if !ok {
			return in, badRequest(op, "Invalid pickup date")
		}
		in.PickupDate = d
	}
	return in, nil
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	const op = "order.create"
	req, err := parseOrderReq(c, op)
	if err != nil {
		return fail(c, err)
	}
	in, err := req.terms(op)
	if err != nil {
		return fail(c, err)
	}
	in.IdempotencyKey = strings.TrimSpace(c.Get("Idempotency-Key"))

	o, err := h.Order.CreateOrder(c.UserContext(), principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	c.Status(fiber.StatusCreated)
	applog.Audit(c, "order.create", map[string]any{
		"order_id":    o.ID,
		"product_id":  o.ProductID,
		"quantity":    o.Quantity,
		"total_price": o.TotalPrice,
	})
	return render(c, fiber.StatusCreated, "Order created successfully", o, nil)
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	const op = "order.checkout"
	req, err := parseOrderReq(c, op)
	if err != nil {
		return fail(c, err)
	}
	in, err := req.terms(op)
	if err != nil {
		return fail(c, err)
	}
	lines, err := h.Order.Checkout(c.UserContext(), principal(c), in)
	if err != nil {
		return fail(c, err)
	}
	placed := 0
	for _, l := range lines {
		if l.OrderID != "" {
			placed++
		}
	}
	status := fiber.StatusCreated
	if placed == 0 {
		status = fiber.StatusConflict
	}
	c.Status(status)
	applog.Audit(c, "order.checkout", map[string]any{"lines": len(lines), "placed": placed})
	return c.JSON(fiber.Map{
		"success": placed > 0,
		"message": checkoutMessage(placed, len(lines)),
		"data":    lines,
		"count":   placed,
	})
}

func checkoutMessage(placed, total int) string {
	switch placed {
	case total:
		return "All orders placed successfully"
	case 0:
		return "No orders could be placed"
	}
	return "Some orders could not be placed"
}

func (h *OrderHandler) Customer(c *fiber.Ctx) error {
	orders, stats, err := h.Order.ListForCustomer(c.UserContext(), principal(c), c.Query("status"))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", orders, fiber.Map{"stats": stats, "count": len(orders)})
}

func (h *OrderHandler) Farmer(c *fiber.Ctx) error {
	orders, stats, err := h.Order.ListForFarmer(c.UserContext(), principal(c), c.Query("status"))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", orders, fiber.Map{"stats": stats, "count": len(orders)})
}

func (h *OrderHandler) Details(c *fiber.Ctx) error {
	o, err := h.Order.GetDetails(c.UserContext(), principal(c), c.Params("orderId"))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", o, nil)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	const op = "order.update_status"
	req, err := parseOrderReq(c, op)
	if err != nil {
		return fail(c, err)
	}
	o, err := h.Order.UpdateStatus(c.UserContext(), principal(c), req.OrderID, req.Status)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "order.status.update", map[string]any{"order_id": o.ID, "status": o.Status})
	return render(c, fiber.StatusOK, "Order status updated to "+string(o.Status), o, nil)
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	const op = "order.cancel"
	req, err := parseOrderReq(c, op)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Order.CancelOrder(c.UserContext(), principal(c), req.OrderID, req.Reason); err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": req.OrderID})
	return render(c, fiber.StatusOK, "Order cancelled successfully. Stock has been restored.", nil, nil)
}

func (h *OrderHandler) Payment(c *fiber.Ctx) error {
	const op = "order.payment"
	req, err := parseOrderReq(c, op)
	if err != nil {
		return fail(c, err)
	}
	o, err := h.Order.UpdatePaymentStatus(c.UserContext(), principal(c), req.OrderID, req.PaymentMethod)
	if err != nil {
		return fail(c, err)
	}
	applog.Audit(c, "order.payment", map[string]any{"order_id": o.ID, "payment_method": o.PaymentMethod})
	return render(c, fiber.StatusOK, "Payment status updated successfully", o, nil)
}

func (h *OrderHandler) Stats(c *fiber.Ctx) error {
	st, err := h.Order.GetStats(c.UserContext(), principal(c))
	if err != nil {
		return fail(c, err)
	}
	return render(c, fiber.StatusOK, "", nil, fiber.Map{"stats": st})
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	const op = "order.delete"
	req, err := parseOrderReq(c, op)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Order.DeleteOrder(c.UserContext(), principal(c), req.OrderID); err != nil {
		return fail(c, err)
	}
	// Deletion is not limited to the order's parties, so keep who did it.
	applog.Audit(c, "order.delete", map[string]any{"order_id": req.OrderID, "requested_by": principal(c).ID})
	return render(c, fiber.StatusOK, "Order deleted successfully", nil, nil)
}
